// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ndeftext

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables that force debug logging.
var debugEnv = []string{"NDEFTEXT_DEBUG", "DEBUG"}

// LogOptions configures NewLogger.
type LogOptions struct {
	// SessionDir is where the session log file is created. Empty means the
	// current directory.
	SessionDir string
	// Debug enables debug level regardless of the environment.
	Debug bool
	// Development selects the console encoder and development stack traces.
	Development bool
	// SessionLog also writes every entry to ndeftext_YYYYMMDD_HHMMSS.log.
	SessionLog bool
}

// NewLogger builds a zap logger from opts. It returns the session log path,
// which is empty unless opts.SessionLog is set.
func NewLogger(opts LogOptions) (*zap.Logger, string, error) {
	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug || debugFromEnv(os.Getenv) {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var sessionPath string
	if opts.SessionLog {
		sessionPath = sessionLogName(opts.SessionDir, time.Now())
		cfg.OutputPaths = append(cfg.OutputPaths, sessionPath)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build logger: %w", err)
	}
	if sessionPath != "" {
		logSessionHeader(logger)
	}
	return logger, sessionPath, nil
}

func debugFromEnv(getenv func(string) string) bool {
	for _, key := range debugEnv {
		if getenv(key) != "" {
			return true
		}
	}
	return false
}

func sessionLogName(dir string, now time.Time) string {
	name := fmt.Sprintf("ndeftext_%s.log", now.Format("20060102_150405"))
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func logSessionHeader(logger *zap.Logger) {
	fields := []zap.Field{
		zap.Int("pid", os.Getpid()),
		zap.String("os", runtime.GOOS+"/"+runtime.GOARCH),
		zap.String("go", runtime.Version()),
		zap.String("cmdline", strings.Join(os.Args, " ")),
	}
	if exe, err := os.Executable(); err == nil {
		fields = append(fields, zap.String("executable", exe))
	}
	logger.Info("session started", fields...)
}
