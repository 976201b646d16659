// go-ndeftext
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ndeftext.
//
// go-ndeftext is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ndeftext is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ndeftext; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command ndefbridge serves the text tag session over WebSocket so a phone can
// relay tag detections and UI clients can queue text to write.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/bridge"
	"github.com/ZaparooProject/go-ndeftext/session"
	"go.uber.org/zap"
)

type config struct {
	addr         string
	path         string
	writeText    string
	language     string
	mdnsName     string
	tagTimeout   time.Duration
	tagOpTimeout time.Duration
	debug        bool
	logFile      bool
	mdns         bool
}

// Package-level flag variables
var (
	flagAddr         string
	flagPath         string
	flagWriteText    string
	flagLanguage     string
	flagMDNSName     string
	flagTagTimeout   time.Duration
	flagTagOpTimeout time.Duration
	flagDebug        bool
	flagLogFile      bool
	flagMDNS         bool
)

func init() {
	defaults := bridge.DefaultConfig()
	flag.StringVar(&flagAddr, "addr", defaults.Addr, "Listen address")
	flag.StringVar(&flagPath, "path", defaults.Path, "WebSocket endpoint path")
	flag.StringVar(&flagWriteText, "write", "", "Text to queue for the first tag presented")
	flag.StringVar(&flagLanguage, "lang", "", "Language tag for written text (default from locale)")
	flag.StringVar(&flagMDNSName, "mdns-name", defaults.MDNS.Instance, "mDNS instance name")
	flag.DurationVar(&flagTagTimeout, "timeout", session.DefaultConfig().TagTimeout, "Per-tag I/O timeout")
	flag.DurationVar(&flagTagOpTimeout, "op-timeout", defaults.TagOpTimeout, "How long a phone has to answer a write (at most -timeout)")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.BoolVar(&flagLogFile, "log-file", false, "Also write a session log file in the current directory")
	flag.BoolVar(&flagMDNS, "mdns", false, "Advertise the bridge over mDNS")
}

func parseConfig() *config {
	return &config{
		addr:         flagAddr,
		path:         flagPath,
		writeText:    flagWriteText,
		language:     flagLanguage,
		mdnsName:     flagMDNSName,
		tagTimeout:   flagTagTimeout,
		tagOpTimeout: flagTagOpTimeout,
		debug:        flagDebug,
		logFile:      flagLogFile,
		mdns:         flagMDNS,
	}
}

func (c *config) sessionConfig() (*session.Config, error) {
	sc := session.DefaultConfig()
	if c.language != "" {
		sc.Language = c.language
	}
	sc.TagTimeout = c.tagTimeout
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	return sc, nil
}

func (c *config) bridgeConfig() (*bridge.Config, error) {
	bc := bridge.DefaultConfig()
	bc.Addr = c.addr
	bc.Path = c.path
	bc.TagOpTimeout = c.tagOpTimeout
	bc.MDNS.Enabled = c.mdns
	bc.MDNS.Instance = c.mdnsName
	if err := bc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bridge config: %w", err)
	}
	if err := bc.CheckTagTimeout(c.tagTimeout); err != nil {
		return nil, fmt.Errorf("invalid bridge config: %w", err)
	}
	return bc, nil
}

func run(ctx context.Context, cfg *config, logger *zap.Logger) error {
	sc, err := cfg.sessionConfig()
	if err != nil {
		return err
	}
	bc, err := cfg.bridgeConfig()
	if err != nil {
		return err
	}

	controller := session.NewController(sc, session.WithLogger(logger))
	srv := bridge.NewServer(controller, bc, logger.Named("bridge"))

	if cfg.writeText != "" {
		if err := controller.QueueWrite(cfg.writeText); err != nil {
			return fmt.Errorf("failed to queue write: %w", err)
		}
	}

	listener, err := net.Listen("tcp", bc.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", bc.Addr, err)
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", bc.Path),
		zap.String("language", sc.Language))

	if bc.MDNS.Enabled {
		shutdown, err := bridge.Advertise(bc.MDNS, listenerPort(listener), bc.Path, logger)
		if err != nil {
			logger.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer shutdown()
		}
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- httpServer.Serve(listener) }()
	go func() { _ = srv.Run(ctx) }()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return ctx.Err()
}

func listenerPort(l net.Listener) int {
	_, port, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	logger, logPath, err := ndeftext.NewLogger(ndeftext.LogOptions{
		Debug:       cfg.debug,
		Development: true,
		SessionLog:  cfg.logFile,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	if logPath != "" {
		_, _ = fmt.Printf("Session log: %s\n", logPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("shutting down")
			return 0
		}
		logger.Error("bridge failed", zap.Error(err))
		return 1
	}
	return 0
}
