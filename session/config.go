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

package session

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
	"go.uber.org/zap"
)

// Config holds session controller options
type Config struct {
	// Language tags every queued text record. Empty means ndef.DefaultLanguage().
	Language string
	// TagTimeout bounds each tag event's I/O. Zero disables the bound.
	TagTimeout time.Duration
}

// DefaultConfig returns the default session configuration
func DefaultConfig() *Config {
	return &Config{
		Language:   ndef.DefaultLanguage(),
		TagTimeout: 3 * time.Second,
	}
}

// Validate checks the configuration for values the controller cannot use.
func (c *Config) Validate() error {
	if len(c.Language) > ndef.MaxLanguageLength {
		return fmt.Errorf("language %q: %w", c.Language, ndef.ErrLanguageTooLong)
	}
	if c.TagTimeout < 0 {
		return fmt.Errorf("negative tag timeout %v", c.TagTimeout)
	}
	return nil
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for session events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}
