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

package bridge

import (
	"fmt"
	"strings"
	"time"
)

// MDNSConfig controls service advertisement on the local network.
type MDNSConfig struct {
	Instance string
	Service  string
	Domain   string
	TXT      []string
	Enabled  bool
}

// Config holds bridge server options
type Config struct {
	Addr string
	Path string
	MDNS MDNSConfig
	// TagOpTimeout bounds how long a peer has to answer a tag operation. Keep
	// it below the session's TagTimeout or the session deadline fires first.
	TagOpTimeout time.Duration
	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration
	// EventQueueSize is how many tag detections may wait for the controller.
	EventQueueSize int
}

// DefaultConfig returns the default bridge configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8765",
		Path:           "/ws",
		TagOpTimeout:   2 * time.Second,
		WriteTimeout:   2 * time.Second,
		EventQueueSize: 8,
		MDNS: MDNSConfig{
			Instance: "ndeftext",
			Service:  "_ndeftext._tcp",
			Domain:   "local.",
		},
	}
}

// MaxReadSize caps a single inbound WebSocket message. A Type 2 tag's whole
// user memory fits many times over.
const MaxReadSize = 64 << 10

// Validate checks the configuration for values the server cannot use.
func (c *Config) Validate() error {
	switch {
	case !strings.HasPrefix(c.Path, "/"):
		return fmt.Errorf("websocket path %q must start with /", c.Path)
	case c.TagOpTimeout <= 0:
		return fmt.Errorf("tag op timeout must be positive, got %v", c.TagOpTimeout)
	case c.WriteTimeout < 0:
		return fmt.Errorf("negative write timeout %v", c.WriteTimeout)
	case c.EventQueueSize < 0:
		return fmt.Errorf("negative event queue size %d", c.EventQueueSize)
	}
	return nil
}

// CheckTagTimeout reports an error when a tag op could never time out on its
// own because the session's per-event deadline is shorter.
func (c *Config) CheckTagTimeout(tagTimeout time.Duration) error {
	if tagTimeout > 0 && c.TagOpTimeout > tagTimeout {
		return fmt.Errorf("tag op timeout %v exceeds tag timeout %v", c.TagOpTimeout, tagTimeout)
	}
	return nil
}
