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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero op timeout", mutate: func(c *Config) { c.TagOpTimeout = 0 }, wantErr: true},
		{name: "negative op timeout", mutate: func(c *Config) { c.TagOpTimeout = -time.Second }, wantErr: true},
		{name: "negative write timeout", mutate: func(c *Config) { c.WriteTimeout = -1 }, wantErr: true},
		{name: "negative queue", mutate: func(c *Config) { c.EventQueueSize = -1 }, wantErr: true},
		{name: "relative path", mutate: func(c *Config) { c.Path = "ws" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				require.Error(t, cfg.Validate())
				return
			}
			require.NoError(t, cfg.Validate())
		})
	}
}

func TestConfigCheckTagTimeout(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	require.NoError(t, cfg.CheckTagTimeout(3*time.Second), "defaults must fit the default tag timeout")
	require.NoError(t, cfg.CheckTagTimeout(cfg.TagOpTimeout))
	require.NoError(t, cfg.CheckTagTimeout(0), "unbounded tag events accept any op timeout")
	assert.Error(t, cfg.CheckTagTimeout(time.Second))
}
