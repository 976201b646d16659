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

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

// mdnsTXT returns the TXT records advertised alongside the service.
func mdnsTXT(cfg MDNSConfig, path string) []string {
	txt := []string{
		"version=1",
		"protocol=websocket",
		"path=" + path,
	}
	return append(txt, cfg.TXT...)
}

// Advertise registers the bridge as an mDNS service so phones can find it.
// The returned function withdraws the advertisement.
func Advertise(cfg MDNSConfig, port int, path string, logger *zap.Logger) (func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	server, err := zeroconf.Register(cfg.Instance, cfg.Service, cfg.Domain, port, mdnsTXT(cfg, path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logger.Info("mDNS service registered",
		zap.String("instance", cfg.Instance),
		zap.String("service", cfg.Service),
		zap.Int("port", port))

	return func() {
		server.Shutdown()
		logger.Debug("mDNS service withdrawn", zap.String("instance", cfg.Instance))
	}, nil
}
