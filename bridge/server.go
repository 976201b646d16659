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

// Package bridge connects a session controller to phones and UI clients over
// WebSocket. A phone relays tag detections and performs writes on request;
// any client may queue a write and receives read and write results.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/syncutil"
	"github.com/ZaparooProject/go-ndeftext/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// peer is one WebSocket connection.
type peer struct {
	conn         *websocket.Conn
	closed       chan struct{}
	id           string
	writeTimeout time.Duration
	writeMu      syncutil.Mutex
	closeOnce    sync.Once
}

func (p *peer) send(env Envelope) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.writeTimeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	}
	return p.conn.WriteJSON(env)
}

func (p *peer) markClosed() {
	p.closeOnce.Do(func() { close(p.closed) })
}

func (p *peer) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// pendingOp is a tag op waiting for the peer it was sent to.
type pendingOp struct {
	results chan TagOpResult
	peerID  string
}

// Server relays tag events between peers and a session controller.
type Server struct {
	config     *Config
	controller *session.Controller
	logger     *zap.Logger
	peers      map[string]*peer
	pending    map[string]pendingOp
	events     chan *remoteTag
	mu         syncutil.RWMutex
}

// NewServer creates a bridge for controller. It installs the controller's
// result callbacks so results are broadcast to every peer.
func NewServer(controller *session.Controller, config *Config, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	queue := config.EventQueueSize
	if queue <= 0 {
		queue = 1
	}
	s := &Server{
		config:     config,
		controller: controller,
		logger:     logger,
		peers:      make(map[string]*peer),
		pending:    make(map[string]pendingOp),
		events:     make(chan *remoteTag, queue),
	}

	controller.SetOnReadResult(s.broadcastRead)
	controller.SetOnWriteResult(s.broadcastWrite)
	controller.SetOnWriteQueued(s.broadcastQueued)
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint and /status.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	mux.HandleFunc("/status", s.handleStatus)
	return withLogging(s.logger, mux)
}

// Run feeds queued tag detections to the controller one at a time until ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tag := <-s.events:
			s.controller.OnTagDetected(ctx, tag)
		}
	}
}

// PeerCount returns the number of connected peers.
func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("bridge: ws upgrade", zap.Error(err))
		return
	}

	p := &peer{
		id:           uuid.NewString(),
		conn:         conn,
		closed:       make(chan struct{}),
		writeTimeout: s.config.WriteTimeout,
	}
	conn.SetReadLimit(MaxReadSize)
	s.addPeer(p)
	s.logger.Info("peer connected", zap.String("peer", p.id), zap.String("remote", r.RemoteAddr))

	defer func() {
		s.removePeer(p)
		p.markClosed()
		_ = conn.Close()
		s.logger.Info("peer disconnected", zap.String("peer", p.id))
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.sendError(p, "", ErrCodeParse, "invalid message format")
			continue
		}

		switch env.Type {
		case MessageTypeQueueWrite:
			s.handleQueueWrite(p, env)
		case MessageTypeCancelWrite:
			s.handleCancelWrite(p, env)
		case MessageTypeTagDetected:
			s.handleTagDetected(p, env)
		case MessageTypeTagOpResult:
			s.handleTagOpResult(p, env)
		default:
			s.sendError(p, env.ID, ErrCodeUnknownType, "unknown message type: "+env.Type)
		}
	}
}

func (s *Server) handleQueueWrite(p *peer, env Envelope) {
	var req QueueWriteRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		s.sendError(p, env.ID, ErrCodeInvalidPayload, "invalid queueWrite payload")
		return
	}

	err := s.controller.QueueWrite(strings.TrimSpace(req.Text))
	switch {
	case err == nil:
	case errors.Is(err, ndeftext.ErrEmptyInput):
		s.sendError(p, env.ID, ErrCodeEmptyInput, "nothing to write")
	case errors.Is(err, ndeftext.ErrLanguageTooLong):
		s.sendError(p, env.ID, ErrCodeLanguage, err.Error())
	case ndeftext.IsCodecError(err):
		s.sendError(p, env.ID, ErrCodeEncode, err.Error())
	default:
		s.sendError(p, env.ID, ErrCodeInternal, err.Error())
	}
}

func (s *Server) handleCancelWrite(p *peer, env Envelope) {
	if !s.controller.CancelPendingWrite() {
		s.sendError(p, env.ID, ErrCodeNoPendingWrite, "no write is pending")
		return
	}
	s.broadcast(MessageTypeWriteCancelled, nil)
}

func (s *Server) handleTagDetected(p *peer, env Envelope) {
	var data TagDetectedData
	if err := json.Unmarshal(env.Payload, &data); err != nil {
		s.sendError(p, env.ID, ErrCodeInvalidPayload, "invalid tagDetected payload")
		return
	}
	if data.UID == "" {
		s.sendError(p, env.ID, ErrCodeInvalidPayload, "tag UID is required")
		return
	}

	tag := &remoteTag{server: s, peer: p, data: data}
	select {
	case s.events <- tag:
		s.logger.Debug("tag detected",
			zap.String("peer", p.id),
			zap.String("uid", data.UID),
			zap.String("technology", data.Technology))
	default:
		s.logger.Warn("tag event dropped, queue full", zap.String("uid", data.UID))
		s.sendError(p, env.ID, ErrCodeBusy, "tag event queue full")
	}
}

func (s *Server) handleTagOpResult(p *peer, env Envelope) {
	var res TagOpResult
	if err := json.Unmarshal(env.Payload, &res); err != nil {
		s.sendError(p, env.ID, ErrCodeInvalidPayload, "invalid tagOpResult payload")
		return
	}

	s.mu.RLock()
	op, ok := s.pending[res.RequestID]
	s.mu.RUnlock()
	switch {
	case !ok:
		s.logger.Debug("late or unknown tag op result", zap.String("request", res.RequestID))
		return
	case op.peerID != p.id:
		s.logger.Warn("tag op result from wrong peer",
			zap.String("request", res.RequestID),
			zap.String("peer", p.id))
		return
	}
	select {
	case op.results <- res:
	default:
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := StatusData{
		State: s.controller.State().String(),
		Peers: s.PeerCount(),
	}
	if text, ok := s.controller.PendingText(); ok {
		status.PendingText = text
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Debug("bridge: status write", zap.Error(err))
	}
}

func (s *Server) addPeer(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p.id] = p
}

func (s *Server) removePeer(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, p.id)
}

func (s *Server) addPending(requestID, peerID string) <-chan TagOpResult {
	ch := make(chan TagOpResult, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[requestID] = pendingOp{results: ch, peerID: peerID}
	return ch
}

func (s *Server) removePending(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, requestID)
}

func (s *Server) sendError(p *peer, id, code, message string) {
	env, err := newEnvelope(MessageTypeError, id, ErrorData{Code: code, Message: message})
	if err != nil {
		return
	}
	if err := p.send(env); err != nil {
		s.logger.Debug("bridge: ws write", zap.String("peer", p.id), zap.Error(err))
	}
}

func (s *Server) broadcast(msgType string, payload any) {
	env, err := newEnvelope(msgType, "", payload)
	if err != nil {
		s.logger.Error("bridge: encode broadcast", zap.String("type", msgType), zap.Error(err))
		return
	}

	s.mu.RLock()
	peers := make([]*peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.RUnlock()

	for _, p := range peers {
		if err := p.send(env); err != nil {
			s.logger.Debug("bridge: ws write", zap.String("peer", p.id), zap.Error(err))
		}
	}
}

func (s *Server) broadcastRead(r session.ReadResult) {
	s.broadcast(MessageTypeReadResult, ReadResultData{
		UID:     r.UID,
		Texts:   r.Texts,
		Skipped: len(r.Skipped),
		Error:   session.ErrorDetail(r.Err),
		TagGone: ndeftext.IsTagGone(r.Err),
	})
}

func (s *Server) broadcastWrite(r session.WriteResult) {
	s.broadcast(MessageTypeWriteResult, WriteResultData{
		UID:    r.UID,
		Text:   r.Text,
		Status:  r.Status.String(),
		Error:   session.ErrorDetail(r.Err),
		TagGone: ndeftext.IsTagGone(r.Err),
	})
}

func (s *Server) broadcastQueued(text string) {
	s.broadcast(MessageTypeWriteQueued, WriteQueuedData{Text: text})
}

func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("bridge: http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
