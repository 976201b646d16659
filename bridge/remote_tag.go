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
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errPeerRejected wraps failures reported by the peer itself.
var errPeerRejected = errors.New("peer rejected tag operation")

// remoteTag is a tag held by a connected peer. Reads are served from the NDEF
// bytes sent with the detection; writes are relayed to the peer as tagOp
// requests and wait for its tagOpResult.
type remoteTag struct {
	server *Server
	peer   *peer
	data   TagDetectedData
}

func (t *remoteTag) UID() string        { return t.data.UID }
func (t *remoteTag) HasNDEF() bool      { return t.data.HasNDEF }
func (t *remoteTag) IsFormatable() bool { return t.data.Formatable }

func (t *remoteTag) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.peer.isClosed() {
		return ndeftext.ErrPeerGone
	}
	return nil
}

func (t *remoteTag) ReadMessage(context.Context) (*ndef.Message, error) {
	msg := &ndef.Message{}
	if len(t.data.NDEF) == 0 {
		return msg, nil
	}
	if _, err := msg.Unmarshal(t.data.NDEF); err != nil {
		return nil, fmt.Errorf("parse NDEF from peer: %w", err)
	}
	t.inspect(msg)
	return msg, nil
}

// inspect logs what the lenient parser let through from the peer and, at
// debug level, go-ndef's view of the same bytes.
func (t *remoteTag) inspect(msg *ndef.Message) {
	logger := t.server.logger.With(zap.String("peer", t.peer.id), zap.String("uid", t.data.UID))
	if !msg.Records[0].MB() || !msg.Records[msg.Len()-1].ME() {
		logger.Warn("peer NDEF message has incomplete MB/ME framing")
	}

	ce := logger.Check(zap.DebugLevel, "peer NDEF message")
	if ce == nil {
		return
	}
	lib, err := msg.ToGoNDEF()
	if err != nil {
		ce.Write(zap.NamedError("gondef", err))
		return
	}
	ce.Write(zap.String("records", lib.Inspect()))
}

func (t *remoteTag) WriteMessage(ctx context.Context, msg *ndef.Message) error {
	return t.request(ctx, TagOpWrite, msg)
}

func (t *remoteTag) FormatAndWrite(ctx context.Context, msg *ndef.Message) error {
	return t.request(ctx, TagOpFormatAndWrite, msg)
}

// Close is a no-op: the peer owns the physical connection.
func (*remoteTag) Close() error { return nil }

func (t *remoteTag) request(ctx context.Context, op string, msg *ndef.Message) error {
	data, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal NDEF: %w", err)
	}

	if timeout := t.server.config.TagOpTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := TagOpRequest{RequestID: uuid.NewString(), Op: op, NDEF: data}
	results := t.server.addPending(req.RequestID, t.peer.id)
	defer t.server.removePending(req.RequestID)

	env, err := newEnvelope(MessageTypeTagOp, "", req)
	if err != nil {
		return fmt.Errorf("encode tag op: %w", err)
	}
	if err := t.peer.send(env); err != nil {
		return fmt.Errorf("%w: %w", ndeftext.ErrPeerGone, err)
	}
	t.server.logger.Debug("tag op sent",
		zap.String("peer", t.peer.id),
		zap.String("request", req.RequestID),
		zap.String("op", op))

	select {
	case res := <-results:
		if !res.Success {
			return fmt.Errorf("%w: %s", errPeerRejected, res.Error)
		}
		return nil
	case <-t.peer.closed:
		return ndeftext.ErrPeerGone
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s not answered", ndeftext.ErrTagTimeout, op)
		}
		return ctx.Err()
	}
}

var _ ndeftext.Tag = (*remoteTag)(nil)
