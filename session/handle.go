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
	"context"

	"github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
)

const (
	opConnect = "connect"
	opRead    = "read"
	opWrite   = "write"
	opFormat  = "format"
	opClose   = "close"
)

// scopedTag wraps a Tag for the duration of one event. It connects on the
// first I/O call and refuses all calls once released.
type scopedTag struct {
	tag       ndeftext.Tag
	uid       string
	connected bool
	released  bool
}

func newScopedTag(tag ndeftext.Tag) *scopedTag {
	return &scopedTag{tag: tag, uid: tag.UID()}
}

func (h *scopedTag) ensureConnected(ctx context.Context) error {
	if h.released {
		return ndeftext.NewTagIOError(opConnect, h.uid, ndeftext.ErrTagReleased)
	}
	if h.connected {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return ndeftext.NewTagIOError(opConnect, h.uid, err)
	}
	if err := h.tag.Connect(ctx); err != nil {
		return ndeftext.NewTagIOError(opConnect, h.uid, err)
	}
	h.connected = true
	return nil
}

func (h *scopedTag) read(ctx context.Context) (*ndef.Message, error) {
	if err := h.ensureConnected(ctx); err != nil {
		return nil, err
	}
	msg, err := h.tag.ReadMessage(ctx)
	if err != nil {
		return nil, ndeftext.NewTagIOError(opRead, h.uid, err)
	}
	return msg, nil
}

func (h *scopedTag) write(ctx context.Context, msg *ndef.Message) error {
	if err := h.ensureConnected(ctx); err != nil {
		return err
	}
	if err := h.tag.WriteMessage(ctx, msg); err != nil {
		return ndeftext.NewTagIOError(opWrite, h.uid, err)
	}
	return nil
}

func (h *scopedTag) formatAndWrite(ctx context.Context, msg *ndef.Message) error {
	if err := h.ensureConnected(ctx); err != nil {
		return err
	}
	if err := h.tag.FormatAndWrite(ctx, msg); err != nil {
		return ndeftext.NewTagIOError(opFormat, h.uid, err)
	}
	return nil
}

// release closes the tag if it was connected. Calling it again is a no-op.
func (h *scopedTag) release() error {
	if h.released {
		return nil
	}
	h.released = true
	if !h.connected {
		return nil
	}
	if err := h.tag.Close(); err != nil {
		return ndeftext.NewTagIOError(opClose, h.uid, err)
	}
	return nil
}
