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

// Package session decides, for each tag presented to the reader, whether to
// read the tag's text records or to write the one pending text message.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/syncutil"
	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
	"go.uber.org/zap"
)

// pendingWrite is the single queued message and the text it was built from.
type pendingWrite struct {
	msg  *ndef.Message
	text string
}

// Controller owns the pending write and handles tag events.
//
// QueueWrite may be called from any goroutine. OnTagDetected calls are
// serialised; the read and write result callbacks run on the goroutine that
// delivered the event and must not call OnTagDetected themselves.
type Controller struct {
	config        *Config
	logger        *zap.Logger
	pending       *pendingWrite
	onReadResult  func(ReadResult)
	onWriteResult func(WriteResult)
	onWriteQueued func(text string)
	stateMutex    syncutil.RWMutex
	eventMutex    syncutil.Mutex
}

// NewController creates an idle controller. A nil config uses DefaultConfig.
func NewController(config *Config, opts ...Option) *Controller {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.Language == "" {
		cfg.Language = ndef.DefaultLanguage()
	}
	c := &Controller{
		config: &cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns a copy of the controller's configuration.
func (c *Controller) Config() Config {
	return *c.config
}

// State returns StateArmedToWrite while a write is pending.
func (c *Controller) State() State {
	if c.HasPendingWrite() {
		return StateArmedToWrite
	}
	return StateIdle
}

// HasPendingWrite reports whether the next tag event will write.
func (c *Controller) HasPendingWrite() bool {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.pending != nil
}

// PendingText returns the queued text, if any.
func (c *Controller) PendingText() (string, bool) {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.text, true
}

// SetOnReadResult sets the callback for completed read attempts.
func (c *Controller) SetOnReadResult(callback func(ReadResult)) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	c.onReadResult = callback
}

// SetOnWriteResult sets the callback for consumed pending writes.
func (c *Controller) SetOnWriteResult(callback func(WriteResult)) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	c.onWriteResult = callback
}

// SetOnWriteQueued sets the callback fired after a successful QueueWrite. It
// receives the text that call queued, even if the write has since been
// replaced or consumed.
func (c *Controller) SetOnWriteQueued(callback func(text string)) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	c.onWriteQueued = callback
}

// QueueWrite encodes text and arms the controller to write it to the next tag.
// A newer request replaces an older one. On error nothing changes.
func (c *Controller) QueueWrite(text string) error {
	msg, err := ndef.EncodeTextRecord(text, c.config.Language)
	if err != nil {
		c.logger.Debug("write rejected", zap.Error(err))
		return fmt.Errorf("queue write: %w", err)
	}

	c.stateMutex.Lock()
	replaced := c.pending != nil
	c.pending = &pendingWrite{msg: msg, text: text}
	onQueued := c.onWriteQueued
	c.stateMutex.Unlock()

	c.logger.Info("write queued",
		zap.Int("bytes", len(text)),
		zap.String("language", c.config.Language),
		zap.Bool("replaced", replaced))

	if onQueued != nil {
		c.safeCall("OnWriteQueued", func() { onQueued(text) })
	}
	return nil
}

// CancelPendingWrite discards the pending write. It reports whether one existed.
func (c *Controller) CancelPendingWrite() bool {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	had := c.pending != nil
	c.pending = nil
	if had {
		c.logger.Info("pending write cancelled")
	}
	return had
}

// takePending removes and returns the pending write.
func (c *Controller) takePending() *pendingWrite {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	p := c.pending
	c.pending = nil
	return p
}

// OnTagDetected handles one tag presentation. With no pending write the tag
// is read; otherwise the pending write is consumed and written, whatever the
// result. The tag is closed before this returns.
//
// A nil tag is not a presentation: it returns OutcomeNoData, fires no
// callback and leaves any pending write armed for the next real tag.
func (c *Controller) OnTagDetected(ctx context.Context, tag ndeftext.Tag) Outcome {
	c.eventMutex.Lock()
	defer c.eventMutex.Unlock()

	if tag == nil {
		c.logger.Warn("tag event without a tag")
		return Outcome{Kind: OutcomeNoData}
	}

	pending := c.takePending()

	ioCtx := ctx
	if c.config.TagTimeout > 0 {
		var cancel context.CancelFunc
		ioCtx, cancel = context.WithTimeout(ctx, c.config.TagTimeout)
		defer cancel()
	}

	handle := newScopedTag(tag)
	var outcome Outcome
	if pending == nil {
		outcome = c.readTag(ioCtx, tag, handle)
	} else {
		outcome = c.writeTag(ioCtx, tag, handle, pending.msg)
	}
	outcome.UID = handle.uid

	if err := handle.release(); err != nil {
		c.logger.Warn("tag close failed", zap.String("uid", handle.uid), zap.Error(err))
	}

	c.logOutcome(outcome)
	if pending == nil {
		c.notifyRead(outcome)
	} else {
		c.notifyWrite(outcome, pending.text)
	}
	return outcome
}

func (c *Controller) readTag(ctx context.Context, tag ndeftext.Tag, h *scopedTag) Outcome {
	if !tag.HasNDEF() {
		return Outcome{Kind: OutcomeNoData}
	}

	msg, err := h.read(ctx)
	if err != nil {
		return Outcome{Kind: OutcomeTagIOError, Err: err}
	}
	if msg.Len() == 0 {
		return Outcome{Kind: OutcomeNoData}
	}

	texts := []string{}
	var skipped []error
	for rec, err := range ndef.DecodeMessage(msg) {
		if err != nil {
			c.logger.Debug("skipping malformed text record", zap.String("uid", h.uid), zap.Error(err))
			skipped = append(skipped, err)
			continue
		}
		texts = append(texts, rec.Text)
	}
	return Outcome{Kind: OutcomeRead, Texts: texts, Skipped: skipped}
}

func (*Controller) writeTag(ctx context.Context, tag ndeftext.Tag, h *scopedTag, msg *ndef.Message) Outcome {
	switch {
	case tag.HasNDEF():
		if err := h.write(ctx, msg); err != nil {
			return Outcome{Kind: OutcomeTagIOError, Err: err, write: true}
		}
		return Outcome{Kind: OutcomeWritten, write: true}
	case tag.IsFormatable():
		if err := h.formatAndWrite(ctx, msg); err != nil {
			return Outcome{Kind: OutcomeTagIOError, Err: err, write: true}
		}
		return Outcome{Kind: OutcomeFormattedAndWritten, write: true}
	default:
		return Outcome{Kind: OutcomeIncompatibleTag, Err: ndeftext.ErrIncompatibleTag, write: true}
	}
}

func (c *Controller) logOutcome(o Outcome) {
	fields := []zap.Field{
		zap.String("uid", o.UID),
		zap.Stringer("outcome", o.Kind),
	}
	switch o.Kind {
	case OutcomeTagIOError:
		c.logger.Warn("tag event failed", append(fields, zap.Error(o.Err), zap.Bool("timeout", ndeftext.IsTimeout(o.Err)))...)
	case OutcomeIncompatibleTag:
		c.logger.Warn("tag event failed", fields...)
	case OutcomeRead:
		c.logger.Info("tag event", append(fields, zap.Int("texts", len(o.Texts)), zap.Int("skipped", len(o.Skipped)))...)
	default:
		c.logger.Info("tag event", fields...)
	}
}

func (c *Controller) notifyRead(o Outcome) {
	c.stateMutex.RLock()
	cb := c.onReadResult
	c.stateMutex.RUnlock()
	if cb == nil {
		return
	}

	result := ReadResult{UID: o.UID, Texts: o.Texts, Skipped: o.Skipped}
	if o.Kind == OutcomeTagIOError {
		result.Err = o.Err
	}
	c.safeCall("OnReadResult", func() { cb(result) })
}

func (c *Controller) notifyWrite(o Outcome, text string) {
	c.stateMutex.RLock()
	cb := c.onWriteResult
	c.stateMutex.RUnlock()
	if cb == nil {
		return
	}

	result := WriteResult{UID: o.UID, Text: text, Status: writeStatusFor(o.Kind), Err: o.Err}
	c.safeCall("OnWriteResult", func() { cb(result) })
}

// safeCall runs a callback with panic recovery.
func (c *Controller) safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("callback panicked",
				zap.String("callback", name),
				zap.Any("panic", r))
		}
	}()
	fn()
}

// ErrorDetail renders an outcome error for display, or "" when there is none.
func ErrorDetail(err error) string {
	var te *ndeftext.TagIOError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ndeftext.ErrIncompatibleTag):
		return "tag is not NDEF compatible"
	case ndeftext.IsTimeout(err):
		return "tag operation timed out"
	case errors.As(err, &te):
		return fmt.Sprintf("%s failed: %v", te.Op, te.Err)
	default:
		return err.Error()
	}
}
