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

package testing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/internal/syncutil"
	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
)

// Sample UIDs
var (
	TestNTAG213UID  = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}
	TestBlankUID    = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}
)

// Operations that can have failures injected.
const (
	OpConnect = "connect"
	OpRead    = "read"
	OpWrite   = "write"
	OpFormat  = "format"
	OpClose   = "close"
)

const (
	pageSize      = 4
	ccPage        = 3
	firstUserPage = 4
	ccMagic       = 0xE1
)

var (
	errNotConnected     = errors.New("virtual tag: not connected")
	errAlreadyFormatted = errors.New("virtual tag: already NDEF formatted")
	errNotFormatable    = errors.New("virtual tag: not NDEF formatable")
	errNotFormatted     = errors.New("virtual tag: not NDEF formatted")
)

// VirtualTag is an in-memory Type 2 style tag implementing ndeftext.Tag.
// Memory is organised in 4-byte pages; page 3 holds the capability container
// and user data starts at page 4.
type VirtualTag struct {
	failures   map[string]error
	Type       string
	UIDBytes   []byte
	Memory     [][]byte
	userPages  int
	delay      time.Duration
	connects   atomic.Int32
	closes     atomic.Int32
	writes     atomic.Int32
	mu         syncutil.Mutex
	Present    bool
	ReadOnly   bool
	formatable bool
	connected  bool
}

// NewVirtualNTAG213 creates an NDEF formatted NTAG213 holding "Hello World".
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG213UID
	}
	tag := newPagedTag("NTAG213", uid, 45, 36)
	tag.writeCC()
	if err := tag.SetNDEFText("Hello World"); err != nil {
		panic(err)
	}
	return tag
}

// NewBlankNTAG213 creates a factory-fresh NTAG213: no capability container,
// so it has no NDEF data but can be formatted.
func NewBlankNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestBlankUID
	}
	tag := newPagedTag("NTAG213", uid, 45, 36)
	tag.formatable = true
	return tag
}

// NewVirtualMIFARE1K creates a tag with neither NDEF data nor NDEF formatting
// support, standing in for an unsupported technology.
func NewVirtualMIFARE1K(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestMIFARE1KUID
	}
	return newPagedTag("MIFARE1K", uid, 256, 0)
}

func newPagedTag(tagType string, uid []byte, pages, userPages int) *VirtualTag {
	tag := &VirtualTag{
		Type:      tagType,
		UIDBytes:  append([]byte(nil), uid...),
		Memory:    make([][]byte, pages),
		userPages: userPages,
		Present:   true,
		failures:  make(map[string]error),
	}
	for i := range tag.Memory {
		tag.Memory[i] = make([]byte, pageSize)
	}
	copy(tag.Memory[0][:3], uid)
	if len(uid) > 3 {
		copy(tag.Memory[1], uid[3:])
	}
	return tag
}

// writeCC stamps an NDEF capability container sized to the user area.
func (v *VirtualTag) writeCC() {
	v.Memory[ccPage] = []byte{ccMagic, 0x10, byte(v.userPages * pageSize / 8), 0x00}
}

// UID returns the UID as a hex string.
func (v *VirtualTag) UID() string {
	return hex.EncodeToString(v.UIDBytes)
}

// HasNDEF reports whether the capability container marks the tag as NDEF.
func (v *VirtualTag) HasNDEF() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.formatted()
}

// IsFormatable reports whether the tag can be NDEF formatted.
func (v *VirtualTag) IsFormatable() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.formatable && !v.formatted()
}

func (v *VirtualTag) formatted() bool {
	return v.userPages > 0 && v.Memory[ccPage][0] == ccMagic
}

// Capacity returns the user area size in bytes.
func (v *VirtualTag) Capacity() int {
	return v.userPages * pageSize
}

// FailOn makes every later call of op return err. A nil err clears it.
func (v *VirtualTag) FailOn(op string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err == nil {
		delete(v.failures, op)
		return
	}
	v.failures[op] = err
}

// SetDelay makes each I/O call wait d or until its context is done.
func (v *VirtualTag) SetDelay(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.delay = d
}

// ConnectCount returns how many times Connect succeeded.
func (v *VirtualTag) ConnectCount() int { return int(v.connects.Load()) }

// CloseCount returns how many times Close was called.
func (v *VirtualTag) CloseCount() int { return int(v.closes.Load()) }

// WriteCount returns how many times WriteMessage or FormatAndWrite was called,
// whether or not the write succeeded. Setup helpers do not count.
func (v *VirtualTag) WriteCount() int { return int(v.writes.Load()) }

// IsConnected reports whether a connection is open.
func (v *VirtualTag) IsConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// Remove simulates the tag leaving the field.
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Present = false
	v.connected = false
}

// Insert simulates the tag entering the field.
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.Present = true
}

// begin runs the checks shared by every operation and then the configured
// delay, outside the lock.
func (v *VirtualTag) begin(ctx context.Context, op string, needConn bool) error {
	v.mu.Lock()
	err := v.failures[op]
	switch {
	case err != nil:
	case !v.Present:
		err = ndeftext.ErrTagLost
	case needConn && !v.connected:
		err = errNotConnected
	}
	delay := v.delay
	v.mu.Unlock()
	if err != nil {
		return err
	}
	if delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Connect opens a connection.
func (v *VirtualTag) Connect(ctx context.Context) error {
	if err := v.begin(ctx, OpConnect, false); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = true
	v.connects.Add(1)
	return nil
}

// Close ends the connection. It never fails unless a failure is injected.
func (v *VirtualTag) Close() error {
	v.closes.Add(1)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = false
	return v.failures[OpClose]
}

// ReadMessage returns the NDEF message stored in the user area. An empty NDEF
// TLV yields a message with no records.
func (v *VirtualTag) ReadMessage(ctx context.Context) (*ndef.Message, error) {
	if err := v.begin(ctx, OpRead, true); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.formatted() {
		return nil, errNotFormatted
	}

	raw, err := ndef.ExtractNDEFFromTLV(v.userArea())
	if err != nil {
		return nil, fmt.Errorf("read NDEF TLV: %w", err)
	}
	msg := &ndef.Message{}
	if len(raw) == 0 {
		return msg, nil
	}
	if _, err := msg.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("parse NDEF: %w", err)
	}
	return msg, nil
}

// WriteMessage replaces the stored NDEF message.
func (v *VirtualTag) WriteMessage(ctx context.Context, msg *ndef.Message) error {
	v.writes.Add(1)
	if err := v.begin(ctx, OpWrite, true); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.formatted() {
		return errNotFormatted
	}
	return v.store(msg)
}

// FormatAndWrite writes the capability container and the message together.
func (v *VirtualTag) FormatAndWrite(ctx context.Context, msg *ndef.Message) error {
	v.writes.Add(1)
	if err := v.begin(ctx, OpFormat, true); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.formatted():
		return errAlreadyFormatted
	case !v.formatable:
		return errNotFormatable
	}

	data, err := v.encode(msg)
	if err != nil {
		return err
	}
	v.writeCC()
	v.commit(data)
	return nil
}

func (v *VirtualTag) store(msg *ndef.Message) error {
	data, err := v.encode(msg)
	if err != nil {
		return err
	}
	v.commit(data)
	return nil
}

func (v *VirtualTag) encode(msg *ndef.Message) ([]byte, error) {
	if v.ReadOnly {
		return nil, ndeftext.ErrTagReadOnly
	}
	raw, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal NDEF: %w", err)
	}
	data, err := ndef.WrapTLV(raw)
	if err != nil {
		return nil, fmt.Errorf("wrap NDEF TLV: %w", err)
	}
	if len(data) > v.Capacity() {
		return nil, fmt.Errorf("%d bytes into %d: %w", len(data), v.Capacity(), ndeftext.ErrTagCapacity)
	}
	return data, nil
}

func (v *VirtualTag) commit(data []byte) {
	for i := range v.userPages {
		page := v.Memory[firstUserPage+i]
		clear(page)
		if off := i * pageSize; off < len(data) {
			copy(page, data[off:])
		}
	}
}

func (v *VirtualTag) userArea() []byte {
	out := make([]byte, 0, v.Capacity())
	for i := range v.userPages {
		out = append(out, v.Memory[firstUserPage+i]...)
	}
	return out
}

// SetNDEFText stores a single text record without a connection, for test setup.
func (v *VirtualTag) SetNDEFText(text string) error {
	msg, err := ndef.EncodeTextRecord(text, "en")
	if err != nil {
		return err
	}
	return v.SetNDEFMessage(msg)
}

// SetNDEFMessage stores msg without a connection. A nil message leaves an
// empty NDEF TLV.
func (v *VirtualTag) SetNDEFMessage(msg *ndef.Message) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.formatted() {
		return errNotFormatted
	}
	if msg.Len() == 0 {
		v.commit([]byte{ndef.TLVNDEF, 0x00, ndef.TLVTerminator})
		return nil
	}
	return v.store(msg)
}

// SetRawUserData overwrites the start of the user area, for corrupt-memory tests.
func (v *VirtualTag) SetRawUserData(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.commit(data)
}

// GetNDEFTexts decodes the stored text records, ignoring malformed ones.
func (v *VirtualTag) GetNDEFTexts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.formatted() {
		return nil
	}
	raw, err := ndef.ExtractNDEFFromTLV(v.userArea())
	if err != nil || len(raw) == 0 {
		return nil
	}
	var msg ndef.Message
	if _, err := msg.Unmarshal(raw); err != nil {
		return nil
	}
	texts, _ := ndef.DecodeTexts(&msg)
	return texts
}

var _ ndeftext.Tag = (*VirtualTag)(nil)
