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

// Package ndeftext reads and writes NFC Forum Text records on NDEF tags.
//
// The codec lives in pkg/ndef and the read-or-write session state machine in
// session. This package holds what both sides of the platform boundary share:
// the Tag capability, the error taxonomy and logger construction.
package ndeftext

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
)

// Codec errors, re-exported so callers can match on a single package.
var (
	ErrEmptyInput       = ndef.ErrEmptyInput
	ErrLanguageTooLong  = ndef.ErrLanguageTooLong
	ErrMalformedPayload = ndef.ErrMalformedPayload
)

// Tag errors.
var (
	// ErrIncompatibleTag means the tag is neither NDEF formatted nor formatable.
	ErrIncompatibleTag = errors.New("tag supports neither NDEF nor NDEF formatting")
	// ErrTagIO matches every *TagIOError through errors.Is.
	ErrTagIO = errors.New("tag I/O failed")
	// ErrTagTimeout marks a tag operation that exceeded its deadline.
	ErrTagTimeout = errors.New("tag operation timed out")
	// ErrTagReleased is returned when a handle is used after its event ended.
	ErrTagReleased = errors.New("tag handle already released")
	// ErrTagLost means the tag left the field mid-operation.
	ErrTagLost = errors.New("tag lost")
	// ErrPeerGone means the remote device relaying the tag disconnected.
	ErrPeerGone = errors.New("tag peer disconnected")
	// ErrTagReadOnly means the tag refused a write.
	ErrTagReadOnly = errors.New("tag is read-only")
	// ErrTagCapacity means the message does not fit on the tag.
	ErrTagCapacity = errors.New("message exceeds tag capacity")
)

// TagIOError wraps a failure while connected to a tag.
type TagIOError struct {
	Err error  // Underlying error
	Op  string // connect, read, write, format or close
	UID string // Tag UID, may be empty
}

func (e *TagIOError) Error() string {
	if e.UID != "" {
		return fmt.Sprintf("tag %s %s: %v", e.UID, e.Op, e.Err)
	}
	return fmt.Sprintf("tag %s: %v", e.Op, e.Err)
}

func (e *TagIOError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTagIO) hold for any TagIOError.
func (*TagIOError) Is(target error) bool {
	return target == ErrTagIO
}

// NewTagIOError wraps err for op. Context deadlines are normalised to
// ErrTagTimeout so callers can match on one sentinel.
func NewTagIOError(op, uid string, err error) *TagIOError {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTagTimeout) {
		err = fmt.Errorf("%w: %w", ErrTagTimeout, err)
	}
	return &TagIOError{Op: op, UID: uid, Err: err}
}

// IsTagIOError reports whether err is a tag I/O failure.
func IsTagIOError(err error) bool {
	var te *TagIOError
	return errors.As(err, &te)
}

// IsTimeout reports whether err came from an expired tag deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTagTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsTagGone reports whether err means the tag or its relay is no longer
// reachable, so further I/O on the same handle is pointless.
func IsTagGone(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrTagLost),
		errors.Is(err, ErrPeerGone),
		errors.Is(err, ErrTagReleased),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// IsCodecError reports whether err was raised by the text record codec rather
// than by tag I/O.
func IsCodecError(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrLanguageTooLong) ||
		errors.Is(err, ErrMalformedPayload)
}
