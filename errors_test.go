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

package ndeftext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
)

func TestTagIOError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *TagIOError
		name string
		want string
	}{
		{
			name: "with uid",
			err:  &TagIOError{Op: "write", UID: "04a1b2", Err: ErrTagReadOnly},
			want: "tag 04a1b2 write: tag is read-only",
		},
		{
			name: "without uid",
			err:  &TagIOError{Op: "connect", Err: io.EOF},
			want: "tag connect: EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagIOError_IsAndUnwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("event: %w", NewTagIOError("read", "01", ErrTagLost))

	if !errors.Is(err, ErrTagIO) {
		t.Error("wrapped TagIOError should match ErrTagIO")
	}
	if !errors.Is(err, ErrTagLost) {
		t.Error("cause should be reachable through Unwrap")
	}
	if !IsTagIOError(err) {
		t.Error("IsTagIOError() = false")
	}
	if IsTagIOError(ErrTagLost) {
		t.Error("bare sentinel is not a TagIOError")
	}
}

func TestNewTagIOError_DeadlineBecomesTimeout(t *testing.T) {
	t.Parallel()

	err := NewTagIOError("write", "01", context.DeadlineExceeded)
	if !errors.Is(err, ErrTagTimeout) {
		t.Errorf("error %v should match ErrTagTimeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("wrapped deadline error should be preserved")
	}
	if !IsTimeout(err) {
		t.Error("IsTimeout() = false")
	}

	already := NewTagIOError("write", "01", fmt.Errorf("%w: %w", ErrTagTimeout, context.DeadlineExceeded))
	if got := already.Err.Error(); got != "tag operation timed out: context deadline exceeded" {
		t.Errorf("timeout wrapped twice: %q", got)
	}
}

func TestIsTagGone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "lost", err: ErrTagLost, want: true},
		{name: "peer gone wrapped", err: NewTagIOError("write", "", ErrPeerGone), want: true},
		{name: "released", err: ErrTagReleased, want: true},
		{name: "eof", err: io.EOF, want: true},
		{name: "timeout", err: ErrTagTimeout, want: false},
		{name: "read-only", err: ErrTagReadOnly, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTagGone(tt.err); got != tt.want {
				t.Errorf("IsTagGone(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsCodecError(t *testing.T) {
	t.Parallel()

	_, err := ndef.EncodeTextRecord("", "en")
	if !IsCodecError(err) || !errors.Is(err, ErrEmptyInput) {
		t.Errorf("encode error %v should be a codec error", err)
	}
	if _, err := ndef.ParseTextRecord(nil); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("parse error %v should match the re-exported sentinel", err)
	}
	if IsCodecError(ErrTagTimeout) {
		t.Error("tag timeout is not a codec error")
	}
}
