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

	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
)

// Tag is the capability the platform supplies for one physically present tag.
//
// HasNDEF and IsFormatable describe which technologies the tag exposes and
// never touch the radio. The I/O methods require a prior Connect; callers
// outside this module normally let session.Controller manage that bracket.
type Tag interface {
	// UID returns the tag identifier as reported by the platform, or "".
	UID() string

	// HasNDEF reports whether the tag is already NDEF formatted.
	HasNDEF() bool

	// IsFormatable reports whether the tag can be formatted for NDEF.
	IsFormatable() bool

	// Connect opens the tag for I/O.
	Connect(ctx context.Context) error

	// ReadMessage returns the tag's NDEF message. A nil or zero-record
	// message means the tag is formatted but empty.
	ReadMessage(ctx context.Context) (*ndef.Message, error)

	// WriteMessage replaces the NDEF message on a formatted tag.
	WriteMessage(ctx context.Context, msg *ndef.Message) error

	// FormatAndWrite formats the tag for NDEF and writes msg in one operation.
	FormatAndWrite(ctx context.Context, msg *ndef.Message) error

	// Close releases the tag. It is called at most once per Connect.
	Close() error
}
