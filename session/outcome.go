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

import "fmt"

// State is derived from whether a write is pending.
type State int

const (
	StateIdle State = iota
	StateArmedToWrite
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmedToWrite:
		return "armed-to-write"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// OutcomeKind classifies the result of one tag event.
type OutcomeKind int

const (
	// OutcomeRead means texts were decoded from the tag.
	OutcomeRead OutcomeKind = iota
	// OutcomeNoData means the tag exposed no NDEF message. Not an error.
	OutcomeNoData
	// OutcomeWritten means the pending text was written to an NDEF tag.
	OutcomeWritten
	// OutcomeFormattedAndWritten means the tag was formatted and written in one step.
	OutcomeFormattedAndWritten
	// OutcomeIncompatibleTag means the tag supports neither NDEF nor formatting.
	OutcomeIncompatibleTag
	// OutcomeTagIOError means tag communication failed.
	OutcomeTagIOError
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeRead:                "read",
	OutcomeNoData:              "no-data",
	OutcomeWritten:             "written",
	OutcomeFormattedAndWritten: "formatted-and-written",
	OutcomeIncompatibleTag:     "incompatible-tag",
	OutcomeTagIOError:          "tag-io-error",
}

func (k OutcomeKind) String() string {
	if name, ok := outcomeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is what OnTagDetected returns.
type Outcome struct {
	// Err is set for OutcomeIncompatibleTag (ErrIncompatibleTag) and
	// OutcomeTagIOError (a *ndeftext.TagIOError).
	Err error
	UID string
	// Texts holds decoded strings in record order for OutcomeRead.
	Texts []string
	// Skipped holds one error per malformed text record on the read path.
	Skipped []error
	Kind    OutcomeKind
	write   bool
}

// IsWrite reports whether the outcome consumed a pending write.
func (o Outcome) IsWrite() bool {
	return o.write
}

// WriteStatus is reported to the write-result callback.
type WriteStatus int

const (
	WriteStatusWritten WriteStatus = iota
	WriteStatusFormattedAndWritten
	WriteStatusIncompatibleTag
	WriteStatusError
)

func (s WriteStatus) String() string {
	switch s {
	case WriteStatusWritten:
		return "written"
	case WriteStatusFormattedAndWritten:
		return "formatted-and-written"
	case WriteStatusIncompatibleTag:
		return "incompatible-tag"
	case WriteStatusError:
		return "error"
	default:
		return fmt.Sprintf("WriteStatus(%d)", int(s))
	}
}

// ReadResult is delivered after every read attempt. Texts is empty when the
// tag had nothing to show; Err is set only when tag I/O failed.
type ReadResult struct {
	Err     error
	UID     string
	Texts   []string
	Skipped []error
}

// WriteResult is delivered after every consumed pending write.
type WriteResult struct {
	Err    error
	UID    string
	Text   string
	Status WriteStatus
}

func writeStatusFor(kind OutcomeKind) WriteStatus {
	switch kind {
	case OutcomeWritten:
		return WriteStatusWritten
	case OutcomeFormattedAndWritten:
		return WriteStatusFormattedAndWritten
	case OutcomeIncompatibleTag:
		return WriteStatusIncompatibleTag
	default:
		return WriteStatusError
	}
}
