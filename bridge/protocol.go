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

import "encoding/json"

// Message types carried in Envelope.Type.
const (
	// Inbound
	MessageTypeQueueWrite  = "queueWrite"
	MessageTypeCancelWrite = "cancelWrite"
	MessageTypeTagDetected = "tagDetected"
	MessageTypeTagOpResult = "tagOpResult"

	// Outbound
	MessageTypeTagOp          = "tagOp"
	MessageTypeReadResult     = "readResult"
	MessageTypeWriteResult    = "writeResult"
	MessageTypeWriteQueued    = "writeQueued"
	MessageTypeWriteCancelled = "writeCancelled" // No payload
	MessageTypeError          = "error"
)

// Tag operations a peer is asked to perform.
const (
	TagOpWrite          = "write"
	TagOpFormatAndWrite = "formatAndWrite"
)

// Error codes sent in ErrorData.Code.
const (
	ErrCodeParse          = "PARSE_ERROR"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeEmptyInput     = "EMPTY_INPUT"
	ErrCodeLanguage       = "LANGUAGE_TOO_LONG"
	ErrCodeEncode         = "ENCODE_ERROR"
	ErrCodeNoPendingWrite = "NO_PENDING_WRITE"
	ErrCodeBusy           = "BUSY"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// Envelope wraps every WebSocket message.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"` // Client-generated request ID, echoed in replies
	Payload json.RawMessage `json:"payload,omitempty"`
}

// QueueWriteRequest asks the controller to write text to the next tag.
type QueueWriteRequest struct {
	Text string `json:"text"`
}

// TagDetectedData is sent by a peer when a tag enters its field.
type TagDetectedData struct {
	UID        string `json:"uid"`        // Tag UID (hex)
	Technology string `json:"technology"` // e.g. "NfcA", "IsoDep"
	NDEF       []byte `json:"ndef"`       // Raw NDEF message (base64), empty if none
	HasNDEF    bool   `json:"hasNdef"`
	Formatable bool   `json:"formatable"`
}

// TagOpRequest asks the peer holding a tag to perform an operation on it.
type TagOpRequest struct {
	RequestID string `json:"requestId"`
	Op        string `json:"op"`
	NDEF      []byte `json:"ndef"`
}

// TagOpResult is the peer's answer to a TagOpRequest.
type TagOpResult struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error,omitempty"`
	Success   bool   `json:"success"`
}

// ReadResultData is broadcast after every read attempt.
type ReadResultData struct {
	UID     string   `json:"uid"`
	Error   string   `json:"error,omitempty"`
	Texts   []string `json:"texts"`
	Skipped int      `json:"skipped,omitempty"`
	TagGone bool     `json:"tagGone,omitempty"` // The tag or its phone went away mid-read
}

// WriteResultData is broadcast after every consumed write.
type WriteResultData struct {
	UID     string `json:"uid"`
	Text    string `json:"text"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	TagGone bool   `json:"tagGone,omitempty"` // The tag or its phone went away mid-write
}

// WriteQueuedData is broadcast when a write is armed.
type WriteQueuedData struct {
	Text string `json:"text"`
}

// ErrorData reports a rejected request.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusData is served on the status endpoint.
type StatusData struct {
	State       string `json:"state"`
	PendingText string `json:"pendingText,omitempty"`
	Peers       int    `json:"peers"`
}

func newEnvelope(msgType, id string, payload any) (Envelope, error) {
	env := Envelope{Type: msgType, ID: id}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return env, err
	}
	env.Payload = data
	return env, nil
}
