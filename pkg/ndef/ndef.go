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

// Package ndef encodes and decodes NFC Data Exchange Format messages, with
// first-class support for the NFC Forum Text record type.
package ndef

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// TNF (Type Name Format) values as defined by NFC Forum.
const (
	TNFEmpty       byte = 0x00 // Empty record
	TNFWellKnown   byte = 0x01 // NFC Forum well-known type
	TNFMedia       byte = 0x02 // Media-type (RFC 2046)
	TNFAbsoluteURI byte = 0x03 // Absolute URI (RFC 3986)
	TNFExternal    byte = 0x04 // NFC Forum external type
	TNFUnknown     byte = 0x05 // Unknown
	TNFUnchanged   byte = 0x06 // Unchanged (chunked records)
	TNFReserved    byte = 0x07 // Reserved
)

// Record header flag bits.
const (
	tnfMask   byte = 0x07
	flagMB    byte = 0x80
	flagME    byte = 0x40
	flagCF    byte = 0x20
	flagSR    byte = 0x10
	flagIL    byte = 0x08
	srMaxLen       = 0xFF
	minHeader      = 3
)

// Framing errors.
var (
	ErrEmptyMessage    = errors.New("ndef: empty message")
	ErrTruncatedRecord = errors.New("ndef: truncated record data")
	ErrInvalidTNF      = errors.New("ndef: invalid TNF value")
	ErrChunkedRecord   = errors.New("ndef: chunked records not supported")
	ErrFieldTooLong    = errors.New("ndef: type or id field too long")
)

// Record is a single NDEF record envelope.
type Record struct {
	Type    string
	ID      string
	Payload []byte
	TNF     byte
	mb      bool
	me      bool
}

// MB reports the Message Begin flag seen when the record was parsed or marshalled.
func (r *Record) MB() bool { return r.mb }

// ME reports the Message End flag.
func (r *Record) ME() bool { return r.me }

// IsText reports whether r is an NFC Forum well-known Text record.
func (r *Record) IsText() bool {
	return r.TNF == TNFWellKnown && r.Type == TextRecordType
}

// Message is an ordered list of records.
type Message struct {
	Records []*Record
}

// Len returns the number of records, treating a nil message as empty.
func (m *Message) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Records)
}

// Marshal serializes the message. MB is set on the first record and ME on the
// last; the records themselves are not modified.
func (m *Message) Marshal() ([]byte, error) {
	if m.Len() == 0 {
		return nil, ErrEmptyMessage
	}

	var out []byte
	last := len(m.Records) - 1
	for i, rec := range m.Records {
		data, err := rec.marshal(i == 0, i == last)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// Unmarshal parses one NDEF message from data and returns the number of bytes
// consumed. Parsing stops at the first record carrying the ME flag.
func (m *Message) Unmarshal(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmptyMessage
	}

	m.Records = nil
	offset := 0
	for offset < len(data) {
		rec := &Record{}
		n, err := rec.Unmarshal(data[offset:])
		if err != nil {
			return offset, fmt.Errorf("record at offset %d: %w", offset, err)
		}
		// A second MB marks the start of another message.
		if rec.mb && len(m.Records) > 0 {
			break
		}
		m.Records = append(m.Records, rec)
		offset += n
		if rec.me {
			break
		}
	}
	return offset, nil
}

// Marshal serializes a standalone record with both MB and ME set.
func (r *Record) Marshal() ([]byte, error) {
	return r.marshal(true, true)
}

func (r *Record) marshal(first, last bool) ([]byte, error) {
	if r.TNF > TNFReserved {
		return nil, ErrInvalidTNF
	}
	if len(r.Type) > srMaxLen || len(r.ID) > srMaxLen {
		return nil, ErrFieldTooLong
	}

	short := len(r.Payload) <= srMaxLen
	flags := r.TNF & tnfMask
	if first {
		flags |= flagMB
	}
	if last {
		flags |= flagME
	}
	if short {
		flags |= flagSR
	}
	if r.ID != "" {
		flags |= flagIL
	}

	out := make([]byte, 0, 7+len(r.Type)+len(r.ID)+len(r.Payload))
	out = append(out, flags, byte(len(r.Type)))
	if short {
		out = append(out, byte(len(r.Payload)))
	} else {
		//nolint:gosec // payload length is bounded by the slice length
		out = binary.BigEndian.AppendUint32(out, uint32(len(r.Payload)))
	}
	if r.ID != "" {
		out = append(out, byte(len(r.ID)))
	}
	out = append(out, r.Type...)
	out = append(out, r.ID...)
	out = append(out, r.Payload...)
	return out, nil
}

// recordHeader is the decoded fixed part of a record.
type recordHeader struct {
	typeLen    int
	idLen      int
	payloadLen int
	size       int
}

func parseRecordHeader(data []byte, short, hasID bool) (recordHeader, error) {
	h := recordHeader{typeLen: int(data[1]), size: 2}

	if short {
		if h.size >= len(data) {
			return h, ErrTruncatedRecord
		}
		h.payloadLen = int(data[h.size])
		h.size++
	} else {
		if h.size+4 > len(data) {
			return h, ErrTruncatedRecord
		}
		h.payloadLen = int(binary.BigEndian.Uint32(data[h.size : h.size+4]))
		h.size += 4
	}

	if hasID {
		if h.size >= len(data) {
			return h, ErrTruncatedRecord
		}
		h.idLen = int(data[h.size])
		h.size++
	}
	return h, nil
}

// Unmarshal parses a single record and returns the number of bytes consumed.
func (r *Record) Unmarshal(data []byte) (int, error) {
	if len(data) < minHeader {
		return 0, ErrTruncatedRecord
	}

	flags := data[0]
	if flags&flagCF != 0 {
		return 0, ErrChunkedRecord
	}
	tnf := flags & tnfMask
	if tnf > TNFUnchanged {
		return 0, ErrInvalidTNF
	}

	h, err := parseRecordHeader(data, flags&flagSR != 0, flags&flagIL != 0)
	if err != nil {
		return 0, err
	}
	end := h.size + h.typeLen + h.idLen + h.payloadLen
	if end > len(data) || end < h.size {
		return 0, ErrTruncatedRecord
	}

	off := h.size
	r.TNF = tnf
	r.mb = flags&flagMB != 0
	r.me = flags&flagME != 0
	r.Type = string(data[off : off+h.typeLen])
	off += h.typeLen
	r.ID = string(data[off : off+h.idLen])
	off += h.idLen
	r.Payload = nil
	if h.payloadLen > 0 {
		r.Payload = append([]byte(nil), data[off:end]...)
	}
	return end, nil
}
