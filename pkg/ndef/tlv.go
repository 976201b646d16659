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

package ndef

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// TLV block types of the NFC Forum Type 2 Tag data area.
const (
	TLVNull          byte = 0x00
	TLVLockControl   byte = 0x01
	TLVMemoryControl byte = 0x02
	TLVNDEF          byte = 0x03
	TLVTerminator    byte = 0xFE

	tlvLongLength byte = 0xFF
	tlvMaxLength       = 0xFFFE
)

// TLV errors.
var (
	ErrTLVTooShort      = errors.New("ndef: TLV data too short")
	ErrTLVInvalidLength = errors.New("ndef: TLV invalid length")
	ErrTLVNotFound      = errors.New("ndef: NDEF TLV not found")
)

// WrapTLV places an NDEF message inside an NDEF TLV followed by a terminator.
// Messages longer than 254 bytes use the three-byte length form. An empty
// message yields the "initialised but empty" container 03 00 FE.
func WrapTLV(message []byte) ([]byte, error) {
	n := len(message)
	if n > tlvMaxLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTLVInvalidLength, n)
	}

	out := make([]byte, 0, n+5)
	out = append(out, TLVNDEF)
	if n < int(tlvLongLength) {
		out = append(out, byte(n))
	} else {
		out = append(out, tlvLongLength)
		//nolint:gosec // bounded by tlvMaxLength above
		out = binary.BigEndian.AppendUint16(out, uint16(n))
	}
	out = append(out, message...)
	return append(out, TLVTerminator), nil
}

// ExtractNDEFFromTLV scans a tag data area and returns the contents of the
// first NDEF TLV. NULL, lock control, memory control and proprietary TLVs are
// skipped; a terminator before any NDEF TLV yields ErrTLVNotFound.
func ExtractNDEFFromTLV(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, ErrTLVTooShort
	}

	for off := 0; off < len(data); {
		switch t := data[off]; t {
		case TLVNull:
			off++
		case TLVTerminator:
			return nil, ErrTLVNotFound
		default:
			start, length, err := tlvBounds(data, off)
			if err != nil {
				return nil, err
			}
			if t == TLVNDEF {
				if start+length > len(data) {
					return nil, fmt.Errorf("%w: NDEF length %d exceeds %d available bytes",
						ErrTLVInvalidLength, length, len(data)-start)
				}
				return data[start : start+length], nil
			}
			off = start + length
		}
	}
	return nil, ErrTLVNotFound
}

// tlvBounds returns where the value of the TLV at off starts and how long it is.
func tlvBounds(data []byte, off int) (start, length int, err error) {
	if off+1 >= len(data) {
		return 0, 0, ErrTLVTooShort
	}
	if data[off+1] != tlvLongLength {
		return off + 2, int(data[off+1]), nil
	}
	if off+3 >= len(data) {
		return 0, 0, fmt.Errorf("%w: incomplete long length at offset %d", ErrTLVInvalidLength, off)
	}
	return off + 4, int(binary.BigEndian.Uint16(data[off+2 : off+4])), nil
}
