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
	"bytes"
	"errors"
	"testing"

	gondef "github.com/hsanjuan/go-ndef"
)

func TestLanguageFromEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  map[string]string
		name string
		want string
	}{
		{name: "unset", env: map[string]string{}, want: "en"},
		{name: "LANG with charset", env: map[string]string{"LANG": "fr_FR.UTF-8"}, want: "fr"},
		{name: "LC_ALL wins", env: map[string]string{"LC_ALL": "de_DE", "LANG": "fr_FR"}, want: "de"},
		{name: "modifier stripped", env: map[string]string{"LANG": "ca_ES@valencia"}, want: "ca"},
		{name: "C locale falls through", env: map[string]string{"LC_ALL": "C", "LANG": "ja_JP.UTF-8"}, want: "ja"},
		{name: "garbage", env: map[string]string{"LANG": "!!!"}, want: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := languageFromEnv(func(k string) string { return tt.env[k] })
			if got != tt.want {
				t.Errorf("language = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapAndExtractTLV(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 1, 254, 255, 600} {
		msg := bytes.Repeat([]byte{0xAB}, size)
		wrapped, err := WrapTLV(msg)
		if err != nil {
			t.Fatalf("WrapTLV(%d): %v", size, err)
		}
		if wrapped[len(wrapped)-1] != TLVTerminator {
			t.Errorf("size %d: missing terminator", size)
		}
		got, err := ExtractNDEFFromTLV(wrapped)
		if err != nil {
			t.Fatalf("ExtractNDEFFromTLV(%d): %v", size, err)
		}
		if !bytes.Equal(got, msg) {
			t.Errorf("size %d: payload mismatch", size)
		}
	}
}

func TestExtractNDEFFromTLVSkipsControlBlocks(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x00,                         // NULL
		0x01, 0x03, 0xA0, 0x10, 0x44, // lock control
		0x02, 0x03, 0x00, 0x00, 0x00, // memory control
		0x03, 0x02, 0xCA, 0xFE,       // NDEF
		0xFE,
	}
	got, err := ExtractNDEFFromTLV(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte{0xCA, 0xFE}) {
		t.Errorf("payload = %x", got)
	}
}

func TestExtractNDEFFromTLVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want error
		name string
		data []byte
	}{
		{name: "too short", data: []byte{0x03}, want: ErrTLVTooShort},
		{name: "terminator first", data: []byte{0xFE, 0x00}, want: ErrTLVNotFound},
		{name: "length past end", data: []byte{0x03, 0x10, 0x01}, want: ErrTLVInvalidLength},
		{name: "incomplete long length", data: []byte{0x03, 0xFF, 0x01}, want: ErrTLVInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ExtractNDEFFromTLV(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFromGoNDEF(t *testing.T) {
	t.Parallel()

	msg, err := FromGoNDEF(gondef.NewTextMessage("hello", "en"))
	if err != nil {
		t.Fatalf("FromGoNDEF: %v", err)
	}
	texts, errs := DecodeTexts(msg)
	if len(errs) != 0 || len(texts) != 1 || texts[0] != "hello" {
		t.Errorf("texts = %q, errs = %v", texts, errs)
	}

	if _, err := FromGoNDEF(&gondef.Message{}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty message error = %v", err)
	}
}

func TestToGoNDEF(t *testing.T) {
	t.Parallel()

	msg, err := EncodeTextRecord("hola", "es")
	if err != nil {
		t.Fatal(err)
	}
	lib, err := msg.ToGoNDEF()
	if err != nil {
		t.Fatalf("ToGoNDEF: %v", err)
	}
	if len(lib.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(lib.Records))
	}

	rec := lib.Records[0]
	if rec.TNF() != gondef.NFCForumWellKnownType || rec.Type() != TextRecordType {
		t.Errorf("record = TNF %d type %q", rec.TNF(), rec.Type())
	}
	payload, err := rec.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	parsed, err := ParseTextRecord(payload.Marshal())
	if err != nil {
		t.Fatalf("ParseTextRecord: %v", err)
	}
	if parsed.Text != "hola" || parsed.Language != "es" {
		t.Errorf("parsed = %+v", parsed)
	}
}
