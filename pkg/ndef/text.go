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
	"errors"
	"fmt"
	"iter"

	"golang.org/x/text/encoding/unicode"
)

// Text record constants.
const (
	TextRecordType    = "T"
	MaxLanguageLength = 63 // 6-bit length field

	textUTF16Flag    byte = 0x80
	textLangCodeMask byte = 0x3F
)

// Text record errors.
var (
	ErrEmptyInput       = errors.New("ndef: text is empty")
	ErrLanguageTooLong  = errors.New("ndef: language code too long")
	ErrMalformedPayload = errors.New("ndef: malformed text payload")
)

// TextRecord is a decoded Text RTD payload.
type TextRecord struct {
	Text     string
	Language string
	UTF16    bool
}

// EncodeTextRecord builds a single-record message carrying text as a UTF-8
// Text record. An empty language selects DefaultLanguage.
func EncodeTextRecord(text, language string) (*Message, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	payload, err := EncodeTextPayload(text, language)
	if err != nil {
		return nil, err
	}
	return &Message{Records: []*Record{{
		TNF:     TNFWellKnown,
		Type:    TextRecordType,
		Payload: payload,
	}}}, nil
}

// EncodeTextPayload returns the Text RTD payload for text and language. The
// status byte carries the real language length; the UTF-16 flag is clear.
func EncodeTextPayload(text, language string) ([]byte, error) {
	if language == "" {
		language = DefaultLanguage()
	}
	if len(language) > MaxLanguageLength {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrLanguageTooLong, len(language), MaxLanguageLength)
	}

	payload := make([]byte, 0, 1+len(language)+len(text))
	payload = append(payload, byte(len(language))&textLangCodeMask)
	payload = append(payload, language...)
	payload = append(payload, text...)
	return payload, nil
}

// ParseTextRecord decodes a Text RTD payload. Every length inconsistency is
// reported as ErrMalformedPayload.
func ParseTextRecord(payload []byte) (*TextRecord, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: missing status byte", ErrMalformedPayload)
	}

	status := payload[0]
	langLen := int(status & textLangCodeMask)
	if 1+langLen > len(payload) {
		return nil, fmt.Errorf("%w: language length %d exceeds payload of %d bytes",
			ErrMalformedPayload, langLen, len(payload))
	}

	rec := &TextRecord{
		Language: string(payload[1 : 1+langLen]),
		UTF16:    status&textUTF16Flag != 0,
	}
	body := payload[1+langLen:]
	if !rec.UTF16 {
		rec.Text = string(body)
		return rec, nil
	}

	text, err := decodeUTF16(body)
	if err != nil {
		return nil, err
	}
	rec.Text = text
	return rec, nil
}

// decodeUTF16 honours a leading BOM and otherwise assumes big-endian.
func decodeUTF16(body []byte) (string, error) {
	if len(body)%2 != 0 {
		return "", fmt.Errorf("%w: odd UTF-16 length %d", ErrMalformedPayload, len(body))
	}
	if len(body) == 0 {
		return "", nil
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return string(out), nil
}

// DecodeMessage lazily yields one entry per Text record in msg. Records of
// other types are skipped. A malformed record yields a non-nil error wrapping
// ErrMalformedPayload and iteration continues with the next record.
func DecodeMessage(msg *Message) iter.Seq2[TextRecord, error] {
	return func(yield func(TextRecord, error) bool) {
		if msg == nil {
			return
		}
		for i, rec := range msg.Records {
			if rec == nil || !rec.IsText() {
				continue
			}
			parsed, err := ParseTextRecord(rec.Payload)
			if err != nil {
				if !yield(TextRecord{}, fmt.Errorf("record %d: %w", i, err)) {
					return
				}
				continue
			}
			if !yield(*parsed, nil) {
				return
			}
		}
	}
}

// DecodeTexts collects DecodeMessage into the decoded strings and the
// per-record errors.
func DecodeTexts(msg *Message) (texts []string, errs []error) {
	for rec, err := range DecodeMessage(msg) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		texts = append(texts, rec.Text)
	}
	return texts, errs
}
