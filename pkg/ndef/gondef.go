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
	"fmt"

	gondef "github.com/hsanjuan/go-ndef"
)

// FromGoNDEF converts a github.com/hsanjuan/go-ndef message through its wire
// form, so record bytes are preserved exactly.
func FromGoNDEF(msg *gondef.Message) (*Message, error) {
	if msg == nil || len(msg.Records) == 0 {
		return nil, ErrEmptyMessage
	}
	data, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal go-ndef message: %w", err)
	}

	out := &Message{}
	if _, err := out.Unmarshal(data); err != nil {
		return nil, err
	}
	return out, nil
}

// ToGoNDEF converts m to a github.com/hsanjuan/go-ndef message.
func (m *Message) ToGoNDEF() (*gondef.Message, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}

	out := &gondef.Message{}
	if _, err := out.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("unmarshal go-ndef message: %w", err)
	}
	return out, nil
}
