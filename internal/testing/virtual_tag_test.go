// go-ndeftext
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ndeftext.
//
// go-ndeftext is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ndeftext is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ndeftext; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package testing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/go-ndeftext"
	"github.com/ZaparooProject/go-ndeftext/pkg/ndef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVirtualTagCreation tests the creation of different virtual tag types
func TestVirtualTagCreation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		createTag      func() *VirtualTag
		name           string
		expectedType   string
		expectedUID    string
		expectedPages  int
		hasNDEF        bool
		formatable     bool
	}{
		{
			name:          "NTAG213",
			createTag:     func() *VirtualTag { return NewVirtualNTAG213(nil) },
			expectedType:  "NTAG213",
			expectedPages: 45,
			expectedUID:   "04abcdef123456",
			hasNDEF:       true,
		},
		{
			name:          "BlankNTAG213",
			createTag:     func() *VirtualTag { return NewBlankNTAG213(nil) },
			expectedType:  "NTAG213",
			expectedPages: 45,
			expectedUID:   "04112233445566",
			formatable:    true,
		},
		{
			name:          "MIFARE1K",
			createTag:     func() *VirtualTag { return NewVirtualMIFARE1K(nil) },
			expectedType:  "MIFARE1K",
			expectedPages: 256,
			expectedUID:   "12345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tag := tt.createTag()

			assert.Equal(t, tt.expectedType, tag.Type)
			assert.Len(t, tag.Memory, tt.expectedPages)
			assert.Equal(t, tt.expectedUID, tag.UID())
			assert.Equal(t, tt.hasNDEF, tag.HasNDEF())
			assert.Equal(t, tt.formatable, tag.IsFormatable())
			assert.True(t, tag.Present)
		})
	}
}

func TestVirtualTag_ReadDefaultMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tag := NewVirtualNTAG213(nil)

	_, err := tag.ReadMessage(ctx)
	require.Error(t, err, "read before connect must fail")

	require.NoError(t, tag.Connect(ctx))
	msg, err := tag.ReadMessage(ctx)
	require.NoError(t, err)

	texts, errs := ndef.DecodeTexts(msg)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"Hello World"}, texts)
	assert.Equal(t, []string{"Hello World"}, tag.GetNDEFTexts())
}

func TestVirtualTag_WriteThenRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tag := NewVirtualNTAG213(nil)
	require.NoError(t, tag.Connect(ctx))
	assert.Equal(t, 0, tag.WriteCount(), "seeded content is not a write")

	msg, err := ndef.EncodeTextRecord("written", "en")
	require.NoError(t, err)
	require.NoError(t, tag.WriteMessage(ctx, msg))

	assert.Equal(t, 1, tag.WriteCount())
	assert.Equal(t, []string{"written"}, tag.GetNDEFTexts())
}

func TestVirtualTag_FormatAndWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tag := NewBlankNTAG213(nil)
	require.NoError(t, tag.Connect(ctx))

	msg, err := ndef.EncodeTextRecord("fresh", "en")
	require.NoError(t, err)

	require.Error(t, tag.WriteMessage(ctx, msg), "unformatted tag cannot take a plain write")
	require.NoError(t, tag.FormatAndWrite(ctx, msg))

	assert.True(t, tag.HasNDEF())
	assert.False(t, tag.IsFormatable())
	assert.Equal(t, []string{"fresh"}, tag.GetNDEFTexts())
	require.Error(t, tag.FormatAndWrite(ctx, msg), "second format must fail")
}

func TestVirtualTag_WriteErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ReadOnly", func(t *testing.T) {
		t.Parallel()
		tag := NewVirtualNTAG213(nil)
		tag.ReadOnly = true
		require.NoError(t, tag.Connect(ctx))
		msg, err := ndef.EncodeTextRecord("nope", "en")
		require.NoError(t, err)
		require.ErrorIs(t, tag.WriteMessage(ctx, msg), ndeftext.ErrTagReadOnly)
		assert.Equal(t, []string{"Hello World"}, tag.GetNDEFTexts())
	})

	t.Run("Capacity", func(t *testing.T) {
		t.Parallel()
		tag := NewVirtualNTAG213(nil)
		require.NoError(t, tag.Connect(ctx))
		msg, err := ndef.EncodeTextRecord(strings.Repeat("x", tag.Capacity()), "en")
		require.NoError(t, err)
		require.ErrorIs(t, tag.WriteMessage(ctx, msg), ndeftext.ErrTagCapacity)
	})

	t.Run("Removed", func(t *testing.T) {
		t.Parallel()
		tag := NewVirtualNTAG213(nil)
		require.NoError(t, tag.Connect(ctx))
		tag.Remove()
		_, err := tag.ReadMessage(ctx)
		require.ErrorIs(t, err, ndeftext.ErrTagLost)
		tag.Insert()
		require.NoError(t, tag.Connect(ctx))
	})
}

func TestVirtualTag_FailureInjection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tag := NewVirtualNTAG213(nil)
	boom := errors.New("rf field dropped")

	tag.FailOn(OpConnect, boom)
	require.ErrorIs(t, tag.Connect(ctx), boom)
	assert.Equal(t, 0, tag.ConnectCount())

	tag.FailOn(OpConnect, nil)
	require.NoError(t, tag.Connect(ctx))
	assert.Equal(t, 1, tag.ConnectCount())
	assert.True(t, tag.IsConnected())

	tag.FailOn(OpClose, boom)
	require.ErrorIs(t, tag.Close(), boom)
	assert.Equal(t, 1, tag.CloseCount())
	assert.False(t, tag.IsConnected())
}

func TestVirtualTag_DelayHonoursContext(t *testing.T) {
	t.Parallel()
	tag := NewVirtualNTAG213(nil)
	tag.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tag.Connect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestVirtualTag_EmptyAndCorruptMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("EmptyNDEF", func(t *testing.T) {
		t.Parallel()
		tag := NewVirtualNTAG213(nil)
		require.NoError(t, tag.SetNDEFMessage(nil))
		require.NoError(t, tag.Connect(ctx))
		msg, err := tag.ReadMessage(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, msg.Len())
	})

	t.Run("Corrupt", func(t *testing.T) {
		t.Parallel()
		tag := NewVirtualNTAG213(nil)
		tag.SetRawUserData([]byte{ndef.TLVNDEF, 0x04, 0xD1, 0x01, 0x40, 'T', ndef.TLVTerminator})
		require.NoError(t, tag.Connect(ctx))
		_, err := tag.ReadMessage(ctx)
		require.Error(t, err)
		assert.Nil(t, tag.GetNDEFTexts())
	})
}
