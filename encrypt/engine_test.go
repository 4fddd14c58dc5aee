// go-ieee802154
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ieee802154.
//
// go-ieee802154 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ieee802154 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ieee802154; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package encrypt

import (
	"bytes"
	"crypto/aes"
	"testing"

	ieee802154 "github.com/ZaparooProject/go-ieee802154"
	"github.com/ZaparooProject/go-ieee802154/frame"
	testutil "github.com/ZaparooProject/go-ieee802154/internal/testing"
	"github.com/ZaparooProject/go-ieee802154/parser"
	"github.com/ZaparooProject/go-ieee802154/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKey   = []byte{0xC0, 0xC1, 0xC2, 0xC3, 0xC4, 0xC5, 0xC6, 0xC7, 0xC8, 0xC9, 0xCA, 0xCB, 0xCC, 0xCD, 0xCE, 0xCF}
	testKeyID = security.KeyID{Mode: security.KeyIDMode1, ID: []byte{0x01}}
	localExt  = []byte{0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18}
)

func newTestEngine(t *testing.T, ext []byte) *Engine {
	t.Helper()
	e, err := NewEngine(ext)
	require.NoError(t, err)
	require.NoError(t, e.AddKey(testKeyID, testKey))
	return e
}

func securedDataFrame(level security.Level, payload []byte) []byte {
	return testutil.BuildFrame(testutil.FrameSpec{
		Type:     frame.FrameTypeData,
		Version:  frame.Version2015,
		DSN:      testutil.Seq(0x42),
		DstPANID: testutil.TestPANID,
		DstAddr:  testutil.TestShortAddr,
		SrcAddr:  testutil.TestExtAddr,
		Security: &testutil.SecuritySpec{
			Control:      security.Control{Level: level, KeyIDMode: security.KeyIDMode1},
			FrameCounter: 0x00000005,
			KeyID:        []byte{0x01},
		},
		Payload: payload,
	})
}

// Packet vector #1 of RFC 3610, which uses the same CCM parameters
func TestSeal_KnownAnswer(t *testing.T) {
	t.Parallel()

	block, err := aes.NewCipher(testKey)
	require.NoError(t, err)

	nonce := [NonceSize]byte{0x00, 0x00, 0x00, 0x03, 0x02, 0x01, 0x00, 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}
	a := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	m := make([]byte, 0, 23)
	for b := byte(0x08); b <= 0x1E; b++ {
		m = append(m, b)
	}
	mic := make([]byte, 8)

	seal(block, &nonce, a, m, mic, true)

	assert.Equal(t, []byte{
		0x58, 0x8C, 0x97, 0x9A, 0x61, 0xC6, 0x63, 0xD2, 0xF0, 0x66, 0xD0, 0xC2,
		0xC0, 0xF9, 0x89, 0x80, 0x6D, 0x5F, 0x6B, 0x61, 0xDA, 0xC3, 0x84,
	}, m)
	assert.Equal(t, []byte{0x17, 0xE8, 0xD1, 0x2C, 0xFD, 0xF9, 0x26, 0xE0}, mic)

	assert.True(t, open(block, &nonce, a, m, mic, true))
	assert.Equal(t, byte(0x08), m[0])
}

func TestBuildNonce(t *testing.T) {
	t.Parallel()

	var nonce [NonceSize]byte
	buildNonce(&nonce, testutil.TestExtAddr, 0x01020304, security.LevelEncMIC32)
	assert.Equal(t, [NonceSize]byte{
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x01, 0x02, 0x03, 0x04,
		0x05,
	}, nonce)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte("hello 802.15.4")

	tests := []struct {
		name      string
		level     security.Level
		encrypted bool
	}{
		{name: "mic-32", level: security.LevelMIC32},
		{name: "mic-128", level: security.LevelMIC128},
		{name: "enc", level: security.LevelEnc, encrypted: true},
		{name: "enc-mic-32", level: security.LevelEncMIC32, encrypted: true},
		{name: "enc-mic-64", level: security.LevelEncMIC64, encrypted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := newTestEngine(t, testutil.TestExtAddr)
			receiver := newTestEngine(t, localExt)

			buf := securedDataFrame(tt.level, payload)
			f, err := parser.NewReceived(buf)
			require.NoError(t, err)

			require.NoError(t, sender.Seal(f))
			if tt.encrypted {
				assert.NotEqual(t, payload, f.Payload())
			} else {
				assert.Equal(t, payload, f.Payload())
			}
			if tt.level.MICSize() > 0 {
				assert.NotEqual(t, make([]byte, tt.level.MICSize()), f.MIC())
			}

			require.NoError(t, receiver.Open(f, testutil.TestExtAddr))
			assert.Equal(t, payload, f.Payload())
		})
	}
}

func TestOpen_Tampered(t *testing.T) {
	t.Parallel()

	sender := newTestEngine(t, testutil.TestExtAddr)
	buf := securedDataFrame(security.LevelEncMIC64, []byte{1, 2, 3, 4})
	f, err := parser.NewReceived(buf)
	require.NoError(t, err)
	require.NoError(t, sender.Seal(f))

	f.Header()[2] ^= 0x01 // DSN

	require.ErrorIs(t, sender.Open(f, testutil.TestExtAddr), ErrAuthentication)
}

func TestOpen_WrongSource(t *testing.T) {
	t.Parallel()

	sender := newTestEngine(t, testutil.TestExtAddr)
	buf := securedDataFrame(security.LevelMIC32, []byte{1, 2, 3, 4})
	f, err := parser.NewReceived(buf)
	require.NoError(t, err)
	require.NoError(t, sender.Seal(f))

	require.ErrorIs(t, sender.Open(f, localExt), ErrAuthentication)
}

func TestEngine_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewEngine([]byte{0x01})
	require.Error(t, err)

	e := newTestEngine(t, localExt)
	require.Error(t, e.AddKey(testKeyID, []byte{0x01}))
	require.ErrorIs(t, e.AddKey(security.KeyID{Mode: security.KeyIDMode2}, testKey), security.ErrInvalidKeyID)

	require.ErrorIs(t, e.Transform(), ErrNotPrepared)

	unknown := testutil.BuildFrame(testutil.FrameSpec{
		Type:     frame.FrameTypeData,
		Version:  frame.Version2015,
		DSN:      testutil.Seq(1),
		DstPANID: testutil.TestPANID,
		DstAddr:  testutil.TestShortAddr,
		Security: &testutil.SecuritySpec{
			Control: security.Control{Level: security.LevelMIC32, KeyIDMode: security.KeyIDMode1},
			KeyID:   []byte{0x09},
		},
	})
	f, err := parser.NewReceived(unknown)
	require.NoError(t, err)
	require.ErrorIs(t, e.Seal(f), ErrNoKey)
	require.ErrorIs(t, e.PrepareAck(f), ErrNoKey)
	assert.False(t, e.Prepared())

	suppressed := testutil.BuildFrame(testutil.FrameSpec{
		Type:     frame.FrameTypeData,
		Version:  frame.Version2015,
		DSN:      testutil.Seq(1),
		DstPANID: testutil.TestPANID,
		DstAddr:  testutil.TestShortAddr,
		Security: &testutil.SecuritySpec{
			Control: security.Control{Level: security.LevelMIC32, KeyIDMode: security.KeyIDMode1, FrameCounterSuppressed: true},
			KeyID:   []byte{0x01},
		},
	})
	f, err = parser.NewReceived(suppressed)
	require.NoError(t, err)
	require.ErrorIs(t, e.PrepareAck(f), ErrUnsupportedSecurity)

	f, err = parser.NewReceived(testutil.ShortDataFrame())
	require.NoError(t, err)
	require.ErrorIs(t, e.Seal(f), ErrUnsupportedSecurity)

	assert.True(t, e.RemoveKey(testKeyID))
	assert.False(t, e.RemoveKey(testKeyID))
}

func TestEngine_AckGenerator(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, localExt)
	counters := security.NewCounterStore()
	require.NoError(t, counters.AddKey(security.KeyConfig{ID: testKeyID, FrameCounter: 100}))

	gen, err := ieee802154.NewAckGenerator(ieee802154.StaticPANID{0xCD, 0xAB}, counters,
		ieee802154.WithEncrypter(engine))
	require.NoError(t, err)

	rxBuf := securedDataFrame(security.LevelEncMIC32, []byte{0xAA})
	rx, err := parser.NewReceived(rxBuf)
	require.NoError(t, err)

	ack, err := gen.Create(rx)
	require.NoError(t, err)
	require.True(t, engine.Prepared())

	before := append([]byte(nil), ack...)
	require.NoError(t, engine.Transform())
	assert.False(t, engine.Prepared())
	assert.False(t, bytes.Equal(before, ack), "MIC must be written")

	parsed, err := parser.NewReceived(append([]byte(nil), ack...))
	require.NoError(t, err)
	assert.Equal(t, []byte{100, 0, 0, 0}, parsed.FrameCounter())

	peer := newTestEngine(t, testutil.TestExtAddr)
	require.NoError(t, peer.Open(parsed, localExt))
}

func TestEngine_AckGeneratorUnknownKey(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(localExt)
	require.NoError(t, err)
	counters := security.NewCounterStore()
	require.NoError(t, counters.AddKey(security.KeyConfig{ID: testKeyID}))

	gen, err := ieee802154.NewAckGenerator(ieee802154.StaticPANID{}, counters, ieee802154.WithEncrypter(engine))
	require.NoError(t, err)

	rx, err := parser.NewReceived(securedDataFrame(security.LevelEncMIC32, nil))
	require.NoError(t, err)

	_, err = gen.Create(rx)
	require.ErrorIs(t, err, ieee802154.ErrEncryptionPrepare)
	require.ErrorIs(t, err, ErrNoKey)
}
