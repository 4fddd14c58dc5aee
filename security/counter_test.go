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

package security

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	key1 = KeyID{Mode: KeyIDMode1, ID: []byte{0x01}}
	key2 = KeyID{Mode: KeyIDMode1, ID: []byte{0x02}}
)

func TestCounterStore_Monotonic(t *testing.T) {
	t.Parallel()

	s := NewCounterStore()
	require.NoError(t, s.AddKey(KeyConfig{ID: key1, FrameCounter: 10}))

	for want := uint32(10); want < 20; want++ {
		got, err := s.NextFrameCounter(key1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	next, err := s.FrameCounter(key1)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), next)
}

func TestCounterStore_PerKeyCounters(t *testing.T) {
	t.Parallel()

	s := NewCounterStore()
	require.NoError(t, s.AddKey(KeyConfig{ID: key1}))
	require.NoError(t, s.AddKey(KeyConfig{ID: key2, FrameCounter: 100}))

	a, err := s.NextFrameCounter(key1)
	require.NoError(t, err)
	b, err := s.NextFrameCounter(key2)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(100), b)
}

func TestCounterStore_GlobalCounter(t *testing.T) {
	t.Parallel()

	s := NewCounterStore()
	require.NoError(t, s.AddKey(KeyConfig{ID: key1, UseGlobalCounter: true}))
	require.NoError(t, s.AddKey(KeyConfig{ID: key2, UseGlobalCounter: true}))
	s.SetGlobalCounter(50)

	a, err := s.NextFrameCounter(key1)
	require.NoError(t, err)
	b, err := s.NextFrameCounter(key2)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), a)
	assert.Equal(t, uint32(51), b)

	s.SetGlobalCounter(10)
	c, err := s.NextFrameCounter(key1)
	require.NoError(t, err)
	assert.Equal(t, uint32(52), c, "global counter must not move backwards")
}

func TestCounterStore_Exhausted(t *testing.T) {
	t.Parallel()

	s := NewCounterStore()
	require.NoError(t, s.AddKey(KeyConfig{ID: key1, FrameCounter: math.MaxUint32 - 1}))

	got, err := s.NextFrameCounter(key1)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32-1), got)

	_, err = s.NextFrameCounter(key1)
	require.ErrorIs(t, err, ErrCounterExhausted)

	_, err = s.NextFrameCounter(key1)
	require.ErrorIs(t, err, ErrCounterExhausted, "an exhausted key stays exhausted")
}

func TestCounterStore_Errors(t *testing.T) {
	t.Parallel()

	s := NewCounterStore()

	_, err := s.NextFrameCounter(key1)
	require.ErrorIs(t, err, ErrUnknownKey)

	_, err = s.NextFrameCounter(KeyID{Mode: KeyIDMode2, ID: []byte{0x01}})
	require.ErrorIs(t, err, ErrInvalidKeyID)

	err = s.AddKey(KeyConfig{ID: KeyID{Mode: KeyIDMode0, ID: []byte{0x01}}})
	require.ErrorIs(t, err, ErrInvalidKeyID)

	require.NoError(t, s.AddKey(KeyConfig{ID: key1}))
	require.NoError(t, s.RemoveKey(key1))
	require.ErrorIs(t, s.RemoveKey(key1), ErrUnknownKey)

	_, err = s.FrameCounter(key1)
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestCounterStore_ImplicitKey(t *testing.T) {
	t.Parallel()

	s := NewCounterStore()
	implicit := KeyID{Mode: KeyIDMode0}
	require.NoError(t, s.AddKey(KeyConfig{ID: implicit, FrameCounter: 7}))

	got, err := s.NextFrameCounter(implicit)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), got)
}

func TestCounterStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewCounterStore()
	require.NoError(t, s.AddKey(KeyConfig{ID: key1}))

	const workers, perWorker = 8, 100
	results := make(chan uint32, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				v, err := s.NextFrameCounter(key1)
				if err == nil {
					results <- v
				}
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint32]bool)
	for v := range results {
		assert.False(t, seen[v], "frame counter %d handed out twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestControlRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctrl Control
		want byte
	}{
		{name: "level none", ctrl: Control{}, want: 0x00},
		{name: "enc mic32 key index", ctrl: Control{Level: LevelEncMIC32, KeyIDMode: KeyIDMode1}, want: 0x0D},
		{name: "suppressed counter", ctrl: Control{Level: LevelMIC32, FrameCounterSuppressed: true}, want: 0x21},
		{name: "asn in nonce", ctrl: Control{Level: LevelEncMIC128, KeyIDMode: KeyIDMode3, ASNInNonce: true}, want: 0x5F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ctrl.Byte())
			assert.Equal(t, tt.ctrl, DecodeControl(tt.want))
		})
	}
}

func TestSizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 4, 8, 16, 0, 4, 8, 16}, []int{
		LevelNone.MICSize(), LevelMIC32.MICSize(), LevelMIC64.MICSize(), LevelMIC128.MICSize(),
		LevelEnc.MICSize(), LevelEncMIC32.MICSize(), LevelEncMIC64.MICSize(), LevelEncMIC128.MICSize(),
	})
	assert.Equal(t, []int{0, 1, 5, 9}, []int{
		KeyIDMode0.Size(), KeyIDMode1.Size(), KeyIDMode2.Size(), KeyIDMode3.Size(),
	})
	assert.False(t, LevelMIC128.Encrypted())
	assert.True(t, LevelEnc.Encrypted())
	assert.Equal(t, "mode1:01", key1.String())
}
