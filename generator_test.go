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

package ieee802154

import (
	"errors"
	"testing"

	"github.com/ZaparooProject/go-ieee802154/ackdata"
	"github.com/ZaparooProject/go-ieee802154/frame"
	testutil "github.com/ZaparooProject/go-ieee802154/internal/testing"
	"github.com/ZaparooProject/go-ieee802154/parser"
	"github.com/ZaparooProject/go-ieee802154/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestGenerator(t *testing.T, counters *MockCounters, opts ...Option) *AckGenerator {
	t.Helper()
	g, err := NewAckGenerator(StaticPANID(testutil.TestLocalPANID), counters, opts...)
	require.NoError(t, err)
	return g
}

func parseReceived(t *testing.T, buf []byte) *parser.Frame {
	t.Helper()
	rx, err := parser.NewReceived(buf)
	require.NoError(t, err)
	return rx
}

var (
	csl4 = testutil.HeaderIE(frame.IECSL, 0x11, 0x22, 0x33, 0x44)

	secLevel5Key1 = &testutil.SecuritySpec{
		Control:      security.Control{Level: security.LevelEncMIC32, KeyIDMode: security.KeyIDMode1},
		FrameCounter: 0x20,
		KeyID:        []byte{0x01},
	}
)

func shortSpec() testutil.FrameSpec {
	return testutil.FrameSpec{
		Type:     frame.FrameTypeData,
		Version:  frame.Version2015,
		DSN:      testutil.Seq(0x07),
		DstPANID: testutil.TestDstPANID,
		DstAddr:  []byte{0xFF, 0xFF},
		SrcPANID: testutil.TestPANID,
		SrcAddr:  testutil.TestShortAddr,
	}
}

func TestCreate_Layout(t *testing.T) {
	t.Parallel()

	// want holds the Ack from the PHR up to the MIC
	tests := []struct {
		name         string
		spec         func() testutil.FrameSpec
		neighbours   *MockNeighbours
		want         []byte
		wantPHR      int
		wantCounters int
	}{
		{
			name:    "short source",
			spec:    shortSpec,
			want:    []byte{0x09, 0x02, 0x28, 0x07, 0xCD, 0xAB, 0x34, 0x12},
			wantPHR: 9,
		},
		{
			name: "extended source",
			spec: func() testutil.FrameSpec {
				s := shortSpec()
				s.DSN = testutil.Seq(0x10)
				s.SrcAddr = testutil.TestExtAddr
				return s
			},
			want: []byte{
				0x0F, 0x02, 0x2C, 0x10, 0xCD, 0xAB,
				0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			},
			wantPHR: 15,
		},
		{
			name: "sequence number suppressed",
			spec: func() testutil.FrameSpec {
				s := shortSpec()
				s.DSN = nil
				return s
			},
			want:    []byte{0x08, 0x02, 0x29, 0xCD, 0xAB, 0x34, 0x12},
			wantPHR: 8,
		},
		{
			name: "PAN ID from destination PAN ID",
			spec: func() testutil.FrameSpec {
				return testutil.FrameSpec{
					Type:             frame.FrameTypeData,
					Version:          frame.Version2015,
					DSN:              testutil.Seq(0x07),
					DstPANID:         testutil.TestDstPANID,
					PANIDCompression: true,
				}
			},
			want:    []byte{0x07, 0x42, 0x20, 0x07, 0x02, 0x01},
			wantPHR: 7,
		},
		{
			name: "PAN ID from PIB",
			spec: func() testutil.FrameSpec {
				return testutil.FrameSpec{
					Type:             frame.FrameTypeData,
					Version:          frame.Version2015,
					DSN:              testutil.Seq(0x07),
					DstAddr:          []byte{0xFF, 0xFF},
					PANIDCompression: true,
				}
			},
			// No source address means the Ack has no destination address,
			// and with compression set the 2015 table keeps the PAN ID
			want:    []byte{0x07, 0x42, 0x20, 0x07, 0xEF, 0xBE},
			wantPHR: 7,
		},
		{
			name:       "frame pending",
			spec:       shortSpec,
			neighbours: &MockNeighbours{Pending: true},
			want:       []byte{0x09, 0x12, 0x28, 0x07, 0xCD, 0xAB, 0x34, 0x12},
			wantPHR:    9,
		},
		{
			name: "secured with allocated frame counter",
			spec: func() testutil.FrameSpec {
				s := shortSpec()
				s.Security = secLevel5Key1
				return s
			},
			want: []byte{
				0x13, 0x0A, 0x28, 0x07, 0xCD, 0xAB, 0x34, 0x12,
				0x0D, 0x04, 0x03, 0x02, 0x01, 0x01,
			},
			wantPHR:      19,
			wantCounters: 1,
		},
		{
			name: "secured level none copies the header",
			spec: func() testutil.FrameSpec {
				s := shortSpec()
				s.Security = &testutil.SecuritySpec{
					Control:      security.Control{KeyIDMode: security.KeyIDMode2},
					FrameCounter: 0xAABBCCDD,
					KeyID:        []byte{0x10, 0x20, 0x30, 0x40, 0x05},
				}
				return s
			},
			want: []byte{
				0x13, 0x0A, 0x28, 0x07, 0xCD, 0xAB, 0x34, 0x12,
				0x10, 0xDD, 0xCC, 0xBB, 0xAA, 0x10, 0x20, 0x30, 0x40, 0x05,
			},
			wantPHR: 19,
		},
		{
			name: "secured with suppressed frame counter",
			spec: func() testutil.FrameSpec {
				s := shortSpec()
				s.Security = &testutil.SecuritySpec{
					Control: security.Control{
						Level:                  security.LevelEncMIC32,
						KeyIDMode:              security.KeyIDMode1,
						FrameCounterSuppressed: true,
					},
					KeyID: []byte{0x01},
				}
				return s
			},
			want:    []byte{0x0F, 0x0A, 0x28, 0x07, 0xCD, 0xAB, 0x34, 0x12, 0x2D, 0x01},
			wantPHR: 15,
		},
		{
			name:       "unsecured with IEs has no terminator",
			spec:       shortSpec,
			neighbours: &MockNeighbours{IEs: csl4, HasIEs: true},
			want: []byte{
				0x0F, 0x02, 0x2A, 0x07, 0xCD, 0xAB, 0x34, 0x12,
				0x04, 0x0D, 0x11, 0x22, 0x33, 0x44,
			},
			wantPHR: 15,
		},
		{
			name:       "empty IE data sets the IE present bit",
			spec:       shortSpec,
			neighbours: &MockNeighbours{HasIEs: true},
			want:       []byte{0x09, 0x02, 0x2A, 0x07, 0xCD, 0xAB, 0x34, 0x12},
			wantPHR:    9,
		},
		{
			name: "secured with IEs is terminated",
			spec: func() testutil.FrameSpec {
				s := shortSpec()
				s.Security = secLevel5Key1
				return s
			},
			neighbours: &MockNeighbours{IEs: csl4, HasIEs: true},
			want: []byte{
				0x1B, 0x0A, 0x2A, 0x07, 0xCD, 0xAB, 0x34, 0x12,
				0x0D, 0x04, 0x03, 0x02, 0x01, 0x01,
				0x04, 0x0D, 0x11, 0x22, 0x33, 0x44, 0x80, 0x3F,
			},
			wantPHR:      27,
			wantCounters: 1,
		},
		{
			name: "secured level none with IEs is not terminated",
			spec: func() testutil.FrameSpec {
				s := shortSpec()
				s.Security = &testutil.SecuritySpec{FrameCounter: 0x01}
				return s
			},
			neighbours: &MockNeighbours{IEs: csl4, HasIEs: true},
			want: []byte{
				0x14, 0x0A, 0x2A, 0x07, 0xCD, 0xAB, 0x34, 0x12,
				0x00, 0x01, 0x00, 0x00, 0x00,
				0x04, 0x0D, 0x11, 0x22, 0x33, 0x44,
			},
			wantPHR: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			counters := &MockCounters{Next: 0x01020304}
			var opts []Option
			if tt.neighbours != nil {
				opts = append(opts, WithPendingBitOracle(tt.neighbours), WithIESource(tt.neighbours))
			}
			g := newTestGenerator(t, counters, opts...)
			rx := parseReceived(t, testutil.BuildFrame(tt.spec()))

			ack, err := g.Create(rx)
			require.NoError(t, err)

			assert.Equal(t, StateReady, g.State())
			assert.Len(t, ack, frame.PHRSize+tt.wantPHR)
			assert.Equal(t, tt.wantPHR, int(ack[frame.PHROffset]))
			assert.Equal(t, tt.want, ack[:len(tt.want)])
			assert.Equal(t, tt.wantCounters, counters.Calls)

			// The Ack must parse back to the same layout
			parsed, err := parser.NewReceived(ack)
			require.NoError(t, err)
			assert.Equal(t, frame.FrameTypeAck, parsed.Control().Type)
			assert.Equal(t, frame.Version2015, parsed.Control().Version)
			assert.Equal(t, frame.AddrModeNone, parsed.Control().SrcAddrMode)
			assert.Empty(t, parsed.Payload())
		})
	}
}

func TestCreate_CounterKey(t *testing.T) {
	t.Parallel()

	counters := &MockCounters{}
	g := newTestGenerator(t, counters)

	spec := shortSpec()
	spec.Security = &testutil.SecuritySpec{
		Control:      security.Control{Level: security.LevelMIC64, KeyIDMode: security.KeyIDMode3},
		FrameCounter: 0x99,
		KeyID:        []byte{1, 2, 3, 4, 5, 6, 7, 8, 9},
	}

	_, err := g.Create(parseReceived(t, testutil.BuildFrame(spec)))
	require.NoError(t, err)

	require.Len(t, counters.Keys, 1)
	assert.Equal(t, security.KeyIDMode3, counters.Keys[0].Mode)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, counters.Keys[0].ID)
}

func TestCreate_NeighbourLookup(t *testing.T) {
	t.Parallel()

	neighbours := &MockNeighbours{}
	g := newTestGenerator(t, &MockCounters{}, WithPendingBitOracle(neighbours))

	spec := shortSpec()
	spec.SrcAddr = testutil.TestExtAddr
	_, err := g.Create(parseReceived(t, testutil.BuildFrame(spec)))
	require.NoError(t, err)

	assert.Equal(t, testutil.TestExtAddr, neighbours.LastAddr)
	assert.True(t, neighbours.LastWasExt)
}

func TestCreate_FrameCounterFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	counters := &MockCounters{}
	obs := &RecordingObserver{}
	g := newTestGenerator(t, counters, WithLogger(zap.New(core)), WithObserver(obs))

	previous, err := g.Create(parseReceived(t, testutil.ShortDataFrame()))
	require.NoError(t, err)
	require.Equal(t, byte(9), previous[frame.PHROffset])

	counters.Err = security.ErrCounterExhausted
	spec := shortSpec()
	spec.Security = secLevel5Key1

	ack, err := g.Create(parseReceived(t, testutil.BuildFrame(spec)))
	assert.Nil(t, ack)
	require.ErrorIs(t, err, ErrFrameCounter)
	require.ErrorIs(t, err, security.ErrCounterExhausted)

	assert.Equal(t, StateAborted, g.State())
	assert.Equal(t, byte(0), previous[frame.PHROffset], "abort must clear the PHR")
	assert.Equal(t, []byte{0, 0}, previous[frame.FCFOffset:frame.FCFOffset+frame.FCFSize])

	assert.Equal(t, []int{9}, obs.Lengths)
	assert.Equal(t, 1, obs.Aborted)
	assert.ErrorIs(t, obs.LastErr, ErrFrameCounter)
	assert.Equal(t, 1, logs.FilterMessage("enhanced ack aborted").Len())
}

func TestCreate_Encryption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		security  *testutil.SecuritySpec
		encErr    error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "secured Ack is staged",
			security:  secLevel5Key1,
			wantCalls: 1,
		},
		{
			name:     "level none is not staged",
			security: &testutil.SecuritySpec{},
		},
		{
			name: "unsecured Ack is not staged",
		},
		{
			name:      "engine failure aborts",
			security:  secLevel5Key1,
			encErr:    errors.New("no key"),
			wantErr:   ErrEncryptionPrepare,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			enc := &MockEncrypter{Err: tt.encErr}
			g := newTestGenerator(t, &MockCounters{}, WithEncrypter(enc))

			spec := shortSpec()
			spec.Security = tt.security
			ack, err := g.Create(parseReceived(t, testutil.BuildFrame(spec)))

			assert.Equal(t, tt.wantCalls, enc.Calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, ack)
				assert.Equal(t, StateAborted, g.State())
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, ack)
			if tt.wantCalls > 0 {
				assert.Equal(t, security.LevelEncMIC32, enc.LastLevel)
				assert.Len(t, enc.LastMIC, 4)
			}
		})
	}
}

func TestCreate_IEWriter(t *testing.T) {
	t.Parallel()

	writer := &RecordingIEWriter{Fill: []byte{0xAA}}
	neighbours := &MockNeighbours{IEs: csl4, HasIEs: true}
	g := newTestGenerator(t, &MockCounters{}, WithIESource(neighbours), WithIEWriter(writer))

	ack, err := g.Create(parseReceived(t, testutil.ShortDataFrame()))
	require.NoError(t, err)

	assert.Equal(t, 1, writer.Calls)
	assert.Equal(t, csl4, writer.Seen)
	assert.Equal(t, []byte{0x04, 0x0D, 0xAA, 0x22, 0x33, 0x44}, ack[8:14])
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, csl4[2:], "source IE data must not be modified")
}

func TestCreate_IEWriterSkippedWithoutIEs(t *testing.T) {
	t.Parallel()

	writer := &RecordingIEWriter{}
	g := newTestGenerator(t, &MockCounters{}, WithIEWriter(writer))

	_, err := g.Create(parseReceived(t, testutil.ShortDataFrame()))
	require.NoError(t, err)
	assert.Equal(t, 0, writer.Calls)
}

func TestCreate_ReusesBuffer(t *testing.T) {
	t.Parallel()

	neighbours := &MockNeighbours{IEs: csl4, HasIEs: true}
	g := newTestGenerator(t, &MockCounters{}, WithIESource(neighbours))

	spec := shortSpec()
	spec.Security = secLevel5Key1
	long, err := g.Create(parseReceived(t, testutil.BuildFrame(spec)))
	require.NoError(t, err)
	require.Equal(t, byte(27), long[frame.PHROffset])

	neighbours.HasIEs = false
	neighbours.IEs = nil
	short, err := g.Create(parseReceived(t, testutil.ShortDataFrame()))
	require.NoError(t, err)

	assert.Equal(t, []byte{0x09, 0x02, 0x28, 0x07, 0xCD, 0xAB, 0x34, 0x12}, short[:8])
	assert.Same(t, &long[0], &short[0], "every Ack is built in the same buffer")
}

func TestCreate_Deterministic(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &MockCounters{})
	rx := parseReceived(t, testutil.ShortDataFrame())

	first, err := g.Create(rx)
	require.NoError(t, err)
	firstCopy := append([]byte(nil), first...)

	second, err := g.Create(rx)
	require.NoError(t, err)
	assert.Equal(t, firstCopy, second)
}

func TestCreate_ReceivedFrameNotParsed(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &MockCounters{})
	buf := testutil.ShortDataFrame()
	rx, err := parser.New(buf, len(buf), parser.LevelFCFOffsets)
	require.NoError(t, err)

	assert.Panics(t, func() { _, _ = g.Create(rx) })
	assert.Panics(t, func() { _, _ = g.Create(nil) })
}

func TestReset(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, &MockCounters{})
	ack, err := g.Create(parseReceived(t, testutil.ShortDataFrame()))
	require.NoError(t, err)

	g.Reset()

	assert.Equal(t, make([]byte, len(ack)), ack)
	assert.Equal(t, StateIdle, g.State())
}

func TestNewAckGenerator(t *testing.T) {
	t.Parallel()

	_, err := NewAckGenerator(nil, &MockCounters{})
	require.ErrorIs(t, err, ErrMissingCollaborator)

	_, err = NewAckGenerator(StaticPANID{}, nil)
	require.ErrorIs(t, err, ErrMissingCollaborator)

	_, err = NewAckGenerator(StaticPANID{}, &MockCounters{}, WithLogger(nil))
	require.Error(t, err)

	g, err := NewAckGenerator(StaticPANID{}, &MockCounters{})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, g.State())
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "encryption-prepared", StateEncryptionPrepared.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestCreate_LargestAck(t *testing.T) {
	t.Parallel()

	table := ackdata.NewTable()
	ies := testutil.HeaderIE(frame.IEVendorSpecific, make([]byte, ackdata.MaxIEDataSize-frame.IEHeaderSize)...)
	require.NoError(t, table.SetIE(testutil.TestExtAddr, true, ies))
	require.NoError(t, table.SetPending(testutil.TestExtAddr, true))

	g := newTestGenerator(t, &MockCounters{}, WithIESource(table), WithPendingBitOracle(table))

	spec := shortSpec()
	spec.SrcAddr = testutil.TestExtAddr
	spec.Security = &testutil.SecuritySpec{
		Control:      security.Control{Level: security.LevelEncMIC128, KeyIDMode: security.KeyIDMode3},
		FrameCounter: 1,
		KeyID:        []byte{1, 2, 3, 4, 5, 6, 7, 8, 9},
	}

	ack, err := g.Create(parseReceived(t, testutil.BuildFrame(spec)))
	require.NoError(t, err)
	assert.Equal(t, byte(frame.MaxPSDUSize), ack[frame.PHROffset])

	parsed, err := parser.NewReceived(ack)
	require.NoError(t, err)
	assert.True(t, parsed.Control().FramePending)
	assert.Len(t, parsed.HeaderIEs(), ackdata.MaxIEDataSize+frame.IEHeaderSize)
	assert.Len(t, parsed.MIC(), 16)
}
