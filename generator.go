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
	"fmt"

	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/parser"
	"github.com/ZaparooProject/go-ieee802154/security"
	"go.uber.org/zap"
)

// AckGenerator builds Enhanced Acknowledgement frames in response to
// received frames. Every Ack is written into a single buffer owned by the
// generator; no memory is allocated on the success path.
//
// Thread Safety: AckGenerator is NOT thread-safe. Create must be called from
// a single goroutine, and the slice it returns aliases the internal buffer:
// it is only valid until the next call to Create or Reset. Use one generator
// per radio.
type AckGenerator struct {
	pib       PANIDSource
	counters  FrameCounterAllocator
	pending   PendingBitOracle
	ieSource  IESource
	ieWriter  IEWriter
	encrypter AckEncrypter
	observer  Observer
	logger    *zap.Logger
	ack       parser.Frame
	state     State
	buf       [frame.BufferSize]byte
}

// NewAckGenerator creates a generator that reads the local PAN ID from pib
// and allocates frame counters for secured Acks from counters.
func NewAckGenerator(pib PANIDSource, counters FrameCounterAllocator, opts ...Option) (*AckGenerator, error) {
	if pib == nil {
		return nil, fmt.Errorf("%w: PAN ID source", ErrMissingCollaborator)
	}
	if counters == nil {
		return nil, fmt.Errorf("%w: frame counter allocator", ErrMissingCollaborator)
	}

	g := &AckGenerator{
		pib:      pib,
		counters: counters,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	g.clear()
	return g, nil
}

// State returns the state reached by the most recent build
func (g *AckGenerator) State() State {
	return g.state
}

// Reset zeroes the whole Ack buffer. Slices returned by earlier calls to
// Create read as empty frames afterwards.
func (g *AckGenerator) Reset() {
	g.buf = [frame.BufferSize]byte{}
	g.clear()
	g.state = StateIdle
}

// Create builds the Enhanced Ack for rx, which must be parsed at least up to
// the end of its auxiliary security header. It returns the Ack with its PHR
// first and space for the FCS last, or nil and an error wrapping
// ErrFrameCounter or ErrEncryptionPrepare when no Ack may be sent.
func (g *AckGenerator) Create(rx *parser.Frame) ([]byte, error) {
	if rx == nil || rx.Level() < parser.LevelAuxSecHdrEnd {
		panic("ieee802154: received frame must be parsed to the auxiliary security header end")
	}

	ies, hasIEs := g.headerIEData(rx)

	g.clear()
	g.state = StateIdle
	total := 0

	total += g.commit(g.setFrameControl(rx, hasIEs))
	g.extend(parser.LevelFCFOffsets)
	g.state = StateFrameControlSet

	total += g.commit(g.setSequenceNumber(rx))
	g.state = StateSeqNumSet

	total += g.commit(g.setDestination(rx))
	g.state = StateAddressingSet

	n, err := g.setSecurityHeader(rx)
	if err != nil {
		return g.abort(err)
	}
	total += g.commit(n)
	g.extend(parser.LevelAuxSecHdrEnd)
	g.state = StateSecuritySet

	total += g.commit(g.setHeaderIEs(ies, hasIEs))
	g.state = StateIESet

	total += g.commit(g.terminateHeaderIEs(len(ies), hasIEs))
	total += g.commit(frame.FCSSize)
	g.extend(parser.LevelFull)
	g.state = StateTerminated
	g.checkLength(total)

	if err := g.prepareEncryption(); err != nil {
		return g.abort(err)
	}
	g.state = StateEncryptionPrepared

	length := int(g.buf[frame.PHROffset])
	if g.observer != nil {
		g.observer.AckBuilt(length)
	}
	g.state = StateReady
	return g.buf[:frame.PHRSize+length], nil
}

// clear zeroes the PHR and frame control field and rewinds the view
func (g *AckGenerator) clear() {
	g.buf[frame.PHROffset] = 0
	g.buf[frame.FCFOffset] = 0
	g.buf[frame.FCFOffset+1] = 0
	if err := g.ack.Init(g.buf[:], 0, parser.LevelNone); err != nil {
		panic(fmt.Sprintf("ieee802154: reset ack view: %v", err))
	}
}

// commit adds n written octets to the PHR
func (g *AckGenerator) commit(n int) int {
	g.buf[frame.PHROffset] += byte(n)
	return n
}

// extend advances the Ack view over everything committed so far
func (g *AckGenerator) extend(level parser.ParseLevel) {
	g.extendTo(frame.PHRSize+int(g.buf[frame.PHROffset]), level)
}

func (g *AckGenerator) extendTo(validLen int, level parser.ParseLevel) {
	if err := g.ack.Extend(validLen, level); err != nil {
		panic(fmt.Sprintf("ieee802154: extend ack to %s with %d octets: %v", level, validLen, err))
	}
}

// checkLength verifies that the stage byte counts add up to the PHR and
// that the parsed layout leaves no payload between the IEs and the MIC
func (g *AckGenerator) checkLength(total int) {
	if phr := int(g.buf[frame.PHROffset]); phr != total {
		panic(fmt.Sprintf("ieee802154: ack PHR %d does not match %d octets written", phr, total))
	}
	if g.ack.PayloadOffset() != g.ack.MICOffset() {
		panic(fmt.Sprintf("ieee802154: ack header ends at %d but MIC starts at %d",
			g.ack.PayloadOffset(), g.ack.MICOffset()))
	}
}

func (g *AckGenerator) abort(err error) ([]byte, error) {
	g.clear()
	g.state = StateAborted
	g.logger.Debug("enhanced ack aborted", zap.Error(err))
	if g.observer != nil {
		g.observer.AckAborted(err)
	}
	return nil, err
}

// prepareEncryption hands a secured Ack to the encryption engine
func (g *AckGenerator) prepareEncryption() error {
	if g.encrypter == nil {
		return nil
	}
	if !g.ack.SecurityEnabled() || g.ack.SecurityLevel() == security.LevelNone {
		return nil
	}
	if err := g.encrypter.PrepareAck(&g.ack); err != nil {
		return fmt.Errorf("%w: %w", ErrEncryptionPrepare, err)
	}
	return nil
}
