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
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/parser"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// setSecurityHeader writes the auxiliary security header and returns its
// length plus the MIC space it reserves
func (g *AckGenerator) setSecurityHeader(rx *parser.Frame) (int, error) {
	ackSecCtrl := g.ack.SecurityControlField()
	rxSecCtrl := rx.SecurityControlField()
	if ackSecCtrl == nil || rxSecCtrl == nil {
		return 0, nil
	}

	// The Ack uses the same security policy as the frame it acknowledges
	ackSecCtrl[0] = rxSecCtrl[0]
	written := frame.SecurityControlSize
	g.extendTo(g.ack.AddressingEnd()+frame.SecurityControlSize, parser.LevelSecCtrlOffsets)

	if rx.SecurityLevel() == security.LevelNone {
		// No auxiliary security processing happens at level zero, so the
		// frame counter is left as received and the header is copied whole.
		// A pre-2015 frame ignores the suppression bit the Ack honors, so
		// the Ack's own layout decides the length.
		ackBody := g.ack.AuxSecHdrBody()
		n := copy(ackBody, rx.AuxSecHdrBody())
		clear(ackBody[n:])
		written += len(ackBody)
	} else {
		written += g.setKeyID(rx)
		n, err := g.setFrameCounter()
		if err != nil {
			return 0, err
		}
		written += n
	}

	return written + g.ack.MICSize(), nil
}

func (g *AckGenerator) setKeyID(rx *parser.Frame) int {
	ackKeyID := g.ack.KeyID()
	rxKeyID := rx.KeyID()
	if ackKeyID != nil && rxKeyID != nil {
		copy(ackKeyID, rxKeyID)
	}
	return g.ack.KeyIDMode().Size()
}

// setFrameCounter allocates a fresh counter for the Ack's key. A suppressed
// frame counter field needs none.
func (g *AckGenerator) setFrameCounter() (int, error) {
	fc := g.ack.FrameCounter()
	if fc == nil {
		return 0, nil
	}

	id := security.KeyID{Mode: g.ack.KeyIDMode(), ID: g.ack.KeyID()}
	value, err := g.counters.NextFrameCounter(id)
	if err != nil {
		return 0, fmt.Errorf("%w: key %s: %w", ErrFrameCounter, id, err)
	}

	binary.LittleEndian.PutUint32(fc, value)
	return frame.FrameCounterSize, nil
}
