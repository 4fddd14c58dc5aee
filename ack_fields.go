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
)

// setFrameControl assembles the Ack frame control field from the received
// frame and writes it once
func (g *AckGenerator) setFrameControl(rx *parser.Frame, hasIEs bool) int {
	ctrl := frame.Control{
		Type:              frame.FrameTypeAck,
		SecurityEnabled:   rx.SecurityEnabled(),
		FramePending:      g.pendingBit(rx),
		PANIDCompression:  rx.PANIDCompression(),
		SeqNumSuppression: rx.SeqNumSuppressed(),
		IEPresent:         hasIEs,
		DstAddrMode:       ackDstAddrMode(rx),
		Version:           frame.Version2015,
		SrcAddrMode:       frame.AddrModeNone,
	}
	binary.LittleEndian.PutUint16(g.buf[frame.FCFOffset:], ctrl.Uint16())
	return frame.FCFSize
}

// ackDstAddrMode sends the Ack back to whichever address type the frame came from
func ackDstAddrMode(rx *parser.Frame) frame.AddrMode {
	switch {
	case rx.SrcAddrExtended():
		return frame.AddrModeExtended
	case rx.SrcAddrShort():
		return frame.AddrModeShort
	default:
		return frame.AddrModeNone
	}
}

func (g *AckGenerator) pendingBit(rx *parser.Frame) bool {
	if g.pending == nil {
		return false
	}
	return g.pending.PendingBit(rx.SrcAddr(), rx.SrcAddrExtended())
}

func (g *AckGenerator) headerIEData(rx *parser.Frame) ([]byte, bool) {
	if g.ieSource == nil {
		return nil, false
	}
	return g.ieSource.IEData(rx.SrcAddr(), rx.SrcAddrExtended())
}

// setSequenceNumber copies the DSN when both frames carry one
func (g *AckGenerator) setSequenceNumber(rx *parser.Frame) int {
	rxDSN := rx.DSN()
	ackDSN := g.ack.DSN()
	if rxDSN == nil || ackDSN == nil {
		return 0
	}
	ackDSN[0] = rxDSN[0]
	return frame.DSNSize
}

// setDestination fills the destination PAN ID and address. The PAN ID is
// taken from the source PAN ID, then the destination PAN ID of the received
// frame, then the PIB. The Ack never carries source addressing fields.
func (g *AckGenerator) setDestination(rx *parser.Frame) int {
	written := 0

	if ackPANID := g.ack.DstPANID(); ackPANID != nil {
		switch {
		case rx.SrcPANID() != nil:
			copy(ackPANID, rx.SrcPANID())
		case rx.DstPANID() != nil:
			copy(ackPANID, rx.DstPANID())
		default:
			local := g.pib.PANID()
			copy(ackPANID, local[:])
		}
		written += frame.PANIDSize
	}

	ackAddr := g.ack.DstAddr()
	rxAddr := rx.SrcAddr()
	if ackAddr != nil && rxAddr != nil {
		if g.ack.DstAddrExtended() != rx.SrcAddrExtended() {
			panic(fmt.Sprintf("ieee802154: ack destination extended=%v but frame source extended=%v",
				g.ack.DstAddrExtended(), rx.SrcAddrExtended()))
		}
		written += copy(ackAddr, rxAddr)
	}

	return written
}
