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
	"github.com/ZaparooProject/go-ieee802154/parser"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// PANIDSource provides the locally configured PAN ID from the PIB
type PANIDSource interface {
	// PANID returns the PAN ID in over-the-air (little-endian) order
	PANID() [2]byte
}

// PendingBitOracle decides whether the frame pending bit is set in an Ack
// sent to the given neighbour
type PendingBitOracle interface {
	PendingBit(addr []byte, extended bool) bool
}

// IESource provides header IE bytes to include in Acks sent to a neighbour.
// The returned slice is only read during the call to Create.
type IESource interface {
	IEData(addr []byte, extended bool) ([]byte, bool)
}

// IEWriter finalizes fields inside header IEs once they are in the Ack
// buffer, for IEs whose content depends on the final frame
type IEWriter interface {
	Prepare(ies []byte)
}

// FrameCounterAllocator hands out outgoing frame counters per key
type FrameCounterAllocator interface {
	NextFrameCounter(id security.KeyID) (uint32, error)
}

// AckEncrypter stages the authentication and encryption transform of a
// fully built Ack. The transform itself runs later, before transmission.
type AckEncrypter interface {
	PrepareAck(ack *parser.Frame) error
}

// Observer is notified of every build outcome
type Observer interface {
	AckBuilt(length int)
	AckAborted(err error)
}

// StaticPANID is a fixed PAN ID, in over-the-air order
type StaticPANID [2]byte

// PANID implements PANIDSource
func (p StaticPANID) PANID() [2]byte { return p }
