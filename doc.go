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

/*
Package ieee802154 builds IEEE 802.15.4 Enhanced Acknowledgement frames.

An Enhanced Ack (Enh-Ack) is the 2015-version acknowledgement frame. Unlike
the fixed three-octet immediate Ack it can carry addressing fields, an
auxiliary security header and header Information Elements, so it has to be
assembled from the frame it acknowledges, the local PIB and per-neighbour
state. AckGenerator does that inside a single pre-allocated buffer, which
lets it run within the turnaround time between reception and the Ack.

Features:
  - Frame control, sequence number and destination fields derived from the
    received frame
  - Auxiliary security header with freshly allocated frame counters
  - Per-neighbour header IEs with an HT2 terminator when the Ack is secured
  - Frame pending bit from a pluggable oracle
  - Optional staging of the CCM* transform via the encrypt package

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-ieee802154"
	    "github.com/ZaparooProject/go-ieee802154/parser"
	    "github.com/ZaparooProject/go-ieee802154/security"
	)

	counters := security.NewCounterStore()
	gen, err := ieee802154.NewAckGenerator(ieee802154.StaticPANID{0xCD, 0xAB}, counters)
	if err != nil {
	    log.Fatal(err)
	}

	rx, err := parser.NewReceived(psdu)
	if err != nil {
	    return err
	}

	ack, err := gen.Create(rx)
	if err != nil {
	    // No Ack may be sent for this frame
	    return err
	}

The returned slice starts with the PHR and ends with room for the FCS, which
the radio or frame.AppendFCS fills in.

Error Handling:

Create fails only when a frame counter cannot be allocated or the
encryption engine refuses the Ack:

	if errors.Is(err, ieee802154.ErrFrameCounter) {
	    // Key unknown or its counter exhausted
	}

Structural faults, such as an Ack whose length does not add up, are
programming errors and panic.

Thread Safety:

AckGenerator is not thread-safe and the returned Ack aliases its buffer. Use
one generator per radio and transmit the Ack before building the next one.
*/
package ieee802154
