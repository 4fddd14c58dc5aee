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
	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// setHeaderIEs splices the IE bytes right after the auxiliary security header
func (g *AckGenerator) setHeaderIEs(ies []byte, ok bool) int {
	if !ok {
		return 0
	}
	span := g.ack.HeaderIESpan(len(ies))
	n := copy(span, ies)
	if g.ieWriter != nil && n > 0 {
		g.ieWriter.Prepare(span)
	}
	return n
}

// terminateHeaderIEs appends HT2 when the IEs are followed by a secured
// payload boundary. The check looks only at the Ack's own security fields.
func (g *AckGenerator) terminateHeaderIEs(ieLen int, ok bool) int {
	if !ok {
		return 0
	}
	if !g.ack.SecurityEnabled() || g.ack.SecurityLevel() == security.LevelNone {
		// The Ack never carries a payload of its own, so without security
		// nothing follows the IEs
		return 0
	}
	span := g.ack.HeaderIESpan(ieLen + frame.IEHeaderSize)
	return copy(span[ieLen:], frame.HeaderTermination2[:])
}
