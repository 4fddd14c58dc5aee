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

// Package frame provides IEEE 802.15.4 MAC frame constants and field codecs
package frame

// PHY header and frame size limits
const (
	PHROffset   = 0   // Offset of the length octet in a frame buffer
	PHRSize     = 1   // Size of the PHY header (length octet)
	MaxPSDUSize = 127 // aMaxPhyPacketSize
	FCSSize     = 2   // Frame check sequence appended by the radio
)

// MAC header field sizes
const (
	FCFSize             = 2
	DSNSize             = 1
	PANIDSize           = 2
	ShortAddrSize       = 2
	ExtendedAddrSize    = 8
	SecurityControlSize = 1
	FrameCounterSize    = 4
	IEHeaderSize        = 2
	MinFrameLength      = PHRSize + FCFSize + FCSSize
	ImmAckLength        = FCFSize + DSNSize + FCSSize
	FCFOffset           = PHRSize
	BufferSize          = PHRSize + MaxPSDUSize
)

// FrameType is the frame type subfield of the frame control field
type FrameType uint8

const (
	FrameTypeBeacon       FrameType = 0
	FrameTypeData         FrameType = 1
	FrameTypeAck          FrameType = 2
	FrameTypeCommand      FrameType = 3
	FrameTypeMultipurpose FrameType = 5
	FrameTypeFragment     FrameType = 6
	FrameTypeExtended     FrameType = 7
)

// AddrMode is a destination or source addressing mode
type AddrMode uint8

const (
	AddrModeNone     AddrMode = 0
	AddrModeReserved AddrMode = 1
	AddrModeShort    AddrMode = 2
	AddrModeExtended AddrMode = 3
)

// Size returns the number of address octets carried for the mode.
func (m AddrMode) Size() int {
	switch m {
	case AddrModeShort:
		return ShortAddrSize
	case AddrModeExtended:
		return ExtendedAddrSize
	default:
		return 0
	}
}

// Version is the frame version subfield
type Version uint8

const (
	Version2003 Version = 0
	Version2006 Version = 1
	Version2015 Version = 2
)
