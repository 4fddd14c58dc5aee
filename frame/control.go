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

package frame

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrBufferTruncated is returned when the buffer is too short to encode or decode
	ErrBufferTruncated = errors.New("buffer too short")
	// ErrReservedAddrMode is returned when a frame uses the reserved addressing mode
	ErrReservedAddrMode = errors.New("reserved addressing mode")
)

// Frame control bit positions
const (
	fcfFrameTypeMask     = 0x0007
	fcfSecurityEnabled   = 1 << 3
	fcfFramePending      = 1 << 4
	fcfAckRequest        = 1 << 5
	fcfPANIDCompression  = 1 << 6
	fcfSeqNumSuppression = 1 << 8
	fcfIEPresent         = 1 << 9
	fcfDstAddrModeShift  = 10
	fcfVersionShift      = 12
	fcfSrcAddrModeShift  = 14
	fcfTwoBitMask        = 0x3
)

// Control holds the frame control field as named fields. It is serialized
// once with Encode rather than built up bit by bit in the frame buffer.
type Control struct {
	Type              FrameType
	SecurityEnabled   bool
	FramePending      bool
	AckRequest        bool
	PANIDCompression  bool
	SeqNumSuppression bool
	IEPresent         bool
	DstAddrMode       AddrMode
	Version           Version
	SrcAddrMode       AddrMode
}

// Uint16 returns the frame control field in host order.
func (c Control) Uint16() uint16 {
	v := uint16(c.Type) & fcfFrameTypeMask
	if c.SecurityEnabled {
		v |= fcfSecurityEnabled
	}
	if c.FramePending {
		v |= fcfFramePending
	}
	if c.AckRequest {
		v |= fcfAckRequest
	}
	if c.PANIDCompression {
		v |= fcfPANIDCompression
	}
	if c.SeqNumSuppression {
		v |= fcfSeqNumSuppression
	}
	if c.IEPresent {
		v |= fcfIEPresent
	}
	v |= (uint16(c.DstAddrMode) & fcfTwoBitMask) << fcfDstAddrModeShift
	v |= (uint16(c.Version) & fcfTwoBitMask) << fcfVersionShift
	v |= (uint16(c.SrcAddrMode) & fcfTwoBitMask) << fcfSrcAddrModeShift
	return v
}

// Encode writes the frame control field little-endian into b.
func (c Control) Encode(b []byte) error {
	if len(b) < FCFSize {
		return ErrBufferTruncated
	}
	binary.LittleEndian.PutUint16(b, c.Uint16())
	return nil
}

// DecodeControl reads a little-endian frame control field.
func DecodeControl(b []byte) (Control, error) {
	if len(b) < FCFSize {
		return Control{}, ErrBufferTruncated
	}
	v := binary.LittleEndian.Uint16(b)
	c := Control{
		Type:              FrameType(v & fcfFrameTypeMask),
		SecurityEnabled:   v&fcfSecurityEnabled != 0,
		FramePending:      v&fcfFramePending != 0,
		AckRequest:        v&fcfAckRequest != 0,
		PANIDCompression:  v&fcfPANIDCompression != 0,
		SeqNumSuppression: v&fcfSeqNumSuppression != 0,
		IEPresent:         v&fcfIEPresent != 0,
		DstAddrMode:       AddrMode((v >> fcfDstAddrModeShift) & fcfTwoBitMask),
		Version:           Version((v >> fcfVersionShift) & fcfTwoBitMask),
		SrcAddrMode:       AddrMode((v >> fcfSrcAddrModeShift) & fcfTwoBitMask),
	}
	if c.DstAddrMode == AddrModeReserved || c.SrcAddrMode == AddrModeReserved {
		return c, ErrReservedAddrMode
	}
	return c, nil
}

// PANIDsPresent reports which PAN ID fields a frame with this control field
// carries. Frames older than 2015 use the 2006 compression rule; 2015 frames
// use table 7-2 of IEEE 802.15.4-2015.
func (c Control) PANIDsPresent() (dst, src bool) {
	dstAddr := c.DstAddrMode != AddrModeNone
	srcAddr := c.SrcAddrMode != AddrModeNone

	if c.Version < Version2015 {
		dst = dstAddr
		src = srcAddr && !(c.PANIDCompression && dstAddr)
		return dst, src
	}

	switch {
	case !dstAddr && !srcAddr:
		return c.PANIDCompression, false
	case dstAddr && !srcAddr:
		return !c.PANIDCompression, false
	case !dstAddr && srcAddr:
		return false, !c.PANIDCompression
	case c.DstAddrMode == AddrModeExtended && c.SrcAddrMode == AddrModeExtended:
		return !c.PANIDCompression, false
	default:
		return true, !c.PANIDCompression
	}
}

// SeqNumPresent reports whether the sequence number field is carried. The
// suppression bit is only defined for 2015 frames.
func (c Control) SeqNumPresent() bool {
	return c.Version < Version2015 || !c.SeqNumSuppression
}
