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

// Header IE element IDs
const (
	IEVendorSpecific = 0x00
	IECSL            = 0x1A
	IEHT1            = 0x7E // Header termination 1, followed by payload IEs
	IEHT2            = 0x7F // Header termination 2, followed by the MAC payload
)

const (
	ieLengthMask   = 0x7F
	ieElementShift = 7
	ieElementMask  = 0xFF
	ieTypePayload  = 1 << 15
	maxHeaderIELen = ieLengthMask
)

// ErrMalformedIE is returned when a header IE list overruns its span
var ErrMalformedIE = errors.New("malformed header IE")

// PutHeaderIE writes a header IE descriptor for the given element ID and
// content length into b.
func PutHeaderIE(b []byte, elementID byte, length int) error {
	if len(b) < IEHeaderSize {
		return ErrBufferTruncated
	}
	if length < 0 || length > maxHeaderIELen {
		return ErrMalformedIE
	}
	v := uint16(length) | uint16(elementID)<<ieElementShift
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

// DecodeHeaderIE reads a header IE descriptor.
func DecodeHeaderIE(b []byte) (elementID byte, length int, err error) {
	if len(b) < IEHeaderSize {
		return 0, 0, ErrBufferTruncated
	}
	v := binary.LittleEndian.Uint16(b)
	if v&ieTypePayload != 0 {
		return 0, 0, ErrMalformedIE
	}
	return byte((v >> ieElementShift) & ieElementMask), int(v & ieLengthMask), nil
}

// IsTermination reports whether the element ID terminates the header IE list.
func IsTermination(elementID byte) bool {
	return elementID == IEHT1 || elementID == IEHT2
}

// HeaderTermination2 is the encoded HT2 descriptor: element 0x7F, length 0.
var HeaderTermination2 = [IEHeaderSize]byte{0x80, 0x3F}

// WalkHeaderIEs calls fn for every header IE in ies up to and including a
// termination element. fn returning false stops the walk. The returned offset
// is the end of the last visited IE.
func WalkHeaderIEs(ies []byte, fn func(elementID byte, content []byte) bool) (int, error) {
	off := 0
	for off+IEHeaderSize <= len(ies) {
		id, length, err := DecodeHeaderIE(ies[off:])
		if err != nil {
			return off, err
		}
		start := off + IEHeaderSize
		end := start + length
		if end > len(ies) {
			return off, ErrMalformedIE
		}
		off = end
		if fn != nil && !fn(id, ies[start:end]) {
			return off, nil
		}
		if IsTermination(id) {
			return off, nil
		}
	}
	if off != len(ies) {
		return off, ErrMalformedIE
	}
	return off, nil
}
