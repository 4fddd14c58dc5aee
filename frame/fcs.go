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

// fcsPolyReflected is the ITU-T polynomial x^16 + x^12 + x^5 + 1 bit-reversed
const fcsPolyReflected = 0x8408

var fcsTable = func() [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i)
		for range 8 {
			if crc&1 != 0 {
				crc = crc>>1 ^ fcsPolyReflected
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// CalculateFCS computes the 16-bit frame check sequence over a MAC header and
// payload (CRC-16/KERMIT: reflected, zero initial value, no final XOR).
func CalculateFCS(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crc>>8 ^ fcsTable[byte(crc)^b]
	}
	return crc
}

// AppendFCS writes the FCS of psdu[:len(psdu)-FCSSize] into its last two
// octets, least significant octet first.
func AppendFCS(psdu []byte) error {
	if len(psdu) < FCSSize {
		return ErrBufferTruncated
	}
	body := len(psdu) - FCSSize
	fcs := CalculateFCS(psdu[:body])
	psdu[body] = byte(fcs)
	psdu[body+1] = byte(fcs >> 8)
	return nil
}

// ValidateFCS reports whether the trailing FCS of psdu matches its contents.
func ValidateFCS(psdu []byte) bool {
	if len(psdu) < FCSSize {
		return false
	}
	return CalculateFCS(psdu) == 0
}
