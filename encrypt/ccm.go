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

package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
)

// NonceSize is the CCM* nonce length used by IEEE 802.15.4
const NonceSize = 13

// lengthFieldSize is the CCM L parameter: 15 - NonceSize
const lengthFieldSize = aes.BlockSize - 1 - NonceSize

func cbcMAC(block cipher.Block, nonce *[NonceSize]byte, micLen int, a, m []byte) [aes.BlockSize]byte {
	var x [aes.BlockSize]byte

	x[0] = lengthFieldSize - 1
	if micLen > 0 {
		x[0] |= byte((micLen-2)/2) << 3
	}
	if len(a) > 0 {
		x[0] |= 0x40
	}
	copy(x[1:], nonce[:])
	binary.BigEndian.PutUint16(x[aes.BlockSize-lengthFieldSize:], uint16(len(m)))
	block.Encrypt(x[:], x[:])

	if len(a) > 0 {
		var first [aes.BlockSize]byte
		binary.BigEndian.PutUint16(first[:], uint16(len(a)))
		n := copy(first[2:], a)
		subtle.XORBytes(x[:], x[:], first[:])
		block.Encrypt(x[:], x[:])
		macBlocks(block, &x, a[n:])
	}
	macBlocks(block, &x, m)
	return x
}

// macBlocks chains data into x, zero-padding the last block
func macBlocks(block cipher.Block, x *[aes.BlockSize]byte, data []byte) {
	for len(data) > 0 {
		var blk [aes.BlockSize]byte
		n := copy(blk[:], data)
		data = data[n:]
		subtle.XORBytes(x[:], x[:], blk[:])
		block.Encrypt(x[:], x[:])
	}
}

func counterBlock(block cipher.Block, nonce *[NonceSize]byte, i uint16) [aes.BlockSize]byte {
	var s [aes.BlockSize]byte
	s[0] = lengthFieldSize - 1
	copy(s[1:], nonce[:])
	binary.BigEndian.PutUint16(s[aes.BlockSize-lengthFieldSize:], i)
	block.Encrypt(s[:], s[:])
	return s
}

// xorKeyStream encrypts or decrypts data in place with counter blocks from 1
func xorKeyStream(block cipher.Block, nonce *[NonceSize]byte, data []byte) {
	for i := uint16(1); len(data) > 0; i++ {
		s := counterBlock(block, nonce, i)
		n := subtle.XORBytes(data, data, s[:])
		data = data[n:]
	}
}

// seal authenticates a and m, encrypts m in place when encrypt is set, and
// writes the encrypted tag to mic. A zero-length mic gives encryption only.
func seal(block cipher.Block, nonce *[NonceSize]byte, a, m, mic []byte, encrypt bool) {
	if len(mic) > 0 {
		tag := cbcMAC(block, nonce, len(mic), a, m)
		s0 := counterBlock(block, nonce, 0)
		subtle.XORBytes(mic, tag[:len(mic)], s0[:len(mic)])
	}
	if encrypt {
		xorKeyStream(block, nonce, m)
	}
}

// open reverses seal and reports whether the tag matched. m is decrypted in
// place even when authentication fails.
func open(block cipher.Block, nonce *[NonceSize]byte, a, m, mic []byte, encrypted bool) bool {
	if encrypted {
		xorKeyStream(block, nonce, m)
	}
	if len(mic) == 0 {
		return true
	}
	tag := cbcMAC(block, nonce, len(mic), a, m)
	s0 := counterBlock(block, nonce, 0)
	var want [aes.BlockSize]byte
	subtle.XORBytes(want[:len(mic)], tag[:len(mic)], s0[:len(mic)])
	return subtle.ConstantTimeCompare(want[:len(mic)], mic) == 1
}
