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

// Package security provides IEEE 802.15.4 auxiliary security header types
// and frame counter allocation.
package security

import (
	"encoding/hex"
	"fmt"
)

// Level is the security level subfield of the security control field
type Level uint8

const (
	LevelNone      Level = 0
	LevelMIC32     Level = 1
	LevelMIC64     Level = 2
	LevelMIC128    Level = 3
	LevelEnc       Level = 4
	LevelEncMIC32  Level = 5
	LevelEncMIC64  Level = 6
	LevelEncMIC128 Level = 7
)

// MICSize returns the length of the message integrity code for the level.
func (l Level) MICSize() int {
	switch l & 0x3 {
	case 1:
		return 4
	case 2:
		return 8
	case 3:
		return 16
	default:
		return 0
	}
}

// Encrypted reports whether the level requires payload confidentiality.
func (l Level) Encrypted() bool {
	return l&0x4 != 0
}

// KeyIDMode selects how the key is identified in the auxiliary security header
type KeyIDMode uint8

const (
	KeyIDMode0 KeyIDMode = 0 // Implicit key
	KeyIDMode1 KeyIDMode = 1 // Key index
	KeyIDMode2 KeyIDMode = 2 // 4-octet key source + key index
	KeyIDMode3 KeyIDMode = 3 // 8-octet key source + key index
)

// Key identifier field sizes for each key ID mode
const (
	KeyIDMode1Size = 1
	KeyIDMode2Size = 5
	KeyIDMode3Size = 9
	MaxKeyIDSize   = KeyIDMode3Size
)

// Size returns the length of the key identifier field for the mode.
func (m KeyIDMode) Size() int {
	switch m {
	case KeyIDMode1:
		return KeyIDMode1Size
	case KeyIDMode2:
		return KeyIDMode2Size
	case KeyIDMode3:
		return KeyIDMode3Size
	default:
		return 0
	}
}

const (
	levelMask            = 0x07
	keyIDModeShift       = 3
	keyIDModeMask        = 0x03
	frameCounterSuppress = 1 << 5
	asnInNonce           = 1 << 6
)

// Control is the security control octet
type Control struct {
	Level                  Level
	KeyIDMode              KeyIDMode
	FrameCounterSuppressed bool
	ASNInNonce             bool
}

// DecodeControl splits a security control octet into its subfields.
func DecodeControl(b byte) Control {
	return Control{
		Level:                  Level(b & levelMask),
		KeyIDMode:              KeyIDMode((b >> keyIDModeShift) & keyIDModeMask),
		FrameCounterSuppressed: b&frameCounterSuppress != 0,
		ASNInNonce:             b&asnInNonce != 0,
	}
}

// Byte encodes the security control octet.
func (c Control) Byte() byte {
	b := byte(c.Level)&levelMask | (byte(c.KeyIDMode)&keyIDModeMask)<<keyIDModeShift
	if c.FrameCounterSuppressed {
		b |= frameCounterSuppress
	}
	if c.ASNInNonce {
		b |= asnInNonce
	}
	return b
}

// KeyID identifies a key by mode and key identifier octets
type KeyID struct {
	ID   []byte
	Mode KeyIDMode
}

// keyIDKey is a fixed-size map key so lookups on the Ack path do not allocate.
type keyIDKey struct {
	id   [MaxKeyIDSize]byte
	mode KeyIDMode
	n    uint8
}

func (k KeyID) mapKey() (keyIDKey, error) {
	if len(k.ID) != k.Mode.Size() {
		return keyIDKey{}, fmt.Errorf("%w: mode %d expects %d octets, got %d",
			ErrInvalidKeyID, k.Mode, k.Mode.Size(), len(k.ID))
	}
	key := keyIDKey{mode: k.Mode, n: uint8(len(k.ID))}
	copy(key.id[:], k.ID)
	return key, nil
}

// String returns a printable form of the key identifier.
func (k KeyID) String() string {
	return fmt.Sprintf("mode%d:%s", k.Mode, hex.EncodeToString(k.ID))
}
