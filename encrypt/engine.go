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

// Package encrypt secures IEEE 802.15.4 frames with AES-128 CCM*.
//
// For Enhanced Acks the work is split in two. PrepareAck runs while the Ack
// is being built and only resolves the key and nonce; Transform runs later,
// once the Ack is complete, and writes the MIC and encrypts the payload in
// place.
package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/parser"
	"github.com/ZaparooProject/go-ieee802154/security"
)

var (
	// ErrNoKey is returned when no key matches the frame's key identifier
	ErrNoKey = errors.New("no key for key identifier")
	// ErrNotPrepared is returned by Transform when no Ack has been staged
	ErrNotPrepared = errors.New("no ack prepared")
	// ErrAuthentication is returned by Open when the MIC does not match
	ErrAuthentication = errors.New("frame authentication failed")
	// ErrUnsupportedSecurity is returned for frames the engine cannot secure,
	// such as frames without a frame counter
	ErrUnsupportedSecurity = errors.New("unsupported security parameters")
)

// KeySize is the AES-128 key length
const KeySize = 16

const keyMapKeySize = 1 + security.MaxKeyIDSize

type staged struct {
	ack   *parser.Frame
	block cipher.Block
	nonce [NonceSize]byte
}

// Engine holds the key table and the local extended address, and stages one
// Ack at a time. It implements the AckEncrypter collaborator of the Ack
// generator.
//
// Thread Safety: keys may be added and removed from any goroutine. PrepareAck
// and Transform are meant to be called from the goroutine that builds Acks.
type Engine struct {
	keys    map[string]cipher.Block
	pending staged
	extAddr [frame.ExtendedAddrSize]byte
	mu      sync.RWMutex
	ready   bool
}

// NewEngine creates an engine for a device with the given extended address,
// in over-the-air (little-endian) order
func NewEngine(localExtAddr []byte) (*Engine, error) {
	if len(localExtAddr) != frame.ExtendedAddrSize {
		return nil, fmt.Errorf("extended address must be %d octets, got %d", frame.ExtendedAddrSize, len(localExtAddr))
	}
	e := &Engine{keys: make(map[string]cipher.Block)}
	copy(e.extAddr[:], localExtAddr)
	return e, nil
}

// keyMapKey packs a key identifier into buf and returns the used prefix
func keyMapKey(buf *[keyMapKeySize]byte, mode security.KeyIDMode, id []byte) []byte {
	buf[0] = byte(mode)
	n := copy(buf[1:], id)
	return buf[:1+n]
}

// AddKey registers a 16-octet key under the key identifier
func (e *Engine) AddKey(id security.KeyID, key []byte) error {
	if len(id.ID) != id.Mode.Size() {
		return fmt.Errorf("%w: %s", security.ErrInvalidKeyID, id)
	}
	if len(key) != KeySize {
		return fmt.Errorf("key must be %d octets, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	var buf [keyMapKeySize]byte
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys[string(keyMapKey(&buf, id.Mode, id.ID))] = block
	return nil
}

// RemoveKey unregisters a key and reports whether it existed
func (e *Engine) RemoveKey(id security.KeyID) bool {
	var buf [keyMapKeySize]byte
	k := keyMapKey(&buf, id.Mode, id.ID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.keys[string(k)]; !ok {
		return false
	}
	delete(e.keys, string(k))
	return true
}

func (e *Engine) lookup(mode security.KeyIDMode, id []byte) (cipher.Block, error) {
	var buf [keyMapKeySize]byte
	k := keyMapKey(&buf, mode, id)

	e.mu.RLock()
	block, ok := e.keys[string(k)]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: mode%d:%x", ErrNoKey, mode, id)
	}
	return block, nil
}

// buildNonce writes the 802.15.4 nonce: the source extended address most
// significant octet first, the frame counter big-endian, then the level
func buildNonce(nonce *[NonceSize]byte, extAddr []byte, fc uint32, level security.Level) {
	for i := 0; i < frame.ExtendedAddrSize; i++ {
		nonce[i] = extAddr[frame.ExtendedAddrSize-1-i]
	}
	binary.BigEndian.PutUint32(nonce[frame.ExtendedAddrSize:], fc)
	nonce[NonceSize-1] = byte(level)
}

func resolve(f *parser.Frame) (fc uint32, err error) {
	if f.Level() < parser.LevelFull {
		return 0, fmt.Errorf("%w: frame parsed to %s", ErrUnsupportedSecurity, f.Level())
	}
	if !f.SecurityEnabled() || f.SecurityLevel() == security.LevelNone {
		return 0, fmt.Errorf("%w: frame is not secured", ErrUnsupportedSecurity)
	}
	field := f.FrameCounter()
	if field == nil {
		return 0, fmt.Errorf("%w: frame counter suppressed", ErrUnsupportedSecurity)
	}
	return binary.LittleEndian.Uint32(field), nil
}

// PrepareAck stages the transform for a fully built Ack. The view must stay
// untouched until Transform runs.
func (e *Engine) PrepareAck(ack *parser.Frame) error {
	e.ready = false

	fc, err := resolve(ack)
	if err != nil {
		return err
	}
	block, err := e.lookup(ack.KeyIDMode(), ack.KeyID())
	if err != nil {
		return err
	}

	e.pending.ack = ack
	e.pending.block = block
	buildNonce(&e.pending.nonce, e.extAddr[:], fc, ack.SecurityLevel())
	e.ready = true
	return nil
}

// Transform secures the staged Ack in place: it writes the MIC and encrypts
// the payload for encrypting levels. Staging is consumed either way.
func (e *Engine) Transform() error {
	if !e.ready {
		return ErrNotPrepared
	}
	e.ready = false

	p := &e.pending
	a, m := authData(p.ack)
	seal(p.block, &p.nonce, a, m, p.ack.MIC(), p.ack.SecurityLevel().Encrypted())
	p.ack = nil
	return nil
}

// Prepared reports whether an Ack is waiting for Transform
func (e *Engine) Prepared() bool {
	return e.ready
}

// Seal secures any fully parsed frame in place as sent by this device
func (e *Engine) Seal(f *parser.Frame) error {
	fc, err := resolve(f)
	if err != nil {
		return err
	}
	block, err := e.lookup(f.KeyIDMode(), f.KeyID())
	if err != nil {
		return err
	}
	var nonce [NonceSize]byte
	buildNonce(&nonce, e.extAddr[:], fc, f.SecurityLevel())
	a, m := authData(f)
	seal(block, &nonce, a, m, f.MIC(), f.SecurityLevel().Encrypted())
	return nil
}

// Open verifies a fully parsed frame sent by srcExtAddr and decrypts its
// payload in place
func (e *Engine) Open(f *parser.Frame, srcExtAddr []byte) error {
	if len(srcExtAddr) != frame.ExtendedAddrSize {
		return fmt.Errorf("source extended address must be %d octets, got %d", frame.ExtendedAddrSize, len(srcExtAddr))
	}
	fc, err := resolve(f)
	if err != nil {
		return err
	}
	block, err := e.lookup(f.KeyIDMode(), f.KeyID())
	if err != nil {
		return err
	}
	var nonce [NonceSize]byte
	buildNonce(&nonce, srcExtAddr, fc, f.SecurityLevel())
	a, m := authData(f)
	if !open(block, &nonce, a, m, f.MIC(), f.SecurityLevel().Encrypted()) {
		return ErrAuthentication
	}
	return nil
}

// authData splits a frame into CCM* inputs. Encrypting levels authenticate
// the header and encrypt the payload; the others authenticate both.
func authData(f *parser.Frame) (a, m []byte) {
	header := f.Header()
	payload := f.Payload()
	if f.SecurityLevel().Encrypted() {
		return header, payload
	}
	buf := f.Buffer()
	return buf[frame.FCFOffset:f.MICOffset()], nil
}
