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

// Package ackdata keeps the per-neighbour data that goes into Enhanced
// Acks: whether the frame pending bit is set and which header IEs are
// included. Short and extended addresses are kept in separate lists.
package ackdata

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/security"
)

var (
	// ErrInvalidAddress is returned when an address is neither 2 nor 8 octets
	// or does not match the requested address type
	ErrInvalidAddress = errors.New("invalid neighbour address")
	// ErrInvalidIEData is returned when IE data is not a well-formed header
	// IE list that fits in an Ack
	ErrInvalidIEData = errors.New("invalid header IE data")
)

const maxMICSize = 16

// MaxIEDataSize is the largest IE list that still fits in an Ack carrying an
// extended destination, the largest auxiliary security header, HT2 and the
// longest MIC.
const MaxIEDataSize = frame.MaxPSDUSize - (frame.FCFSize + frame.DSNSize + frame.PANIDSize +
	frame.ExtendedAddrSize + frame.SecurityControlSize + frame.FrameCounterSize +
	security.MaxKeyIDSize + frame.IEHeaderSize + maxMICSize + frame.FCSSize)

type (
	shortAddr    [frame.ShortAddrSize]byte
	extendedAddr [frame.ExtendedAddrSize]byte
)

// Table answers the pending bit and IE queries made while an Ack is built.
// It is safe for concurrent use; lookups take a read lock and do not
// allocate.
type Table struct {
	pendingShort map[shortAddr]struct{}
	pendingExt   map[extendedAddr]struct{}
	ieShort      map[shortAddr][]byte
	ieExt        map[extendedAddr][]byte
	mu           sync.RWMutex
	matchAll     bool
}

// NewTable creates an empty table. Pending bits are matched per address
// until SetPendingForAll is called.
func NewTable() *Table {
	return &Table{
		pendingShort: make(map[shortAddr]struct{}),
		pendingExt:   make(map[extendedAddr]struct{}),
		ieShort:      make(map[shortAddr][]byte),
		ieExt:        make(map[extendedAddr][]byte),
	}
}

func validAddr(addr []byte, extended bool) bool {
	if extended {
		return len(addr) == frame.ExtendedAddrSize
	}
	return len(addr) == frame.ShortAddrSize
}

func checkAddr(addr []byte, extended bool) error {
	if !validAddr(addr, extended) {
		return fmt.Errorf("%w: %d octets, extended=%v", ErrInvalidAddress, len(addr), extended)
	}
	return nil
}

// SetPending marks the neighbour as having pending data
func (t *Table) SetPending(addr []byte, extended bool) error {
	if err := checkAddr(addr, extended); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if extended {
		t.pendingExt[extendedAddr(addr)] = struct{}{}
	} else {
		t.pendingShort[shortAddr(addr)] = struct{}{}
	}
	return nil
}

// ClearPending removes the neighbour's pending mark and reports whether it was set
func (t *Table) ClearPending(addr []byte, extended bool) bool {
	if !validAddr(addr, extended) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if extended {
		_, ok := t.pendingExt[extendedAddr(addr)]
		delete(t.pendingExt, extendedAddr(addr))
		return ok
	}
	_, ok := t.pendingShort[shortAddr(addr)]
	delete(t.pendingShort, shortAddr(addr))
	return ok
}

// ResetPending clears every pending mark of one address type
func (t *Table) ResetPending(extended bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if extended {
		clear(t.pendingExt)
	} else {
		clear(t.pendingShort)
	}
}

// SetPendingForAll makes PendingBit report true for every neighbour,
// regardless of the per-address marks
func (t *Table) SetPendingForAll(all bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.matchAll = all
}

// PendingBit reports whether Acks to the neighbour set the frame pending bit.
// Outside SetPendingForAll mode unknown neighbours and malformed addresses
// get false.
func (t *Table) PendingBit(addr []byte, extended bool) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.matchAll {
		return true
	}
	if !validAddr(addr, extended) {
		return false
	}
	if extended {
		_, ok := t.pendingExt[extendedAddr(addr)]
		return ok
	}
	_, ok := t.pendingShort[shortAddr(addr)]
	return ok
}

// ValidateIEData checks that ies is a header IE list without termination
// elements that fits in any Ack
func ValidateIEData(ies []byte) error {
	if len(ies) > MaxIEDataSize {
		return fmt.Errorf("%w: %d octets exceeds %d", ErrInvalidIEData, len(ies), MaxIEDataSize)
	}
	var termination bool
	n, err := frame.WalkHeaderIEs(ies, func(elementID byte, _ []byte) bool {
		termination = frame.IsTermination(elementID)
		return !termination
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIEData, err)
	}
	if termination {
		return fmt.Errorf("%w: termination element at offset %d", ErrInvalidIEData, n-frame.IEHeaderSize)
	}
	return nil
}

// SetIE stores the header IEs included in Acks to the neighbour, replacing
// any previous entry. The data is copied.
func (t *Table) SetIE(addr []byte, extended bool, ies []byte) error {
	if err := checkAddr(addr, extended); err != nil {
		return err
	}
	if err := ValidateIEData(ies); err != nil {
		return err
	}
	data := append([]byte(nil), ies...)

	t.mu.Lock()
	defer t.mu.Unlock()
	if extended {
		t.ieExt[extendedAddr(addr)] = data
	} else {
		t.ieShort[shortAddr(addr)] = data
	}
	return nil
}

// ClearIE removes the neighbour's IE entry and reports whether one existed
func (t *Table) ClearIE(addr []byte, extended bool) bool {
	if !validAddr(addr, extended) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if extended {
		_, ok := t.ieExt[extendedAddr(addr)]
		delete(t.ieExt, extendedAddr(addr))
		return ok
	}
	_, ok := t.ieShort[shortAddr(addr)]
	delete(t.ieShort, shortAddr(addr))
	return ok
}

// ResetIE clears every IE entry of one address type
func (t *Table) ResetIE(extended bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if extended {
		clear(t.ieExt)
	} else {
		clear(t.ieShort)
	}
}

// IEData returns the header IEs for the neighbour. The slice is never
// modified after it is stored, so it stays valid even if the entry is
// replaced concurrently.
func (t *Table) IEData(addr []byte, extended bool) ([]byte, bool) {
	if !validAddr(addr, extended) {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if extended {
		ies, ok := t.ieExt[extendedAddr(addr)]
		return ies, ok
	}
	ies, ok := t.ieShort[shortAddr(addr)]
	return ies, ok
}

// Len returns the number of pending marks and IE entries
func (t *Table) Len() (pending, ies int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pendingShort) + len(t.pendingExt), len(t.ieShort) + len(t.ieExt)
}
