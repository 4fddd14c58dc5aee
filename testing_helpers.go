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
	"sync"

	"github.com/ZaparooProject/go-ieee802154/parser"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// MockCounters is a FrameCounterAllocator for tests. It returns Next and
// increments it, or Err when set.
type MockCounters struct {
	Err   error
	Keys  []security.KeyID
	Next  uint32
	mu    sync.Mutex
	Calls int
}

// NextFrameCounter implements FrameCounterAllocator
func (m *MockCounters) NextFrameCounter(id security.KeyID) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Keys = append(m.Keys, security.KeyID{Mode: id.Mode, ID: append([]byte(nil), id.ID...)})
	if m.Err != nil {
		return 0, m.Err
	}
	value := m.Next
	m.Next++
	return value, nil
}

// MockNeighbours serves the pending bit and header IEs for tests. It answers
// the same for every neighbour.
type MockNeighbours struct {
	IEs        []byte
	LastAddr   []byte
	Pending    bool
	HasIEs     bool
	LastWasExt bool
}

// PendingBit implements PendingBitOracle
func (m *MockNeighbours) PendingBit(addr []byte, extended bool) bool {
	m.LastAddr = append(m.LastAddr[:0], addr...)
	m.LastWasExt = extended
	return m.Pending
}

// IEData implements IESource
func (m *MockNeighbours) IEData(addr []byte, extended bool) ([]byte, bool) {
	m.LastAddr = append(m.LastAddr[:0], addr...)
	m.LastWasExt = extended
	return m.IEs, m.HasIEs
}

// RecordingIEWriter records the IE span handed to it and optionally
// overwrites the first octets of the first element's content
type RecordingIEWriter struct {
	Seen  []byte
	Fill  []byte
	Calls int
}

// Prepare implements IEWriter
func (w *RecordingIEWriter) Prepare(ies []byte) {
	w.Calls++
	w.Seen = append(w.Seen[:0], ies...)
	if len(w.Fill) > 0 && len(ies) > 2 {
		copy(ies[2:], w.Fill)
	}
}

// MockEncrypter records the Acks staged for encryption
type MockEncrypter struct {
	Err       error
	LastMIC   []byte
	LastLevel security.Level
	Calls     int
}

// PrepareAck implements AckEncrypter
func (m *MockEncrypter) PrepareAck(ack *parser.Frame) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	m.LastLevel = ack.SecurityLevel()
	m.LastMIC = append(m.LastMIC[:0], ack.MIC()...)
	return nil
}

// RecordingObserver counts build outcomes
type RecordingObserver struct {
	LastErr error
	Lengths []int
	Aborted int
}

// AckBuilt implements Observer
func (o *RecordingObserver) AckBuilt(length int) {
	o.Lengths = append(o.Lengths, length)
}

// AckAborted implements Observer
func (o *RecordingObserver) AckAborted(err error) {
	o.Aborted++
	o.LastErr = err
}
