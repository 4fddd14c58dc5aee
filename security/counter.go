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

package security

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrCounterExhausted is returned when a frame counter has reached its maximum value
	ErrCounterExhausted = errors.New("frame counter exhausted")
	// ErrUnknownKey is returned when no key matches the requested key identifier
	ErrUnknownKey = errors.New("unknown key")
	// ErrInvalidKeyID is returned when the key identifier length does not match its mode
	ErrInvalidKeyID = errors.New("invalid key identifier")
)

// KeyConfig describes a key registered with a CounterStore
type KeyConfig struct {
	ID KeyID
	// FrameCounter is the next value handed out for this key when it does
	// not use the global counter
	FrameCounter uint32
	// UseGlobalCounter makes the key draw from the store-wide counter
	UseGlobalCounter bool
}

type keyCounter struct {
	next      uint32
	useGlobal bool
}

// CounterStore allocates outgoing frame counters per key. Each key either
// owns a counter or shares the global one. The store is safe for concurrent
// use so keys can be provisioned while the radio path allocates counters.
type CounterStore struct {
	keys   map[keyIDKey]*keyCounter
	global uint32
	mu     sync.Mutex
}

// NewCounterStore creates an empty store with the global counter at zero
func NewCounterStore() *CounterStore {
	return &CounterStore{keys: make(map[keyIDKey]*keyCounter)}
}

// AddKey registers a key, replacing any existing entry with the same identifier
func (s *CounterStore) AddKey(cfg KeyConfig) error {
	key, err := cfg.ID.mapKey()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = &keyCounter{next: cfg.FrameCounter, useGlobal: cfg.UseGlobalCounter}
	return nil
}

// RemoveKey unregisters a key
func (s *CounterStore) RemoveKey(id KeyID) error {
	key, err := id.mapKey()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, id)
	}
	delete(s.keys, key)
	return nil
}

// SetGlobalCounter sets the next value of the shared counter. The value is
// only ever raised, never lowered.
func (s *CounterStore) SetGlobalCounter(next uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next > s.global {
		s.global = next
	}
}

// NextFrameCounter returns a fresh frame counter for the key and advances it.
// The all-ones value is never handed out.
func (s *CounterStore) NextFrameCounter(id KeyID) (uint32, error) {
	key, err := id.mapKey()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kc, ok := s.keys[key]
	if !ok {
		return 0, ErrUnknownKey
	}

	counter := &kc.next
	if kc.useGlobal {
		counter = &s.global
	}
	if *counter == math.MaxUint32 {
		return 0, ErrCounterExhausted
	}
	value := *counter
	*counter++
	return value, nil
}

// FrameCounter returns the next value the key would receive without advancing it
func (s *CounterStore) FrameCounter(id KeyID) (uint32, error) {
	key, err := id.mapKey()
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kc, ok := s.keys[key]
	if !ok {
		return 0, ErrUnknownKey
	}
	if kc.useGlobal {
		return s.global, nil
	}
	return kc.next, nil
}
