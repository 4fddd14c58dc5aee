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

// Package iewriter fills in header IE fields that can only be known once the
// IE sits in the outgoing Ack, such as the CSL phase or Thread link metrics.
package iewriter

import (
	"sync"

	"github.com/ZaparooProject/go-ieee802154/frame"
)

// Handler updates the content of one header IE in place. The content slice
// is capacity-clipped to the element.
type Handler func(content []byte)

// Writer dispatches header IEs to handlers by element ID. It implements the
// IEWriter collaborator of the Ack generator.
type Writer struct {
	handlers map[byte]Handler
	mu       sync.RWMutex
}

// New creates a writer with no handlers
func New() *Writer {
	return &Writer{handlers: make(map[byte]Handler)}
}

// Register sets the handler for an element ID, replacing any previous one
func (w *Writer) Register(elementID byte, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[elementID] = h
}

// Unregister removes the handler for an element ID
func (w *Writer) Unregister(elementID byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers, elementID)
}

// Prepare runs the registered handlers over every header IE in ies. A
// malformed list is processed up to the first bad element.
func (w *Writer) Prepare(ies []byte) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.handlers) == 0 {
		return
	}
	_, _ = frame.WalkHeaderIEs(ies, func(elementID byte, content []byte) bool {
		if h := w.handlers[elementID]; h != nil {
			h(content[:len(content):len(content)])
		}
		return true
	})
}
