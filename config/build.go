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

package config

import (
	"fmt"

	"github.com/ZaparooProject/go-ieee802154/ackdata"
	"github.com/ZaparooProject/go-ieee802154/encrypt"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// CounterStore creates a frame counter store holding every configured key
func (c *Config) CounterStore() (*security.CounterStore, error) {
	store := security.NewCounterStore()
	store.SetGlobalCounter(c.Security.GlobalFrameCounter)
	for i, entry := range c.Security.Keys {
		kc, _, err := entry.Decode()
		if err != nil {
			return nil, fmt.Errorf("security.keys[%d]: %w", i, err)
		}
		if err := store.AddKey(kc); err != nil {
			return nil, fmt.Errorf("security.keys[%d]: %w", i, err)
		}
	}
	return store, nil
}

// Engine creates an encryption engine holding every configured key. It
// returns nil without error when no keys are configured.
func (c *Config) Engine() (*encrypt.Engine, error) {
	if len(c.Security.Keys) == 0 {
		return nil, nil
	}
	ext, err := c.Radio.ExtAddrBytes()
	if err != nil {
		return nil, fmt.Errorf("secured acks need the local extended address: %w", err)
	}
	engine, err := encrypt.NewEngine(ext)
	if err != nil {
		return nil, err
	}
	for i, entry := range c.Security.Keys {
		kc, key, err := entry.Decode()
		if err != nil {
			return nil, fmt.Errorf("security.keys[%d]: %w", i, err)
		}
		if err := engine.AddKey(kc.ID, key); err != nil {
			return nil, fmt.Errorf("security.keys[%d]: %w", i, err)
		}
	}
	return engine, nil
}

// AckTable creates the per-neighbour Ack data table
func (c *Config) AckTable() (*ackdata.Table, error) {
	table := ackdata.NewTable()
	table.SetPendingForAll(c.AckData.PendingForAll)
	for i, entry := range c.AckData.Entries {
		addr, extended, ies, err := entry.Decode()
		if err != nil {
			return nil, fmt.Errorf("ackData.entries[%d]: %w", i, err)
		}
		if entry.Pending {
			if err := table.SetPending(addr, extended); err != nil {
				return nil, fmt.Errorf("ackData.entries[%d]: %w", i, err)
			}
		}
		if ies != nil {
			if err := table.SetIE(addr, extended, ies); err != nil {
				return nil, fmt.Errorf("ackData.entries[%d]: %w", i, err)
			}
		}
	}
	return table, nil
}
