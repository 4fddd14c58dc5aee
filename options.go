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
	"errors"

	"go.uber.org/zap"
)

// Option is a functional option for configuring an AckGenerator
type Option func(*AckGenerator) error

// WithLogger sets the logger used to report aborted builds
func WithLogger(logger *zap.Logger) Option {
	return func(g *AckGenerator) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		g.logger = logger
		return nil
	}
}

// WithPendingBitOracle sets the oracle consulted for the frame pending bit.
// Without one the bit is never set.
func WithPendingBitOracle(oracle PendingBitOracle) Option {
	return func(g *AckGenerator) error {
		g.pending = oracle
		return nil
	}
}

// WithIESource sets the source of header IEs. Without one Acks carry no IEs.
func WithIESource(source IESource) Option {
	return func(g *AckGenerator) error {
		g.ieSource = source
		return nil
	}
}

// WithIEWriter enables finalization of spliced header IEs
func WithIEWriter(writer IEWriter) Option {
	return func(g *AckGenerator) error {
		g.ieWriter = writer
		return nil
	}
}

// WithEncrypter enables staging of the security transform for secured Acks.
// Without one secured Acks are returned with their MIC space unfilled.
func WithEncrypter(encrypter AckEncrypter) Option {
	return func(g *AckGenerator) error {
		g.encrypter = encrypter
		return nil
	}
}

// WithObserver sets an observer notified of every build outcome
func WithObserver(observer Observer) Option {
	return func(g *AckGenerator) error {
		g.observer = observer
		return nil
	}
}
