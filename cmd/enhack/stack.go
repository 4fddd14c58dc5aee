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

package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	ieee802154 "github.com/ZaparooProject/go-ieee802154"
	"github.com/ZaparooProject/go-ieee802154/config"
	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/iewriter"
	"github.com/ZaparooProject/go-ieee802154/metrics"
	"github.com/ZaparooProject/go-ieee802154/transport/uart"
)

// cslUnit is 10 symbols of the 2.4 GHz O-QPSK PHY
const cslUnit = 160 * time.Microsecond

// cslClock derives the CSL phase from the time elapsed since start, taking
// the first sample window to open at start
type cslClock struct {
	start  time.Time
	period uint16
}

func (c cslClock) CSLPeriod() uint16 { return c.period }

func (c cslClock) CSLPhase() uint16 {
	period := uint64(c.period)
	units := uint64(time.Since(c.start) / cslUnit)
	return uint16((period - units%period) % period)
}

type stack struct {
	gen         *ieee802154.AckGenerator
	transformer uart.Transformer
}

// newStack wires the generator and its collaborators from cfg. observer may
// be nil.
func newStack(cfg *config.Config, logger *zap.Logger, observer *metrics.Observer) (*stack, error) {
	pan, err := cfg.Radio.PANIDBytes()
	if err != nil {
		return nil, err
	}
	counters, err := cfg.CounterStore()
	if err != nil {
		return nil, err
	}
	table, err := cfg.AckTable()
	if err != nil {
		return nil, err
	}
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}

	opts := []ieee802154.Option{
		ieee802154.WithLogger(logger),
		ieee802154.WithPendingBitOracle(table),
		ieee802154.WithIESource(table),
	}
	if cfg.Radio.CSLPeriod > 0 {
		w := iewriter.New()
		w.Register(frame.IECSL, iewriter.CSLHandler(cslClock{start: time.Now(), period: cfg.Radio.CSLPeriod}))
		opts = append(opts, ieee802154.WithIEWriter(w))
	}
	if observer != nil {
		opts = append(opts, ieee802154.WithObserver(observer))
	}

	s := &stack{}
	if engine != nil {
		opts = append(opts, ieee802154.WithEncrypter(engine))
		s.transformer = engine
	}

	s.gen, err = ieee802154.NewAckGenerator(ieee802154.StaticPANID(pan), counters, opts...)
	if err != nil {
		return nil, fmt.Errorf("create ack generator: %w", err)
	}
	logger.Debug("ack generator ready",
		zap.Int("keys", len(cfg.Security.Keys)),
		zap.Int("ackDataEntries", len(cfg.AckData.Entries)),
		zap.Uint16("cslPeriod", cfg.Radio.CSLPeriod))
	return s, nil
}
