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

package uart

import (
	"errors"
	"fmt"

	ieee802154 "github.com/ZaparooProject/go-ieee802154"
	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/metrics"
	"github.com/ZaparooProject/go-ieee802154/parser"
)

var (
	// ErrBadLength is returned for a PSDU length outside the 802.15.4 limits
	ErrBadLength = errors.New("invalid PSDU length")
	// ErrBadFCS is returned for a received frame with a wrong FCS
	ErrBadFCS = errors.New("FCS mismatch")
)

// Transformer finishes a staged Ack, e.g. an encryption engine
type Transformer interface {
	Prepared() bool
	Transform() error
}

// Responder turns received PSDUs into Enhanced Acks ready for the air. Like
// the generator it wraps, it is not safe for concurrent use.
type Responder struct {
	gen         *ieee802154.AckGenerator
	transformer Transformer
	rx          parser.Frame
	rxBuf       [frame.BufferSize]byte
	checkFCS    bool
}

// NewResponder creates a responder. transformer may be nil when Acks are
// never secured.
func NewResponder(gen *ieee802154.AckGenerator, transformer Transformer, checkFCS bool) *Responder {
	return &Responder{gen: gen, transformer: transformer, checkFCS: checkFCS}
}

// Respond builds the reply to one received PSDU, FCS included. It returns
// the Ack with its PHR first, or nil when the frame needs no Enhanced Ack,
// together with the metrics.Result* value to report. The returned slice
// aliases the generator buffer.
func (r *Responder) Respond(psdu []byte) ([]byte, string, error) {
	if len(psdu) < frame.FCFSize+frame.FCSSize || len(psdu) > frame.MaxPSDUSize {
		return nil, metrics.ResultDropped, fmt.Errorf("%w: %d", ErrBadLength, len(psdu))
	}
	if r.checkFCS && !frame.ValidateFCS(psdu) {
		return nil, metrics.ResultDropped, ErrBadFCS
	}

	buf := r.rxBuf[:frame.PHRSize+len(psdu)]
	buf[frame.PHROffset] = byte(len(psdu))
	copy(buf[frame.PHRSize:], psdu)
	if err := r.rx.Init(buf, len(buf), parser.LevelFull); err != nil {
		return nil, metrics.ResultDropped, fmt.Errorf("parse received frame: %w", err)
	}

	ctrl := r.rx.Control()
	if !ctrl.AckRequest {
		return nil, metrics.ResultNoAckReq, nil
	}
	if ctrl.Version != frame.Version2015 {
		// Imm-Acks are left to the radio
		return nil, metrics.ResultNoAck, nil
	}

	ack, err := r.gen.Create(&r.rx)
	if err != nil {
		return nil, metrics.ResultNoAck, err
	}
	if r.transformer != nil && r.transformer.Prepared() {
		if err := r.transformer.Transform(); err != nil {
			return nil, metrics.ResultNoAck, fmt.Errorf("transform ack: %w", err)
		}
	}
	if err := frame.AppendFCS(ack[frame.PHRSize:]); err != nil {
		return nil, metrics.ResultNoAck, err
	}
	return ack, metrics.ResultAcked, nil
}
