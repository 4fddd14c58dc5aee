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

// Package parser provides a structural view over IEEE 802.15.4 MAC frames.
//
// A Frame does not copy the bytes it describes. It tracks how much of the
// underlying buffer is valid and how far the frame has been parsed, and it
// derives field offsets as the parse level advances. The same view is used
// for received frames and for frames being built in place, where fields are
// written first and the parse level is extended afterwards.
package parser

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/security"
)

var (
	// ErrTruncated is returned when the valid data does not cover the requested parse level
	ErrTruncated = errors.New("frame truncated")
	// ErrUnsupportedFrame is returned for frame layouts the parser does not handle
	ErrUnsupportedFrame = errors.New("unsupported frame")
	// ErrLevelRegression is returned when Extend is asked to move backwards
	ErrLevelRegression = errors.New("parse level cannot decrease")
)

// ParseLevel describes how much of a frame has been structured
type ParseLevel int

const (
	// LevelNone means nothing is known about the frame yet
	LevelNone ParseLevel = iota
	// LevelFCFOffsets means the frame control field is valid and the
	// sequence number and addressing offsets are known
	LevelFCFOffsets
	// LevelSecCtrlOffsets means the security control octet is valid and the
	// frame counter and key identifier offsets are known
	LevelSecCtrlOffsets
	// LevelAuxSecHdrEnd means the whole auxiliary security header is valid
	LevelAuxSecHdrEnd
	// LevelFull means the whole frame is valid and IE and payload offsets are known
	LevelFull
)

// String returns the name of the parse level
func (l ParseLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelFCFOffsets:
		return "fcf-offsets"
	case LevelSecCtrlOffsets:
		return "sec-ctrl-offsets"
	case LevelAuxSecHdrEnd:
		return "aux-sec-hdr-end"
	case LevelFull:
		return "full"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// offsets are indexes into the frame buffer, which starts with the PHR.
// Zero means the field is absent since index 0 always holds the PHR.
type offsets struct {
	dsn           int
	dstPANID      int
	dstAddr       int
	srcPANID      int
	srcAddr       int
	addressingEnd int
	secCtrl       int
	frameCounter  int
	keyID         int
	auxSecHdrEnd  int
	headerIEEnd   int
	payload       int
	mic           int
	frameEnd      int
}

// Frame is a view over a frame buffer whose first octet is the PHR
type Frame struct {
	buf      []byte
	ctrl     frame.Control
	secCtrl  security.Control
	off      offsets
	validLen int
	level    ParseLevel
}

// New creates a view over buf with validLen valid octets and parses it up
// to the requested level.
func New(buf []byte, validLen int, level ParseLevel) (*Frame, error) {
	f := &Frame{}
	if err := f.Init(buf, validLen, level); err != nil {
		return nil, err
	}
	return f, nil
}

// NewReceived creates a fully parsed view over a received frame. The first
// octet of buf is the PHR and the PSDU includes the FCS.
func NewReceived(buf []byte) (*Frame, error) {
	return New(buf, len(buf), LevelFull)
}

// Init resets f to describe buf and parses up to the requested level. It
// performs no allocation so a view embedded in a long-lived struct can be
// reused for every frame.
func (f *Frame) Init(buf []byte, validLen int, level ParseLevel) error {
	*f = Frame{buf: buf}
	return f.Extend(validLen, level)
}

// Extend declares that validLen octets of the buffer are now valid and
// advances the parse level to at least level. Neither the valid length nor
// the level may decrease.
func (f *Frame) Extend(validLen int, level ParseLevel) error {
	if validLen < f.validLen {
		return fmt.Errorf("%w: valid length %d below %d", ErrLevelRegression, validLen, f.validLen)
	}
	if validLen > len(f.buf) {
		return fmt.Errorf("%w: valid length %d exceeds buffer of %d", ErrTruncated, validLen, len(f.buf))
	}
	if level < f.level {
		return fmt.Errorf("%w: %s to %s", ErrLevelRegression, f.level, level)
	}

	f.validLen = validLen
	for next := f.level + 1; next <= level; next++ {
		var err error
		switch next {
		case LevelFCFOffsets:
			err = f.parseFCF()
		case LevelSecCtrlOffsets:
			err = f.parseSecCtrl()
		case LevelAuxSecHdrEnd:
			err = f.parseAuxSecHdrEnd()
		case LevelFull:
			err = f.parseFull()
		default:
			err = fmt.Errorf("%w: unknown parse level %d", ErrUnsupportedFrame, next)
		}
		if err != nil {
			return err
		}
		f.level = next
	}
	return nil
}

func (f *Frame) parseFCF() error {
	if f.validLen < frame.PHRSize+frame.FCFSize {
		return fmt.Errorf("%w: frame control field", ErrTruncated)
	}
	ctrl, err := frame.DecodeControl(f.buf[frame.FCFOffset:])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedFrame, err)
	}
	switch ctrl.Type {
	case frame.FrameTypeMultipurpose, frame.FrameTypeFragment, frame.FrameTypeExtended:
		return fmt.Errorf("%w: frame type %d", ErrUnsupportedFrame, ctrl.Type)
	}
	if ctrl.Version > frame.Version2015 {
		return fmt.Errorf("%w: frame version %d", ErrUnsupportedFrame, ctrl.Version)
	}
	f.ctrl = ctrl

	off := frame.FCFOffset + frame.FCFSize
	if ctrl.SeqNumPresent() {
		f.off.dsn = off
		off += frame.DSNSize
	}

	dstPAN, srcPAN := ctrl.PANIDsPresent()
	if dstPAN {
		f.off.dstPANID = off
		off += frame.PANIDSize
	}
	if n := ctrl.DstAddrMode.Size(); n > 0 {
		f.off.dstAddr = off
		off += n
	}
	if srcPAN {
		f.off.srcPANID = off
		off += frame.PANIDSize
	}
	if n := ctrl.SrcAddrMode.Size(); n > 0 {
		f.off.srcAddr = off
		off += n
	}
	f.off.addressingEnd = off
	if ctrl.SecurityEnabled {
		f.off.secCtrl = off
	}
	return nil
}

func (f *Frame) parseSecCtrl() error {
	if !f.ctrl.SecurityEnabled {
		if f.validLen < f.off.addressingEnd {
			return fmt.Errorf("%w: addressing fields", ErrTruncated)
		}
		f.off.auxSecHdrEnd = f.off.addressingEnd
		return nil
	}
	if f.ctrl.Version == frame.Version2003 {
		return fmt.Errorf("%w: 2003 security", ErrUnsupportedFrame)
	}
	if f.validLen < f.off.secCtrl+frame.SecurityControlSize {
		return fmt.Errorf("%w: security control", ErrTruncated)
	}

	sc := security.DecodeControl(f.buf[f.off.secCtrl])
	if f.ctrl.Version < frame.Version2015 {
		sc.FrameCounterSuppressed = false
		sc.ASNInNonce = false
	}
	f.secCtrl = sc

	off := f.off.secCtrl + frame.SecurityControlSize
	if !sc.FrameCounterSuppressed {
		f.off.frameCounter = off
		off += frame.FrameCounterSize
	}
	if n := sc.KeyIDMode.Size(); n > 0 {
		f.off.keyID = off
		off += n
	}
	f.off.auxSecHdrEnd = off
	return nil
}

func (f *Frame) parseAuxSecHdrEnd() error {
	if f.validLen < f.off.auxSecHdrEnd {
		return fmt.Errorf("%w: auxiliary security header", ErrTruncated)
	}
	return nil
}

func (f *Frame) parseFull() error {
	psduLen := int(f.buf[frame.PHROffset])
	frameEnd := frame.PHRSize + psduLen
	if psduLen > frame.MaxPSDUSize || frameEnd > f.validLen {
		return fmt.Errorf("%w: PSDU length %d with %d valid octets", ErrTruncated, psduLen, f.validLen)
	}

	mic := f.secCtrl.Level.MICSize()
	micOff := frameEnd - frame.FCSSize - mic
	if micOff < f.off.auxSecHdrEnd {
		return fmt.Errorf("%w: PSDU length %d shorter than header", ErrTruncated, psduLen)
	}

	ieEnd := f.off.auxSecHdrEnd
	if f.ctrl.IEPresent {
		n, err := frame.WalkHeaderIEs(f.buf[f.off.auxSecHdrEnd:micOff], nil)
		if err != nil {
			return fmt.Errorf("%w: header IEs: %w", ErrTruncated, err)
		}
		ieEnd += n
	}

	f.off.headerIEEnd = ieEnd
	f.off.payload = ieEnd
	f.off.mic = micOff
	f.off.frameEnd = frameEnd
	return nil
}
