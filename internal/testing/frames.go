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

// Package testing provides canned IEEE 802.15.4 frames for tests
package testing

import (
	"encoding/binary"

	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// Common addresses and PAN IDs, in over-the-air (little-endian) order
var (
	// TestShortAddr is short address 0x1234
	TestShortAddr = []byte{0x34, 0x12}
	// TestExtAddr is extended address 0x0807060504030201
	TestExtAddr = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	// TestPANID is PAN ID 0xABCD
	TestPANID = []byte{0xCD, 0xAB}
	// TestDstPANID is PAN ID 0x0102
	TestDstPANID = []byte{0x02, 0x01}
	// TestLocalPANID is PAN ID 0xBEEF
	TestLocalPANID = [2]byte{0xEF, 0xBE}
)

// SecuritySpec describes the auxiliary security header of a test frame
type SecuritySpec struct {
	KeyID        []byte
	Control      security.Control
	FrameCounter uint32
}

// FrameSpec describes a frame to build. Addressing modes follow the lengths
// of DstAddr and SrcAddr. PAN ID fields are emitted where the frame control
// field requires them, using DstPANID and SrcPANID.
type FrameSpec struct {
	DSN              *byte
	Security         *SecuritySpec
	DstPANID         []byte
	DstAddr          []byte
	SrcPANID         []byte
	SrcAddr          []byte
	IEs              []byte
	Payload          []byte
	Type             frame.FrameType
	Version          frame.Version
	PANIDCompression bool
	AckRequest       bool
}

// Seq returns a pointer to a sequence number for FrameSpec.DSN
func Seq(dsn byte) *byte {
	return &dsn
}

func addrMode(addr []byte) frame.AddrMode {
	switch len(addr) {
	case frame.ShortAddrSize:
		return frame.AddrModeShort
	case frame.ExtendedAddrSize:
		return frame.AddrModeExtended
	default:
		return frame.AddrModeNone
	}
}

func panID(id []byte) []byte {
	if len(id) == frame.PANIDSize {
		return id
	}
	return []byte{0x00, 0x00}
}

// BuildFrame assembles a frame with its PHR and a valid FCS. The MIC space
// implied by the security level is zero-filled.
func BuildFrame(spec FrameSpec) []byte {
	ctrl := frame.Control{
		Type:              spec.Type,
		SecurityEnabled:   spec.Security != nil,
		AckRequest:        spec.AckRequest,
		PANIDCompression:  spec.PANIDCompression,
		SeqNumSuppression: spec.DSN == nil && spec.Version == frame.Version2015,
		IEPresent:         len(spec.IEs) > 0,
		DstAddrMode:       addrMode(spec.DstAddr),
		Version:           spec.Version,
		SrcAddrMode:       addrMode(spec.SrcAddr),
	}

	psdu := make([]byte, frame.FCFSize, frame.MaxPSDUSize)
	_ = ctrl.Encode(psdu)

	if spec.DSN != nil {
		psdu = append(psdu, *spec.DSN)
	}

	dstPAN, srcPAN := ctrl.PANIDsPresent()
	if dstPAN {
		psdu = append(psdu, panID(spec.DstPANID)...)
	}
	psdu = append(psdu, spec.DstAddr...)
	if srcPAN {
		psdu = append(psdu, panID(spec.SrcPANID)...)
	}
	psdu = append(psdu, spec.SrcAddr...)

	mic := 0
	if sec := spec.Security; sec != nil {
		psdu = append(psdu, sec.Control.Byte())
		if !sec.Control.FrameCounterSuppressed {
			psdu = binary.LittleEndian.AppendUint32(psdu, sec.FrameCounter)
		}
		psdu = append(psdu, sec.KeyID...)
		mic = sec.Control.Level.MICSize()
	}

	psdu = append(psdu, spec.IEs...)
	psdu = append(psdu, spec.Payload...)
	psdu = append(psdu, make([]byte, mic+frame.FCSSize)...)
	_ = frame.AppendFCS(psdu)

	return append([]byte{byte(len(psdu))}, psdu...)
}

// HeaderIE encodes a single header IE with the given content
func HeaderIE(elementID byte, content ...byte) []byte {
	ie := make([]byte, frame.IEHeaderSize, frame.IEHeaderSize+len(content))
	_ = frame.PutHeaderIE(ie, elementID, len(content))
	return append(ie, content...)
}

// ShortDataFrame is the canned data frame used throughout the tests: no
// security, DSN 0x07, source PAN ID 0xABCD, short source 0x1234, short
// destination 0xFFFF.
func ShortDataFrame() []byte {
	return BuildFrame(FrameSpec{
		Type:     frame.FrameTypeData,
		Version:  frame.Version2015,
		DSN:      Seq(0x07),
		DstPANID: TestDstPANID,
		DstAddr:  []byte{0xFF, 0xFF},
		SrcPANID: TestPANID,
		SrcAddr:  TestShortAddr,
	})
}
