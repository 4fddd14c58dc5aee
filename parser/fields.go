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

package parser

import (
	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// field returns the size-octet slice at off when the parse level covers it.
// The slice has its capacity clipped so writes cannot run into the next field.
func (f *Frame) field(off, size int, level ParseLevel) []byte {
	if off == 0 || size == 0 || f.level < level {
		return nil
	}
	return f.buf[off : off+size : off+size]
}

// Level returns the current parse level
func (f *Frame) Level() ParseLevel { return f.level }

// ValidLen returns the number of valid octets, PHR included
func (f *Frame) ValidLen() int { return f.validLen }

// Buffer returns the whole underlying buffer
func (f *Frame) Buffer() []byte { return f.buf }

// PSDU returns the frame without its PHR, FCS included. It requires LevelFull.
func (f *Frame) PSDU() []byte {
	if f.level < LevelFull {
		return nil
	}
	return f.buf[frame.PHRSize:f.off.frameEnd]
}

// Control returns the decoded frame control field. It is the zero value
// below LevelFCFOffsets.
func (f *Frame) Control() frame.Control { return f.ctrl }

// SecurityEnabled reports the security enabled bit
func (f *Frame) SecurityEnabled() bool { return f.ctrl.SecurityEnabled }

// PANIDCompression reports the PAN ID compression bit
func (f *Frame) PANIDCompression() bool { return f.ctrl.PANIDCompression }

// SeqNumSuppressed reports the sequence number suppression bit
func (f *Frame) SeqNumSuppressed() bool { return f.ctrl.SeqNumSuppression }

// IEPresent reports the IE present bit
func (f *Frame) IEPresent() bool { return f.ctrl.IEPresent }

// DSN returns the sequence number field, or nil if the frame has none
func (f *Frame) DSN() []byte {
	return f.field(f.off.dsn, frame.DSNSize, LevelFCFOffsets)
}

// DstPANID returns the destination PAN ID field, or nil if absent
func (f *Frame) DstPANID() []byte {
	return f.field(f.off.dstPANID, frame.PANIDSize, LevelFCFOffsets)
}

// DstAddr returns the destination address field, or nil if absent
func (f *Frame) DstAddr() []byte {
	return f.field(f.off.dstAddr, f.ctrl.DstAddrMode.Size(), LevelFCFOffsets)
}

// DstAddrExtended reports whether the destination address is extended
func (f *Frame) DstAddrExtended() bool { return f.ctrl.DstAddrMode == frame.AddrModeExtended }

// SrcPANID returns the source PAN ID field, or nil if absent
func (f *Frame) SrcPANID() []byte {
	return f.field(f.off.srcPANID, frame.PANIDSize, LevelFCFOffsets)
}

// SrcAddr returns the source address field, or nil if absent
func (f *Frame) SrcAddr() []byte {
	return f.field(f.off.srcAddr, f.ctrl.SrcAddrMode.Size(), LevelFCFOffsets)
}

// SrcAddrExtended reports whether the source address is extended
func (f *Frame) SrcAddrExtended() bool { return f.ctrl.SrcAddrMode == frame.AddrModeExtended }

// SrcAddrShort reports whether the source address is short
func (f *Frame) SrcAddrShort() bool { return f.ctrl.SrcAddrMode == frame.AddrModeShort }

// SrcAddrSize returns the length of the source address field
func (f *Frame) SrcAddrSize() int { return f.ctrl.SrcAddrMode.Size() }

// AddressingEnd returns the offset just past the addressing fields, or zero
// below LevelFCFOffsets
func (f *Frame) AddressingEnd() int {
	if f.level < LevelFCFOffsets {
		return 0
	}
	return f.off.addressingEnd
}

// SecurityControlField returns the security control octet as a writable
// field. Its position is known from the frame control field alone, so it is
// available from LevelFCFOffsets. Nil when security is disabled.
func (f *Frame) SecurityControlField() []byte {
	return f.field(f.off.secCtrl, frame.SecurityControlSize, LevelFCFOffsets)
}

// SecurityControl returns the decoded security control octet. It is the
// zero value for unsecured frames and below LevelSecCtrlOffsets.
func (f *Frame) SecurityControl() security.Control { return f.secCtrl }

// SecurityLevel returns the security level, LevelNone for unsecured frames
func (f *Frame) SecurityLevel() security.Level { return f.secCtrl.Level }

// KeyIDMode returns the key identifier mode
func (f *Frame) KeyIDMode() security.KeyIDMode { return f.secCtrl.KeyIDMode }

// FrameCounter returns the frame counter field, or nil if absent or suppressed
func (f *Frame) FrameCounter() []byte {
	return f.field(f.off.frameCounter, frame.FrameCounterSize, LevelSecCtrlOffsets)
}

// KeyID returns the key identifier field, or nil if absent
func (f *Frame) KeyID() []byte {
	return f.field(f.off.keyID, f.secCtrl.KeyIDMode.Size(), LevelSecCtrlOffsets)
}

// MICSize returns the length of the message integrity code implied by the
// security level
func (f *Frame) MICSize() int { return f.secCtrl.Level.MICSize() }

// AuxSecHdrEnd returns the offset just past the auxiliary security header,
// or zero below LevelSecCtrlOffsets. For unsecured frames it equals
// AddressingEnd.
func (f *Frame) AuxSecHdrEnd() int {
	if f.level < LevelSecCtrlOffsets {
		return 0
	}
	return f.off.auxSecHdrEnd
}

// AuxSecHdrBody returns the auxiliary security header after the security
// control octet: frame counter and key identifier. Nil for unsecured frames.
func (f *Frame) AuxSecHdrBody() []byte {
	if f.off.secCtrl == 0 {
		return nil
	}
	start := f.off.secCtrl + frame.SecurityControlSize
	return f.field(start, f.off.auxSecHdrEnd-start, LevelSecCtrlOffsets)
}

// HeaderIESpan returns n writable octets starting where the header IEs
// begin. It is available from LevelAuxSecHdrEnd for frames with the IE
// present bit set and panics if n runs past the buffer.
func (f *Frame) HeaderIESpan(n int) []byte {
	if !f.ctrl.IEPresent {
		return nil
	}
	return f.field(f.off.auxSecHdrEnd, n, LevelAuxSecHdrEnd)
}

// HeaderIEs returns the header IEs including any termination element. It
// requires LevelFull.
func (f *Frame) HeaderIEs() []byte {
	return f.field(f.off.auxSecHdrEnd, f.off.headerIEEnd-f.off.auxSecHdrEnd, LevelFull)
}

// PayloadOffset returns the offset of the MAC payload, or zero below LevelFull
func (f *Frame) PayloadOffset() int {
	if f.level < LevelFull {
		return 0
	}
	return f.off.payload
}

// Payload returns the MAC payload between the header and the MIC
func (f *Frame) Payload() []byte {
	return f.field(f.off.payload, f.off.mic-f.off.payload, LevelFull)
}

// MICOffset returns the offset of the message integrity code, or zero below LevelFull
func (f *Frame) MICOffset() int {
	if f.level < LevelFull {
		return 0
	}
	return f.off.mic
}

// MIC returns the message integrity code field, or nil if the level has none
func (f *Frame) MIC() []byte {
	return f.field(f.off.mic, f.MICSize(), LevelFull)
}

// Header returns the MAC header from the frame control field to the start of
// the payload. It requires LevelFull.
func (f *Frame) Header() []byte {
	return f.field(frame.FCFOffset, f.off.payload-frame.FCFOffset, LevelFull)
}
