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

package iewriter

import (
	"encoding/binary"

	"github.com/ZaparooProject/go-ieee802154/frame"
)

// CSL IE content sizes
const (
	CSLContentSize           = 4
	CSLContentWithRendezvous = 6
)

// CSLSource provides the receiver's coordinated sampled listening schedule.
// Both values are in units of 10 symbols.
type CSLSource interface {
	CSLPhase() uint16
	CSLPeriod() uint16
}

// CSLHandler writes the current CSL phase and period into a CSL IE. A
// rendezvous time, if present, is left untouched.
func CSLHandler(src CSLSource) Handler {
	return func(content []byte) {
		if len(content) < CSLContentSize {
			return
		}
		binary.LittleEndian.PutUint16(content[0:], src.CSLPhase())
		binary.LittleEndian.PutUint16(content[2:], src.CSLPeriod())
	}
}

// Metric selects one link metric value in an Enhanced-ACK probing IE
type Metric int

const (
	MetricLQI Metric = iota
	MetricLinkMargin
	MetricRSSI
)

// String returns the name of the metric
func (m Metric) String() string {
	switch m {
	case MetricLQI:
		return "lqi"
	case MetricLinkMargin:
		return "link-margin"
	case MetricRSSI:
		return "rssi"
	default:
		return "unknown"
	}
}

// LinkMetricsSource provides metric values of the frame being acknowledged
type LinkMetricsSource interface {
	LinkMetric(m Metric) byte
}

// ThreadOUI is the vendor OUI of Thread vendor-specific IEs, in over-the-air order
var ThreadOUI = [3]byte{0x9B, 0xB8, 0xEA}

// Vendor-specific IE layout for Enhanced-ACK probing
const (
	ThreadSubtypeEnhAckProbing = 0x00
	vendorHeaderSize           = len(ThreadOUI) + 1
)

// LinkMetricsHandler fills the metric placeholders of a Thread Enhanced-ACK
// probing IE, in the order the metrics were configured. Vendor IEs from
// other vendors or with another subtype are left as they are.
func LinkMetricsHandler(src LinkMetricsSource, metrics ...Metric) Handler {
	return func(content []byte) {
		if len(content) < vendorHeaderSize+len(metrics) {
			return
		}
		if [3]byte(content[:3]) != ThreadOUI || content[3] != ThreadSubtypeEnhAckProbing {
			return
		}
		for i, m := range metrics {
			content[vendorHeaderSize+i] = src.LinkMetric(m)
		}
	}
}

// ProbingIE encodes an Enhanced-ACK probing IE with zeroed placeholders for
// n metrics, ready to be stored in an ack data table
func ProbingIE(n int) []byte {
	ie := make([]byte, frame.IEHeaderSize+vendorHeaderSize+n)
	_ = frame.PutHeaderIE(ie, frame.IEVendorSpecific, vendorHeaderSize+n)
	copy(ie[frame.IEHeaderSize:], ThreadOUI[:])
	ie[frame.IEHeaderSize+len(ThreadOUI)] = ThreadSubtypeEnhAckProbing
	return ie
}
