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

// Package metrics exports Enhanced Ack generation metrics to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	ieee802154 "github.com/ZaparooProject/go-ieee802154"
	"github.com/ZaparooProject/go-ieee802154/encrypt"
	"github.com/ZaparooProject/go-ieee802154/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Abort reasons used as label values
const (
	ReasonCounterExhausted = "counter_exhausted"
	ReasonUnknownKey       = "unknown_key"
	ReasonFrameCounter     = "frame_counter"
	ReasonNoKey            = "no_key"
	ReasonEncryption       = "encryption"
	ReasonOther            = "other"
)

// Frame results used as label values
const (
	ResultAcked    = "acked"
	ResultNoAck    = "no_ack"
	ResultDropped  = "dropped"
	ResultNoAckReq = "no_ack_request"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler exposing reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Observer records Ack build outcomes. It implements the Observer
// collaborator of the Ack generator.
type Observer struct {
	AcksBuilt   prometheus.Counter
	AcksAborted *prometheus.CounterVec // labels: reason
	AckLength   prometheus.Histogram
	Frames      *prometheus.CounterVec // labels: result
}

// NewObserver registers the Ack metrics on reg
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		AcksBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enhack_acks_built_total",
			Help: "Enhanced Acks built.",
		}),
		AcksAborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enhack_acks_aborted_total",
			Help: "Enhanced Ack builds aborted, by reason.",
		}, []string{"reason"}),
		AckLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enhack_ack_length_octets",
			Help:    "PSDU length of built Enhanced Acks.",
			Buckets: []float64{9, 16, 32, 48, 64, 96, 127},
		}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enhack_frames_received_total",
			Help: "Received frames handled by the bridge, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(o.AcksBuilt, o.AcksAborted, o.AckLength, o.Frames)
	return o
}

// AckBuilt implements the generator Observer
func (o *Observer) AckBuilt(length int) {
	o.AcksBuilt.Inc()
	o.AckLength.Observe(float64(length))
}

// AckAborted implements the generator Observer
func (o *Observer) AckAborted(err error) {
	o.AcksAborted.WithLabelValues(Reason(err)).Inc()
}

// FrameHandled counts a received frame by result
func (o *Observer) FrameHandled(result string) {
	o.Frames.WithLabelValues(result).Inc()
}

// Reason maps a build error to its label value
func Reason(err error) string {
	switch {
	case errors.Is(err, security.ErrCounterExhausted):
		return ReasonCounterExhausted
	case errors.Is(err, security.ErrUnknownKey):
		return ReasonUnknownKey
	case errors.Is(err, ieee802154.ErrFrameCounter):
		return ReasonFrameCounter
	case errors.Is(err, encrypt.ErrNoKey):
		return ReasonNoKey
	case errors.Is(err, ieee802154.ErrEncryptionPrepare):
		return ReasonEncryption
	default:
		return ReasonOther
	}
}
