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

// Package uart bridges a radio co-processor on a serial port to the Enhanced
// Ack generator.
//
// The co-processor and the host exchange PHR-framed PSDUs: one length octet
// followed by that many octets of MAC frame, FCS included. Every received
// frame that requests a 2015 acknowledgement is answered with an Enhanced Ack
// in the same framing.
package uart

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	ieee802154 "github.com/ZaparooProject/go-ieee802154"
	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/internal/transport"
	"github.com/ZaparooProject/go-ieee802154/metrics"
)

const (
	openRetries    = 5
	openRetryDelay = 200 * time.Millisecond
)

// FrameObserver counts received frames by metrics.Result* value
type FrameObserver interface {
	FrameHandled(result string)
}

// Option configures a Bridge
type Option func(*Bridge)

// WithTransformer runs t on every Ack it has staged before the Ack is sent
func WithTransformer(t Transformer) Option {
	return func(b *Bridge) { b.responder.transformer = t }
}

// WithFrameObserver reports the result of every received frame to o
func WithFrameObserver(o FrameObserver) Option {
	return func(b *Bridge) { b.observer = o }
}

// WithLogger sets the bridge logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithFCSCheck drops received frames whose FCS does not match when enabled
func WithFCSCheck(enabled bool) Option {
	return func(b *Bridge) { b.responder.checkFCS = enabled }
}

// Bridge reads frames from a serial link and writes back Enhanced Acks. Run
// owns the generator; nothing else may call Create on it while Run is active.
type Bridge struct {
	port      io.ReadWriteCloser
	reader    *bufio.Reader
	responder *Responder
	observer  FrameObserver
	logger    *zap.Logger
	portName  string
	closeOnce sync.Once
	psdu      [frame.MaxPSDUSize]byte
}

// New creates a bridge over an already open port
func New(port io.ReadWriteCloser, portName string, gen *ieee802154.AckGenerator, opts ...Option) *Bridge {
	b := &Bridge{
		port:      port,
		reader:    bufio.NewReaderSize(port, 2*frame.BufferSize),
		responder: NewResponder(gen, nil, true),
		logger:    zap.NewNop(),
		portName:  portName,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open opens portName at baudRate and creates a bridge over it. Opening is
// retried while the port is missing or busy, as USB CDC devices often are
// right after they enumerate.
func Open(
	ctx context.Context, portName string, baudRate int, readTimeout time.Duration,
	gen *ieee802154.AckGenerator, opts ...Option,
) (*Bridge, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := transport.WithRetry(ctx, transport.RetryConfig{
		Description: "open " + portName,
		MaxRetries:  openRetries,
		RetryDelay:  openRetryDelay,
	}, func() (serial.Port, bool, error) {
		p, err := serial.Open(portName, mode)
		if err == nil {
			return p, false, nil
		}
		var portErr *serial.PortError
		if errors.As(err, &portErr) &&
			(portErr.Code() == serial.PortBusy || portErr.Code() == serial.PortNotFound) {
			return nil, true, nil
		}
		return nil, false, err
	})
	if err != nil {
		return nil, fmt.Errorf("uart: open %s: %w", portName, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("uart: set read timeout on %s: %w", portName, err)
		}
	}
	// USB CDC ACM co-processors wait for DTR before they stream
	_ = port.SetDTR(true)
	_ = port.SetRTS(true)

	return New(port, portName, gen, opts...), nil
}

// Run handles frames until ctx is done or the port fails. It returns
// ctx.Err() after a cancellation.
func (b *Bridge) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = b.Close() })
	defer stop()

	b.logger.Info("uart bridge started", zap.String("port", b.portName))
	defer b.logger.Info("uart bridge stopped", zap.String("port", b.portName))

	for {
		psdu, err := b.readFrame()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.ErrNoProgress) {
				// read timeouts with nothing on the line
				continue
			}
			if errors.Is(err, ErrBadLength) {
				b.logger.Warn("discarding octet with invalid PHR", zap.Error(err))
				b.report(metrics.ResultDropped)
				continue
			}
			return fmt.Errorf("uart: read %s: %w", b.portName, err)
		}

		ack, result, err := b.responder.Respond(psdu)
		b.report(result)
		if err != nil {
			b.logger.Debug("no ack sent", zap.String("result", result), zap.Error(err))
			continue
		}
		if ack == nil {
			continue
		}
		if _, err := b.port.Write(ack); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("uart: write %s: %w", b.portName, err)
		}
	}
}

// Close closes the serial port. It is safe to call more than once.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() { err = b.port.Close() })
	return err
}

// readFrame reads one PHR-framed PSDU
func (b *Bridge) readFrame() ([]byte, error) {
	phr, err := b.reader.ReadByte()
	if err != nil {
		return nil, err
	}
	length := int(phr)
	if length == 0 || length > frame.MaxPSDUSize {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, length)
	}

	psdu := b.psdu[:length]
	if _, err := io.ReadFull(b.reader, psdu); err != nil {
		return nil, err
	}
	return psdu, nil
}

func (b *Bridge) report(result string) {
	if b.observer != nil {
		b.observer.FrameHandled(result)
	}
}
