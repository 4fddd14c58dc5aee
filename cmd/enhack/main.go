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

// Command enhack builds IEEE 802.15.4 Enhanced Acks, either for a single
// frame given in hex or for every frame a radio co-processor forwards over a
// serial port.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/go-ieee802154/config"
	"github.com/ZaparooProject/go-ieee802154/internal/logging"
	"github.com/ZaparooProject/go-ieee802154/metrics"
	"github.com/ZaparooProject/go-ieee802154/transport/uart"
)

type flags struct {
	configPath *string
	frameHex   *string
	port       *string
	debug      *bool
	noFCSCheck *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "", "Configuration file (default: $ENHACK_CONFIG or ./enhack.yaml)"),
		frameHex: flag.String("frame", "",
			"Received PSDU in hex, FCS included. Prints the Ack and exits instead of running the bridge."),
		port:       flag.String("port", "", "Serial port of the radio co-processor, overrides serial.port"),
		debug:      flag.Bool("debug", false, "Enable debug logging"),
		noFCSCheck: flag.Bool("no-fcs-check", false, "Accept received frames without checking their FCS"),
	}
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.port != "" {
		cfg.Serial.Port = *f.port
	}

	logger, err := logging.New(cfg.Logging, nil)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if *f.frameHex != "" {
		if err := runFrame(os.Stdout, cfg, logger, *f.frameHex, !*f.noFCSCheck); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runBridge(ctx, cfg, logger, !*f.noFCSCheck); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bridge failed", zap.Error(err))
		os.Exit(1)
	}
}

// runFrame prints the Enhanced Ack for one received PSDU
func runFrame(w io.Writer, cfg *config.Config, logger *zap.Logger, frameHex string, checkFCS bool) error {
	psdu, err := hex.DecodeString(strings.NewReplacer(" ", "", ":", "").Replace(frameHex))
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}

	stack, err := newStack(cfg, logger, nil)
	if err != nil {
		return err
	}

	ack, result, err := uart.NewResponder(stack.gen, stack.transformer, checkFCS).Respond(psdu)
	if err != nil {
		return fmt.Errorf("%s: %w", result, err)
	}
	if ack == nil {
		_, _ = fmt.Fprintf(w, "%s\n", result)
		return nil
	}
	_, _ = fmt.Fprintf(w, "%s %X\n", result, ack)
	return nil
}

// runBridge answers frames on the serial port until ctx is done
func runBridge(ctx context.Context, cfg *config.Config, logger *zap.Logger, checkFCS bool) error {
	if cfg.Serial.Port == "" {
		return errors.New("no serial port configured")
	}

	var observer *metrics.Observer
	if cfg.Metrics.Enable {
		reg := metrics.NewRegistry()
		observer = metrics.NewObserver(reg)
		srv := serveMetrics(cfg.Metrics, metrics.Handler(reg), logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	stack, err := newStack(cfg, logger, observer)
	if err != nil {
		return err
	}

	opts := []uart.Option{uart.WithLogger(logger), uart.WithFCSCheck(checkFCS)}
	if stack.transformer != nil {
		opts = append(opts, uart.WithTransformer(stack.transformer))
	}
	if observer != nil {
		opts = append(opts, uart.WithFrameObserver(observer))
	}

	bridge, err := uart.Open(ctx, cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.ReadTimeout, stack.gen, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = bridge.Close() }()

	return bridge.Run(ctx)
}

func serveMetrics(cfg config.MetricsConfig, handler http.Handler, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, handler)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
