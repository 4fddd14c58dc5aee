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

// Package config loads the settings of the Enhanced Ack bridge.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ZaparooProject/go-ieee802154/frame"
	"github.com/ZaparooProject/go-ieee802154/security"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override, e.g. ENHACK_RADIO_PANID
const EnvPrefix = "ENHACK"

// RadioConfig holds the local PIB values. Numbers are written as humans read
// them (0xABCD), not in over-the-air order.
type RadioConfig struct {
	PANID     string `mapstructure:"panId"`
	ShortAddr string `mapstructure:"shortAddr"`
	ExtAddr   string `mapstructure:"extAddr"`
	// CSLPeriod in units of 10 symbols; zero disables CSL IE finalization
	CSLPeriod uint16 `mapstructure:"cslPeriod"`
}

// KeyEntry describes one security key
type KeyEntry struct {
	ID           string `mapstructure:"id"`
	Key          string `mapstructure:"key"`
	Mode         int    `mapstructure:"mode"`
	FrameCounter uint32 `mapstructure:"frameCounter"`
	UseGlobal    bool   `mapstructure:"useGlobalCounter"`
}

// SecurityConfig holds the key table and frame counters
type SecurityConfig struct {
	Keys               []KeyEntry `mapstructure:"keys"`
	GlobalFrameCounter uint32     `mapstructure:"globalFrameCounter"`
}

// AckDataEntry describes what Acks to one neighbour carry
type AckDataEntry struct {
	Addr    string `mapstructure:"addr"`
	IEs     string `mapstructure:"ies"`
	Pending bool   `mapstructure:"pending"`
}

// AckDataConfig holds the per-neighbour Ack data
type AckDataConfig struct {
	Entries       []AckDataEntry `mapstructure:"entries"`
	PendingForAll bool           `mapstructure:"pendingForAll"`
}

// LumberjackConfig configures the rotating log file
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig configures level, encoding and outputs
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
	Enable bool   `mapstructure:"enable"`
}

// SerialConfig configures the radio co-processor link
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	BaudRate    int           `mapstructure:"baudRate"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// Config is the top-level configuration
type Config struct {
	Radio    RadioConfig    `mapstructure:"radio"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Serial   SerialConfig   `mapstructure:"serial"`
	Security SecurityConfig `mapstructure:"security"`
	AckData  AckDataConfig  `mapstructure:"ackData"`
}

// Load reads the configuration from a YAML, TOML or JSON file and ENHACK_
// environment variables. With an empty path ENHACK_CONFIG is used, and
// without that ./enhack.yaml is tried. A missing default file is not an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("enhack")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("radio.panId", "0xFFFF")
	v.SetDefault("radio.shortAddr", "0xFFFE")
	v.SetDefault("radio.extAddr", "")
	v.SetDefault("radio.cslPeriod", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 14)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9154")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baudRate", 115200)
	v.SetDefault("serial.readTimeout", "100ms")

	v.SetDefault("security.globalFrameCounter", 0)
	v.SetDefault("ackData.pendingForAll", false)
}

// Validate checks every field that is decoded later
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Radio.PANIDBytes(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Radio.ShortAddrBytes(); err != nil {
		errs = append(errs, err)
	}
	if c.Radio.ExtAddr != "" {
		if _, err := c.Radio.ExtAddrBytes(); err != nil {
			errs = append(errs, err)
		}
	}
	for i := range c.Security.Keys {
		if _, _, err := c.Security.Keys[i].Decode(); err != nil {
			errs = append(errs, fmt.Errorf("security.keys[%d]: %w", i, err))
		}
	}
	for i := range c.AckData.Entries {
		if _, _, _, err := c.AckData.Entries[i].Decode(); err != nil {
			errs = append(errs, fmt.Errorf("ackData.entries[%d]: %w", i, err))
		}
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("serial.baudRate must be positive, got %d", c.Serial.BaudRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// parseUint16 parses a hex number such as 0xABCD into over-the-air order
func parseUint16(field, s string) ([2]byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "0x"), 16, 16)
	if err != nil {
		return [2]byte{}, fmt.Errorf("%s: %w", field, err)
	}
	return [2]byte{byte(v), byte(v >> 8)}, nil
}

// decodeHex accepts an optional 0x prefix and ':' separators
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.ReplaceAll(s, ":", "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

// reversed returns b in the opposite octet order
func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

// PANIDBytes returns the PAN ID in over-the-air order
func (r RadioConfig) PANIDBytes() ([2]byte, error) {
	return parseUint16("radio.panId", r.PANID)
}

// ShortAddrBytes returns the short address in over-the-air order
func (r RadioConfig) ShortAddrBytes() ([2]byte, error) {
	return parseUint16("radio.shortAddr", r.ShortAddr)
}

// ExtAddrBytes returns the extended address in over-the-air order. The
// configured value is written most significant octet first.
func (r RadioConfig) ExtAddrBytes() ([]byte, error) {
	b, err := decodeHex(r.ExtAddr)
	if err != nil {
		return nil, fmt.Errorf("radio.extAddr: %w", err)
	}
	if len(b) != frame.ExtendedAddrSize {
		return nil, fmt.Errorf("radio.extAddr: want %d octets, got %d", frame.ExtendedAddrSize, len(b))
	}
	return reversed(b), nil
}

// Decode returns the key identifier, key octets and counter settings
func (k KeyEntry) Decode() (security.KeyConfig, []byte, error) {
	if k.Mode < 0 || k.Mode > int(security.KeyIDMode3) {
		return security.KeyConfig{}, nil, fmt.Errorf("key id mode %d out of range", k.Mode)
	}
	mode := security.KeyIDMode(k.Mode)

	var id []byte
	if k.ID != "" {
		var err error
		if id, err = decodeHex(k.ID); err != nil {
			return security.KeyConfig{}, nil, fmt.Errorf("id: %w", err)
		}
	}
	if len(id) != mode.Size() {
		return security.KeyConfig{}, nil, fmt.Errorf("%w: mode %d needs %d octets, got %d",
			security.ErrInvalidKeyID, mode, mode.Size(), len(id))
	}

	key, err := decodeHex(k.Key)
	if err != nil {
		return security.KeyConfig{}, nil, fmt.Errorf("key: %w", err)
	}
	if len(key) != 16 {
		return security.KeyConfig{}, nil, fmt.Errorf("key: want 16 octets, got %d", len(key))
	}

	return security.KeyConfig{
		ID:               security.KeyID{Mode: mode, ID: id},
		FrameCounter:     k.FrameCounter,
		UseGlobalCounter: k.UseGlobal,
	}, key, nil
}

// Decode returns the neighbour address in over-the-air order, whether it is
// extended, and the IE octets. Short addresses are written like 0x1234 and
// extended ones as 16 hex digits, most significant first.
func (e AckDataEntry) Decode() (addr []byte, extended bool, ies []byte, err error) {
	raw := strings.TrimSpace(e.Addr)
	switch digits := len(strings.ReplaceAll(strings.TrimPrefix(raw, "0x"), ":", "")); digits {
	case 2 * frame.ShortAddrSize:
		short, err := parseUint16("addr", raw)
		if err != nil {
			return nil, false, nil, err
		}
		addr = short[:]
	case 2 * frame.ExtendedAddrSize:
		b, err := decodeHex(raw)
		if err != nil {
			return nil, false, nil, fmt.Errorf("addr: %w", err)
		}
		addr, extended = reversed(b), true
	default:
		return nil, false, nil, fmt.Errorf("addr: %q is neither a short nor an extended address", e.Addr)
	}

	if e.IEs != "" {
		if ies, err = decodeHex(e.IEs); err != nil {
			return nil, false, nil, fmt.Errorf("ies: %w", err)
		}
	}
	return addr, extended, ies, nil
}
