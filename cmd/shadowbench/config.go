// Copyright 2026 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/tkmct/shadowwitness/core/stateless/shadow"
	"github.com/urfave/cli/v2"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// benchSettings shapes the synthetic chain.
type benchSettings struct {
	Blocks     uint64
	Shards     uint64
	Seed       int64
	FailRate   float64 // Share of chunks that fail proof generation or validation
	RepeatRate float64 // Share of large proof values drawn from recently seen ones
}

type metricsSettings struct {
	Addr string `toml:",omitempty"` // Prometheus listen address, empty = disabled
	Dump bool   // Print all metrics once the run completes
}

type benchConfig struct {
	Shadow  shadow.Config
	Bench   benchSettings
	Metrics metricsSettings
}

var defaultBenchSettings = benchSettings{
	Blocks:     100,
	Shards:     4,
	Seed:       1,
	FailRate:   0.01,
	RepeatRate: 0.5,
}

func defaultConfig() benchConfig {
	cfg := benchConfig{
		Shadow: shadow.DefaultConfig,
		Bench:  defaultBenchSettings,
	}
	cfg.Shadow.WitnessCompressionLevels = append([]int(nil), shadow.DefaultConfig.WitnessCompressionLevels...)
	// automaxprocs may have lowered GOMAXPROCS after the shadow package
	// initialized.
	cfg.Shadow.Workers = shadow.DefaultWorkers()
	return cfg
}

// Validate checks if the configuration is valid.
func (c *benchConfig) Validate() error {
	if err := c.Shadow.Validate(); err != nil {
		return err
	}
	if c.Bench.Shards == 0 {
		return errors.New("at least one shard required")
	}
	if c.Bench.FailRate < 0 || c.Bench.FailRate > 1 {
		return fmt.Errorf("fail rate %v out of range [0, 1]", c.Bench.FailRate)
	}
	if c.Bench.RepeatRate < 0 || c.Bench.RepeatRate > 1 {
		return fmt.Errorf("repeat rate %v out of range [0, 1]", c.Bench.RepeatRate)
	}
	return nil
}

func loadConfig(file string, cfg *benchConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the defaults, then the config file, then the flags, each
// overriding the previous.
func makeConfig(ctx *cli.Context) (benchConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(blocksFlag.Name) {
		cfg.Bench.Blocks = ctx.Uint64(blocksFlag.Name)
	}
	if ctx.IsSet(shardsFlag.Name) {
		cfg.Bench.Shards = ctx.Uint64(shardsFlag.Name)
	}
	if ctx.IsSet(seedFlag.Name) {
		cfg.Bench.Seed = ctx.Int64(seedFlag.Name)
	}
	if ctx.IsSet(failRateFlag.Name) {
		cfg.Bench.FailRate = ctx.Float64(failRateFlag.Name)
	}
	if ctx.IsSet(repeatRateFlag.Name) {
		cfg.Bench.RepeatRate = ctx.Float64(repeatRateFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.Shadow.Workers = ctx.Int(workersFlag.Name)
	}
	if ctx.IsSet(cacheCapacityFlag.Name) {
		cfg.Shadow.CacheCapacity = ctx.Int(cacheCapacityFlag.Name)
	}
	if ctx.IsSet(snappyFlag.Name) {
		cfg.Shadow.SnappyProbe = ctx.Bool(snappyFlag.Name)
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.Metrics.Addr = ctx.String(metricsAddrFlag.Name)
	}
	if ctx.IsSet(dumpMetricsFlag.Name) {
		cfg.Metrics.Dump = ctx.Bool(dumpMetricsFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	_, err = dump.Write(out)
	return err
}
