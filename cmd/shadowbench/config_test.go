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
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range append(benchFlags, metricsAddrFlag, dumpMetricsFlag) {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestMakeConfigDefaults(t *testing.T) {
	cfg, err := makeConfig(newContext(t))
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
}

func TestMakeConfigFileAndFlags(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bench.toml")
	err := os.WriteFile(file, []byte(`
[Shadow]
CacheCapacity = 50
WitnessCompressionLevels = [1, 3, 19]

[Bench]
Blocks = 10
Shards = 8
`), 0644)
	require.NoError(t, err)

	cfg, err := makeConfig(newContext(t, "--config", file, "--shards", "2", "--fail-rate", "0"))
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Shadow.CacheCapacity)
	require.Equal(t, []int{1, 3, 19}, cfg.Shadow.WitnessCompressionLevels)
	require.Equal(t, uint64(10), cfg.Bench.Blocks)
	require.Equal(t, uint64(2), cfg.Bench.Shards)
	require.Zero(t, cfg.Bench.FailRate)
	require.Equal(t, defaultBenchSettings.Seed, cfg.Bench.Seed)
}

func TestMakeConfigRejectsUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bench.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Bench]\nChains = 3\n"), 0644))

	_, err := makeConfig(newContext(t, "--config", file))
	require.ErrorContains(t, err, "Chains")
}

func TestMakeConfigValidates(t *testing.T) {
	_, err := makeConfig(newContext(t, "--repeat-rate", "1.5"))
	require.ErrorContains(t, err, "repeat rate")

	_, err = makeConfig(newContext(t, "--shards", "0"))
	require.ErrorContains(t, err, "shard")
}

func TestDumpConfigRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dump.toml")
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range benchFlags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse([]string{"--blocks", "42", file}))
	require.NoError(t, dumpConfig(cli.NewContext(app, set, nil)))

	var cfg benchConfig
	require.NoError(t, loadConfig(file, &cfg))
	want := defaultConfig()
	want.Bench.Blocks = 42
	require.Equal(t, want, cfg)
}

func TestDefaultConfigFollowsGOMAXPROCS(t *testing.T) {
	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)

	if workers := defaultConfig().Shadow.Workers; workers != 1 {
		t.Fatalf("workers = %d, GOMAXPROCS = 1", workers)
	}
}
