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

// shadowbench replays a synthetic sharded chain through the shadow stateless
// validation pipeline and reports the witness size metrics it produces.
package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/prometheus"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	blocksFlag = &cli.Uint64Flag{
		Name:  "blocks",
		Usage: "Number of synthetic blocks to process",
		Value: defaultBenchSettings.Blocks,
	}
	shardsFlag = &cli.Uint64Flag{
		Name:  "shards",
		Usage: "Number of shards producing chunks",
		Value: defaultBenchSettings.Shards,
	}
	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "Seed of the synthetic chain",
		Value: defaultBenchSettings.Seed,
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Maximum concurrently running background tasks (0 = unbounded)",
	}
	failRateFlag = &cli.Float64Flag{
		Name:  "fail-rate",
		Usage: "Share of chunks that fail proof generation or validation",
		Value: defaultBenchSettings.FailRate,
	}
	repeatRateFlag = &cli.Float64Flag{
		Name:  "repeat-rate",
		Usage: "Share of large proof values repeated from earlier chunks",
		Value: defaultBenchSettings.RepeatRate,
	}
	cacheCapacityFlag = &cli.IntFlag{
		Name:  "cache.capacity",
		Usage: "Proof value hashes remembered per shard",
	}
	snappyFlag = &cli.BoolFlag{
		Name:  "probe.snappy",
		Usage: "Also measure snappy compression of the whole witness",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Serve Prometheus metrics on this address and keep running after the replay",
	}
	dumpMetricsFlag = &cli.BoolFlag{
		Name:  "dump-metrics",
		Usage: "Print all metrics after the replay",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a rotated file instead of the terminal",
	}

	benchFlags = []cli.Flag{
		configFileFlag,
		blocksFlag,
		shardsFlag,
		seedFlag,
		workersFlag,
		failRateFlag,
		repeatRateFlag,
		cacheCapacityFlag,
		snappyFlag,
	}
)

var app = &cli.App{
	Name:   "shadowbench",
	Usage:  "Shadow stateless validation rehearsal",
	Flags:  []cli.Flag{verbosityFlag, logFileFlag},
	Before: setupLogging,
	Commands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "Replay a synthetic chain through shadow validation",
			Action: runBench,
			Flags:  append(benchFlags, metricsAddrFlag, dumpMetricsFlag),
		},
		{
			Name:      "dumpconfig",
			Usage:     "Export configuration values in a TOML format",
			ArgsUsage: "<dumpfile (optional)>",
			Action:    dumpConfig,
			Flags:     benchFlags,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	var (
		level    = log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
		output   = io.Writer(os.Stderr)
		useColor = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	)
	if file := ctx.String(logFileFlag.Name); file != "" {
		output = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 10,
		}
		useColor = false
	} else if useColor {
		output = colorable.NewColorableStderr()
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, level, useColor)))
	return nil
}

func runBench(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	metrics.Enable()
	registry := metrics.NewRegistry()

	runner, err := NewRunner(&cfg, registry)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	var server *http.Server
	if cfg.Metrics.Addr != "" {
		if server, err = startMetricsServer(cfg.Metrics.Addr, registry); err != nil {
			return err
		}
		defer server.Close()
	}
	if _, err := runner.Run(); err != nil {
		return err
	}
	if cfg.Metrics.Dump {
		metrics.WriteOnce(registry, os.Stdout)
	}
	if server == nil {
		return nil
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("Received signal, shutting down", "signal", sig)
	return nil
}

func startMetricsServer(addr string, registry metrics.Registry) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/debug/metrics/prometheus", prometheus.Handler(registry))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "err", err)
		}
	}()
	log.Info("Starting metrics server", "addr", fmt.Sprintf("http://%s/debug/metrics/prometheus", listener.Addr()))
	return server, nil
}
