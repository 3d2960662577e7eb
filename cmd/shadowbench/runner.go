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
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/tkmct/shadowwitness/core/stateless/shadow"
)

var errGateDisabled = errors.New("shadow validation not compiled in, rebuild with -tags shadow_chunk_validation")

// Runner replays a synthetic chain through the shadow validation pipeline.
type Runner struct {
	cfg      *benchConfig
	registry metrics.Registry
	chain    *syntheticChain
	pool     *shadow.TaskPool
	driver   *shadow.BlockDriver
}

// runResult summarizes a completed run.
type runResult struct {
	Blocks      int
	Chunks      int
	FetchErrors int
	Elapsed     time.Duration
}

// NewRunner generates the chain and wires the pipeline, reporting into r.
func NewRunner(cfg *benchConfig, r metrics.Registry) (*Runner, error) {
	var (
		m       = shadow.NewMetrics(r)
		chain   = newSyntheticChain(cfg.Bench)
		backend = newSyntheticBackend(cfg.Bench)
		pool    = shadow.NewTaskPool(cfg.Shadow.Workers, m)
	)
	validator, err := shadow.NewValidator(cfg.Shadow, backend.backend(), pool, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}
	return &Runner{
		cfg:      cfg,
		registry: r,
		chain:    chain,
		pool:     pool,
		driver:   shadow.NewBlockDriver(cfg.Shadow, chain, validator, m),
	}, nil
}

// Run feeds every block to the driver and waits for the background tasks.
func (r *Runner) Run() (runResult, error) {
	if !r.driver.Enabled() {
		if !shadow.BuildEnabled {
			return runResult{}, errGateDisabled
		}
		return runResult{}, errors.New("shadow validation disabled in config")
	}
	var (
		res   = runResult{Chunks: r.chain.newChunks()}
		start = time.Now()
	)
	for _, block := range r.chain.order {
		if err := r.driver.ProcessBlock(block); err != nil {
			res.FetchErrors++
			log.Warn("Failed to shadow validate block", "number", block.Header.Height, "hash", block.Hash(), "err", err)
		}
		res.Blocks++
		if res.Blocks%100 == 0 {
			log.Info("Shadow validating blocks", "processed", res.Blocks, "total", len(r.chain.order),
				"elapsed", common.PrettyDuration(time.Since(start)))
		}
	}
	r.pool.Wait()
	res.Elapsed = time.Since(start)

	log.Info("Shadow validation run completed", "blocks", res.Blocks, "chunks", res.Chunks,
		"failed", metrics.GetOrRegisterCounter("stateless/shadow/failed", r.registry).Snapshot().Count(),
		"elapsed", common.PrettyDuration(res.Elapsed))
	return res, nil
}
