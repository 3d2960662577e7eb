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

package shadow

import (
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

// Strategy labels of the reduced-size histogram.
const (
	StrategyBaseline              = "baseline"
	StrategyCacheStateValues      = "cache_state_values"
	StrategyCompressStorageValues = "compress_storage_proof_values"
	strategyCompressWitnessPrefix = "compress_witness_"
)

// Metric names. Per-shard metrics append "/<shard>" and, where a strategy or
// bucket applies, "/<label>".
const (
	witnessSizeName      = "stateless/shadow/witness/size"
	reducedSizeName      = "stateless/shadow/witness/reduced"
	proofValuesSizeName  = "stateless/shadow/witness/proofvalues/size"
	compressionTimeName  = "stateless/shadow/compression/time"
	cacheUpdatedName     = "stateless/shadow/cache/updated"
	cacheSizeName        = "stateless/shadow/cache/size"
	preValidationName    = "stateless/shadow/prevalidation"
	validationName       = "stateless/shadow/validation"
	failedName           = "stateless/shadow/failed"
	probeFailuresName    = "stateless/shadow/probe/failures"
	encodeFailuresName   = "stateless/shadow/encode/failures"
	taskPanicsName       = "stateless/shadow/task/panics"
	histogramReservoir   = 1028
	histogramDecayFactor = 0.015
)

// Metrics records the pipeline's telemetry into a go-ethereum metrics
// registry. All methods are safe for concurrent use.
type Metrics struct {
	registry metrics.Registry
}

// NewMetrics returns a Metrics writing into r, or into the default registry
// if r is nil.
func NewMetrics(r metrics.Registry) *Metrics {
	if r == nil {
		r = metrics.DefaultRegistry
	}
	return &Metrics{registry: r}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() metrics.Registry {
	return m.registry
}

func shardName(base string, shard uint64) string {
	return base + "/" + strconv.FormatUint(shard, 10)
}

func labelName(base string, shard uint64, label string) string {
	return shardName(base, shard) + "/" + label
}

func newSizeSample() metrics.Sample {
	return metrics.NewExpDecaySample(histogramReservoir, histogramDecayFactor)
}

func (m *Metrics) observe(name string, value int) {
	metrics.GetOrRegisterHistogramLazy(name, m.registry, newSizeSample).Update(int64(value))
}

func (m *Metrics) witnessSize(shard uint64, size int) {
	m.observe(shardName(witnessSizeName, shard), size)
}

func (m *Metrics) reducedSize(shard uint64, strategy string, size int) {
	m.observe(labelName(reducedSizeName, shard, strategy), size)
}

func (m *Metrics) proofValuesSize(shard uint64, bucket string, size int) {
	metrics.GetOrRegisterCounter(labelName(proofValuesSizeName, shard, bucket), m.registry).Inc(int64(size))
}

func (m *Metrics) compressionTime(shard uint64, strategy string, start time.Time) {
	metrics.GetOrRegisterTimer(labelName(compressionTimeName, shard, strategy), m.registry).UpdateSince(start)
}

func (m *Metrics) cacheUpdated(shard uint64) {
	metrics.GetOrRegisterCounter(shardName(cacheUpdatedName, shard), m.registry).Inc(1)
}

func (m *Metrics) cacheSize(shard uint64, size int) {
	metrics.GetOrRegisterGauge(shardName(cacheSizeName, shard), m.registry).Update(int64(size))
}

func (m *Metrics) preValidationTime(shard uint64, start time.Time) {
	metrics.GetOrRegisterTimer(shardName(preValidationName, shard), m.registry).UpdateSince(start)
}

func (m *Metrics) validationTime(shard uint64, start time.Time) {
	metrics.GetOrRegisterTimer(shardName(validationName, shard), m.registry).UpdateSince(start)
}

func (m *Metrics) failed() {
	metrics.GetOrRegisterCounter(failedName, m.registry).Inc(1)
}

func (m *Metrics) probeFailure() {
	metrics.GetOrRegisterCounter(probeFailuresName, m.registry).Inc(1)
}

func (m *Metrics) encodeFailure() {
	metrics.GetOrRegisterCounter(encodeFailuresName, m.registry).Inc(1)
}

func (m *Metrics) taskPanic() {
	metrics.GetOrRegisterCounter(taskPanicsName, m.registry).Inc(1)
}
