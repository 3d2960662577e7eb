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
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/semaphore"
)

// Spawner runs tasks in the background. Spawn never blocks and hands back no
// handle: tasks cannot be awaited, cancelled or timed out, and a failing
// task affects nothing but itself.
type Spawner interface {
	Spawn(name string, task func())
}

// TaskPool is a Spawner running every task on its own goroutine. With a
// worker limit, excess tasks park on a semaphore inside their goroutine, so
// the submitter never waits.
type TaskPool struct {
	sem     *semaphore.Weighted // nil when unbounded
	wg      sync.WaitGroup
	metrics *Metrics
}

// NewTaskPool creates a pool running at most workers tasks at once, or an
// unbounded one if workers is 0.
func NewTaskPool(workers int, m *Metrics) *TaskPool {
	p := &TaskPool{metrics: m}
	if workers > 0 {
		p.sem = semaphore.NewWeighted(int64(workers))
	}
	return p
}

// Spawn implements Spawner.
func (p *TaskPool) Spawn(name string, task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.sem != nil {
			// Background context never cancels, so Acquire cannot fail.
			_ = p.sem.Acquire(context.Background(), 1)
			defer p.sem.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				p.metrics.taskPanic()
				log.Error("Shadow validation task panicked", "task", name, "panic", r)
			}
		}()
		task()
	}()
}

// Wait blocks until every spawned task has finished. It exists for shutdown
// and tests; the validation path never calls it.
func (p *TaskPool) Wait() {
	p.wg.Wait()
}
