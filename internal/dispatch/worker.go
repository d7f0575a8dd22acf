// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package dispatch

import "sync"

// workerPool runs submitted tasks on a fixed set of goroutines. Submission
// blocks when the buffered task channel is full, which bounds the amount
// of queued work behind a slow frame.
type workerPool struct {
	tasks     chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newWorkerPool(workers, queueDepth int) *workerPool {
	p := &workerPool{
		tasks: make(chan func(), queueDepth),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *workerPool) run() {
	defer p.wg.Done()
	for fn := range p.tasks {
		fn()
	}
}

func (p *workerPool) submit(fn func()) {
	p.tasks <- fn
}

// close stops accepting work and waits for in-flight tasks to finish.
func (p *workerPool) close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
