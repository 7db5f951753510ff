// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rstream

import (
	"sync/atomic"
	"time"

	"github.com/mkrou/rstream/internal/xsync"
)

// Executor runs fn, typically by handing it to some underlying pool: a
// goroutine, a worker-pool job queue, a time.AfterFunc timer. Scheduler
// never calls fn itself; it only ever calls Executor(fn).
type Executor func(fn func())

// GoExecutor is the simplest Executor: it runs fn on a brand-new goroutine.
func GoExecutor(fn func()) {
	go fn()
}

// Scheduler hands out Workers bound to a single Executor. Operators that
// need to run user callbacks off the producing goroutine (a delayed Timer,
// a polling fallback for an Async-fused source with no Sync path) obtain a
// Worker from a Scheduler rather than calling go fn() directly, so that the
// work can be cancelled as a unit.
type Scheduler struct {
	executor Executor
}

// NewScheduler builds a Scheduler around executor. A nil executor defaults
// to GoExecutor.
func NewScheduler(executor Executor) *Scheduler {
	if executor == nil {
		executor = GoExecutor
	}

	return &Scheduler{executor: executor}
}

// Worker schedules tasks through its Scheduler's Executor, and can cancel
// every task it has scheduled that has not yet started, as a single unit; a
// task already running is not interrupted. A cancelled Worker silently drops any task
// scheduled on it from then on, rather than reporting an error: cancellation
// races against scheduling by design (an operator tearing down upstream
// while a timer is about to fire), and the caller of Schedule has no
// Subscriber to report that race to.
type Worker struct {
	scheduler *Scheduler
	mu        xsync.Mutex
	cancelled int32
	pending   map[*scheduledTask]struct{}
}

type scheduledTask struct {
	ran int32 // guards at-most-once execution
}

// NewWorker returns a Worker bound to s.
func (s *Scheduler) NewWorker() *Worker {
	return &Worker{
		scheduler: s,
		mu:        xsync.NewMutexWithLock(),
		pending:   make(map[*scheduledTask]struct{}),
	}
}

// Schedule runs fn on the Worker's Executor, immediately. It is a no-op if
// the Worker has already been cancelled.
func (w *Worker) Schedule(fn func()) {
	w.scheduleTask(fn)
}

// ScheduleOnce runs fn on the Worker's Executor after delay, wrapping fn so
// that it is skipped entirely if the Worker is cancelled before the delay
// elapses, and never runs more than once even if the underlying timer
// somehow fires twice.
func (w *Worker) ScheduleOnce(delay time.Duration, fn func()) {
	w.scheduleTaskAfter(delay, fn)
}

func (w *Worker) scheduleTask(fn func()) {
	if atomic.LoadInt32(&w.cancelled) != 0 {
		return
	}

	task := &scheduledTask{}

	w.mu.Lock()
	if atomic.LoadInt32(&w.cancelled) != 0 {
		w.mu.Unlock()
		return
	}

	w.pending[task] = struct{}{}
	w.mu.Unlock()

	w.scheduler.executor(func() {
		defer w.forget(task)

		if !atomic.CompareAndSwapInt32(&task.ran, 0, 1) {
			return
		}

		if atomic.LoadInt32(&w.cancelled) != 0 {
			return
		}

		recoverUnhandledError(fn)
	})
}

func (w *Worker) scheduleTaskAfter(delay time.Duration, fn func()) *scheduledTask {
	if atomic.LoadInt32(&w.cancelled) != 0 {
		return nil
	}

	task := &scheduledTask{}

	w.mu.Lock()
	if atomic.LoadInt32(&w.cancelled) != 0 {
		w.mu.Unlock()
		return nil
	}

	w.pending[task] = struct{}{}
	w.mu.Unlock()

	run := func() {
		defer w.forget(task)

		if !atomic.CompareAndSwapInt32(&task.ran, 0, 1) {
			return
		}

		if atomic.LoadInt32(&w.cancelled) != 0 {
			return
		}

		recoverUnhandledError(fn)
	}

	if delay <= 0 {
		w.scheduler.executor(run)
		return task
	}

	timer := time.AfterFunc(delay, func() {
		w.scheduler.executor(run)
	})

	w.mu.Lock()
	if atomic.LoadInt32(&w.cancelled) != 0 {
		w.mu.Unlock()
		timer.Stop()
		return task
	}
	w.mu.Unlock()

	return task
}

func (w *Worker) forget(task *scheduledTask) {
	w.mu.Lock()
	delete(w.pending, task)
	w.mu.Unlock()
}

// Cancel marks the Worker cancelled: every task still pending is marked
// as already-run so it becomes a no-op the moment the Executor gets to it,
// and every task scheduled afterwards is dropped immediately. Cancel is
// idempotent and safe to call from any goroutine, including from inside a
// task the Worker itself is currently running.
func (w *Worker) Cancel() {
	if !atomic.CompareAndSwapInt32(&w.cancelled, 0, 1) {
		return
	}

	w.mu.Lock()
	for task := range w.pending {
		atomic.StoreInt32(&task.ran, 1)
	}
	w.pending = make(map[*scheduledTask]struct{})
	w.mu.Unlock()
}

// IsCancelled reports whether Cancel has already run.
func (w *Worker) IsCancelled() bool {
	return atomic.LoadInt32(&w.cancelled) != 0
}
