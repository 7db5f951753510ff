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

	"github.com/mkrou/rstream/internal/xsync"
)

// Merge subscribes to every source concurrently and relays whatever any of
// them produces, interleaved in arrival order, downstream. It completes
// once every source has completed, and terminates with an error the moment
// any one of them does, cancelling the rest. Since sources may call OnNext
// from independent goroutines, Merge serializes delivery to its single
// downstream through a DrainLoop rather than relying on each source's own
// single-producer guarantee.
func Merge[T any](sources ...Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(subscriber Subscriber[T]) {
		if len(sources) == 0 {
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnComplete()
			return
		}

		m := &mergeCoordinator[T]{downstream: subscriber}
		m.active = int32(len(sources))
		m.upRefs = make([]UpstreamRef, len(sources))
		m.queue.mu = xsync.NewMutexWithSpinlock()

		subscriber.OnSubscribe(&mergeSubscription[T]{owner: m})

		for i, source := range sources {
			source.Subscribe(&mergeSubscriber[T]{owner: m, index: i})
		}
	})
}

type mergeCoordinator[T any] struct {
	downstream Subscriber[T]
	upRefs     []UpstreamRef
	active     int32
	requested  int64
	done       int32

	drain DrainLoop
	queue drainQueue[T]
}

// drainQueue is the tiny unbounded FIFO mergeCoordinator serializes
// concurrent OnNext calls through before handing them to the single
// downstream one at a time, inside DrainLoop.Drain.
type drainQueue[T any] struct {
	mu    xsync.Mutex
	items []T
}

func (q *drainQueue[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

func (q *drainQueue[T]) pop() (v T, ok bool) {
	q.mu.Lock()
	if len(q.items) > 0 {
		v, ok = q.items[0], true
		q.items = q.items[1:]
	}
	q.mu.Unlock()

	return v, ok
}

func (m *mergeCoordinator[T]) onNext(value T) {
	if atomic.LoadInt32(&m.done) != 0 {
		return
	}

	m.queue.push(value)
	m.flush()
}

// flush drains as much of the queue as current downstream demand allows,
// serialized through DrainLoop so that concurrent sources never race each
// other into the single downstream Subscriber. Values left in the queue
// once demand runs out stay there until the next Request or onNext call
// triggers another flush.
func (m *mergeCoordinator[T]) flush() {
	m.drain.Drain(func() {
		for atomic.LoadInt32(&m.done) == 0 {
			if AddRequested(&m.requested, 0) <= 0 {
				return
			}

			v, ok := m.queue.pop()
			if !ok {
				return
			}

			m.downstream.OnNext(v)
			SubProduced(&m.requested, 1)
		}
	})
}

func (m *mergeCoordinator[T]) onError(err error) {
	if atomic.CompareAndSwapInt32(&m.done, 0, 1) {
		m.cancelAll()
		m.downstream.OnError(err)
	}
}

func (m *mergeCoordinator[T]) onComplete() {
	if atomic.AddInt32(&m.active, -1) == 0 {
		if atomic.CompareAndSwapInt32(&m.done, 0, 1) {
			m.downstream.OnComplete()
		}
	}
}

func (m *mergeCoordinator[T]) cancelAll() {
	for i := range m.upRefs {
		m.upRefs[i].Terminate()
	}
}

// terminate cancels every upstream for the sake of reportIllegalRequest,
// which has already performed the CAS on done before calling this.
func (m *mergeCoordinator[T]) terminate() bool {
	m.cancelAll()
	return true
}

type mergeSubscriber[T any] struct {
	owner *mergeCoordinator[T]
	index int
}

func (s *mergeSubscriber[T]) OnSubscribe(subscription Subscription) {
	s.owner.upRefs[s.index].SetOnce(subscription)
	subscription.Request(Unbounded)
}

func (s *mergeSubscriber[T]) OnNext(value T)     { s.owner.onNext(value) }
func (s *mergeSubscriber[T]) OnError(err error)  { s.owner.onError(err) }
func (s *mergeSubscriber[T]) OnComplete()        { s.owner.onComplete() }

type mergeSubscription[T any] struct {
	owner *mergeCoordinator[T]
}

func (s *mergeSubscription[T]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.done, s.owner.terminate, s.owner.downstream.OnError)
		return
	}

	AddRequested(&s.owner.requested, n)
	s.owner.flush()
}

func (s *mergeSubscription[T]) Cancel() {
	if atomic.CompareAndSwapInt32(&s.owner.done, 0, 1) {
		s.owner.cancelAll()
	}
}

var _ Subscriber[int] = (*mergeSubscriber[int])(nil)
var _ Subscription = (*mergeSubscription[int])(nil)
