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

	"github.com/samber/lo"
	"github.com/mkrou/rstream/internal/xsync"
)

// CombineLatestWith2 subscribes to a and b and emits combine(lastA, lastB)
// every time either produces a new value, once both have produced at least
// one. It completes once both sources have completed, and terminates with
// an error once either does; in both cases the terminal signal follows any
// combined values still queued for the downstream.
func CombineLatestWith2[A, B, R any](a Publisher[A], b Publisher[B], combine func(A, B) R) Publisher[R] {
	return PublisherFunc[R](func(subscriber Subscriber[R]) {
		c := &combineLatest2[A, B, R]{downstream: subscriber, combine: combine, mu: xsync.NewMutexWithLock()}
		c.activeCount = 2

		subscriber.OnSubscribe(&combineLatestSubscription[A, B, R]{owner: c})

		a.Subscribe(&combineLatestSlotA[A, B, R]{parent: c})
		b.Subscribe(&combineLatestSlotB[A, B, R]{parent: c})
	})
}

// CombineLatestWith2AsTuple is CombineLatestWith2 with the combine function
// fixed to pairing: every emission downstream is an lo.Tuple2 of the two
// sources' latest values rather than a caller-synthesized result. This is
// the common case when the caller wants the pairing itself, not a computed
// combination of it.
func CombineLatestWith2AsTuple[A, B any](a Publisher[A], b Publisher[B]) Publisher[lo.Tuple2[A, B]] {
	return CombineLatestWith2(a, b, func(x A, y B) lo.Tuple2[A, B] {
		return lo.Tuple2[A, B]{A: x, B: y}
	})
}

// combineLatestSubscription is handed to the downstream immediately, ahead
// of either upstream Subscribe call, so that Cancel is always available —
// including a Cancel that races in before either upstream has actually
// subscribed. Upstreams are always requested unbounded, since throttling
// one source independent of the other makes no sense for an operator whose
// output depends on both; Request instead governs how much of what the two
// sources combine into is actually allowed to reach the downstream.
type combineLatestSubscription[A, B, R any] struct {
	owner *combineLatest2[A, B, R]
}

func (s *combineLatestSubscription[A, B, R]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.termSent, s.owner.cancelUpstreams, s.owner.downstream.OnError)
		return
	}

	AddRequested(&s.owner.requested, n)
	s.owner.flush()
}

func (s *combineLatestSubscription[A, B, R]) Cancel() {
	s.owner.cancelUpstreams()
}

type combineLatest2[A, B, R any] struct {
	downstream Subscriber[R]
	combine    func(A, B) R

	mu          xsync.Mutex
	valA        A
	valB        B
	hasA        bool
	hasB        bool
	activeCount int32

	requested int64
	drain     DrainLoop
	pending   []R
	err       error

	upA, upB UpstreamRef
	done     int32
	termSent int32
}

// cancelUpstreams terminates both upstream subscriptions at most once. It
// backs both Subscription.Cancel and reportIllegalRequest (whose own CAS is
// on termSent, not done, so an illegal request always wins the race to
// notify the downstream even if a source terminates concurrently).
func (c *combineLatest2[A, B, R]) cancelUpstreams() bool {
	if atomic.CompareAndSwapInt32(&c.done, 0, 1) {
		c.upA.Terminate()
		c.upB.Terminate()
	}

	return true
}

func (c *combineLatest2[A, B, R]) upstreamRef(slot int) *UpstreamRef {
	if slot == 0 {
		return &c.upA
	}

	return &c.upB
}

func (c *combineLatest2[A, B, R]) onSubscribe(slot int, subscription Subscription) {
	c.upstreamRef(slot).SetOnce(subscription)
	subscription.Request(Unbounded)
}

func (c *combineLatest2[A, B, R]) onNext(slot int, a A, b B) {
	if atomic.LoadInt32(&c.done) != 0 {
		return
	}

	c.mu.Lock()
	if slot == 0 {
		c.valA = a
		c.hasA = true
	} else {
		c.valB = b
		c.hasB = true
	}

	ready := c.hasA && c.hasB
	curA, curB := c.valA, c.valB
	c.mu.Unlock()

	if !ready {
		return
	}

	result, err := safeCombine(c.combine, curA, curB)
	if err != nil {
		c.terminateSources(err)
		return
	}

	c.mu.Lock()
	c.pending = append(c.pending, result)
	c.mu.Unlock()

	c.flush()
}

// flush serializes delivery to the single downstream through a DrainLoop:
// two producer goroutines can each decide ready==true for their own slot
// update and reach here concurrently, and only one of them may actually be
// inside downstream.OnNext at a time. It never emits past whatever demand
// the downstream last requested, leaving the remainder queued; the
// terminal signal itself is not subject to demand, but is still withheld
// until every already-combined value has drained.
func (c *combineLatest2[A, B, R]) flush() {
	c.drain.Drain(func() {
		for atomic.LoadInt32(&c.termSent) == 0 {
			c.mu.Lock()
			hasPending := len(c.pending) > 0
			c.mu.Unlock()

			if hasPending {
				if AddRequested(&c.requested, 0) <= 0 {
					return
				}

				c.mu.Lock()
				v := c.pending[0]
				c.pending = c.pending[1:]
				c.mu.Unlock()

				c.downstream.OnNext(v)
				SubProduced(&c.requested, 1)
				continue
			}

			if atomic.LoadInt32(&c.done) != 0 && atomic.CompareAndSwapInt32(&c.termSent, 0, 1) {
				if c.err != nil {
					c.downstream.OnError(c.err)
				} else {
					c.downstream.OnComplete()
				}
			}

			return
		}
	})
}

// terminateSources cancels both upstreams at most once and records the
// terminal outcome (nil for a clean completion) for flush to deliver once
// it has drained whatever combined values are still pending.
func (c *combineLatest2[A, B, R]) terminateSources(err error) {
	if atomic.CompareAndSwapInt32(&c.done, 0, 1) {
		c.upA.Terminate()
		c.upB.Terminate()
		c.err = err
		c.flush()
	}
}

func safeCombine[A, B, R any](combine func(A, B) R, a A, b B) (result R, err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			result = combine(a, b)
			return nil
		},
		func(e any) {
			err = newPublisherError(recoverValueToError(e))
		},
	)

	return result, err
}

func (c *combineLatest2[A, B, R]) onError(err error) {
	c.terminateSources(err)
}

func (c *combineLatest2[A, B, R]) onComplete() {
	if atomic.AddInt32(&c.activeCount, -1) == 0 {
		c.terminateSources(nil)
	}
}

type combineLatestSlotA[A, B, R any] struct {
	parent *combineLatest2[A, B, R]
}

func (s *combineLatestSlotA[A, B, R]) OnSubscribe(subscription Subscription) {
	s.parent.onSubscribe(0, subscription)
}

func (s *combineLatestSlotA[A, B, R]) OnNext(value A) {
	var zero B
	s.parent.onNext(0, value, zero)
}

func (s *combineLatestSlotA[A, B, R]) OnError(err error) { s.parent.onError(err) }
func (s *combineLatestSlotA[A, B, R]) OnComplete()       { s.parent.onComplete() }

type combineLatestSlotB[A, B, R any] struct {
	parent *combineLatest2[A, B, R]
}

func (s *combineLatestSlotB[A, B, R]) OnSubscribe(subscription Subscription) {
	s.parent.onSubscribe(1, subscription)
}

func (s *combineLatestSlotB[A, B, R]) OnNext(value B) {
	var zero A
	s.parent.onNext(1, zero, value)
}

func (s *combineLatestSlotB[A, B, R]) OnError(err error) { s.parent.onError(err) }
func (s *combineLatestSlotB[A, B, R]) OnComplete()       { s.parent.onComplete() }

var _ Subscriber[int] = (*combineLatestSlotA[int, string, int])(nil)
var _ Subscriber[string] = (*combineLatestSlotB[int, string, int])(nil)
