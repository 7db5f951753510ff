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
	"context"
	"sync/atomic"

	"github.com/mkrou/rstream/internal/xsync"
)

// LatestOnly returns a Publisher that, under backpressure, keeps only the
// most recently produced value and drops everything older: when downstream
// demand finally arrives, it receives whatever source produced last, not a
// backlog. A value overwritten before it could ever be delivered is
// reported to the dropped-signal sink rather than silently discarded.
func LatestOnly[T any](source Publisher[T]) Publisher[T] {
	return PublisherFunc[T](func(subscriber Subscriber[T]) {
		source.Subscribe(&latestOnlySubscriber[T]{
			downstream: subscriber,
			mu:         xsync.NewMutexWithSpinlock(),
		})
	})
}

type latestOnlySubscriber[T any] struct {
	downstream Subscriber[T]
	upRef      UpstreamRef
	drain      DrainLoop

	mu      xsync.Mutex
	hasLast bool
	last    T

	requested int64
	done      int32
	termSent  int32
	err       error
}

func (s *latestOnlySubscriber[T]) OnSubscribe(subscription Subscription) {
	if !s.upRef.SetOnce(subscription) {
		return
	}

	s.downstream.OnSubscribe(&latestOnlySubscription[T]{owner: s})
	subscription.Request(Unbounded)
}

func (s *latestOnlySubscriber[T]) OnNext(value T) {
	s.mu.Lock()
	if s.hasLast {
		OnDroppedSignal(context.Background(), NewNotificationNext(s.last))
	}

	s.last = value
	s.hasLast = true
	s.mu.Unlock()

	s.drainLoop()
}

func (s *latestOnlySubscriber[T]) OnError(err error) {
	s.err = err
	atomic.StoreInt32(&s.done, 1)
	s.drainLoop()
}

func (s *latestOnlySubscriber[T]) OnComplete() {
	atomic.StoreInt32(&s.done, 1)
	s.drainLoop()
}

func (s *latestOnlySubscriber[T]) drainLoop() {
	s.drain.Drain(func() {
		for {
			if atomic.LoadInt32(&s.termSent) != 0 {
				return
			}

			requested := atomic.LoadInt64(&s.requested)
			done := atomic.LoadInt32(&s.done) != 0

			s.mu.Lock()
			hasValue := s.hasLast
			value := s.last
			if hasValue && requested > 0 {
				s.hasLast = false
			}
			s.mu.Unlock()

			if hasValue && requested > 0 {
				s.downstream.OnNext(value)
				SubProduced(&s.requested, 1)
				continue
			}

			if done && !hasValue {
				if atomic.CompareAndSwapInt32(&s.termSent, 0, 1) {
					if s.err != nil {
						s.downstream.OnError(s.err)
					} else {
						s.downstream.OnComplete()
					}
				}
			}

			return
		}
	})
}

type latestOnlySubscription[T any] struct {
	owner *latestOnlySubscriber[T]
}

func (s *latestOnlySubscription[T]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.termSent, s.owner.upRef.Terminate, s.owner.downstream.OnError)
		return
	}

	AddRequested(&s.owner.requested, n)
	s.owner.drainLoop()
}

func (s *latestOnlySubscription[T]) Cancel() {
	s.owner.upRef.Terminate()
}

var _ Subscriber[int] = (*latestOnlySubscriber[int])(nil)
var _ Subscription = (*latestOnlySubscription[int])(nil)
