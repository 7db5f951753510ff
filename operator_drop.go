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
)

// DropWithoutDemand returns a Publisher that forwards a value only if
// downstream demand is currently available, and otherwise invokes onDrop
// with it rather than buffering it or replacing a previously buffered value
// (contrast with LatestOnly, which always keeps the newest). A panic from
// onDrop cancels the upstream and is surfaced downstream as OnError, the
// same as a panic from any other user-supplied callback in this package. A
// nil onDrop reports the dropped value to the process-wide dropped-signal
// sink instead.
func DropWithoutDemand[T any](source Publisher[T], onDrop func(T)) Publisher[T] {
	if onDrop == nil {
		onDrop = func(value T) {
			OnDroppedSignal(context.Background(), NewNotificationNext(value))
		}
	}

	return PublisherFunc[T](func(subscriber Subscriber[T]) {
		source.Subscribe(&dropSubscriber[T]{downstream: subscriber, onDrop: onDrop})
	})
}

type dropSubscriber[T any] struct {
	downstream Subscriber[T]
	onDrop     func(T)
	upRef      UpstreamRef
	requested  int64
	done       int32
}

func (s *dropSubscriber[T]) OnSubscribe(subscription Subscription) {
	if !s.upRef.SetOnce(subscription) {
		return
	}

	s.downstream.OnSubscribe(&dropSubscription[T]{owner: s})
	subscription.Request(Unbounded)
}

func (s *dropSubscriber[T]) OnNext(value T) {
	if atomic.LoadInt32(&s.done) != 0 {
		return
	}

	if !s.tryConsumeDemand() {
		if err := safeInvoke(func() { s.onDrop(value) }); err != nil {
			if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
				s.upRef.Terminate()
				s.downstream.OnError(newPublisherError(err))
			}
		}

		return
	}

	s.downstream.OnNext(value)
}

// tryConsumeDemand atomically spends one unit of requested demand and
// reports whether any was available. Unlike SubProduced, which always
// floors at zero and is meant for callers that already know they are
// entitled to produce, this must distinguish "had demand, now spent" from
// "had none to begin with" so the caller can decide to drop instead.
func (s *dropSubscriber[T]) tryConsumeDemand() bool {
	for {
		cur := atomic.LoadInt64(&s.requested)
		if cur <= 0 {
			return false
		}

		next := cur - 1
		if cur == Unbounded {
			next = Unbounded
		}

		if atomic.CompareAndSwapInt64(&s.requested, cur, next) {
			return true
		}
	}
}

func (s *dropSubscriber[T]) OnError(err error) {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnError(err)
	}
}

func (s *dropSubscriber[T]) OnComplete() {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnComplete()
	}
}

type dropSubscription[T any] struct {
	owner *dropSubscriber[T]
}

func (s *dropSubscription[T]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.done, s.owner.upRef.Terminate, s.owner.downstream.OnError)
		return
	}

	AddRequested(&s.owner.requested, n)
}

func (s *dropSubscription[T]) Cancel() {
	s.owner.upRef.Terminate()
}

var _ Subscriber[int] = (*dropSubscriber[int])(nil)
var _ Subscription = (*dropSubscription[int])(nil)
