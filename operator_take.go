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

import "sync/atomic"

// Take returns a Publisher that relays at most n elements from source, then
// cancels upstream and completes downstream. n == 0 completes immediately
// upon subscription without ever subscribing to source.
func Take[T any](source Publisher[T], n int64) Publisher[T] {
	if n < 0 {
		return PublisherFunc[T](func(subscriber Subscriber[T]) {
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnError(newPublisherError(ErrTakeNegativeCount))
		})
	}

	return PublisherFunc[T](func(subscriber Subscriber[T]) {
		if n == 0 {
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnComplete()
			return
		}

		source.Subscribe(&takeSubscriber[T]{downstream: subscriber, remaining: n})
	})
}

type takeSubscriber[T any] struct {
	downstream Subscriber[T]
	upRef      UpstreamRef
	remaining  int64
	done       int32
}

func (s *takeSubscriber[T]) OnSubscribe(subscription Subscription) {
	if !s.upRef.SetOnce(subscription) {
		return
	}

	s.downstream.OnSubscribe(&takeSubscription[T]{owner: s})
}

func (s *takeSubscriber[T]) OnNext(value T) {
	if atomic.LoadInt32(&s.done) != 0 {
		return
	}

	remaining := atomic.AddInt64(&s.remaining, -1)
	if remaining < 0 {
		return
	}

	s.downstream.OnNext(value)

	if remaining == 0 {
		if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
			s.upRef.Terminate()
			s.downstream.OnComplete()
		}
	}
}

func (s *takeSubscriber[T]) OnError(err error) {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnError(err)
	}
}

func (s *takeSubscriber[T]) OnComplete() {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnComplete()
	}
}

type takeSubscription[T any] struct {
	owner *takeSubscriber[T]
}

func (s *takeSubscription[T]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.done, s.owner.upRef.Terminate, s.owner.downstream.OnError)
		return
	}

	if up := s.owner.upRef.Get(); up != nil {
		// Never request more than remains to be taken: an unbounded
		// downstream request must not be forwarded verbatim, or the
		// source may push past the point Take means to cut it off at.
		remaining := atomic.LoadInt64(&s.owner.remaining)
		if remaining <= 0 {
			return
		}

		if n > remaining {
			n = remaining
		}

		up.Request(n)
	}
}

func (s *takeSubscription[T]) Cancel() {
	s.owner.upRef.Terminate()
}

var _ Subscriber[int] = (*takeSubscriber[int])(nil)
var _ Subscription = (*takeSubscription[int])(nil)
