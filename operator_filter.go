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
)

// Filter returns a Publisher relaying only the elements of source for which
// predicate returns true. Filter itself implements ConditionalSubscriber
// towards its upstream: when the upstream source can test the capability
// (Range, FromSlice), a rejected element never goes through a separate
// request/produced round-trip, since TryOnNext reports the rejection
// directly to the source's own drain loop.
//
// A panic inside predicate terminates the subscription with OnError and
// cancels the upstream. The element whose predicate panicked is reported
// to the source as produced (TryOnNext returns true), the same as an
// accepted element, so a fused source counts it against demand.
func Filter[T any](source Publisher[T], predicate func(T) bool) Publisher[T] {
	return PublisherFunc[T](func(subscriber Subscriber[T]) {
		source.Subscribe(&filterSubscriber[T]{downstream: subscriber, predicate: predicate})
	})
}

type filterSubscriber[T any] struct {
	downstream Subscriber[T]
	predicate  func(T) bool
	upRef      UpstreamRef
	done       int32
}

func (s *filterSubscriber[T]) OnSubscribe(subscription Subscription) {
	if !s.upRef.SetOnce(subscription) {
		return
	}

	s.downstream.OnSubscribe(&filterSubscription[T]{owner: s})
}

func (s *filterSubscriber[T]) OnNext(value T) {
	s.TryOnNext(value)
}

// TryOnNext implements ConditionalSubscriber. It returns true when value
// passed the predicate and was forwarded downstream, and false when the
// predicate rejected it; only a true result counts against the upstream
// source's demand. A panic inside predicate terminates the subscription and
// also returns true, as does any call arriving after termination (see the
// doc comment on Filter).
func (s *filterSubscriber[T]) TryOnNext(value T) bool {
	if atomic.LoadInt32(&s.done) != 0 {
		return true
	}

	accept, failed := safePredicate(s.predicate, value)
	if failed != nil {
		if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
			s.upRef.Terminate()
			s.downstream.OnError(failed)
		}

		return true
	}

	if !accept {
		return false
	}

	s.downstream.OnNext(value)

	return true
}

func safePredicate[T any](predicate func(T) bool, value T) (accept bool, err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			accept = predicate(value)
			return nil
		},
		func(e any) {
			err = newPublisherError(recoverValueToError(e))
		},
	)

	return accept, err
}

func (s *filterSubscriber[T]) OnError(err error) {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnError(err)
	}
}

func (s *filterSubscriber[T]) OnComplete() {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnComplete()
	}
}

type filterSubscription[T any] struct {
	owner *filterSubscriber[T]
}

func (s *filterSubscription[T]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.done, s.owner.upRef.Terminate, s.owner.downstream.OnError)
		return
	}

	if up := s.owner.upRef.Get(); up != nil {
		up.Request(n)
	}
}

func (s *filterSubscription[T]) Cancel() {
	s.owner.upRef.Terminate()
}

var _ ConditionalSubscriber[int] = (*filterSubscriber[int])(nil)
var _ Subscription = (*filterSubscription[int])(nil)
