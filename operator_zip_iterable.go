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

// Iterable is a pull-based sequence paired one-for-one against a Publisher
// by ZipWithIterable. Unlike the source Publisher, it is driven entirely by
// the operator's own goroutine and never needs its own demand protocol.
type Iterable[U any] interface {
	// Next returns the next element. ok is false once the iterable is
	// exhausted.
	Next() (value U, ok bool)
}

// SliceIterable adapts a plain slice into an Iterable.
func SliceIterable[U any](values []U) Iterable[U] {
	return &sliceIterable[U]{values: values}
}

type sliceIterable[U any] struct {
	values []U
	index  int
}

func (it *sliceIterable[U]) Next() (U, bool) {
	if it.index >= len(it.values) {
		var zero U
		return zero, false
	}

	v := it.values[it.index]
	it.index++

	return v, true
}

// ZipWithIterable pairs each element of source with the next element of
// iterable, in lockstep, producing zipper(sourceValue, iterableValue) for
// every pair. The iterable is probed before source is ever subscribed: if it
// is empty from the start, the subscription completes immediately and
// source is never subscribed at all. If iterable is nil, every subscription
// fails immediately instead. Once source is running, the moment the
// iterable runs out of elements — whether before the first pairing or right
// after one — source is cancelled and the subscription completes; running
// out is not treated as an error, only zipper panicking is.
func ZipWithIterable[T, U, R any](source Publisher[T], iterable Iterable[U], zipper func(T, U) R) Publisher[R] {
	return PublisherFunc[R](func(subscriber Subscriber[R]) {
		if iterable == nil {
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnError(newPublisherError(ErrZipIterableNil))
			return
		}

		first, ok := iterable.Next()
		if !ok {
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnComplete()
			return
		}

		sub := &zipIterableSubscriber[T, U, R]{
			downstream: subscriber,
			iterable:   iterable,
			zipper:     zipper,
		}
		sub.pending = first
		sub.hasPending = true

		source.Subscribe(sub)
	})
}

type zipIterableSubscriber[T, U, R any] struct {
	downstream Subscriber[R]
	upRef      UpstreamRef
	iterable   Iterable[U]
	zipper     func(T, U) R
	pending    U
	hasPending bool
	done       int32
}

func (s *zipIterableSubscriber[T, U, R]) OnSubscribe(subscription Subscription) {
	if !s.upRef.SetOnce(subscription) {
		return
	}

	s.downstream.OnSubscribe(&zipIterableSubscription[T, U, R]{owner: s})
}

func (s *zipIterableSubscriber[T, U, R]) OnNext(value T) {
	if atomic.LoadInt32(&s.done) != 0 {
		return
	}

	var other U
	if s.hasPending {
		other = s.pending
		s.hasPending = false
	} else {
		next, ok := s.iterable.Next()
		if !ok {
			s.completeExhausted()
			return
		}

		other = next
	}

	result, err := safeZip(s.zipper, value, other)
	if err != nil {
		if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
			s.upRef.Terminate()
			s.downstream.OnError(err)
		}

		return
	}

	s.downstream.OnNext(result)

	// Probe one element ahead: if the iterable is already exhausted, this
	// pairing was the last possible one, so complete now rather than
	// waiting on another upstream onNext that could never be paired.
	peeked, ok := s.iterable.Next()
	if !ok {
		s.completeExhausted()
		return
	}

	s.pending = peeked
	s.hasPending = true
}

// completeExhausted handles the iterable running out, whether discovered
// before a pairing or immediately after one: this is a normal end of the
// zip, not a protocol error (spec §4.5 zip-with-iterable).
func (s *zipIterableSubscriber[T, U, R]) completeExhausted() {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.upRef.Terminate()
		s.downstream.OnComplete()
	}
}

func safeZip[T, U, R any](zipper func(T, U) R, a T, b U) (result R, err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			result = zipper(a, b)
			return nil
		},
		func(e any) {
			err = newPublisherError(recoverValueToError(e))
		},
	)

	return result, err
}

func (s *zipIterableSubscriber[T, U, R]) OnError(err error) {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnError(err)
	}
}

func (s *zipIterableSubscriber[T, U, R]) OnComplete() {
	if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		s.downstream.OnComplete()
	}
}

type zipIterableSubscription[T, U, R any] struct {
	owner *zipIterableSubscriber[T, U, R]
}

func (s *zipIterableSubscription[T, U, R]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.done, s.owner.upRef.Terminate, s.owner.downstream.OnError)
		return
	}

	if up := s.owner.upRef.Get(); up != nil {
		up.Request(n)
	}
}

func (s *zipIterableSubscription[T, U, R]) Cancel() {
	s.owner.upRef.Terminate()
}

var _ Subscriber[int] = (*zipIterableSubscriber[int, int, int])(nil)
var _ Subscription = (*zipIterableSubscription[int, int, int])(nil)
