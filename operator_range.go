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

// Range creates a Publisher emitting the integers [start, start+count), in
// order. Its subscription supports FusionSync: a downstream that negotiates
// sync fusion drains it entirely via Poll instead of OnNext.
func Range(start, count int64) Publisher[int64] {
	return PublisherFunc[int64](func(subscriber Subscriber[int64]) {
		if count < 0 {
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnError(newPublisherError(ErrTakeNegativeCount))
			return
		}

		sub := &rangeSubscription{downstream: subscriber, start: start, end: start + count, index: start}
		subscriber.OnSubscribe(sub)
		sub.drive()
	})
}

// FromSlice creates a Publisher emitting every element of values, in order.
// Like Range, its subscription supports FusionSync.
func FromSlice[T any](values []T) Publisher[T] {
	return PublisherFunc[T](func(subscriber Subscriber[T]) {
		sub := &sliceSubscription[T]{downstream: subscriber, values: values}
		subscriber.OnSubscribe(sub)
		sub.drive()
	})
}

type rangeSubscription struct {
	downstream        Subscriber[int64]
	start, end, index int64
	requested         int64
	cancelled         int32
	fused             int32 // FusionMode once negotiated
	errSent           int32
	completed         int32
	drain             DrainLoop
}

// Request both records the new demand and, if this subscription is still
// running the ordinary push path, resumes the drive loop: a downstream that
// requests demand from outside OnSubscribe (the common case) would otherwise
// never see the drive loop run again once it had exited for lack of demand.
func (s *rangeSubscription) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.errSent, s.cancelOnce, s.downstream.OnError)
		return
	}

	if atomic.LoadInt32(&s.fused) == int32(FusionSync) {
		return // sync-fused downstream drives entirely through Poll
	}

	AddRequested(&s.requested, n)
	s.drive()
}

func (s *rangeSubscription) Cancel() {
	atomic.StoreInt32(&s.cancelled, 1)
}

func (s *rangeSubscription) cancelOnce() bool {
	return atomic.CompareAndSwapInt32(&s.cancelled, 0, 1)
}

func (s *rangeSubscription) RequestFusion(requestedMode FusionMode) FusionMode {
	if requestedMode.Requests()&FusionSync != 0 {
		atomic.StoreInt32(&s.fused, int32(FusionSync))
		return FusionSync
	}

	return FusionNone
}

func (s *rangeSubscription) Poll() (int64, bool, error) {
	if s.index >= s.end {
		return 0, false, nil
	}

	v := s.index
	s.index++

	return v, true, nil
}

func (s *rangeSubscription) IsEmpty() bool { return s.index >= s.end }

func (s *rangeSubscription) Clear() { s.index = s.end }

func (s *rangeSubscription) Size() int {
	if s.index >= s.end {
		return 0
	}

	return int(s.end - s.index)
}

func (s *rangeSubscription) Drop() {
	if s.index < s.end {
		s.index++
	}
}

// drive runs the ordinary (non-fused) push path. It is re-entrant: a
// Request arriving while a drive is already in progress on another
// goroutine just bumps the DrainLoop's missed-work counter instead of
// running a second, overlapping pass. It must not run at all once a
// sync-fused downstream has taken over via Poll.
func (s *rangeSubscription) drive() {
	if atomic.LoadInt32(&s.fused) == int32(FusionSync) {
		return
	}

	s.drain.Drain(func() {
		cs, conditional := AsConditionalSubscriber[int64](s.downstream)

		for atomic.LoadInt32(&s.cancelled) == 0 {
			if s.index >= s.end {
				if atomic.CompareAndSwapInt32(&s.completed, 0, 1) {
					s.downstream.OnComplete()
				}

				return
			}

			if AddRequested(&s.requested, 0) <= 0 {
				return
			}

			v := s.index
			s.index++

			if conditional {
				if cs.TryOnNext(v) {
					SubProduced(&s.requested, 1)
				}
			} else {
				s.downstream.OnNext(v)
				SubProduced(&s.requested, 1)
			}
		}
	})
}

var _ QueueSubscription[int64] = (*rangeSubscription)(nil)

type sliceSubscription[T any] struct {
	downstream Subscriber[T]
	values     []T
	index      int
	requested  int64
	cancelled  int32
	fused      int32
	errSent    int32
	completed  int32
	drain      DrainLoop
}

func (s *sliceSubscription[T]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.errSent, s.cancelOnce, s.downstream.OnError)
		return
	}

	if atomic.LoadInt32(&s.fused) == int32(FusionSync) {
		return
	}

	AddRequested(&s.requested, n)
	s.drive()
}

func (s *sliceSubscription[T]) Cancel() {
	atomic.StoreInt32(&s.cancelled, 1)
}

func (s *sliceSubscription[T]) cancelOnce() bool {
	return atomic.CompareAndSwapInt32(&s.cancelled, 0, 1)
}

func (s *sliceSubscription[T]) RequestFusion(requestedMode FusionMode) FusionMode {
	if requestedMode.Requests()&FusionSync != 0 {
		atomic.StoreInt32(&s.fused, int32(FusionSync))
		return FusionSync
	}

	return FusionNone
}

func (s *sliceSubscription[T]) Poll() (T, bool, error) {
	if s.index >= len(s.values) {
		var zero T
		return zero, false, nil
	}

	v := s.values[s.index]
	s.index++

	return v, true, nil
}

func (s *sliceSubscription[T]) IsEmpty() bool { return s.index >= len(s.values) }

func (s *sliceSubscription[T]) Clear() { s.index = len(s.values) }

func (s *sliceSubscription[T]) Size() int {
	if s.index >= len(s.values) {
		return 0
	}

	return len(s.values) - s.index
}

func (s *sliceSubscription[T]) Drop() {
	if s.index < len(s.values) {
		s.index++
	}
}

func (s *sliceSubscription[T]) drive() {
	if atomic.LoadInt32(&s.fused) == int32(FusionSync) {
		return
	}

	s.drain.Drain(func() {
		cs, conditional := AsConditionalSubscriber[T](s.downstream)

		for atomic.LoadInt32(&s.cancelled) == 0 {
			if s.index >= len(s.values) {
				if atomic.CompareAndSwapInt32(&s.completed, 0, 1) {
					s.downstream.OnComplete()
				}

				return
			}

			if AddRequested(&s.requested, 0) <= 0 {
				return
			}

			v := s.values[s.index]
			s.index++

			if conditional {
				if cs.TryOnNext(v) {
					SubProduced(&s.requested, 1)
				}
			} else {
				s.downstream.OnNext(v)
				SubProduced(&s.requested, 1)
			}
		}
	})
}

var _ QueueSubscription[int] = (*sliceSubscription[int])(nil)
