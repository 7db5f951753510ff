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

// PeekCallbacks holds the optional side-effect hooks Peek invokes. Any left
// nil is simply not called. OnAfterTerminate always runs after whichever
// terminal signal (OnError or OnComplete) was actually delivered downstream,
// exactly once, regardless of which path reached it.
type PeekCallbacks[T any] struct {
	OnSubscribe      func()
	OnNext           func(T)
	OnError          func(error)
	OnComplete       func()
	OnRequest        func(int64)
	OnCancel         func()
	OnAfterTerminate func()
}

// Peek returns a Publisher that relays source unchanged, invoking cb's
// hooks as each signal passes through. A panic from OnSubscribe, OnNext, or
// OnComplete cancels upstream and is surfaced downstream as OnError instead
// of whatever signal was in flight. A panic from OnError or
// OnAfterTerminate cannot be surfaced the same way — the terminal signal it
// occurred during has already been sent at most once — so it is attached as
// a suppressed cause and routed to the unsignalled-error sink instead.
//
// Peek is Fuseable when its source is: it probes source's Subscription for
// QueueSubscription and, if present, forwards fusion negotiation to it. Once
// a downstream has negotiated a mode, OnNext fires from within Poll instead
// of through the push path, and a Sync-mode Poll that returns no value also
// fires OnComplete/OnAfterTerminate exactly once, since Sync sources never
// deliver a separate terminal push signal. Peek still denies FusionSync
// whenever the requested mode carries FusionBoundary (see fuseable.go):
// running cb.OnNext from inside a polling downstream's own thread is exactly
// the crossing that bit forbids.
func Peek[T any](source Publisher[T], cb PeekCallbacks[T]) Publisher[T] {
	return PublisherFunc[T](func(subscriber Subscriber[T]) {
		source.Subscribe(&peekSubscriber[T]{downstream: subscriber, cb: cb})
	})
}

type peekSubscriber[T any] struct {
	downstream Subscriber[T]
	cb         PeekCallbacks[T]
	upRef      UpstreamRef
	done       int32
}

func (s *peekSubscriber[T]) OnSubscribe(subscription Subscription) {
	if !s.upRef.SetOnce(subscription) {
		return
	}

	if s.cb.OnSubscribe != nil {
		if err := safeInvoke(s.cb.OnSubscribe); err != nil {
			if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
				s.upRef.Terminate()
				s.downstream.OnSubscribe(&peekSubscription[T]{owner: s})
				s.downstream.OnError(newPublisherError(err))
				s.runAfterTerminate(err)
			}

			return
		}
	}

	upstreamQueue, _ := AsQueueSubscription[T](subscription)
	s.downstream.OnSubscribe(&peekSubscription[T]{owner: s, upstreamQueue: upstreamQueue})
}

func (s *peekSubscriber[T]) OnNext(value T) {
	if atomic.LoadInt32(&s.done) != 0 {
		return
	}

	if s.cb.OnNext != nil {
		if err := safeInvoke(func() { s.cb.OnNext(value) }); err != nil {
			if atomic.CompareAndSwapInt32(&s.done, 0, 1) {
				s.upRef.Terminate()
				s.downstream.OnError(newPublisherError(err))
				s.runAfterTerminate(err)
			}

			return
		}
	}

	s.downstream.OnNext(value)
}

func (s *peekSubscriber[T]) OnError(err error) {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return
	}

	if s.cb.OnError != nil {
		if cbErr := safeInvoke(func() { s.cb.OnError(err) }); cbErr != nil {
			OnUnhandledError(context.Background(), newSuppressedError(err, cbErr))
		}
	}

	s.downstream.OnError(err)
	s.runAfterTerminate(err)
}

func (s *peekSubscriber[T]) OnComplete() {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return
	}

	if s.cb.OnComplete != nil {
		if err := safeInvoke(s.cb.OnComplete); err != nil {
			s.upRef.Terminate()
			wrapped := newPublisherError(err)
			s.downstream.OnError(wrapped)
			s.runAfterTerminate(wrapped)

			return
		}
	}

	s.downstream.OnComplete()
	s.runAfterTerminate(nil)
}

// runAfterTerminate invokes OnAfterTerminate exactly once, after whichever
// terminal signal primary describes (nil for a clean OnComplete) has
// already been delivered downstream. A panic here cannot be surfaced
// downstream — the terminal signal is already sent — so it is attached as a
// suppressed cause of primary and routed to the unsignalled-error sink.
func (s *peekSubscriber[T]) runAfterTerminate(primary error) {
	if s.cb.OnAfterTerminate == nil {
		return
	}

	if err := safeInvoke(s.cb.OnAfterTerminate); err != nil {
		OnUnhandledError(context.Background(), newSuppressedError(primary, err))
	}
}

// firePollComplete fires OnComplete/OnAfterTerminate for a Sync-mode Poll
// that has just returned ok == false, mirroring OnComplete's own hook
// sequencing. There is no separate downstream signal to send here: the
// false return from this very Poll call already told the caller the stream
// is finished. A panic from cb.OnComplete is reported through this Poll's
// err return instead, exactly as OnComplete would surface it via
// downstream.OnError.
func (s *peekSubscriber[T]) firePollComplete() error {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return nil
	}

	if s.cb.OnComplete != nil {
		if err := safeInvoke(s.cb.OnComplete); err != nil {
			s.upRef.Terminate()
			wrapped := newPublisherError(err)
			s.runAfterTerminate(wrapped)

			return wrapped
		}
	}

	s.runAfterTerminate(nil)

	return nil
}

// firePollError mirrors OnError's hook sequencing for an error discovered
// by polling the upstream queue rather than via a pushed OnError call.
func (s *peekSubscriber[T]) firePollError(err error) {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return
	}

	if s.cb.OnError != nil {
		if cbErr := safeInvoke(func() { s.cb.OnError(err) }); cbErr != nil {
			OnUnhandledError(context.Background(), newSuppressedError(err, cbErr))
		}
	}

	s.runAfterTerminate(err)
}

// firePollNextFailure mirrors OnNext's panic handling: cb.OnNext panicking
// from within Poll cancels upstream and terminates, without invoking
// cb.OnError (OnNext's own push-path panic handling never does either).
func (s *peekSubscriber[T]) firePollNextFailure(err error) {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return
	}

	s.upRef.Terminate()
	s.runAfterTerminate(err)
}

type peekSubscription[T any] struct {
	owner         *peekSubscriber[T]
	upstreamQueue QueueSubscription[T]
	fused         int32 // FusionMode once negotiated
}

func (s *peekSubscription[T]) Request(n int64) {
	if !ValidateRequest(n) {
		reportIllegalRequest(&s.owner.done, s.owner.upRef.Terminate, s.owner.downstream.OnError)
		return
	}

	if s.owner.cb.OnRequest != nil {
		recoverUnhandledError(func() { s.owner.cb.OnRequest(n) })
	}

	if up := s.owner.upRef.Get(); up != nil {
		up.Request(n)
	}
}

// Cancel never itself signals downstream (Subscription contract), so a
// panicking OnCancel hook cannot be surfaced as OnError the way other hooks
// are: it is routed to the unsignalled-error sink instead.
func (s *peekSubscription[T]) Cancel() {
	if s.owner.cb.OnCancel != nil {
		recoverUnhandledError(s.owner.cb.OnCancel)
	}

	s.owner.upRef.Terminate()
}

// RequestFusion forwards negotiation to the upstream's own QueueSubscription
// when there is one, denying Sync fusion across a thread boundary: Peek
// runs cb.OnNext inline inside Poll, and FusionBoundary exists precisely to
// stop that from happening on a thread other than the producer's.
func (s *peekSubscription[T]) RequestFusion(requestedMode FusionMode) FusionMode {
	if s.upstreamQueue == nil {
		return FusionNone
	}

	if requestedMode.CrossesBoundary() && requestedMode.Requests()&FusionSync != 0 {
		return FusionNone
	}

	granted := s.upstreamQueue.RequestFusion(requestedMode)
	atomic.StoreInt32(&s.fused, int32(granted))

	return granted
}

// Poll fires cb.OnNext for whatever it forwards from the upstream queue,
// and — once Sync fusion was negotiated — fires cb.OnComplete/
// OnAfterTerminate the moment the upstream reports exhaustion, since a
// Sync-fused source never sends a separate terminal push signal.
func (s *peekSubscription[T]) Poll() (T, bool, error) {
	var zero T

	if s.upstreamQueue == nil {
		return zero, false, nil
	}

	value, ok, err := s.upstreamQueue.Poll()
	if err != nil {
		s.owner.firePollError(err)
		return zero, false, err
	}

	if !ok {
		if FusionMode(atomic.LoadInt32(&s.fused)) == FusionSync {
			if completeErr := s.owner.firePollComplete(); completeErr != nil {
				return zero, false, completeErr
			}
		}

		return zero, false, nil
	}

	if s.owner.cb.OnNext != nil {
		if cbErr := safeInvoke(func() { s.owner.cb.OnNext(value) }); cbErr != nil {
			wrapped := newPublisherError(cbErr)
			s.owner.firePollNextFailure(wrapped)

			return zero, false, wrapped
		}
	}

	return value, true, nil
}

func (s *peekSubscription[T]) IsEmpty() bool {
	if s.upstreamQueue == nil {
		return true
	}

	return s.upstreamQueue.IsEmpty()
}

func (s *peekSubscription[T]) Clear() {
	if s.upstreamQueue != nil {
		s.upstreamQueue.Clear()
	}
}

func (s *peekSubscription[T]) Size() int {
	if s.upstreamQueue == nil {
		return 0
	}

	return s.upstreamQueue.Size()
}

func (s *peekSubscription[T]) Drop() {
	if s.upstreamQueue != nil {
		s.upstreamQueue.Drop()
	}
}

var _ Subscriber[int] = (*peekSubscriber[int])(nil)
var _ QueueSubscription[int] = (*peekSubscription[int])(nil)
