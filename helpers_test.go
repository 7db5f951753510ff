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
	"sync"
)

// recordingSubscriber is a test double that records every signal it
// receives and gives the test manual control over demand via its own
// Request/Cancel calls against the Subscription handed back by OnSubscribe,
// instead of requesting Unbounded up front the way SubscriberFunc does.
type recordingSubscriber[T any] struct {
	mu sync.Mutex

	subscription Subscription
	values       []T
	err          error
	completed    bool
	errored      bool
	subscribed   bool
}

func newRecordingSubscriber[T any]() *recordingSubscriber[T] {
	return &recordingSubscriber[T]{}
}

func (r *recordingSubscriber[T]) OnSubscribe(subscription Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscription = subscription
	r.subscribed = true
}

func (r *recordingSubscriber[T]) OnNext(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = append(r.values, value)
}

func (r *recordingSubscriber[T]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
	r.errored = true
}

func (r *recordingSubscriber[T]) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed = true
}

func (r *recordingSubscriber[T]) Request(n int64) {
	r.mu.Lock()
	sub := r.subscription
	r.mu.Unlock()

	sub.Request(n)
}

func (r *recordingSubscriber[T]) Cancel() {
	r.mu.Lock()
	sub := r.subscription
	r.mu.Unlock()

	sub.Cancel()
}

func (r *recordingSubscriber[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, len(r.values))
	copy(out, r.values)

	return out
}

func (r *recordingSubscriber[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}

func (r *recordingSubscriber[T]) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.completed
}

func (r *recordingSubscriber[T]) Errored() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.errored
}

var _ Subscriber[int] = (*recordingSubscriber[int])(nil)

// manualPublisher is a Publisher whose subscription is driven entirely by
// the test: OnNext/OnError/OnComplete are invoked by calling the returned
// pushers directly, rather than by an internal goroutine, so tests can
// interleave emission with Request/Cancel calls deterministically.
type manualPublisher[T any] struct {
	subscriber Subscriber[T]
	upSub      *manualSubscription
}

type manualSubscription struct {
	mu        sync.Mutex
	requested int64
	cancelled bool
	requests  []int64
}

func (s *manualSubscription) Request(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, n)

	if n <= 0 {
		return
	}

	AddRequested(&s.requested, n)
}

func (s *manualSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = true
}

func (s *manualSubscription) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelled
}

func (s *manualSubscription) Requests() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, len(s.requests))
	copy(out, s.requests)

	return out
}

func newManualPublisher[T any]() *manualPublisher[T] {
	return &manualPublisher[T]{upSub: &manualSubscription{}}
}

func (p *manualPublisher[T]) Subscribe(subscriber Subscriber[T]) {
	p.subscriber = subscriber
	subscriber.OnSubscribe(p.upSub)
}

func (p *manualPublisher[T]) Emit(v T)         { p.subscriber.OnNext(v) }
func (p *manualPublisher[T]) Fail(err error)   { p.subscriber.OnError(err) }
func (p *manualPublisher[T]) Finish()          { p.subscriber.OnComplete() }
func (p *manualPublisher[T]) Cancelled() bool  { return p.upSub.IsCancelled() }

var _ Publisher[int] = (*manualPublisher[int])(nil)
