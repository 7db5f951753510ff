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

// Subject is both a Publisher and a Subscriber: values pushed into it via
// OnNext are fanned out live to whichever Subscribers are registered at the
// time, with no replay and no buffering for latecomers. It is the connector
// a Multicast Connectable instantiates fresh on every Connect call.
type Subject[T any] struct {
	mu   xsync.Mutex
	subs []Subscriber[T]
	done int32
	err  error
}

// NewSubject returns an empty, unterminated Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{mu: xsync.NewMutexWithLock()}
}

// Subscribe registers subscriber to receive whatever is pushed into the
// Subject from this point on. If the Subject has already terminated,
// subscriber instead immediately receives the terminal signal it missed.
func (s *Subject[T]) Subscribe(subscriber Subscriber[T]) {
	s.mu.Lock()

	if atomic.LoadInt32(&s.done) != 0 {
		err := s.err
		s.mu.Unlock()

		subscriber.OnSubscribe(noopSubscription{})
		if err != nil {
			subscriber.OnError(err)
		} else {
			subscriber.OnComplete()
		}

		return
	}

	s.subs = append(s.subs, subscriber)
	s.mu.Unlock()

	subscriber.OnSubscribe(noopSubscription{})
}

// OnSubscribe is a no-op: a Subject is not itself downstream of any single
// upstream Subscription in the ordinary sense — whatever feeds it (e.g. a
// Connectable's multicastSubscriber) drives it directly via OnNext/OnError/
// OnComplete.
func (s *Subject[T]) OnSubscribe(Subscription) {}

// OnNext fans value out to every currently registered Subscriber.
func (s *Subject[T]) OnNext(value T) {
	if atomic.LoadInt32(&s.done) != 0 {
		return
	}

	s.mu.Lock()
	subs := make([]Subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.OnNext(value)
	}
}

// OnError terminates the Subject: every currently registered Subscriber
// receives err, and every future Subscribe call receives it immediately
// too.
func (s *Subject[T]) OnError(err error) {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return
	}

	s.mu.Lock()
	s.err = err
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.OnError(err)
	}
}

// OnComplete terminates the Subject successfully: every currently
// registered Subscriber receives OnComplete, and every future Subscribe
// call does too.
func (s *Subject[T]) OnComplete() {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return
	}

	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.OnComplete()
	}
}

// ConnectConfig configures Multicast. Connector must build a fresh Subject
// (or Subject-like Publisher+Subscriber) each time it is called: Multicast
// calls it once per Connect, never reusing one across runs.
type ConnectConfig[T any] struct {
	Connector func() *Subject[T]
}

// Multicast builds a Connectable that relays source through a fresh Subject
// built by config.Connector on every Connect call, rather than subscribing
// the underlying Connectable machinery's multicastSubscriber directly to
// source's raw signals. A nil Connector is a configuration error: Subscribe
// does not report it, and Connect delivers it via OnError to every
// Subscriber registered at that point.
func Multicast[T any](source Publisher[T], config ConnectConfig[T]) *Connectable[T] {
	if config.Connector == nil {
		return NewConnectable[T](PublisherFunc[T](func(subscriber Subscriber[T]) {
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnError(newConnectableError(ErrMissingConnectorFactory))
		}))
	}

	return NewConnectable[T](PublisherFunc[T](func(subscriber Subscriber[T]) {
		subject := config.Connector()
		subject.Subscribe(subscriber)
		source.Subscribe(subject)
	}))
}

var _ Publisher[int] = (*Subject[int])(nil)
var _ Subscriber[int] = (*Subject[int])(nil)
