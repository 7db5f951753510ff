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

const (
	connectionIdle int32 = iota
	connectionStarted
	connectionTerminated
)

// Connectable is a Publisher that does not start producing until Connect is
// called, and shares the single resulting upstream subscription across
// every Subscriber that subscribed before Connect ran. Subscribers that
// subscribe after Connect has already terminated receive an immediate
// error instead of a fresh subscription: there is exactly one run of the
// underlying source per Connect call.
type Connectable[T any] struct {
	source Publisher[T]
	mu     xsync.Mutex
	state  int32
	subs   []*connectableSubscriber[T]
	upRef  UpstreamRef
}

// NewConnectable wraps source so that it can be shared across multiple
// Subscribers via a single Connect call.
func NewConnectable[T any](source Publisher[T]) *Connectable[T] {
	return &Connectable[T]{
		source: source,
		mu:     xsync.NewMutexWithLock(),
	}
}

// Subscribe registers subscriber to receive whatever the shared upstream
// produces once Connect runs. If the connection has already terminated,
// subscriber is handed an immediate OnSubscribe(noop)+OnError instead of
// being silently ignored.
func (c *Connectable[T]) Subscribe(subscriber Subscriber[T]) {
	cs := &connectableSubscriber[T]{downstream: subscriber}

	c.mu.Lock()
	switch atomic.LoadInt32(&c.state) {
	case connectionTerminated:
		c.mu.Unlock()
		subscriber.OnSubscribe(noopSubscription{})
		subscriber.OnError(newConnectableError(ErrConnectableAlreadyDisposed))
		return
	default:
		c.subs = append(c.subs, cs)
	}
	c.mu.Unlock()
}

// Connect starts the underlying source at most once over the Connectable's
// lifetime, fanning its signals out to every Subscriber registered so far.
// Any later call, whether the run is still in progress or has terminated,
// starts nothing and returns a Subscription whose Request and Cancel do
// nothing. The Subscription returned by the first call cancels the shared
// upstream and marks the connection terminated; it sends no signal to the
// registered Subscribers.
func (c *Connectable[T]) Connect() Subscription {
	c.mu.Lock()
	if !atomic.CompareAndSwapInt32(&c.state, connectionIdle, connectionStarted) {
		c.mu.Unlock()
		return noopSubscription{}
	}

	subs := make([]*connectableSubscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	multi := &multicastSubscriber[T]{parent: c, subs: subs}
	c.source.Subscribe(multi)

	return &connectableSubscription[T]{parent: c}
}

func (c *Connectable[T]) terminate() {
	atomic.StoreInt32(&c.state, connectionTerminated)
	c.upRef.Terminate()
}

type connectableSubscriber[T any] struct {
	downstream Subscriber[T]
}

type connectableSubscription[T any] struct {
	parent *Connectable[T]
}

func (s *connectableSubscription[T]) Request(int64) {}

func (s *connectableSubscription[T]) Cancel() {
	s.parent.terminate()
}

// multicastSubscriber is the single Subscriber the shared source sees. It
// fans every signal out to the registered downstreams, without any
// serialization of its own: the source is expected to call OnNext from a
// single goroutine per its own Subscriber contract, and multicastSubscriber
// merely relays to N downstreams in sequence.
type multicastSubscriber[T any] struct {
	parent *Connectable[T]
	subs   []*connectableSubscriber[T]
}

func (m *multicastSubscriber[T]) OnSubscribe(subscription Subscription) {
	if !m.parent.upRef.SetOnce(subscription) {
		return
	}

	fanoutSub := &fanoutSubscription{upstream: &m.parent.upRef}

	for _, cs := range m.subs {
		cs.downstream.OnSubscribe(fanoutSub)
	}

	subscription.Request(Unbounded)
}

func (m *multicastSubscriber[T]) OnNext(value T) {
	for _, cs := range m.subs {
		cs.downstream.OnNext(value)
	}
}

func (m *multicastSubscriber[T]) OnError(err error) {
	m.parent.terminate()

	for _, cs := range m.subs {
		cs.downstream.OnError(err)
	}
}

func (m *multicastSubscriber[T]) OnComplete() {
	m.parent.terminate()

	for _, cs := range m.subs {
		cs.downstream.OnComplete()
	}
}

// fanoutSubscription is handed to every multicast downstream in place of
// the real upstream Subscription. Request is intentionally a no-op: a
// Connectable subscribes its own multicastSubscriber with Unbounded demand
// regardless of what any individual downstream has requested, since one
// slow downstream must not throttle the others. Cancel tears down the
// entire shared connection, matching the all-or-nothing semantics of a
// multicast group rather than per-subscriber opt-out.
type fanoutSubscription struct {
	upstream *UpstreamRef
}

func (f *fanoutSubscription) Request(int64) {}

func (f *fanoutSubscription) Cancel() {
	f.upstream.Terminate()
}

var _ Publisher[int] = (*Connectable[int])(nil)
var _ Subscription = (*connectableSubscription[int])(nil)
var _ Subscriber[int] = (*multicastSubscriber[int])(nil)
var _ Subscription = (*fanoutSubscription)(nil)
