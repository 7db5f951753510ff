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

// Subscription is the downstream-facing half of the reactive-streams
// protocol. A Subscriber receives exactly one Subscription via OnSubscribe,
// and uses it to signal demand and teardown upstream.
//
// Request and Cancel may be called from any goroutine, at any time after
// OnSubscribe returns, including concurrently with upstream signals
// in-flight on another goroutine.
type Subscription interface {
	// Request signals that the Subscriber is able to accept n more
	// elements. n must be strictly positive; a Subscription that observes
	// n <= 0 surfaces a protocol-violation error instead of ignoring the
	// call. The multicast Subscriptions of Connectable and Subject do not:
	// their Request ignores n.
	Request(n int64)

	// Cancel requests that no further signals be delivered. Cancel is
	// idempotent, non-blocking, and never itself delivers a signal
	// downstream.
	Cancel()
}

// noopSubscription is the tombstone value installed into an upstream
// reference cell once it has been terminated (see upstream.go). Request and
// Cancel on it are no-ops: by the time it is visible, there is nothing left
// to signal.
type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}

var _ Subscription = noopSubscription{}
