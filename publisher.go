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

import "github.com/samber/lo"

// Publisher is a stage factory: a stateless or immutable configuration
// object whose only operation is Subscribe. A Publisher may be subscribed
// any number of times; each Subscribe call instantiates an independent
// subscription unless the Publisher is a Connectable (see connectable.go),
// which shares one upstream subscription across subscribers.
//
// Subscribe must, synchronously or asynchronously, eventually call
// subscriber.OnSubscribe exactly once before any other signal.
type Publisher[T any] interface {
	Subscribe(subscriber Subscriber[T])
}

// PublisherFunc adapts a plain subscribe function into a Publisher. Every
// operator in this package, including the Sync-fuseable sources Range and
// FromSlice, is expressed as a PublisherFunc: fusion support lives on the
// QueueSubscription a source hands to OnSubscribe, not on the Publisher.
type PublisherFunc[T any] func(subscriber Subscriber[T])

// Subscribe implements Publisher by invoking the underlying function,
// capturing any panic that escapes before OnSubscribe was ever delivered
// and reporting it as a protocol-compliant OnSubscribe+OnError pair instead
// of letting it escape to the caller.
//
// This wrapper only covers the common case of a subscribe function that
// fails before delivering any signal (e.g. while validating constructor
// arguments). An operator whose subscribe function can fail mid-stream,
// after already calling OnSubscribe, manages its own terminal guard
// directly rather than relying on this generic recovery.
func (f PublisherFunc[T]) Subscribe(subscriber Subscriber[T]) {
	lo.TryCatchWithErrorValue(
		func() error {
			f(subscriber)
			return nil
		},
		func(e any) {
			err := newPublisherError(recoverValueToError(e))
			subscriber.OnSubscribe(noopSubscription{})
			subscriber.OnError(err)
		},
	)
}

var _ Publisher[int] = PublisherFunc[int](nil)
