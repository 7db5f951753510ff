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

// ConditionalSubscriber is an optional downstream capability: a Subscriber
// that can additionally report whether a produced element was actually
// accepted. Sources that can test this capability (Range, FromSlice) use the
// boolean result to decide whether an emitted element counted against
// requested demand, which lets a fused Filter-like downstream avoid a
// separate request/produced round-trip for values it rejects.
//
// A Subscriber that does not implement this interface is always treated
// as accepting every OnNext it is given.
type ConditionalSubscriber[T any] interface {
	Subscriber[T]

	// TryOnNext offers value to the Subscriber and reports whether it was
	// accepted (true) or rejected without ever reaching the Subscriber's
	// own downstream (false). A panic inside the predicate that decides
	// acceptance is not a rejection: it terminates the subscription via
	// OnError, and TryOnNext then returns true, so the element counts as
	// produced (see operator_filter.go and the Open Question decision in
	// DESIGN.md).
	TryOnNext(value T) bool
}

// AsConditionalSubscriber returns s narrowed to ConditionalSubscriber and
// true if s implements the capability, or the zero value and false
// otherwise. Operators that can exploit the capability (Range, FromSlice)
// use this instead of a type switch sprinkled through their hot path.
func AsConditionalSubscriber[T any](s Subscriber[T]) (ConditionalSubscriber[T], bool) {
	cs, ok := s.(ConditionalSubscriber[T])
	return cs, ok
}
