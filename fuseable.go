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

// FusionMode identifies a point in the queue-fusion negotiation: either a
// mode a downstream is willing to accept (a bitmask that may also carry
// FusionBoundary), or a mode a Fuseable subscription grants (a plain value,
// never carrying FusionBoundary).
type FusionMode int32

const (
	// FusionNone means no fusion: the operator must use the ordinary
	// OnNext push path.
	FusionNone FusionMode = 0

	// FusionSync means the source is fully known up front; Poll returns
	// ok == false exactly when the stream has completed, with no
	// concurrent producer and no separate terminal signal required.
	FusionSync FusionMode = 1

	// FusionAsync means Poll drains a queue that is filled concurrently;
	// terminal signals still arrive separately via OnError/OnComplete,
	// and OnNext is invoked with a zero value purely to mean "something is
	// available, come poll".
	FusionAsync FusionMode = 2

	// FusionBoundary is ORed into a *requested* FusionMode only, never
	// into a granted one. It forbids crossing a thread boundary: an
	// operator that may run user callbacks on the producing thread (e.g.
	// Peek) must deny FusionSync when this bit is set.
	FusionBoundary FusionMode = 4
)

// Requests returns the plain mode requested, with the FusionBoundary bit
// masked off.
func (m FusionMode) Requests() FusionMode {
	return m &^ FusionBoundary
}

// CrossesBoundary reports whether FusionBoundary was set on a requested
// mode.
func (m FusionMode) CrossesBoundary() bool {
	return m&FusionBoundary != 0
}

// QueueSubscription is the optional fusion extension to Subscription. A
// Subscription that implements it may be polled directly instead of pushing
// through OnNext, once RequestFusion has negotiated a mode other than
// FusionNone.
type QueueSubscription[T any] interface {
	Subscription

	// RequestFusion negotiates the fusion mode for this subscription.
	// requestedMode may carry FusionBoundary. The returned mode never
	// does, and is FusionNone if fusion is refused. Once a non-None mode
	// is returned, the push path carries zero-value payloads (Async) or
	// is not used at all (Sync); the downstream instead drains via Poll
	// from within its own Request/drain loop.
	RequestFusion(requestedMode FusionMode) FusionMode

	// Poll returns the next queued element. ok is false when the queue is
	// currently empty (Async) or, in Sync mode, when the stream has
	// completed. A non-nil err means the source failed; it must be
	// delivered exactly as if it had arrived via OnError on the consuming
	// stage.
	Poll() (value T, ok bool, err error)

	// IsEmpty reports whether Poll would currently return ok == false.
	IsEmpty() bool

	// Clear discards any queued elements without delivering them.
	Clear()

	// Size reports the number of elements currently queued. Diagnostic
	// only; operators must not rely on it for correctness.
	Size() int

	// Drop removes and discards exactly one queued element, without
	// returning it. Used by operators that peek via Poll but decide not
	// to keep the value (e.g. a fused filter).
	Drop()
}

// AsQueueSubscription returns s narrowed to QueueSubscription[T] and true
// if s implements the capability, or the zero value and false otherwise.
// Fusion capability is always tested this way — a strongly-typed handle
// returned from a capability probe — rather than by a dynamic downcast
// sprinkled through an operator's hot path.
func AsQueueSubscription[T any](s Subscription) (QueueSubscription[T], bool) {
	qs, ok := s.(QueueSubscription[T])
	return qs, ok
}
