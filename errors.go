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
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
)

// @TODO: custom error type for recovered panics that aren't errors?
func recoverValueToError(e any) error {
	if err, ok := e.(error); ok {
		return err
	}

	return fmt.Errorf("unexpected panic value: %v", e)
}

// safeInvoke runs fn, converting a recovered panic into an error instead of
// letting it escape. Used by operators (Peek in particular) whose user
// callbacks must never be allowed to unwind past the signal that triggered
// them.
func safeInvoke(fn func()) (err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			fn()
			return nil
		},
		func(e any) {
			err = recoverValueToError(e)
		},
	)

	return err
}

// reportIllegalRequest delivers the illegal-request-amount protocol
// violation downstream exactly once, guarded by the CAS on done, and
// cancels the upstream reference first. Every operator's Subscription.Request
// in this package that observes n <= 0 calls this instead of silently
// ignoring the call, per the Request validation rule (spec §4.1): a
// non-positive request is a protocol violation, not a no-op. The multicast
// Subscriptions handed out by Connectable and Subject are the exception:
// their Request ignores n entirely, so n <= 0 is not reported.
func reportIllegalRequest(done *int32, terminate func() bool, deliver func(error)) {
	if atomic.CompareAndSwapInt32(done, 0, 1) {
		terminate()
		deliver(newSubscriberError(ErrIllegalRequestAmount))
	}
}

// newSuppressedError wraps a primary error with a secondary one that arose
// while handling it (e.g. a panic from an on_error or on_after_terminate
// hook). Unwrap exposes only the primary error; the suppressed one is
// surfaced solely through Error()'s text and to the unsignalled-error sink,
// never re-delivered downstream, since a terminal signal has already been
// sent at most once by the time a suppressed cause can occur.
func newSuppressedError(primary, suppressed error) error {
	return &suppressedError{primary: primary, suppressed: suppressed}
}

type suppressedError struct {
	primary    error
	suppressed error
}

func (e *suppressedError) Error() string {
	if e.primary == nil {
		return "rstream.Peek: on_after_terminate hook: " + e.suppressed.Error()
	}

	return "rstream.Peek: " + e.primary.Error() + " (suppressed: " + e.suppressed.Error() + ")"
}

func (e *suppressedError) Unwrap() error {
	return e.primary
}

// recoverUnhandledError runs cb, catching any panic and routing it to the
// unsignalled-error sink instead of letting it escape. Used by background
// goroutines (the scheduler worker, async sources) that have no Subscriber
// to report a panic to directly.
func recoverUnhandledError(cb func()) {
	lo.TryCatchWithErrorValue(
		func() error {
			cb()
			return nil
		},
		func(e any) {
			OnUnhandledError(context.TODO(), recoverValueToError(e))
		},
	)
}

// Protocol-violation sentinels.
var (
	//nolint:revive
	ErrIllegalRequestAmount       = errors.New("rstream: request(n) must satisfy n > 0")
	ErrDoubleSubscription         = errors.New("rstream: onSubscribe called more than once on the same Subscriber")
	ErrMissingConnectorFactory    = errors.New("rstream: Connectable: missing connector factory")
	ErrZipIterableNil             = errors.New("rstream: ZipWithIterable: iterable is nil")
	ErrZipperReturnedNilResult    = errors.New("rstream: ZipWithIterable: zipper function returned a nil result")
	ErrTakeNegativeCount          = errors.New("rstream: Take: n must be >= 0")
	ErrFusionModeNotNegotiated    = errors.New("rstream: Poll called before RequestFusion negotiated a non-None mode")
	ErrSchedulerWorkerTerminated  = errors.New("rstream: scheduler worker has been shut down")
	ErrConnectableAlreadyDisposed = errors.New("rstream: connection record reused after termination")
)

func newPublisherError(err error) error {
	return &publisherError{err: err}
}

type publisherError struct {
	err error
}

func (e *publisherError) Error() string {
	return "rstream.Publisher: " + e.err.Error()
}

func (e *publisherError) Unwrap() error {
	return e.err
}

func newSubscriberError(err error) error {
	return &subscriberError{err: err}
}

type subscriberError struct {
	err error
}

func (e *subscriberError) Error() string {
	msg := "<nil>"
	if e.err != nil {
		msg = e.err.Error()
	}

	return "rstream.Subscriber: " + msg
}

func (e *subscriberError) Unwrap() error {
	return e.err
}

func newCancellationError(err error) error {
	return &cancellationError{err: err}
}

type cancellationError struct {
	err error
}

func (e *cancellationError) Error() string {
	return "rstream.Subscription: " + e.err.Error()
}

func (e *cancellationError) Unwrap() error {
	return e.err
}

func newFusionError(err error) error {
	return &fusionError{err: err}
}

type fusionError struct {
	err error
}

func (e *fusionError) Error() string {
	return "rstream.Fuseable: " + e.err.Error()
}

func (e *fusionError) Unwrap() error {
	return e.err
}

func newSchedulerError(err error) error {
	return &schedulerError{err: err}
}

type schedulerError struct {
	err error
}

func (e *schedulerError) Error() string {
	return "rstream.Scheduler: " + e.err.Error()
}

func (e *schedulerError) Unwrap() error {
	return e.err
}

func newConnectableError(err error) error {
	return &connectableError{err: err}
}

type connectableError struct {
	err error
}

func (e *connectableError) Error() string {
	return "rstream.Connectable: " + e.err.Error()
}

func (e *connectableError) Unwrap() error {
	return e.err
}

func newPipeError(msg string, args ...any) error {
	return &pipeError{err: fmt.Errorf(msg, args...)}
}

type pipeError struct {
	err error
}

func (e *pipeError) Error() string {
	return "rstream.Pipe: " + e.err.Error()
}

func (e *pipeError) Unwrap() error {
	return e.err
}
