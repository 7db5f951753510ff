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
	"fmt"
	"log"
	"sync/atomic"
)

var (
	// onUnhandledError stores the current handler for errors that have
	// nowhere to be delivered. It is accessed via atomic.Value so
	// concurrent producers on different goroutines never race setting or
	// reading it.
	onUnhandledError atomic.Value // func(context.Context, error)

	// onDroppedSignal stores the current handler for signals that arrive
	// after a subscription has reached a terminal state or been
	// cancelled.
	onDroppedSignal atomic.Value // func(context.Context, fmt.Stringer)
)

func init() {
	onUnhandledError.Store(IgnoreOnUnhandledError)
	onDroppedSignal.Store(IgnoreOnDroppedSignal)
}

// SetOnUnhandledError sets the process-wide handler invoked when an error
// has nowhere to be delivered. Passing nil restores the default (ignore).
func SetOnUnhandledError(fn func(ctx context.Context, err error)) {
	if fn == nil {
		fn = IgnoreOnUnhandledError
	}

	onUnhandledError.Store(fn)
}

// GetOnUnhandledError returns the currently configured unhandled-error handler.
func GetOnUnhandledError() func(ctx context.Context, err error) {
	return onUnhandledError.Load().(func(context.Context, error))
}

// OnUnhandledError invokes the currently configured unhandled-error handler.
func OnUnhandledError(ctx context.Context, err error) {
	GetOnUnhandledError()(ctx, err)
}

// SetOnDroppedSignal sets the process-wide handler invoked when a signal is
// dropped. Passing nil restores the default (ignore).
func SetOnDroppedSignal(fn func(ctx context.Context, notification fmt.Stringer)) {
	if fn == nil {
		fn = IgnoreOnDroppedSignal
	}

	onDroppedSignal.Store(fn)
}

// GetOnDroppedSignal returns the currently configured dropped-signal handler.
func GetOnDroppedSignal() func(ctx context.Context, notification fmt.Stringer) {
	return onDroppedSignal.Load().(func(context.Context, fmt.Stringer))
}

// OnDroppedSignal invokes the currently configured dropped-signal handler.
func OnDroppedSignal(ctx context.Context, notification fmt.Stringer) {
	GetOnDroppedSignal()(ctx, notification)
}

// IgnoreOnUnhandledError is the default OnUnhandledError implementation: it
// does nothing.
func IgnoreOnUnhandledError(ctx context.Context, err error) {}

// IgnoreOnDroppedSignal is the default OnDroppedSignal implementation: it
// does nothing.
func IgnoreOnDroppedSignal(ctx context.Context, notification fmt.Stringer) {}

// DefaultOnUnhandledError logs the error with the standard library logger.
// Useful as a drop-in replacement for the silent default during development.
func DefaultOnUnhandledError(ctx context.Context, err error) {
	if err != nil {
		// bearer:disable go_lang_logger_leak
		log.Printf("rstream: unhandled error: %s\n", err.Error())
	}
}

var _ fmt.Stringer = (*Notification[int])(nil)

// DefaultOnDroppedSignal logs the dropped signal with the standard library
// logger.
//
// Since a generic callback cannot be assigned to a package-level var typed
// with a generic parameter, the handler is expressed in terms of
// fmt.Stringer instead of Notification[T] directly.
func DefaultOnDroppedSignal(ctx context.Context, notification fmt.Stringer) {
	// bearer:disable go_lang_logger_leak
	log.Printf("rstream: dropped signal: %s\n", notification.String())
}
