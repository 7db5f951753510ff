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

import "fmt"

// SignalKind identifies which of the three downstream signals a Notification
// carries: a value, an error, or completion. Request and Cancel travel
// upstream and are never represented as a Notification — they cannot be
// "dropped" in the sense this type models.
type SignalKind uint8

// SignalKind constants.
const (
	SignalNext SignalKind = iota
	SignalError
	SignalComplete
)

// String returns the human-readable name of a SignalKind.
func (k SignalKind) String() string {
	switch k {
	case SignalNext:
		return "Next"
	case SignalError:
		return "Error"
	case SignalComplete:
		return "Complete"
	}

	panic("rstream: invalid SignalKind")
}

// Notification captures a single downstream signal that could not be
// delivered, because the subscription had already reached a terminal state
// or had been cancelled. It is handed to the process-wide dropped-signal
// sink (OnDroppedSignal, see sink.go) instead of being silently discarded.
type Notification[T any] struct {
	Kind  SignalKind
	Value T
	Err   error
}

// String implements fmt.Stringer so a Notification can be logged by the
// default dropped-signal handler without further formatting.
func (n Notification[T]) String() string {
	switch n.Kind {
	case SignalNext:
		return fmt.Sprintf("Next(%+v)", n.Value)
	case SignalError:
		if n.Err == nil {
			return "Error(nil)"
		}

		return fmt.Sprintf("Error(%s)", n.Err.Error())
	case SignalComplete:
		return "Complete()"
	}

	panic("rstream: invalid SignalKind")
}

// NewNotificationNext wraps a dropped value as a Notification.
func NewNotificationNext[T any](value T) Notification[T] {
	return Notification[T]{Kind: SignalNext, Value: value}
}

// NewNotificationError wraps a dropped error as a Notification.
func NewNotificationError[T any](err error) Notification[T] {
	return Notification[T]{Kind: SignalError, Err: err}
}

// NewNotificationComplete wraps a dropped completion as a Notification.
func NewNotificationComplete[T any]() Notification[T] {
	return Notification[T]{Kind: SignalComplete}
}
