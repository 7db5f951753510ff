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

// ToSlice subscribes to source with unbounded demand and blocks until it
// reaches a terminal state, returning every value it produced. It exists
// for tests and simple synchronous callers; it is not itself an operator,
// since it never returns a Publisher.
func ToSlice[T any](source Publisher[T]) ([]T, error) {
	done := make(chan struct{})

	var (
		values []T
		err    error
	)

	source.Subscribe(SubscriberFunc[T](
		func(v T) { values = append(values, v) },
		func(e error) {
			err = e
			close(done)
		},
		func() { close(done) },
	))

	<-done

	return values, err
}
