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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestZipWithIterableScenario reproduces spec §8 scenario 4 verbatim:
// source emits 1,2,3; iterable yields a,b. After 1=>1a and 2=>2b, the
// iterator is exhausted, so downstream completes and source is cancelled.
func TestZipWithIterableScenario(t *testing.T) {
	t.Parallel()

	up := newManualPublisher[int]()
	sub := newRecordingSubscriber[string]()

	ZipWithIterable[int, string, string](up, SliceIterable([]string{"a", "b"}), func(n int, s string) string {
		return fmt.Sprintf("%d%s", n, s)
	}).Subscribe(sub)
	sub.Request(Unbounded)

	up.Emit(1)
	assert.Equal(t, []string{"1a"}, sub.Values())

	up.Emit(2)
	assert.Equal(t, []string{"1a", "2b"}, sub.Values())
	assert.True(t, sub.Completed(), "iterable exhausted right after the second pairing")
	assert.True(t, up.Cancelled())

	// A third emission must not be delivered: the subscription already
	// completed.
	up.Emit(3)
	assert.Equal(t, []string{"1a", "2b"}, sub.Values())
}

func TestZipWithIterableEmptyCompletesWithoutSubscribingSource(t *testing.T) {
	t.Parallel()

	up := newManualPublisher[int]()
	sub := newRecordingSubscriber[int]()

	ZipWithIterable[int, int, int](up, SliceIterable([]int{}), func(a, b int) int { return a + b }).Subscribe(sub)

	assert.True(t, sub.Completed())
	assert.Nil(t, up.subscriber, "an empty iterable must never cause source to be subscribed")
}

func TestZipWithIterableNilErrors(t *testing.T) {
	t.Parallel()

	sub := newRecordingSubscriber[int]()

	ZipWithIterable[int, int, int](Range(0, 3), nil, func(a, b int) int { return a + b }).Subscribe(sub)

	assert.True(t, sub.Errored())
	assert.ErrorIs(t, sub.Err(), ErrZipIterableNil)
}

func TestZipWithIterableZipperPanicErrors(t *testing.T) {
	t.Parallel()

	up := newManualPublisher[int]()
	sub := newRecordingSubscriber[int]()

	ZipWithIterable[int, int, int](up, SliceIterable([]int{1}), func(a, b int) int {
		panic("boom")
	}).Subscribe(sub)
	sub.Request(Unbounded)

	up.Emit(1)

	assert.True(t, sub.Errored())
	assert.True(t, up.Cancelled())
}
