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
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLatestOnlyBackpressuredScenario reproduces spec §8 scenario 1
// verbatim: source emits 1,2; downstream requests 1 => receives 2. Source
// emits 3,4; downstream requests 2 => receives 4. Source emits 5,
// completes => downstream receives 5, then complete.
func TestLatestOnlyBackpressuredScenario(t *testing.T) {
	t.Parallel()

	up := newManualPublisher[int]()
	sub := newRecordingSubscriber[int]()

	LatestOnly[int](up).Subscribe(sub)

	up.Emit(1)
	up.Emit(2)
	sub.Request(1)
	assert.Equal(t, []int{2}, sub.Values())

	up.Emit(3)
	up.Emit(4)
	sub.Request(2)
	assert.Equal(t, []int{2, 4}, sub.Values())

	up.Emit(5)
	sub.Request(1)
	up.Finish()

	assert.Equal(t, []int{2, 4, 5}, sub.Values())
	assert.True(t, sub.Completed())
}

func TestLatestOnlyTerminalSentExactlyOnce(t *testing.T) {
	t.Parallel()

	up := newManualPublisher[int]()
	sub := newRecordingSubscriber[int]()

	LatestOnly[int](up).Subscribe(sub)
	up.Finish()

	// Further demand after the source has already completed with nothing
	// buffered must not re-trigger a second terminal delivery.
	sub.Request(1)
	sub.Request(1)

	assert.True(t, sub.Completed())
}

func TestLatestOnlyDropsOverwrittenValue(t *testing.T) {
	var dropped []string

	SetOnDroppedSignal(func(_ context.Context, n fmt.Stringer) {
		dropped = append(dropped, n.String())
	})
	t.Cleanup(func() { SetOnDroppedSignal(nil) })

	up := newManualPublisher[int]()
	sub := newRecordingSubscriber[int]()

	LatestOnly[int](up).Subscribe(sub)

	up.Emit(1)
	up.Emit(2) // overwrites 1 before it was ever drained
	sub.Request(1)

	assert.Equal(t, []int{2}, sub.Values())
	assert.Len(t, dropped, 1, "the overwritten value 1 must be reported to the dropped-signal sink")
}
