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
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

// TestCombineLatestTwoSourcesScenario reproduces spec §8 scenario 2
// verbatim.
func TestCombineLatestTwoSourcesScenario(t *testing.T) {
	t.Parallel()

	s1 := newManualPublisher[int]()
	s2 := newManualPublisher[int]()
	sub := newRecordingSubscriber[lo.Tuple2[int, int]]()

	CombineLatestWith2AsTuple[int, int](s1, s2).Subscribe(sub)
	sub.Request(Unbounded)

	s1.Emit(1)
	s1.Emit(2)
	s2.Emit(1)
	assert.Equal(t, []lo.Tuple2[int, int]{{A: 2, B: 1}}, sub.Values())

	s2.Emit(2)
	assert.Equal(t, []lo.Tuple2[int, int]{{A: 2, B: 1}, {A: 2, B: 2}}, sub.Values())

	s1.Finish()
	s2.Emit(3)
	assert.Equal(t, []lo.Tuple2[int, int]{{A: 2, B: 1}, {A: 2, B: 2}, {A: 2, B: 3}}, sub.Values())

	s2.Finish()
	assert.True(t, sub.Completed())
	assert.Len(t, sub.Values(), 3, "no other values besides the three pairs above")
}

func TestCombineLatestErrorCancelsBothSources(t *testing.T) {
	t.Parallel()

	s1 := newManualPublisher[int]()
	s2 := newManualPublisher[int]()
	sub := newRecordingSubscriber[int]()

	CombineLatestWith2[int, int, int](s1, s2, func(a, b int) int { return a + b }).Subscribe(sub)
	sub.Request(Unbounded)

	s1.Fail(assert.AnError)

	assert.True(t, sub.Errored())
	assert.ErrorIs(t, sub.Err(), assert.AnError)
	assert.True(t, s1.Cancelled())
	assert.True(t, s2.Cancelled())
}
