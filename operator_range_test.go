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

	"github.com/stretchr/testify/assert"
)

func TestRangeEmitsInOrder(t *testing.T) {
	t.Parallel()

	values, err := ToSlice(Range(5, 4))

	assert.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7, 8}, values)
}

func TestRangeNegativeCountErrors(t *testing.T) {
	t.Parallel()

	sub := newRecordingSubscriber[int64]()

	Range(0, -1).Subscribe(sub)

	assert.True(t, sub.Errored())
	assert.ErrorIs(t, sub.Err(), ErrTakeNegativeCount)
}

func TestRangeRespectsBackpressure(t *testing.T) {
	t.Parallel()

	sub := newRecordingSubscriber[int64]()

	Range(0, 5).Subscribe(sub)
	sub.Request(2)
	assert.Equal(t, []int64{0, 1}, sub.Values())

	sub.Request(3)
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, sub.Values())
	assert.True(t, sub.Completed())
}

func TestRangeIllegalRequestSurfacesError(t *testing.T) {
	t.Parallel()

	sub := newRecordingSubscriber[int64]()

	Range(0, 5).Subscribe(sub)
	sub.Request(-5)

	assert.True(t, sub.Errored())
	assert.ErrorIs(t, sub.Err(), ErrIllegalRequestAmount)
}

func TestRangeSyncFusionDrainsViaPoll(t *testing.T) {
	t.Parallel()

	sub := newRecordingSubscriber[int64]()

	Range(0, 3).Subscribe(sub)

	qs, ok := AsQueueSubscription[int64](sub.subscription)
	assert.True(t, ok)

	mode := qs.RequestFusion(FusionSync)
	assert.Equal(t, FusionSync, mode)

	var drained []int64
	for {
		v, ok, err := qs.Poll()
		assert.NoError(t, err)
		if !ok {
			break
		}
		drained = append(drained, v)
	}

	assert.Equal(t, []int64{0, 1, 2}, drained)
	assert.True(t, qs.IsEmpty())
}

func TestFromSliceEmitsEveryElement(t *testing.T) {
	t.Parallel()

	values, err := ToSlice(FromSlice([]string{"a", "b", "c"}))

	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, values)
}

func TestFromSliceIllegalRequestSurfacesError(t *testing.T) {
	t.Parallel()

	sub := newRecordingSubscriber[string]()

	FromSlice([]string{"a"}).Subscribe(sub)
	sub.Request(-1)

	assert.True(t, sub.Errored())
	assert.ErrorIs(t, sub.Err(), ErrIllegalRequestAmount)
}
