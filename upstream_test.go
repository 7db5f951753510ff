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

type countingSubscription struct {
	requested int64
	cancelled int32
}

func (s *countingSubscription) Request(n int64) { s.requested += n }
func (s *countingSubscription) Cancel()         { s.cancelled++ }

func TestUpstreamRefSetOnce(t *testing.T) {
	t.Parallel()

	var ref UpstreamRef
	sub := &countingSubscription{}

	assert.True(t, ref.SetOnce(sub))
	assert.Same(t, Subscription(sub), ref.Get())
}

func TestUpstreamRefSetOnceDoubleSubscriptionCancelsSecond(t *testing.T) {
	t.Parallel()

	var ref UpstreamRef
	first := &countingSubscription{}
	second := &countingSubscription{}

	assert.True(t, ref.SetOnce(first))
	assert.False(t, ref.SetOnce(second))
	assert.Equal(t, int32(1), second.cancelled)
	assert.Equal(t, int32(0), first.cancelled)
}

func TestUpstreamRefTerminateCancelsOnce(t *testing.T) {
	t.Parallel()

	var ref UpstreamRef
	sub := &countingSubscription{}

	ref.SetOnce(sub)

	assert.True(t, ref.Terminate())
	assert.Equal(t, int32(1), sub.cancelled)
	assert.False(t, ref.Terminate(), "Terminate reports true only the first time")
	assert.Equal(t, int32(1), sub.cancelled, "the underlying subscription is cancelled only once")
}

func TestUpstreamRefSetOnceAfterTerminateCancelsNewSubscription(t *testing.T) {
	t.Parallel()

	var ref UpstreamRef
	ref.Terminate()

	late := &countingSubscription{}
	assert.False(t, ref.SetOnce(late))
	assert.Equal(t, int32(1), late.cancelled)
}

func TestUpstreamRefReplace(t *testing.T) {
	t.Parallel()

	var ref UpstreamRef
	first := &countingSubscription{}
	second := &countingSubscription{}

	ref.SetOnce(first)

	assert.True(t, ref.Replace(second))
	assert.Equal(t, int32(1), first.cancelled)
	assert.Equal(t, int32(0), second.cancelled)
	assert.Same(t, Subscription(second), ref.Get())
}

func TestDeferredUpstreamRefAccumulatesThenDrains(t *testing.T) {
	t.Parallel()

	var ref DeferredUpstreamRef

	ref.Request(3)
	ref.Request(4)

	sub := &countingSubscription{}
	assert.True(t, ref.SetOnce(sub))
	assert.Equal(t, int64(7), sub.requested)

	ref.Request(2)
	assert.Equal(t, int64(9), sub.requested)
}
