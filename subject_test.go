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

func TestSubjectFansOutToEveryRegisteredSubscriber(t *testing.T) {
	t.Parallel()

	subject := NewSubject[int]()
	sub1 := newRecordingSubscriber[int]()
	sub2 := newRecordingSubscriber[int]()

	subject.Subscribe(sub1)
	subject.Subscribe(sub2)

	subject.OnNext(1)
	subject.OnNext(2)
	subject.OnComplete()

	assert.Equal(t, []int{1, 2}, sub1.Values())
	assert.Equal(t, []int{1, 2}, sub2.Values())
	assert.True(t, sub1.Completed())
	assert.True(t, sub2.Completed())
}

func TestSubjectLateSubscriberMissesPastValuesButGetsTerminal(t *testing.T) {
	t.Parallel()

	subject := NewSubject[int]()
	subject.OnNext(1)
	subject.OnComplete()

	late := newRecordingSubscriber[int]()
	subject.Subscribe(late)

	assert.Empty(t, late.Values())
	assert.True(t, late.Completed())
}

// TestMulticastTwoSubscribersShareOneRun wires Multicast's own Subject-based
// Connector path end to end, as distinct from the bare Connectable path
// exercised in connectable_test.go.
func TestMulticastTwoSubscribersShareOneRun(t *testing.T) {
	t.Parallel()

	up := newManualPublisher[int]()
	connectable := Multicast[int](up, ConnectConfig[int]{Connector: NewSubject[int]})

	sub1 := newRecordingSubscriber[int]()
	sub2 := newRecordingSubscriber[int]()
	connectable.Subscribe(sub1)
	connectable.Subscribe(sub2)

	connectable.Connect()

	up.Emit(42)
	up.Finish()

	assert.Equal(t, []int{42}, sub1.Values())
	assert.Equal(t, []int{42}, sub2.Values())
	assert.True(t, sub1.Completed())
	assert.True(t, sub2.Completed())
}

func TestMulticastNilConnectorErrorsEverySubscriber(t *testing.T) {
	t.Parallel()

	connectable := Multicast[int](Range(0, 3), ConnectConfig[int]{})

	sub := newRecordingSubscriber[int]()
	connectable.Subscribe(sub)
	connectable.Connect()

	assert.True(t, sub.Errored())
	assert.ErrorIs(t, sub.Err(), ErrMissingConnectorFactory)
}
