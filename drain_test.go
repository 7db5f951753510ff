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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainLoopRunsBodyOnce(t *testing.T) {
	t.Parallel()

	var d DrainLoop
	var calls int32

	d.Drain(func() { atomic.AddInt32(&calls, 1) })

	assert.Equal(t, int32(1), calls)
}

func TestDrainLoopSerializesConcurrentCallers(t *testing.T) {
	t.Parallel()

	var d DrainLoop
	var active int32
	var maxActive int32
	var totalRuns int32

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			d.Drain(func() {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}

				atomic.AddInt32(&totalRuns, 1)
				atomic.AddInt32(&active, -1)
			})
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), maxActive, "body must never run concurrently with itself")
	assert.GreaterOrEqual(t, totalRuns, int32(1))
}

func TestDrainLoopEnterLeave(t *testing.T) {
	t.Parallel()

	var d DrainLoop

	assert.True(t, d.Enter(), "first Enter wins the drain")
	assert.False(t, d.Enter(), "a concurrent Enter while one is active loses")
	assert.True(t, d.Leave(), "the losing Enter left missed work behind")
	assert.False(t, d.Leave(), "no further missed work means Leave reports stop")
}
