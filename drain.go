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

import "sync/atomic"

// DrainLoop is a work-in-progress serializer: it guarantees that body runs
// exactly once at a time across however many goroutines call Drain
// concurrently, while never leaving work unprocessed that arrived after a
// drainer had already decided to stop.
//
// This is the standard missed-opportunity counter: a caller that finds the
// counter already non-zero just increments it and returns, trusting the
// goroutine currently running body to notice the bump and loop again. Every
// operator in this package that fans in signals from more than one
// goroutine (Merge, CombineLatest) embeds a
// DrainLoop to turn concurrent producer calls into a single serialized
// consumer of downstream Subscriber methods.
type DrainLoop struct {
	wip int32
}

// Drain runs body at least once, and reruns it for as long as a concurrent
// caller incremented wip while body was executing. Only one goroutine is
// ever inside body at a time.
func (d *DrainLoop) Drain(body func()) {
	if atomic.AddInt32(&d.wip, 1) != 1 {
		return
	}

	for {
		body()

		if atomic.AddInt32(&d.wip, -1) == 0 {
			return
		}
	}
}

// Enter reports whether the caller has won the right to run the drain body
// itself, for callers that need finer control than Drain's bundled loop
// (e.g. checking a cancellation flag between iterations). A caller for
// which Enter returns false must not touch shared drain state: some other
// goroutine is already responsible for it and will observe any work this
// caller queued before calling Enter.
func (d *DrainLoop) Enter() bool {
	return atomic.AddInt32(&d.wip, 1) == 1
}

// Leave decrements the missed-work counter and reports whether the caller
// must keep draining (true) or may stop (false). Pairs with Enter for
// callers implementing their own loop body instead of using Drain.
func (d *DrainLoop) Leave() bool {
	return atomic.AddInt32(&d.wip, -1) != 0
}
