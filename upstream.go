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
	"sync/atomic"

	"github.com/mkrou/rstream/internal/xatomic"
)

// cancelledSentinel is the tombstone installed into an UpstreamRef once it
// has been terminated. Comparing against this exact pointer (rather than
// against a freshly allocated noopSubscription value) is what lets
// UpstreamRef tell "cancelled" apart from "a real, merely no-op
// subscription" in O(1) without an extra state field.
var cancelledSentinelValue Subscription = noopSubscription{}
var cancelledSentinel = &cancelledSentinelValue //nolint:gochecknoglobals

// UpstreamRef is the single-assignment reference cell that every operator
// holding a reference to its upstream Subscription uses for cancel
// propagation: an atomic cell over three states (empty, set, cancelled). It
// is built on internal/xatomic.Pointer; this cell is the package's only
// user of that primitive.
type UpstreamRef struct {
	cell xatomic.Pointer[Subscription]
}

// SetOnce installs s as the upstream subscription if the cell is still
// empty. If the cell was already terminated, s is cancelled immediately. If
// the cell already holds a different subscription, that is a protocol
// violation (double onSubscribe): s is cancelled and the violation is
// reported to the unsignalled-error sink exactly once.
func (r *UpstreamRef) SetOnce(s Subscription) bool {
	if s == nil {
		return false
	}

	for {
		cur := r.cell.Load()
		if cur == cancelledSentinel {
			s.Cancel()
			return false
		}

		if cur != nil {
			s.Cancel()
			OnUnhandledError(context.Background(), newSubscriberError(ErrDoubleSubscription))
			return false
		}

		boxed := s
		if r.cell.CompareAndSwap(nil, &boxed) {
			return true
		}
	}
}

// Replace atomically swaps in s as the new upstream subscription, cancelling
// whatever was previously referenced (if anything real), and reports
// whether the swap took effect. If the cell was already terminated, s is
// cancelled immediately and Replace returns false.
func (r *UpstreamRef) Replace(s Subscription) bool {
	for {
		cur := r.cell.Load()
		if cur == cancelledSentinel {
			if s != nil {
				s.Cancel()
			}

			return false
		}

		var boxed *Subscription
		if s != nil {
			v := s
			boxed = &v
		}

		if r.cell.CompareAndSwap(cur, boxed) {
			if cur != nil {
				(*cur).Cancel()
			}

			return true
		}
	}
}

// Terminate installs the cancelled sentinel, cancelling whatever real
// subscription was previously referenced, and reports true the first time
// only.
func (r *UpstreamRef) Terminate() bool {
	for {
		cur := r.cell.Load()
		if cur == cancelledSentinel {
			return false
		}

		if r.cell.CompareAndSwap(cur, cancelledSentinel) {
			if cur != nil {
				(*cur).Cancel()
			}

			return true
		}
	}
}

// IsCancelled reports whether Terminate has already run to completion.
func (r *UpstreamRef) IsCancelled() bool {
	return r.cell.Load() == cancelledSentinel
}

// Get returns the currently referenced subscription, or nil if the cell is
// empty or cancelled. Used by operators that need to forward a Request
// directly once upstream is known to be set (e.g. DeferredUpstreamRef).
func (r *UpstreamRef) Get() Subscription {
	cur := r.cell.Load()
	if cur == nil || cur == cancelledSentinel {
		return nil
	}

	return *cur
}

// DeferredUpstreamRef additionally accumulates downstream demand issued
// before the upstream subscription is known, and drains it the moment
// SetOnce succeeds.
type DeferredUpstreamRef struct {
	UpstreamRef

	requested int64
}

// SetOnce installs s as the upstream subscription (see UpstreamRef.SetOnce)
// and, if that succeeds, immediately forwards any demand accumulated by
// prior calls to Request.
func (r *DeferredUpstreamRef) SetOnce(s Subscription) bool {
	if !r.UpstreamRef.SetOnce(s) {
		return false
	}

	if drained := swapToZero(&r.requested); drained > 0 {
		s.Request(drained)
	}

	return true
}

// Request forwards n to the upstream subscription if it is already known,
// or accumulates it (saturating) to be drained once SetOnce installs one.
func (r *DeferredUpstreamRef) Request(n int64) {
	if s := r.Get(); s != nil {
		s.Request(n)
		return
	}

	AddRequested(&r.requested, n)

	// The upstream may have raced in between Get() returning nil and the
	// accumulation above; re-check and, if so, drain what we just added
	// exactly once by swapping the accumulator back to zero.
	if s := r.Get(); s != nil {
		if drained := swapToZero(&r.requested); drained > 0 {
			s.Request(drained)
		}
	}
}

// swapToZero atomically reads *cell and resets it to 0, returning the value
// it held just before the reset. Unbounded is left in place rather than
// reset, since it is an absorbing sentinel that must keep being reported on
// every subsequent drain (see DeferredUpstreamRef.Request).
func swapToZero(cell *int64) int64 {
	for {
		cur := atomic.LoadInt64(cell)
		if cur == Unbounded {
			return Unbounded
		}

		if cur == 0 {
			return 0
		}

		if atomic.CompareAndSwapInt64(cell, cur, 0) {
			return cur
		}
	}
}
