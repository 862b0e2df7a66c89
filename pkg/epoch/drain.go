package epoch

import (
	"math"
	"sync/atomic"
)

// Drain-slot sentinels.
//
// emptySentinel and claimingSentinel are reserved from the top of the
// int32 epoch space. Epochs are incremented roughly once per checkpoint,
// so capping current_epoch well below these leaves billions of years of
// headroom.
const (
	emptySentinel    int64 = math.MaxInt32
	claimingSentinel int64 = math.MaxInt32 - 1
)

// drainSlot is one element of the fixed-length drain list.
//
// action is touched only by the goroutine that has just won the CAS
// transitioning triggerEpoch to claimingSentinel: that CAS is the
// synchronization point, so action itself needs no atomic wrapper.
type drainSlot struct {
	triggerEpoch atomic.Int64
	action       func()
}

// drainList is the small fixed-size set of (trigger-epoch, action) pairs
// awaiting safety. Each Manager holds one, created by newDrainList.
type drainList struct {
	slots [drainListSize]drainSlot
	count atomic.Int32
}

func newDrainList() *drainList {
	d := &drainList{}
	for i := range d.slots {
		d.slots[i].triggerEpoch.Store(emptySentinel)
	}

	return d
}

// enqueue lodges action at the given trigger epoch.
//
// It scans slots from 0, wrapping modulo D. An empty slot is claimed
// directly. A slot that is already ripe (triggerEpoch <= safeEpoch) is
// fired synchronously in the caller first, then the scan continues looking
// for a place to lodge the new action — this opportunistic-fairness
// behavior leaves ordering among same-epoch actions unspecified.
func (d *drainList) enqueue(triggerEpoch int64, action func(), safeEpoch func() int64, onStall func(wraps int)) {
	for scanned := 0; ; scanned++ {
		i := scanned % drainListSize

		if scanned > 0 && i == 0 {
			wraps := scanned / drainListSize
			if wraps == drainEnqueueWarnWraps && onStall != nil {
				onStall(wraps)
			}
		}

		slot := &d.slots[i]

		cur := slot.triggerEpoch.Load()

		if cur == emptySentinel {
			if slot.triggerEpoch.CompareAndSwap(emptySentinel, claimingSentinel) {
				slot.action = action
				slot.triggerEpoch.Store(triggerEpoch) // release: publishes the action
				d.count.Add(1)

				return
			}

			continue
		}

		if cur != claimingSentinel && cur <= safeEpoch() {
			if slot.triggerEpoch.CompareAndSwap(cur, claimingSentinel) {
				ripe := slot.action
				slot.action = nil
				slot.triggerEpoch.Store(emptySentinel)
				d.count.Add(-1)

				ripe()
			}
		}
	}
}

// drain fires every slot whose triggerEpoch is now safe.
// It recomputes the safe-to-reclaim epoch first (via recompute), then
// scans all slots once, CAS-claiming and firing any that are ripe. It
// early-exits once count reaches 0.
func (d *drainList) drain(recompute func() int64) {
	safe := recompute()

	if d.count.Load() == 0 {
		return
	}

	for i := range d.slots {
		if d.count.Load() == 0 {
			return
		}

		slot := &d.slots[i]

		cur := slot.triggerEpoch.Load()
		if cur == emptySentinel || cur == claimingSentinel {
			continue
		}

		if cur > safe {
			continue
		}

		if !slot.triggerEpoch.CompareAndSwap(cur, claimingSentinel) {
			continue
		}

		ripe := slot.action
		slot.action = nil
		slot.triggerEpoch.Store(emptySentinel)
		d.count.Add(-1)

		ripe()
	}
}

// occupied reports the fast "is there anything to drain?" count.
func (d *drainList) occupied() int32 {
	return d.count.Load()
}
