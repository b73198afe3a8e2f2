// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import "code.hybscloud.com/atomix"

// semaphore is a futex-based counting semaphore for the SyncSemaphore
// wait strategy. The permit count is the futex word itself: acquirers
// CAS it down while positive and otherwise sleep on it; releasers add
// and wake.
//
// Close over-releases far past the capacity, so the count must stay
// well clear of int32 overflow; Queue.Close releases 1<<30-capacity
// exactly once.
type semaphore struct {
	_     pad
	count atomix.Int32
	_     pad
}

// tryAcquire takes one permit without blocking.
func (s *semaphore) tryAcquire() bool {
	for {
		c := s.count.LoadAcquire()
		if c <= 0 {
			return false
		}
		if s.count.CompareAndSwapAcqRel(c, c-1) {
			return true
		}
	}
}

// acquire takes one permit, sleeping on the count word while none are
// available.
func (s *semaphore) acquire() {
	for {
		c := s.count.LoadAcquire()
		if c > 0 {
			if s.count.CompareAndSwapAcqRel(c, c-1) {
				return
			}
			continue
		}
		futexWait(word32(&s.count), uint32(c), 0)
	}
}

// release adds n permits and wakes sleepers.
func (s *semaphore) release(n int32) {
	s.count.AddAcqRel(n)
	if n == 1 {
		futexWake(word32(&s.count), 1)
		return
	}
	futexWakeAll(word32(&s.count))
}
