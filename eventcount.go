// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import (
	"time"

	"code.hybscloud.com/atomix"
)

// EventCount is a condition-variable-like primitive with no associated
// mutex, used to wait for "something might have changed" on a
// lock-free structure without losing wakeups.
//
// State is one 64-bit word:
//
//	bits 63..32  waiter count
//	bits 31..1   generation
//	bit  0       1 = open, 0 = closed
//
// The canonical usage is check-mark-check:
//
//	if op() { ... }                 // fast path
//	mark := ec.Mark()               // register intent to wait
//	if op() { ec.Reset(mark); ... } // re-check AFTER marking
//	ec.Wait(mark, 0)                // park
//
// A Post between Mark and Wait bumps the generation, so Wait returns
// without blocking; a Post after Wait parks finds the waiter count and
// wakes. Wakeups cannot be lost because Post clears the waiter count
// in the same CAS that bumps the generation: a concurrent Mark either
// lands before that CAS (the waiter is included in the wake) or after
// it (the waiter's mark is already stale).
type EventCount struct {
	_     pad
	state atomix.Uint64 // lo32 generation word, hi32 waiter count
	_     pad
}

const (
	ecWaitIncr  uint64 = 1 << 32
	ecFutexIncr uint64 = 2
)

// NewEventCount creates an open EventCount.
// The zero value is a closed EventCount; use the constructor.
func NewEventCount() *EventCount {
	ec := &EventCount{}
	ec.state.StoreRelaxed(1)
	return ec
}

// Mark registers the caller as a prospective waiter and returns the
// current generation as the token to wait against. A zero token means
// the EventCount is closed.
//
// Every Mark must be balanced by a Wait on the token, or a Reset if
// the caller decided not to wait.
func (ec *EventCount) Mark() uint32 {
	v := ec.state.AddAcqRel(ecWaitIncr)
	return uint32(v) // low half unchanged by the waiter increment
}

// Wait blocks until the generation moves past mark, the EventCount is
// closed, or the timeout elapses. A timeout <= 0 waits forever.
// Returns immediately if mark is zero (closed at Mark time) or the
// generation already moved.
func (ec *EventCount) Wait(mark uint32, timeout time.Duration) {
	if mark == 0 {
		return
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		cur := uint32(ec.state.LoadAcquire())
		if cur != mark {
			return // posted or closed
		}

		d := time.Duration(0)
		if timeout > 0 {
			d = time.Until(deadline)
			if d <= 0 {
				return
			}
		}
		switch futexWait(word64lo(&ec.state), mark, d) {
		case futexTimedOut:
			return
		case futexWoken, futexRetry:
			// woken, word changed under us, or a signal hit; re-check
		}
	}
}

// Reset rolls back a Mark that will not be waited on. It decrements
// the waiter count only while the generation still equals mark;
// otherwise it is a no-op (the stale waiter count is cleared by the
// next Post anyway).
func (ec *EventCount) Reset(mark uint32) {
	if mark == 0 {
		return
	}
	for {
		cur := ec.state.LoadAcquire()
		if uint32(cur) != mark {
			return
		}
		waiters := uint32(cur >> 32)
		if waiters == 0 {
			return
		}
		update := uint64(waiters-1)<<32 | uint64(mark)
		if ec.state.CompareAndSwapRelaxed(cur, update) {
			return
		}
	}
}

// Post bumps the generation and wakes all waiters, if there are any.
// With no registered waiters (or when closed) it is free: no CAS, no
// syscall.
func (ec *EventCount) Post() {
	for {
		cur := ec.state.LoadAcquire()
		futex := uint32(cur)
		if futex == 0 {
			return // closed
		}
		if cur>>32 == 0 {
			return // no waiters
		}
		update := uint64(futex + uint32(ecFutexIncr)) // waiter count zeroed
		if ec.state.CompareAndSwapAcqRel(cur, update) {
			break
		}
	}
	futexWakeAll(word64lo(&ec.state))
}

// Close transitions the EventCount to the closed state and wakes all
// waiters. Current and future Waits no longer block; Mark returns 0.
func (ec *EventCount) Close() {
	ec.state.StoreRelease(0)
	futexWakeAll(word64lo(&ec.state))
}

// Closed reports whether Close has been called.
func (ec *EventCount) Closed() bool {
	return uint32(ec.state.LoadAcquire()) == 0
}
