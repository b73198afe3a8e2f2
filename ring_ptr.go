// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import "unsafe"

// RingPtr is a [Ring] facade transporting unsafe.Pointer payloads.
//
// Ownership semantics: the producer transfers ownership to the
// consumer. While a pointer sits in the queue it is stored as a plain
// machine word, invisible to the garbage collector, so the producer (or
// some other live reference) must keep the object reachable until the
// consumer takes it over. Queues of pool indices or arena handles via
// [Ring] avoid the question entirely.
type RingPtr struct {
	ring *Ring
}

// NewRingPtr creates a pointer queue with the given capacity and mode.
// Capacity must be a power of 2 and at least 2; anything else panics.
func NewRingPtr(capacity int, mode Mode) *RingPtr {
	return &RingPtr{ring: NewRing(capacity, mode)}
}

// TryEnqueue inserts elem at the tail without blocking.
// Returns nil, ErrWouldBlock, or ErrClosed.
func (q *RingPtr) TryEnqueue(elem unsafe.Pointer) error {
	return q.ring.TryEnqueue(uintptr(elem))
}

// TryDequeue removes the element at the head without blocking.
// Returns (nil, ErrWouldBlock) on empty, (nil, ErrClosed) once closed
// and drained.
func (q *RingPtr) TryDequeue() (unsafe.Pointer, error) {
	v, err := q.ring.TryDequeue()
	if err != nil {
		return nil, err
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&v)), nil
}

// Close marks the queue closed. Idempotent.
func (q *RingPtr) Close() { q.ring.Close() }

// Closed reports whether Close has been called.
func (q *RingPtr) Closed() bool { return q.ring.Closed() }

// Cap returns the queue capacity.
func (q *RingPtr) Cap() int { return q.ring.Cap() }

// Stats returns the underlying ring's counters.
func (q *RingPtr) Stats() *Stats { return q.ring.Stats() }
