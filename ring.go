// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// qClosed is the low bit of a slot sequence. Once set, no enqueue can
// ever succeed at that slot, so the producer side shuts down
// structurally even when the closed flag check is raced past.
// Sequence arithmetic always steps by capacity (a power of 2, >= 2),
// which keeps the bit out of generation math.
const qClosed uint64 = 1

// Ring is a lock-free bounded FIFO queue of word-sized payloads.
//
// Each slot packs its sequence tag and value into one 128-bit atomic
// entry (lo=seq, hi=value), so multi-producer enqueues transition both
// with a single CAS: a competing producer can never observe a fresh
// sequence next to a stale value.
//
// The sequence tag encodes which ring generation the slot belongs to.
// For a producer or consumer whose index sequence is s, the slot
// slots[s&mask] is
//
//	empty, awaiting producer  iff  seq == s &^ mask
//	full, awaiting consumer   iff  seq == (s &^ mask) + capacity
//
// An enqueue at s publishes (seq+capacity, value). A dequeue never
// touches the entry: advancing head is enough, because the producer
// that next visits the slot does so at s+capacity, whose generation
// bits already equal the post-enqueue sequence.
//
// Enqueue and dequeue are lock-free, not wait-free: an individual
// operation can lose its CAS to a peer arbitrarily often, but some
// operation always completes. All waits live in the blocking [Queue]
// wrapper.
type Ring struct {
	_        pad
	tail     atomix.Uint64 // next sequence to enqueue
	_        pad
	head     atomix.Uint64 // next sequence to dequeue, offset by capacity
	_        pad
	slots    []ringSlot
	mask     uint64 // capacity - 1, the index bits
	seqMask  uint64 // ^mask, the generation bits
	capacity uint64
	spMode   bool // single producer, enqueue not goroutine-safe
	scMode   bool // single consumer, dequeue not goroutine-safe
	closed   atomix.Bool
	stats    Stats
}

type ringSlot struct {
	entry atomix.Uint128 // lo=seq, hi=value
	_     [64 - 16]byte  // pad to cache line
}

// NewRing creates a ring with the given capacity and concurrency mode.
//
// Capacity must be a power of 2 and at least 2; anything else panics.
// The mode's single-producer/single-consumer claims are trusted:
// violating them is undefined behavior.
func NewRing(capacity int, mode Mode) *Ring {
	checkCapacity(capacity)

	n := uint64(capacity)
	q := &Ring{
		slots:    make([]ringSlot, n),
		mask:     n - 1,
		seqMask:  ^(n - 1),
		capacity: n,
		spMode:   mode.singleProducer(),
		scMode:   mode.singleConsumer(),
	}

	// Slots start at generation 0 (the zero value). head runs one full
	// generation ahead of tail: the first enqueue at sequence i moves
	// slot i to sequence capacity, which is exactly what the first
	// dequeue, at head sequence capacity+i, expects to find.
	q.head.StoreRelaxed(n)
	q.tail.StoreRelaxed(0)
	return q
}

// Cap returns the queue capacity.
func (q *Ring) Cap() int { return int(q.capacity) }

// Mode returns the concurrency mode the ring was created with.
func (q *Ring) Mode() Mode {
	m := MPMC
	if q.spMode {
		m |= SPMC
	}
	if q.scMode {
		m |= MPSC
	}
	return m
}

// Stats returns the ring's counters. The same Stats instance also
// accumulates the wait counters of a blocking [Queue] wrapping this
// ring.
func (q *Ring) Stats() *Stats { return &q.stats }

// xcmp compares two sequences under wrap-agnostic 64-bit arithmetic.
// Negative means a precedes b, positive means a follows b.
func xcmp(a, b uint64) int64 { return int64(a - b) }

// TryEnqueue inserts elem at the tail without blocking.
//
// Returns nil on success, ErrWouldBlock when the queue is full, or
// ErrClosed once Close has been observed by the producer side.
func (q *Ring) TryEnqueue(elem uintptr) error {
	var err error
	if q.spMode {
		err = q.enqueueSP(uint64(elem))
	} else {
		err = q.enqueueMP(uint64(elem))
	}
	if err == ErrWouldBlock {
		q.stats.queueFull.Add(1)
	}
	return err
}

// TryDequeue removes the element at the head without blocking.
//
// Returns ErrWouldBlock when the queue is empty, or ErrClosed when it
// is empty and closed. The closed flag is sampled before the dequeue
// attempt, so every element enqueued before Close drains with a nil
// error before any caller sees ErrClosed.
func (q *Ring) TryDequeue() (uintptr, error) {
	wasClosed := q.closed.Load()

	var v uint64
	var ok bool
	if q.scMode {
		v, ok = q.dequeueSC()
	} else {
		v, ok = q.dequeueMC()
	}
	if ok {
		return uintptr(v), nil
	}
	if wasClosed {
		return 0, ErrClosed
	}
	q.stats.queueEmpty.Add(1)
	return 0, ErrWouldBlock
}

// Close marks the queue closed.
//
// The logical flag flips first; then a qClosed bit is planted in the
// sequence of the next slot an enqueue would fill, so producers that
// raced past the flag still fail structurally. Dequeues are unaffected
// until the queue drains. Close is idempotent.
//
// In single-producer mode, Close must not race with an in-flight
// enqueue on another goroutine (the producer itself may call it).
func (q *Ring) Close() {
	q.closed.Store(true)

	if q.spMode {
		for {
			tail := q.tail.LoadRelaxed()
			slot := &q.slots[tail&q.mask]
			seq, val := slot.entry.LoadAcquire()
			if seq&qClosed != 0 {
				return
			}
			if slot.entry.CompareAndSwapAcqRel(seq, val, seq|qClosed, val) {
				return
			}
		}
	}
	q.updateNode(false, true, 0)
}

// Closed reports whether Close has been called.
func (q *Ring) Closed() bool { return q.closed.Load() }

// enqueueSP is the single-producer fast path: no CAS, two release
// stores. Only the owning producer goroutine mutates tail, so its load
// here is always current.
func (q *Ring) enqueueSP(value uint64) error {
	tail := q.tail.LoadAcquire()
	ndx := tail & q.mask
	slot := &q.slots[ndx]

	seq, _ := slot.entry.LoadAcquire()
	if seq&qClosed != 0 {
		return ErrClosed
	}
	if seq != tail&q.seqMask {
		return ErrWouldBlock // slot still holds the previous generation
	}

	head := q.head.LoadRelaxed()
	if seq+ndx == head {
		return ErrWouldBlock // occupancy == capacity
	}

	// One release store publishes value and sequence together.
	slot.entry.StoreRelease(seq+q.capacity, value)
	q.tail.StoreRelease(tail + 1)
	return nil
}

// enqueueMP is the multi-producer path.
func (q *Ring) enqueueMP(value uint64) error {
	return q.updateNode(true, false, value)
}

// updateNode locates the next enqueueable slot and applies either the
// enqueue transition (seq+capacity, value) or, for Close, the
// close-plant transition (seq|qClosed, old value).
//
// The slot is found from a relaxed copy of tail, walked forward while
// the slot sequence says other producers already filled it. Two cases:
//
//   - slot one step ahead: another producer enqueued here; step the
//     local tail copy by one and look again.
//   - slot more than one generation ahead: the ring already wrapped
//     past the local copy entirely; realign the copy to the slot's
//     generation in O(1) instead of chasing slot by slot.
//
// Either the starting tail or the previous slot's sequence was written
// by the last successful enqueue, which had verified head > tail, so
// after the acquire load of head below the full comparison is sound.
func (q *Ring) updateNode(testFull, plantClose bool, value uint64) error {
	sw := spin.Wait{}
	for {
		tailCopy := q.tail.LoadRelaxed()
		ndx := tailCopy & q.mask
		seq, val := q.slots[ndx].entry.LoadAcquire()
		if seq&qClosed != 0 {
			if plantClose {
				return nil // already planted
			}
			return ErrClosed
		}

		for xcmp(seq+ndx, tailCopy) > 0 {
			if seq-(tailCopy&q.seqMask) > q.capacity {
				q.stats.producerWraps.Add(1)
				tailCopy = (seq - q.capacity) + ndx
			} else {
				tailCopy++
			}
			ndx = tailCopy & q.mask
			seq, val = q.slots[ndx].entry.LoadAcquire()
			if seq&qClosed != 0 {
				if plantClose {
					return nil
				}
				return ErrClosed
			}
		}

		if xcmp(seq, tailCopy&q.seqMask) < 0 {
			// The slot lags its own position: a competing producer won
			// the previous slot but has not advanced tail yet. Start
			// over from a fresh tail.
			sw.Once()
			continue
		}

		if testFull {
			headCopy := q.head.LoadAcquire()
			cc := xcmp(seq+ndx, headCopy)
			if cc == 0 {
				return ErrWouldBlock
			}
			if cc > 0 {
				// head can never trail the sequence of an enqueueable
				// slot; seeing it do so means the memory ordering
				// contract is broken.
				q.stats.invalidHeadSync.Add(1)
				panic("rbq: head observed behind tail during full check")
			}
		}

		slot := &q.slots[ndx]
		if plantClose {
			if slot.entry.CompareAndSwapAcqRel(seq, val, seq|qClosed, val) {
				return nil
			}
		} else {
			if slot.entry.CompareAndSwapAcqRel(seq, val, seq+q.capacity, value) {
				q.tryUpdateTail(seq + ndx + 1)
				return nil
			}
			q.stats.producerRetries.Add(1)
		}
		sw.Once()
	}
}

// tryUpdateTail advances tail to newTail unless it already moved at
// least that far. Best-effort: the slot CAS is the linearization point
// and tail is only a hint, so losing here is fine.
func (q *Ring) tryUpdateTail(newTail uint64) {
	cur := q.tail.LoadRelaxed()
	for xcmp(cur, newTail) < 0 {
		if q.tail.CompareAndSwapAcqRel(cur, newTail) {
			return
		}
		cur = q.tail.LoadRelaxed()
	}
}

// dequeueSC is the single-consumer fast path. The consumer owns head,
// and never needs to write the slot entry: the head advance alone
// recycles the slot for the producer's next generation.
func (q *Ring) dequeueSC() (uint64, bool) {
	head := q.head.LoadAcquire()
	ndx := head & q.mask
	seq, val := q.slots[ndx].entry.LoadAcquire()

	// A close bit planted by Close does not stop the drain.
	if seq&^qClosed != head&q.seqMask {
		return 0, false // empty
	}

	q.head.StoreRelaxed(head + 1)
	return val, true
}

// dequeueMC is the multi-consumer path: claim the head sequence with a
// CAS. Like dequeueSC it leaves the slot entry untouched; consumers
// only ever race each other on head.
func (q *Ring) dequeueMC() (uint64, bool) {
	sw := spin.Wait{}
	headCopy := q.head.LoadRelaxed()
	for {
		ndx := headCopy & q.mask
		seq, val := q.slots[ndx].entry.LoadAcquire()

		cc := xcmp(seq&^qClosed, headCopy&q.seqMask) // close bit ignored
		if cc < 0 {
			return 0, false // empty
		}
		if cc > 0 {
			// The producer side already cycled this slot a whole
			// generation past our head copy: reload and retry.
			q.stats.consumerWraps.Add(1)
			headCopy = q.head.LoadRelaxed()
			continue
		}

		if q.head.CompareAndSwapRelaxed(headCopy, headCopy+1) {
			return val, true
		}
		q.stats.consumerRetries.Add(1)
		headCopy = q.head.LoadRelaxed()
		sw.Once()
	}
}
