// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

// Mode selects the producer/consumer concurrency pattern of a queue.
//
// The single-producer and single-consumer flags are trusted by the
// algorithm: declaring SingleProducer while enqueueing from several
// goroutines is undefined behavior. The numeric encoding is
// (singleProducer << 1) | singleConsumer.
type Mode int32

const (
	// MPMC allows multiple producer and multiple consumer goroutines.
	MPMC Mode = 0
	// MPSC allows multiple producers and exactly one consumer goroutine.
	MPSC Mode = 1
	// SPMC allows exactly one producer goroutine and multiple consumers.
	SPMC Mode = 2
	// SPSC allows exactly one producer and one consumer goroutine.
	SPSC Mode = 3
)

func (m Mode) singleProducer() bool { return m&2 != 0 }
func (m Mode) singleConsumer() bool { return m&1 != 0 }

// Sync selects how the blocking [Queue] waits on a full or empty ring.
type Sync int32

const (
	// SyncEventCount blocks on a pair of [EventCount] primitives using
	// the check-mark-check protocol. The default; scales to many
	// blocked producers and consumers.
	SyncEventCount Sync = iota
	// SyncMutex blocks on a per-side mutex plus condition variable.
	// Producers (and likewise consumers) run their try-op one at a time
	// under their side's mutex; several of them can be parked on the
	// side's condition variable at once, and each successful operation
	// wakes only one waiter of the other side. Unsuitable for high
	// concurrency.
	SyncMutex
	// SyncYield busy-retries with adaptive backoff instead of sleeping.
	// Lowest latency, burns CPU while the queue stays full or empty.
	SyncYield
	// SyncSemaphore blocks on a pair of counting semaphores tracking
	// free slots and queued elements.
	SyncSemaphore
	// SyncAtomic32 blocks with a kernel wait on a per-side 32-bit
	// generation word.
	SyncAtomic32
)

// Options configures queue creation.
type Options struct {
	capacity       int
	singleProducer bool
	singleConsumer bool
	sync           Sync
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Non-blocking SPSC ring
//	r := rbq.New(1024).SingleProducer().SingleConsumer().Build()
//
//	// Blocking MPMC queue parked on event-counts
//	q := rbq.New(4096).Sync(rbq.SyncEventCount).BuildBlocking()
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Capacity must be a power of 2 and at least 2; anything else panics.
// Unlike round-up APIs, the capacity is taken literally: the slot count
// is part of the queue's contract (the semaphore strategy and the
// full/empty arithmetic depend on it).
func New(capacity int) *Builder {
	checkCapacity(capacity)
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleProducer declares that only one goroutine will enqueue.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will dequeue.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Sync selects the wait strategy used by BuildBlocking.
// The default is SyncEventCount.
func (b *Builder) Sync(s Sync) *Builder {
	b.opts.sync = s
	return b
}

func (b *Builder) mode() Mode {
	m := MPMC
	if b.opts.singleProducer {
		m |= SPMC
	}
	if b.opts.singleConsumer {
		m |= MPSC
	}
	return m
}

// Build creates a non-blocking *Ring for uintptr payloads.
func (b *Builder) Build() *Ring {
	return NewRing(b.opts.capacity, b.mode())
}

// BuildPtr creates a non-blocking *RingPtr for unsafe.Pointer payloads.
func (b *Builder) BuildPtr() *RingPtr {
	return NewRingPtr(b.opts.capacity, b.mode())
}

// BuildBlocking creates a blocking *Queue using the configured Sync
// strategy.
func (b *Builder) BuildBlocking() *Queue {
	return NewQueue(b.opts.capacity, b.mode(), b.opts.sync)
}

func checkCapacity(capacity int) {
	if capacity < 2 {
		panic("rbq: capacity must be >= 2")
	}
	if capacity&(capacity-1) != 0 {
		panic("rbq: capacity must be a power of 2")
	}
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
