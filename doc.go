// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rbq provides a bounded lock-free ring-buffer queue with
// blocking wrappers and graceful close.
//
// The package transports opaque machine-word payloads (uintptr, or
// unsafe.Pointer via [RingPtr]) between producer and consumer
// goroutines. Three layers compose from the bottom up:
//
//   - [Ring]: the lock-free core. Non-blocking TryEnqueue/TryDequeue
//     with MPMC, MPSC, SPMC and SPSC specializations, and a Close that
//     propagates into the data structure itself.
//   - [EventCount]: a generation-counter wait primitive over a kernel
//     wait-on-word, for blocking on lock-free state without losing
//     wakeups.
//   - [Queue]: blocking Enqueue/Dequeue composed from the two, with a
//     choice of five wait strategies.
//
// # Quick Start
//
//	q := rbq.NewQueue(1024, rbq.MPMC, rbq.SyncEventCount)
//
//	// Producers
//	if err := q.Enqueue(uintptr(job)); err != nil {
//	    // rbq.ErrClosed: queue shut down
//	}
//
//	// Consumers
//	v, err := q.Dequeue()
//	if err != nil {
//	    // rbq.ErrClosed: closed and fully drained
//	}
//
//	q.Close()
//
// Non-blocking use goes straight to the ring:
//
//	r := rbq.New(4096).SingleProducer().Build()
//	if err := r.TryEnqueue(v); rbq.IsWouldBlock(err) {
//	    // full - apply backpressure
//	}
//
// # Concurrency Modes
//
// [Mode] declares how many goroutines touch each side: [MPMC], [MPSC],
// [SPMC], [SPSC]. Single-producer and single-consumer claims buy
// straight-line fast paths without CAS loops, and are trusted:
// enqueueing from two goroutines on a single-producer queue is
// undefined behavior.
//
// # Wait Strategies
//
// The blocking [Queue] parks callers on the [Sync] strategy chosen at
// construction:
//
//	SyncEventCount  event-count check-mark-check protocol (default)
//	SyncMutex       per-side mutex + condition variable
//	SyncYield       busy retry with adaptive backoff
//	SyncSemaphore   counting semaphores over free slots / queued items
//	SyncAtomic32    kernel wait on a per-side generation word
//
// SyncEventCount is the general-purpose choice. SyncYield trades CPU
// for latency. SyncMutex intentionally serializes blocked producers
// (and blocked consumers) behind one lock per side. SyncSemaphore
// callers may be woken spuriously by Close and then observe ErrClosed.
//
// # Close Semantics
//
// Close is idempotent and safe to call concurrently with running
// producers and consumers. It sets the logical closed flag and also
// plants a close bit in the sequence of the next slot an enqueue
// would fill, so the producer side fails structurally even when the
// flag check is raced past. Enqueues return [ErrClosed] from then on.
// Dequeues keep draining: every element enqueued before Close is
// delivered with a nil error before any consumer observes ErrClosed.
//
// # Error Handling
//
// The non-blocking operations return [ErrWouldBlock] (aliasing
// [code.hybscloud.com/iox]'s sentinel) for full/empty and [ErrClosed]
// after close; blocking operations absorb ErrWouldBlock into waits.
// Classify with [IsWouldBlock], [IsClosed], [IsNonFailure].
//
// # Statistics
//
// Every queue carries relaxed [Stats] counters: full/empty
// observations, blocking waits, CAS retries, and generation wraps.
// They are advisory and never part of correctness; read them with
// Stats().Snapshot() outside the hot path.
//
// # Platform Requirements
//
// The slot protocol needs a 16-byte atomic compare-and-swap
// ([code.hybscloud.com/atomix] Uint128) and the wait strategies need a
// kernel wait-on-word: the futex syscall on Linux, a parking-table
// emulation elsewhere. Little-endian layout is assumed. The memory
// ordering analysis targets acquire/release semantics; weaker models
// than x86-TSO get the full ordered-operation annotations but no
// separate fence audit.
//
// # Race Detection
//
// Go's race detector cannot see happens-before edges established
// through atomic operations on separate variables, which is exactly
// how the slot sequence protocol publishes values. The algorithms are
// analyzed under acquire/release semantics instead; stress tests that
// trip detector false positives are skipped when RaceEnabled is true.
package rbq
