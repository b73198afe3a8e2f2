// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Queue wraps a [Ring] with blocking Enqueue and Dequeue.
//
// Enqueue suspends the caller while the queue is full, Dequeue while
// it is empty, each on the [Sync] strategy chosen at construction.
// Both return only nil or ErrClosed; ErrWouldBlock never escapes the
// wrapper.
//
// The wakeup channels are one-directional: producers signal the
// producer-side primitive after a successful enqueue (consumers wait
// on it), consumers signal the consumer-side one after a successful
// dequeue (producers wait on it).
//
// Close releases every blocked caller on every strategy. Blocked
// producers return ErrClosed; blocked consumers drain whatever is
// still queued, then return ErrClosed.
type Queue struct {
	*Ring
	sync Sync

	// SyncEventCount: posted by the side named, waited on by the other.
	producerEC *EventCount
	consumerEC *EventCount

	// SyncMutex: per-side lock+condvar. The lock serializes the try-ops
	// of one side; parked callers release it while waiting on the condvar.
	producerMu sync.Mutex
	producerCv *sync.Cond
	consumerMu sync.Mutex
	consumerCv *sync.Cond

	// SyncAtomic32: per-side generation words, kernel-waitable.
	producerGen atomix.Int32
	consumerGen atomix.Int32

	// SyncSemaphore: free-slot and queued-element permits.
	emptyNodes semaphore
	fullNodes  semaphore

	closeOnce sync.Once
}

// NewQueue creates a blocking queue with the given capacity,
// concurrency mode, and wait strategy.
//
// Capacity must be a power of 2 and at least 2; anything else panics.
func NewQueue(capacity int, mode Mode, strategy Sync) *Queue {
	q := &Queue{
		Ring:       NewRing(capacity, mode),
		sync:       strategy,
		producerEC: NewEventCount(),
		consumerEC: NewEventCount(),
	}
	q.producerCv = sync.NewCond(&q.producerMu)
	q.consumerCv = sync.NewCond(&q.consumerMu)
	q.emptyNodes.release(int32(capacity))
	return q
}

// Enqueue inserts elem, blocking while the queue is full.
// Returns nil once the element is queued, or ErrClosed.
func (q *Queue) Enqueue(elem uintptr) error {
	switch q.sync {
	case SyncEventCount:
		return q.enqueueEC(elem)
	case SyncMutex:
		return q.enqueueMX(elem)
	case SyncYield:
		return q.enqueueYield(elem)
	case SyncSemaphore:
		return q.enqueueSem(elem)
	case SyncAtomic32:
		return q.enqueueA32(elem)
	}
	panic("rbq: unknown sync strategy")
}

// Dequeue removes the head element, blocking while the queue is empty
// and not closed. Returns the element, or ErrClosed once the queue is
// closed and drained.
func (q *Queue) Dequeue() (uintptr, error) {
	switch q.sync {
	case SyncEventCount:
		return q.dequeueEC()
	case SyncMutex:
		return q.dequeueMX()
	case SyncYield:
		return q.dequeueYield()
	case SyncSemaphore:
		return q.dequeueSem()
	case SyncAtomic32:
		return q.dequeueA32()
	}
	panic("rbq: unknown sync strategy")
}

// Close closes the underlying ring, then releases every waiter of
// every strategy. Idempotent; concurrent with producers and consumers.
func (q *Queue) Close() {
	q.Ring.Close()

	q.closeOnce.Do(func() {
		q.producerEC.Close()
		q.consumerEC.Close()

		q.producerMu.Lock()
		q.producerCv.Broadcast()
		q.producerMu.Unlock()
		q.consumerMu.Lock()
		q.consumerCv.Broadcast()
		q.consumerMu.Unlock()

		q.producerGen.Add(1)
		futexWakeAll(word32(&q.producerGen))
		q.consumerGen.Add(1)
		futexWakeAll(word32(&q.consumerGen))

		// Far more permits than any plausible number of blocked
		// callers, while keeping repeated releases clear of int32
		// overflow. Semaphore-mode callers woken by these phantom
		// permits find the ring closed.
		n := int32(1<<30) - int32(q.Cap())
		q.emptyNodes.release(n)
		q.fullNodes.release(n)
	})
}

// ----------------------------------------------------------------------------
// SyncEventCount: check-mark-check
// ----------------------------------------------------------------------------

func (q *Queue) enqueueEC(elem uintptr) error {
	for {
		err := q.TryEnqueue(elem)
		if err == nil {
			q.producerEC.Post()
			return nil
		}
		if err == ErrClosed {
			return err
		}

		// Full. Mark intent to wait on consumer progress, then check
		// again: a dequeue between the first try and the Mark would
		// otherwise be a lost wakeup.
		mark := q.consumerEC.Mark()
		err = q.TryEnqueue(elem)
		if err == nil {
			q.consumerEC.Reset(mark)
			q.producerEC.Post()
			return nil
		}
		if err == ErrClosed {
			return err
		}

		q.stats.producerWaits.Add(1)
		q.consumerEC.Wait(mark, 0)
	}
}

func (q *Queue) dequeueEC() (uintptr, error) {
	for {
		v, err := q.TryDequeue()
		if err == nil {
			q.consumerEC.Post()
			return v, nil
		}
		if err == ErrClosed {
			return 0, err
		}

		mark := q.producerEC.Mark()
		v, err = q.TryDequeue()
		if err == nil {
			q.producerEC.Reset(mark)
			q.consumerEC.Post()
			return v, nil
		}
		if err == ErrClosed {
			return 0, err
		}

		q.stats.consumerWaits.Add(1)
		q.producerEC.Wait(mark, 0)
	}
}

// ----------------------------------------------------------------------------
// SyncMutex
// ----------------------------------------------------------------------------

// The notification happens after the side's own mutex is dropped, and
// under the opposite side's mutex. Taking that lock is what makes the
// signal reliable: a waiter checks the ring and parks while holding
// it, so the notifier cannot slip a signal into the gap between the
// two. Holding only one mutex at a time keeps the two sides free of
// lock-order deadlocks.

func (q *Queue) enqueueMX(elem uintptr) error {
	q.producerMu.Lock()
	var err error
	for {
		err = q.TryEnqueue(elem)
		if err == nil || err == ErrClosed {
			break
		}
		q.stats.producerWaits.Add(1)
		q.producerCv.Wait()
	}
	q.producerMu.Unlock()

	if err == nil {
		q.consumerMu.Lock()
		q.consumerCv.Signal()
		q.consumerMu.Unlock()
	}
	return err
}

func (q *Queue) dequeueMX() (uintptr, error) {
	q.consumerMu.Lock()
	var v uintptr
	var err error
	for {
		v, err = q.TryDequeue()
		if err == nil || err == ErrClosed {
			break
		}
		q.stats.consumerWaits.Add(1)
		q.consumerCv.Wait()
	}
	q.consumerMu.Unlock()

	if err == nil {
		q.producerMu.Lock()
		q.producerCv.Signal()
		q.producerMu.Unlock()
		return v, nil
	}
	return 0, err
}

// ----------------------------------------------------------------------------
// SyncYield
// ----------------------------------------------------------------------------

func (q *Queue) enqueueYield(elem uintptr) error {
	backoff := iox.Backoff{}
	for {
		err := q.TryEnqueue(elem)
		if err == nil {
			return nil
		}
		if err == ErrClosed {
			return err
		}
		q.stats.producerWaits.Add(1)
		backoff.Wait()
	}
}

func (q *Queue) dequeueYield() (uintptr, error) {
	backoff := iox.Backoff{}
	for {
		v, err := q.TryDequeue()
		if err == nil {
			return v, nil
		}
		if err == ErrClosed {
			return 0, err
		}
		q.stats.consumerWaits.Add(1)
		backoff.Wait()
	}
}

// ----------------------------------------------------------------------------
// SyncSemaphore
// ----------------------------------------------------------------------------

// The permits make the try-op infallible: an emptyNodes permit
// guarantees a free slot, a fullNodes permit a queued element. The
// only legitimate failure after a permit is ErrClosed, produced by the
// phantom permits Close releases; Full or Empty there means the
// accounting is broken.

func (q *Queue) enqueueSem(elem uintptr) error {
	if !q.emptyNodes.tryAcquire() {
		q.stats.producerWaits.Add(1)
		q.emptyNodes.acquire()
	}

	err := q.TryEnqueue(elem)
	switch err {
	case nil:
		q.fullNodes.release(1)
		return nil
	case ErrClosed:
		return err
	}
	panic("rbq: enqueue failed with a free-slot permit held")
}

func (q *Queue) dequeueSem() (uintptr, error) {
	if !q.fullNodes.tryAcquire() {
		q.stats.consumerWaits.Add(1)
		q.fullNodes.acquire()
	}

	v, err := q.TryDequeue()
	switch err {
	case nil:
		q.emptyNodes.release(1)
		return v, nil
	case ErrClosed:
		return 0, err
	}
	panic("rbq: dequeue failed with a queued-element permit held")
}

// ----------------------------------------------------------------------------
// SyncAtomic32
// ----------------------------------------------------------------------------

func (q *Queue) enqueueA32(elem uintptr) error {
	for {
		mark := q.consumerGen.LoadAcquire()
		err := q.TryEnqueue(elem)
		if err == nil {
			q.producerGen.Add(1)
			futexWake(word32(&q.producerGen), 1)
			return nil
		}
		if err == ErrClosed {
			return err
		}
		q.stats.producerWaits.Add(1)
		futexWait(word32(&q.consumerGen), uint32(mark), 0)
	}
}

func (q *Queue) dequeueA32() (uintptr, error) {
	for {
		mark := q.producerGen.LoadAcquire()
		v, err := q.TryDequeue()
		if err == nil {
			q.consumerGen.Add(1)
			futexWake(word32(&q.consumerGen), 1)
			return v, nil
		}
		if err == ErrClosed {
			return 0, err
		}
		q.stats.consumerWaits.Add(1)
		futexWait(word32(&q.producerGen), uint32(mark), 0)
	}
}
