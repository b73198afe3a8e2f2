// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import "code.hybscloud.com/atomix"

// Stats holds the queue's contention and wait counters.
//
// The counters are advisory: they are maintained with relaxed atomic
// adds, never participate in the queue's synchronization, and may lag
// the operations they count. Read them through Snapshot outside the
// hot path.
//
// Waits count suspensions in the blocking [Queue] (one per park on the
// configured Sync strategy), retries count lost CAS races in the
// lock-free core, and wraps count generation realignments (a producer
// or consumer observing that the ring already cycled past its local
// index copy).
type Stats struct {
	queueFull       atomix.Uint32
	queueEmpty      atomix.Uint32
	producerWaits   atomix.Uint32
	consumerWaits   atomix.Uint32
	producerRetries atomix.Uint32
	consumerRetries atomix.Uint32
	producerWraps   atomix.Uint32
	consumerWraps   atomix.Uint32
	invalidHeadSync atomix.Uint32
}

// StatsSnapshot is a point-in-time copy of a queue's counters.
type StatsSnapshot struct {
	QueueFull       uint32 // TryEnqueue returned ErrWouldBlock
	QueueEmpty      uint32 // TryDequeue returned ErrWouldBlock
	ProducerWaits   uint32 // blocking Enqueue suspensions
	ConsumerWaits   uint32 // blocking Dequeue suspensions
	ProducerRetries uint32 // enqueue slot CAS failures
	ConsumerRetries uint32 // dequeue head CAS failures
	ProducerWraps   uint32 // producer-side generation realignments
	ConsumerWraps   uint32 // consumer-side generation realignments
	InvalidHeadSync uint32 // head observed staler than the slot sequence allows
}

// Snapshot returns a copy of the current counter values.
//
// The copy is not an atomic cut across counters; individual fields may
// reflect operations that were in flight while snapshotting.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		QueueFull:       s.queueFull.Load(),
		QueueEmpty:      s.queueEmpty.Load(),
		ProducerWaits:   s.producerWaits.Load(),
		ConsumerWaits:   s.consumerWaits.Load(),
		ProducerRetries: s.producerRetries.Load(),
		ConsumerRetries: s.consumerRetries.Load(),
		ProducerWraps:   s.producerWraps.Load(),
		ConsumerWraps:   s.consumerWraps.Load(),
		InvalidHeadSync: s.invalidHeadSync.Load(),
	}
}
