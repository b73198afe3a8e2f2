// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

// Producer is the interface for blocking enqueue of word-sized payloads.
//
// Enqueue suspends the caller while the queue is full and returns only
// nil (the element was queued) or ErrClosed.
type Producer interface {
	Enqueue(elem uintptr) error
}

// Consumer is the interface for blocking dequeue of word-sized payloads.
//
// Dequeue suspends the caller while the queue is empty and not closed.
// It returns the element, or ErrClosed once the queue is closed and
// fully drained.
type Consumer interface {
	Dequeue() (uintptr, error)
}

// TryProducer is the interface for non-blocking enqueue.
//
// TryEnqueue never suspends: it returns nil on success, ErrWouldBlock
// when the queue is full, or ErrClosed.
type TryProducer interface {
	TryEnqueue(elem uintptr) error
}

// TryConsumer is the interface for non-blocking dequeue.
//
// TryDequeue never suspends: it returns the element on success,
// ErrWouldBlock when the queue is empty, or ErrClosed once the queue is
// closed and drained.
type TryConsumer interface {
	TryDequeue() (uintptr, error)
}

// Closer is implemented by every queue flavor in this package.
//
// Close is idempotent. After Close, enqueues fail with ErrClosed while
// dequeues drain the remaining elements before reporting ErrClosed.
type Closer interface {
	Close()
	Closed() bool
}
