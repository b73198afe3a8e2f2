// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For TryEnqueue: the queue is full (backpressure)
// For TryDequeue: the queue is empty (no data available)
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry the operation later, or use the blocking [Queue] wrapper which
// translates it into a wait on the configured [Sync] strategy.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed indicates the queue has been closed.
//
// For TryEnqueue and Enqueue: no further elements will be accepted.
// For TryDequeue and Dequeue: the queue is closed AND fully drained.
// Elements enqueued before Close remain dequeueable; dequeuers keep
// receiving them with a nil error until the queue is empty.
var ErrClosed = errors.New("rbq: queue closed")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsClosed reports whether err indicates the queue has been closed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil and ErrWouldBlock. Closure is a terminal state,
// not a transient condition, so ErrClosed is a failure in this sense.
func IsNonFailure(err error) bool {
	return err == nil || iox.IsNonFailure(err)
}
