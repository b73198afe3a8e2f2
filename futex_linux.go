// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package rbq

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel wait-on-word via the futex syscall. The process-private
// variants skip the cross-process hash, matching the single-process
// scope of this package.

// FUTEX_WAIT, FUTEX_WAKE, and FUTEX_PRIVATE_FLAG are not exported by
// golang.org/x/sys/unix; these mirror the fixed values from the Linux
// uapi header <linux/futex.h>.
const (
	sysFutexWait     = 0
	sysFutexWake     = 1
	futexPrivateFlag = 128

	futexWaitPrivate = sysFutexWait | futexPrivateFlag
	futexWakePrivate = sysFutexWake | futexPrivateFlag
)

// futexWait blocks while *addr == val, for at most timeout
// (timeout <= 0 waits forever). The caller re-checks its condition on
// futexRetry; a futexWoken result does not by itself prove the word
// changed.
func futexWait(addr *uint32, val uint32, timeout time.Duration) futexResult {
	var ts *unix.Timespec
	if timeout > 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWaitPrivate),
		uintptr(val),
		uintptr(unsafe.Pointer(ts)),
		0, 0,
	)
	switch errno {
	case 0:
		return futexWoken
	case unix.ETIMEDOUT:
		return futexTimedOut
	default:
		// EAGAIN: the word no longer held val. EINTR: signal. Either
		// way the caller re-evaluates.
		return futexRetry
	}
}

// futexWake wakes up to count waiters blocked on addr.
func futexWake(addr *uint32, count uint32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWakePrivate),
		uintptr(count),
		0, 0, 0,
	)
}
