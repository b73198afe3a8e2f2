// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package rbq

import (
	"sync"
	"sync/atomic"
	"time"
)

// Portable wait-on-word emulation for targets without a futex syscall:
// a table of per-address waiter lists, each waiter parked on its own
// channel. The table mutex orders the value re-check against wakes the
// same way the kernel orders FUTEX_WAIT against FUTEX_WAKE.

type futexWaiter struct {
	ch chan struct{}
}

var futexTab = struct {
	mu sync.Mutex
	m  map[*uint32][]*futexWaiter
}{m: make(map[*uint32][]*futexWaiter)}

func futexWait(addr *uint32, val uint32, timeout time.Duration) futexResult {
	futexTab.mu.Lock()
	if atomic.LoadUint32(addr) != val {
		futexTab.mu.Unlock()
		return futexRetry
	}
	w := &futexWaiter{ch: make(chan struct{})}
	futexTab.m[addr] = append(futexTab.m[addr], w)
	futexTab.mu.Unlock()

	if timeout <= 0 {
		<-w.ch
		return futexWoken
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-w.ch:
		return futexWoken
	case <-t.C:
		futexTab.mu.Lock()
		waiters := futexTab.m[addr]
		for i, other := range waiters {
			if other == w {
				futexTab.m[addr] = append(waiters[:i], waiters[i+1:]...)
				break
			}
		}
		futexTab.mu.Unlock()
		// A wake may have raced the timer; drain it so the slot is not
		// double-counted.
		select {
		case <-w.ch:
			return futexWoken
		default:
			return futexTimedOut
		}
	}
}

func futexWake(addr *uint32, count uint32) {
	futexTab.mu.Lock()
	waiters := futexTab.m[addr]
	n := int(count)
	if n > len(waiters) {
		n = len(waiters)
	}
	wake := waiters[:n]
	rest := waiters[n:]
	if len(rest) == 0 {
		delete(futexTab.m, addr)
	} else {
		futexTab.m[addr] = rest
	}
	futexTab.mu.Unlock()

	for _, w := range wake {
		close(w.ch)
	}
}
