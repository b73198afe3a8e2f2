// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq_test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/rbq"
	"github.com/valyala/fastrand"
)

// =============================================================================
// EventCount Laws
// =============================================================================

// TestEventCountPostAdvancesGeneration observes the generation through
// Mark tokens: a Post with a registered waiter bumps it by 2, a Post
// with no waiters is a no-op.
func TestEventCountPostAdvancesGeneration(t *testing.T) {
	ec := rbq.NewEventCount()

	m1 := ec.Mark()
	if m1 == 0 {
		t.Fatal("Mark: got 0 on open EventCount")
	}
	ec.Post() // one waiter registered: bumps
	m2 := ec.Mark()
	if m2 != m1+2 {
		t.Fatalf("Mark after Post: got %d, want %d", m2, m1+2)
	}

	ec.Reset(m2) // balance, no waiters left
	ec.Post()    // no waiters: no bump
	m3 := ec.Mark()
	if m3 != m2 {
		t.Fatalf("Mark after no-waiter Post: got %d, want %d", m3, m2)
	}
	ec.Reset(m3)
}

// TestEventCountResetStale verifies Reset against an outdated token is
// a no-op and does not disturb later marks.
func TestEventCountResetStale(t *testing.T) {
	ec := rbq.NewEventCount()

	m1 := ec.Mark()
	ec.Post() // generation moves, m1 goes stale
	ec.Reset(m1)
	ec.Reset(m1)

	m2 := ec.Mark()
	if m2 != m1+2 {
		t.Fatalf("Mark: got %d, want %d", m2, m1+2)
	}
	// Wait with the stale token returns immediately.
	done := make(chan struct{})
	go func() {
		ec.Wait(m1, 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait with stale mark blocked")
	}
	ec.Reset(m2)
}

// TestEventCountWaitTimeout checks a Wait with no Post returns once
// the timeout elapses.
func TestEventCountWaitTimeout(t *testing.T) {
	ec := rbq.NewEventCount()

	m := ec.Mark()
	start := time.Now()
	ec.Wait(m, 20*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Wait: took %v, want ~20ms", elapsed)
	}
	ec.Reset(m)
}

// TestEventCountClose verifies Close releases a blocked waiter and
// degrades Mark/Wait to no-ops.
func TestEventCountClose(t *testing.T) {
	ec := rbq.NewEventCount()

	released := make(chan struct{})
	m := ec.Mark()
	go func() {
		ec.Wait(m, 0)
		close(released)
	}()

	time.Sleep(10 * time.Millisecond)
	ec.Close()

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not release waiter")
	}

	if !ec.Closed() {
		t.Fatal("Closed: got false after Close")
	}
	if m := ec.Mark(); m != 0 {
		t.Fatalf("Mark on closed: got %d, want 0", m)
	}
	ec.Wait(0, 0) // returns immediately
}

// TestEventCountNoLostWakeup races a marked waiter against a poster
// many times with randomized scheduling jitter. A Post issued after
// Mark returned must never leave the Wait blocked: either the second
// check sees the bumped generation, or the futex wake reaches the
// parked waiter.
func TestEventCountNoLostWakeup(t *testing.T) {
	iterations := 200000
	if testing.Short() {
		iterations = 10000
	}

	ec := rbq.NewEventCount()
	var marked atomix.Int64
	var woken atomix.Int64

	var wg sync.WaitGroup
	wg.Add(2)

	// Waiter: mark, then wait on the token.
	go func() {
		defer wg.Done()
		rng := fastrand.RNG{}
		for i := range iterations {
			m := ec.Mark()
			marked.Store(int64(i + 1))
			for range rng.Uint32n(8) {
				runtime.Gosched()
			}
			ec.Wait(m, 0)
			woken.Store(int64(i + 1))
		}
	}()

	// Poster: post only after the mark for this round is visible.
	go func() {
		defer wg.Done()
		rng := fastrand.RNG{}
		for i := range iterations {
			for marked.Load() < int64(i+1) {
				runtime.Gosched()
			}
			for range rng.Uint32n(8) {
				runtime.Gosched()
			}
			ec.Post()
			// The waiter may consume this post at the re-check rather
			// than in Wait; either way it must come back around.
			for woken.Load() < int64(i+1) {
				ec.Post()
				runtime.Gosched()
			}
		}
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(120 * time.Second):
		t.Fatalf("lost wakeup: %d marked, %d woken", marked.Load(), woken.Load())
	}
}
