// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq_test

import (
	"errors"
	"testing"
	"unsafe"

	"code.hybscloud.com/rbq"
)

// =============================================================================
// Close Protocol
// =============================================================================

// TestCloseWithInFlight checks the drain contract: every element
// enqueued before Close is delivered with a nil error, and only then
// do consumers observe ErrClosed.
func TestCloseWithInFlight(t *testing.T) {
	for _, tc := range allModes {
		t.Run(tc.name, func(t *testing.T) {
			q := rbq.NewRing(4, tc.mode)

			for i := range 3 {
				if err := q.TryEnqueue(uintptr(500 + i)); err != nil {
					t.Fatalf("TryEnqueue(%d): %v", i, err)
				}
			}
			q.Close()

			if !q.Closed() {
				t.Fatal("Closed: got false after Close")
			}
			if err := q.TryEnqueue(999); !errors.Is(err, rbq.ErrClosed) {
				t.Fatalf("TryEnqueue after Close: got %v, want ErrClosed", err)
			}

			for i := range 3 {
				v, err := q.TryDequeue()
				if err != nil {
					t.Fatalf("TryDequeue(%d) while draining: %v", i, err)
				}
				if v != uintptr(500+i) {
					t.Fatalf("TryDequeue(%d): got %d, want %d", i, v, 500+i)
				}
			}

			if _, err := q.TryDequeue(); !errors.Is(err, rbq.ErrClosed) {
				t.Fatalf("TryDequeue after drain: got %v, want ErrClosed", err)
			}
		})
	}
}

// TestCloseIdempotent verifies double Close has the same observable
// effect as a single one, including on a full ring.
func TestCloseIdempotent(t *testing.T) {
	q := rbq.NewRing(2, rbq.MPMC)
	if err := q.TryEnqueue(1); err != nil {
		t.Fatalf("TryEnqueue: %v", err)
	}
	if err := q.TryEnqueue(2); err != nil {
		t.Fatalf("TryEnqueue: %v", err)
	}

	q.Close()
	q.Close()

	if err := q.TryEnqueue(3); !errors.Is(err, rbq.ErrClosed) {
		t.Fatalf("TryEnqueue: got %v, want ErrClosed", err)
	}
	for i := range 2 {
		v, err := q.TryDequeue()
		if err != nil {
			t.Fatalf("TryDequeue(%d): %v", i, err)
		}
		if v != uintptr(i+1) {
			t.Fatalf("TryDequeue(%d): got %d, want %d", i, v, i+1)
		}
	}
	if _, err := q.TryDequeue(); !errors.Is(err, rbq.ErrClosed) {
		t.Fatalf("TryDequeue: got %v, want ErrClosed", err)
	}
}

// TestCloseEmpty checks a consumer on a closed empty ring fails
// immediately, and that closing an empty ring still rejects producers
// structurally after the ring has wrapped.
func TestCloseEmpty(t *testing.T) {
	q := rbq.NewRing(4, rbq.MPMC)

	// Cycle the ring a few generations first.
	for i := range 10 {
		if err := q.TryEnqueue(uintptr(i)); err != nil {
			t.Fatalf("TryEnqueue: %v", err)
		}
		if _, err := q.TryDequeue(); err != nil {
			t.Fatalf("TryDequeue: %v", err)
		}
	}

	q.Close()
	if _, err := q.TryDequeue(); !errors.Is(err, rbq.ErrClosed) {
		t.Fatalf("TryDequeue: got %v, want ErrClosed", err)
	}
	if err := q.TryEnqueue(1); !errors.Is(err, rbq.ErrClosed) {
		t.Fatalf("TryEnqueue: got %v, want ErrClosed", err)
	}
}

// TestStatsEmptyCounter verifies the advisory empty counter moves.
func TestStatsEmptyCounter(t *testing.T) {
	q := rbq.NewRing(4, rbq.MPMC)
	if _, err := q.TryDequeue(); !errors.Is(err, rbq.ErrWouldBlock) {
		t.Fatalf("TryDequeue: got %v, want ErrWouldBlock", err)
	}
	if got := q.Stats().Snapshot().QueueEmpty; got != 1 {
		t.Fatalf("QueueEmpty: got %d, want 1", got)
	}
}

// =============================================================================
// RingPtr
// =============================================================================

// TestRingPtrRoundTrip moves pointers through the queue and checks
// identity is preserved.
func TestRingPtrRoundTrip(t *testing.T) {
	q := rbq.NewRingPtr(4, rbq.MPMC)

	vals := []*int{new(int), new(int), new(int)}
	for i, p := range vals {
		*p = i + 41
		if err := q.TryEnqueue(unsafe.Pointer(p)); err != nil {
			t.Fatalf("TryEnqueue(%d): %v", i, err)
		}
	}

	for i, want := range vals {
		got, err := q.TryDequeue()
		if err != nil {
			t.Fatalf("TryDequeue(%d): %v", i, err)
		}
		if (*int)(got) != want {
			t.Fatalf("TryDequeue(%d): got %p, want %p", i, got, want)
		}
		if *(*int)(got) != i+41 {
			t.Fatalf("TryDequeue(%d): got value %d, want %d", i, *(*int)(got), i+41)
		}
	}

	if _, err := q.TryDequeue(); !errors.Is(err, rbq.ErrWouldBlock) {
		t.Fatalf("TryDequeue on empty: got %v, want ErrWouldBlock", err)
	}

	q.Close()
	if !q.Closed() {
		t.Fatal("Closed: got false after Close")
	}
	if err := q.TryEnqueue(unsafe.Pointer(vals[0])); !errors.Is(err, rbq.ErrClosed) {
		t.Fatalf("TryEnqueue after Close: got %v, want ErrClosed", err)
	}
	if _, err := q.TryDequeue(); !errors.Is(err, rbq.ErrClosed) {
		t.Fatalf("TryDequeue after Close: got %v, want ErrClosed", err)
	}
}
