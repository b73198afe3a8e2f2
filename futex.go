// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rbq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// futexResult classifies the outcome of a futexWait call.
type futexResult int32

const (
	futexWoken    futexResult = iota // woken by futexWake
	futexTimedOut                    // timeout elapsed
	futexRetry                       // word mismatch or signal; re-check
)

// futexWakeAll wakes every waiter blocked on addr.
func futexWakeAll(addr *uint32) {
	futexWake(addr, 1<<31-1)
}

// word32 exposes the memory cell of a 32-bit atomic as the raw word
// the kernel wait operates on. atomix values are bare machine words;
// their alignment contract depends on it.
func word32(p *atomix.Int32) *uint32 {
	return (*uint32)(unsafe.Pointer(p))
}

// word64lo exposes the low 32 bits of a 64-bit atomic. Little-endian
// layout assumed; the supported targets (amd64, arm64) qualify.
func word64lo(p *atomix.Uint64) *uint32 {
	return (*uint32)(unsafe.Pointer(p))
}
