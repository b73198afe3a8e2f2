// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package rbq

// RaceEnabled is true when the race detector is active.
// Used by tests to skip stress scenarios whose cross-variable memory
// ordering the detector cannot track and reports as false positives.
const RaceEnabled = true
