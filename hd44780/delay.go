// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import "time"

// Delayer blocks the caller for at least d. The controller uses it for the
// settle times the HD44780 needs between instructions. Implementations
// backed by a free running hardware counter must resolve microseconds.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a function to a Delayer.
type DelayFunc func(d time.Duration)

// Delay calls f(d).
func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}

// SleepDelayer is a Delayer that calls time.Sleep.
type SleepDelayer struct{}

// Delay sleeps for d.
func (SleepDelayer) Delay(d time.Duration) {
	time.Sleep(d)
}
