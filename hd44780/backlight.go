// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/display"
)

// Backlight turns the backlight on for any intensity other than 0. The
// port is updated immediately and every following packet carries the new
// backlight bit.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	dev.backlight = intensity > 0
	var port byte
	if dev.backlight {
		port = bitBacklight
	}
	return wrap(dev.c.Tx([]byte{port}, nil))
}

// BacklightOn reports whether packets are sent with the backlight bit set.
func (dev *Dev) BacklightOn() bool {
	return dev.backlight
}
