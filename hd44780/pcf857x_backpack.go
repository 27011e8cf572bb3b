// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the 7-bit address of a PCF8574 backpack with all
// address jumpers open. The backpack is often documented by its 8-bit write
// address, 0x4E.
const DefaultAddress uint16 = 0x4e >> 1

// NewPCF857xBackpack returns an initialized display on a PCF8574 backpack.
//
// # Product Information
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
//
// The backpack wires P4-P7 to D4-D7, P0 to RS, P1 to R/W, P2 to E and P3 to
// the backlight transistor. R/W is always driven low.
func NewPCF857xBackpack(bus i2c.Bus, address uint16, opts *Opts) (*Dev, error) {
	dev, err := New(&i2c.Dev{Bus: bus, Addr: address}, opts)
	if err != nil {
		return nil, err
	}
	if err = dev.Init(); err != nil {
		return nil, err
	}
	return dev, nil
}
