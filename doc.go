// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdbackpack drives HD44780 character displays through PCF8574 I²C
// backpacks.
//
// The hd44780 package encodes instructions and characters into expander
// writes, i2cm provides a polled register-level I²C master to carry them on
// a microcontroller, and lcdsim emulates the display for tests and local
// development. See cmd/lcdhello for a complete bring-up.
package lcdbackpack
