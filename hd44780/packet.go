// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

// Port bits of the PCF8574 backpack. D4-D7 are wired to P4-P7.
const (
	bitRS        byte = 1 << 0
	bitRW        byte = 1 << 1
	bitEnable    byte = 1 << 2
	bitBacklight byte = 1 << 3
)

// Mode selects whether a byte is an instruction or character data. It is
// the value of the RS line.
type Mode byte

const (
	Command Mode = 0
	Data    Mode = Mode(bitRS)
)

func (m Mode) String() string {
	if m == Data {
		return "data"
	}
	return "command"
}

// Packet is the four port writes that transfer one byte to the display in
// 4-bit mode: the high nibble with enable raised then lowered, followed by
// the low nibble with enable raised then lowered. The falling edge of
// enable latches each nibble.
type Packet [4]byte

// Encode returns the Packet for b in the given mode, with the backlight bit
// asserted and R/W low.
func Encode(b byte, mode Mode) Packet {
	high := b & 0xf0
	low := (b << 4) & 0xf0
	ctl := bitBacklight | byte(mode)
	return Packet{
		high | ctl | bitEnable,
		high | ctl,
		low | ctl | bitEnable,
		low | ctl,
	}
}

// withoutBacklight returns p with the backlight bit cleared in every write.
func (p Packet) withoutBacklight() Packet {
	for ix := range p {
		p[ix] &^= bitBacklight
	}
	return p
}
