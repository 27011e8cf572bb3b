// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates an HD44780 character LCD behind a PCF8574 I²C
// backpack.
//
// The simulator is an i2c.Bus. Every byte written to it is a new value of
// the expander port; a falling edge on the enable line latches the data
// lines into the emulated controller, which executes the instructions and
// keeps the DDRAM contents.
//
// Useful while you are waiting for your LCD to come by mail.
//
// # Framing
//
// A real HD44780 pairs nibbles forever once in 4-bit mode. The simulator
// pairs them within a single I²C transaction instead: a nibble left over
// at STOP is dropped. This matches drivers that send one byte per
// transaction and keeps the emulation aligned through the power-on
// procedure, where the 4-bit switch is sent as a full byte.
package lcdsim

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	portRS        byte = 1 << 0
	portRW        byte = 1 << 1
	portEnable    byte = 1 << 2
	portBacklight byte = 1 << 3
)

const (
	ddramSize    = 0x80
	row1Base     = 0x40
	lineLen2Rows = 40
	lineLen1Row  = 80
)

// ErrNoAck is returned when a transaction is addressed to another device.
var ErrNoAck = errors.New("lcdsim: address not acknowledged")

// Op is one instruction or character executed by the emulated controller.
type Op struct {
	Data  bool
	Value byte
}

func (o Op) String() string {
	if o.Data {
		return fmt.Sprintf("data(0x%02x)", o.Value)
	}
	return fmt.Sprintf("cmd(0x%02x)", o.Value)
}

// Opts configures the emulated display.
type Opts struct {
	// Addr is the 7-bit address of the backpack. 0 means 0x27.
	Addr uint16
	// Rows and Cols define the visible window.
	Rows int
	Cols int
}

// Dev is an emulated display.
type Dev struct {
	addr uint16
	rows int
	cols int

	mu      sync.Mutex
	port    byte
	fourBit bool
	pending bool
	high    byte
	ddram   [ddramSize]byte
	ac      byte
	shift   int
	ops     []Op

	twoLines  bool
	increment bool
	autoShift bool
	on        bool
	cursor    bool
	blink     bool
}

// New returns a powered up display: 8-bit interface, display off, DDRAM
// blank. A nil opts is a 2x16 display at 0x27.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	d := &Dev{addr: opts.Addr, rows: opts.Rows, cols: opts.Cols, increment: true}
	if d.addr == 0 {
		d.addr = 0x27
	}
	if d.rows <= 0 {
		d.rows = 2
	}
	if d.cols <= 0 {
		d.cols = 16
	}
	d.twoLines = d.rows > 1
	d.fill()
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcdsim(0x%02x)", d.addr)
}

// SetSpeed implements i2c.Bus.
func (d *Dev) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus. Each byte of w is written to the expander port.
// Reads are not emulated.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	if addr != d.addr {
		return ErrNoAck
	}
	if len(r) != 0 {
		return errors.New("lcdsim: reads are not supported")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range w {
		falling := d.port&portEnable != 0 && v&portEnable == 0
		d.port = v
		if falling && v&portRW == 0 {
			d.latch(v>>4, v&portRS != 0)
		}
	}
	d.pending = false
	return nil
}

// Lines returns the visible characters of every row.
func (d *Dev) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	lines := make([]string, d.rows)
	for row := range d.rows {
		var sb strings.Builder
		for col := range d.cols {
			sb.WriteByte(d.cell(row, col))
		}
		lines[row] = sb.String()
	}
	return lines
}

// Backlight reports whether the backlight line is asserted.
func (d *Dev) Backlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port&portBacklight != 0
}

// On reports whether the display is on.
func (d *Dev) On() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on
}

// Cursor reports whether the underline cursor and blinking are enabled.
func (d *Dev) Cursor() (underline, blink bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor, d.blink
}

// FourBit reports whether the interface was switched to 4-bit mode.
func (d *Dev) FourBit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fourBit
}

// Address returns the DDRAM address counter.
func (d *Dev) Address() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ac
}

// Ops returns every instruction and character executed so far.
func (d *Dev) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Op(nil), d.ops...)
}

// latch receives one nibble on D4-D7.
func (d *Dev) latch(nibble byte, rs bool) {
	if !d.fourBit {
		d.exec(nibble<<4, rs)
		return
	}
	if !d.pending {
		d.high = nibble << 4
		d.pending = true
		return
	}
	d.pending = false
	d.exec(d.high|nibble, rs)
}

func (d *Dev) exec(v byte, data bool) {
	d.ops = append(d.ops, Op{Data: data, Value: v})
	if data {
		d.ddram[d.ac] = v
		d.advance(d.increment)
		if d.autoShift {
			d.shiftDisplay(d.increment)
		}
		return
	}
	switch {
	case v&0x80 != 0:
		d.ac = d.fold(v & 0x7f)
	case v&0x40 != 0:
		// CGRAM address; custom glyphs aren't emulated.
	case v&0x20 != 0:
		d.fourBit = v&0x10 == 0
		d.twoLines = v&0x08 != 0
	case v&0x10 != 0:
		right := v&0x04 != 0
		if v&0x08 != 0 {
			d.shiftDisplay(!right)
		} else {
			d.advance(right)
		}
	case v&0x08 != 0:
		d.on = v&0x04 != 0
		d.cursor = v&0x02 != 0
		d.blink = v&0x01 != 0
	case v&0x04 != 0:
		d.increment = v&0x02 != 0
		d.autoShift = v&0x01 != 0
	case v&0x02 != 0:
		d.ac = 0
		d.shift = 0
	case v&0x01 != 0:
		d.fill()
		d.ac = 0
		d.shift = 0
		d.increment = true
	}
}

func (d *Dev) fill() {
	for ix := range d.ddram {
		d.ddram[ix] = ' '
	}
}

// advance moves the address counter by one, wrapping the way the
// controller does between the two lines.
func (d *Dev) advance(forward bool) {
	if !d.twoLines {
		if forward {
			d.ac = (d.ac + 1) % lineLen1Row
		} else {
			d.ac = (d.ac + lineLen1Row - 1) % lineLen1Row
		}
		return
	}
	d.ac = d.fold(d.ac)
	switch {
	case forward && d.ac == lineLen2Rows-1:
		d.ac = row1Base
	case forward && d.ac == row1Base+lineLen2Rows-1:
		d.ac = 0
	case forward:
		d.ac++
	case d.ac == 0:
		d.ac = row1Base + lineLen2Rows - 1
	case d.ac == row1Base:
		d.ac = lineLen2Rows - 1
	default:
		d.ac--
	}
}

// fold maps an address onto DDRAM that exists in the current line mode.
// In two-line mode the gaps 0x28-0x3f and 0x68-0x7f wrap into their row.
func (d *Dev) fold(a byte) byte {
	if !d.twoLines {
		return a % lineLen1Row
	}
	return a&row1Base + (a&^row1Base)%lineLen2Rows
}

// shiftDisplay moves the visible window. Shifting the display left moves
// the window right over DDRAM.
func (d *Dev) shiftDisplay(left bool) {
	if left {
		d.shift++
	} else {
		d.shift--
	}
}

func (d *Dev) lineLen() int {
	if d.twoLines {
		return lineLen2Rows
	}
	return lineLen1Row
}

func (d *Dev) cell(row, col int) byte {
	n := d.lineLen()
	base := 0
	if row == 1 {
		base = row1Base
	} else if row > 1 {
		// 4 line modules fold rows 2 and 3 onto the tail of rows 0 and 1.
		base = (row-2)*row1Base + d.cols
	}
	off := ((col+d.shift)%n + n) % n
	return d.ddram[(base+off)%ddramSize]
}

var _ i2c.Bus = &Dev{}
