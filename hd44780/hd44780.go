// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls a Hitachi HD44780 character LCD wired in 4-bit
// mode behind an I²C port expander, as found on the common LCD1602/LCD2004
// backpacks.
//
// Every byte sent to the display becomes one I²C write of four port values
// (see Packet). The controller keeps no copy of the display contents; the
// only state it tracks is what it needs to rebuild the display control and
// entry mode instructions.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const packageName = "hd44780"

// Instructions.
const (
	cmdClear        byte = 0x01
	cmdHome         byte = 0x02
	cmdEntryMode    byte = 0x04
	cmdDisplay      byte = 0x08
	cmdShift        byte = 0x10
	cmdFunctionSet  byte = 0x20
	cmdWake         byte = 0x30
	cmdSetDDRAMRow0 byte = 0x80
	cmdSetDDRAMRow1 byte = 0xc0
)

const (
	entryIncrement byte = 0x02
	entryShift     byte = 0x01

	displayOn     byte = 0x04
	displayCursor byte = 0x02
	displayBlink  byte = 0x01

	shiftRight byte = 0x04

	functionTwoLines byte = 0x08
)

// clearCells is the number of blanks Clear writes after the clear
// instruction.
const clearCells = 70

const (
	powerOnDelay time.Duration = 50 * time.Millisecond
	clearDelay   time.Duration = 2 * time.Millisecond
)

type step struct {
	cmd   byte
	delay time.Duration
}

// The power-on reset procedure for 4-bit operation. The function set step
// is patched for single line displays.
var initSequence = [...]step{
	{cmdWake, 5 * time.Millisecond},
	{cmdWake, 150 * time.Microsecond},
	{cmdWake, 10 * time.Millisecond},
	{cmdFunctionSet, 10 * time.Millisecond},
	{cmdFunctionSet | functionTwoLines, time.Millisecond},
	{cmdDisplay, time.Millisecond},
	{cmdClear, clearDelay},
	{cmdEntryMode | entryIncrement, time.Millisecond},
	{cmdDisplay | displayOn, time.Millisecond},
}

const functionSetStep = 4

// Opts holds the display geometry and timing source.
type Opts struct {
	// Rows is 1 or 2.
	Rows int
	// Cols is the visible width, at most 40.
	Cols int
	// Delayer provides the settle delays. nil means SleepDelayer.
	Delayer Delayer
}

// DefaultOpts is a 2x16 display timed with time.Sleep.
var DefaultOpts = Opts{Rows: 2, Cols: 16}

// Dev is an HD44780 display behind a 4-bit port expander.
//
// Implements periph.io/x/conn/v3/display.TextDisplay and
// display.DisplayBacklight.
type Dev struct {
	c     conn.Conn
	delay Delayer
	rows  int
	cols  int

	backlight bool
	on        bool
	cursor    bool
	blink     bool
	entry     byte
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New returns a Dev writing through c. Each packet is sent as a single
// c.Tx() call. The display is not initialized; call Init before anything
// else.
func New(c conn.Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Rows < 1 || opts.Rows > 2 {
		return nil, fmt.Errorf("hd44780: unsupported row count %d", opts.Rows)
	}
	if opts.Cols < 1 || opts.Cols > 40 {
		return nil, fmt.Errorf("hd44780: unsupported column count %d", opts.Cols)
	}
	d := opts.Delayer
	if d == nil {
		d = SleepDelayer{}
	}
	return &Dev{
		c:         c,
		delay:     d,
		rows:      opts.Rows,
		cols:      opts.Cols,
		backlight: true,
		entry:     cmdEntryMode | entryIncrement,
	}, nil
}

// Init runs the power-on reset procedure: the three wake-up instructions,
// the switch to 4-bit mode, function set, display off, clear, entry mode
// and display on. Each step is followed by the delay the display needs
// before it accepts the next one.
func (dev *Dev) Init() error {
	dev.delay.Delay(powerOnDelay)
	for ix, s := range initSequence {
		cmd := s.cmd
		if ix == functionSetStep && dev.rows == 1 {
			cmd &^= functionTwoLines
		}
		if err := dev.SendCommand(cmd); err != nil {
			return err
		}
		dev.delay.Delay(s.delay)
	}
	dev.on = true
	dev.cursor = false
	dev.blink = false
	dev.entry = cmdEntryMode | entryIncrement
	return nil
}

// SendCommand sends b as an instruction.
func (dev *Dev) SendCommand(b byte) error {
	return dev.send(b, Command)
}

// SendData sends b as character data.
func (dev *Dev) SendData(b byte) error {
	return dev.send(b, Data)
}

func (dev *Dev) send(b byte, mode Mode) error {
	p := Encode(b, mode)
	if !dev.backlight {
		p = p.withoutBacklight()
	}
	return wrap(dev.c.Tx(p[:], nil))
}

// Clear sends the clear display instruction, waits for it to complete and
// then overwrites 70 cells with blanks. The cursor is left after the last
// blank.
func (dev *Dev) Clear() error {
	if err := dev.SendCommand(cmdClear); err != nil {
		return err
	}
	dev.delay.Delay(clearDelay)
	for range clearCells {
		if err := dev.SendData(' '); err != nil {
			return err
		}
	}
	return nil
}

// SetCursor moves the cursor to col on row and returns the DDRAM address
// instruction that was sent. Only rows 0 and 1 exist; for any other row
// col is sent unmodified.
func (dev *Dev) SetCursor(row, col byte) (byte, error) {
	addr := col
	switch row {
	case 0:
		addr |= cmdSetDDRAMRow0
	case 1:
		addr |= cmdSetDDRAMRow1
	}
	return addr, dev.SendCommand(addr)
}

// Write sends every byte of p as character data. Nothing wraps: bytes past
// the visible width land in DDRAM that isn't shown.
func (dev *Dev) Write(p []byte) (n int, err error) {
	for _, b := range p {
		if err = dev.SendData(b); err != nil {
			return
		}
		n++
	}
	return
}

// WriteString writes text to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

// AutoScroll makes the display shift left on every character written.
func (dev *Dev) AutoScroll(enabled bool) error {
	dev.entry = cmdEntryMode | entryIncrement
	if enabled {
		dev.entry |= entryShift
	}
	return dev.SendCommand(dev.entry)
}

// Cols returns the number of columns the display supports.
func (dev *Dev) Cols() int {
	return dev.cols
}

// Rows returns the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

// MinCol returns the min column position.
func (dev *Dev) MinCol() int {
	return 0
}

// MinRow returns the min row position.
func (dev *Dev) MinRow() int {
	return 0
}

// Cursor sets the cursor mode. You can pass multiple arguments.
// Cursor(CursorUnderline, CursorBlink)
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	cursor, blink := false, false
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor, blink = false, false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlink, display.CursorBlock:
			blink = true
		default:
			return wrap(display.ErrInvalidCommand)
		}
	}
	dev.cursor = cursor
	dev.blink = blink
	return dev.SendCommand(dev.displayControl())
}

// Display turns the display on or off. Contents are retained while off.
func (dev *Dev) Display(on bool) error {
	dev.on = on
	return dev.SendCommand(dev.displayControl())
}

func (dev *Dev) displayControl() byte {
	val := cmdDisplay
	if dev.on {
		val |= displayOn
	}
	if dev.cursor {
		val |= displayCursor
	}
	if dev.blink {
		val |= displayBlink
	}
	return val
}

// Home moves the cursor to (MinRow(), MinCol()) and undoes any shift.
func (dev *Dev) Home() error {
	err := dev.SendCommand(cmdHome)
	if err == nil {
		dev.delay.Delay(clearDelay)
	}
	return err
}

// Move moves the cursor one position forward or backward.
func (dev *Dev) Move(dir display.CursorDirection) error {
	val := cmdShift
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= shiftRight
	default:
		return wrap(display.ErrNotImplemented)
	}
	return dev.SendCommand(val)
}

// MoveTo moves the cursor to row, col. Both are zero based.
func (dev *Dev) MoveTo(row, col int) error {
	if row < dev.MinRow() || row >= dev.rows || col < dev.MinCol() || col >= dev.cols {
		return fmt.Errorf("hd44780: MoveTo(%d,%d) value out of range", row, col)
	}
	_, err := dev.SetCursor(byte(row), byte(col))
	return err
}

// Halt clears the display, turns the backlight off, and turns the display
// off.
func (dev *Dev) Halt() error {
	_ = dev.Clear()
	_ = dev.Backlight(0)
	return dev.Display(false)
}

func (dev *Dev) String() string {
	return fmt.Sprintf("HD44780::%s - Rows: %d, Cols: %d", dev.c.String(), dev.rows, dev.cols)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
