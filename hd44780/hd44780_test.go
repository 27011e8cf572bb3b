// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"errors"
	"testing"
	"time"

	"github.com/GermanBionicSystems/lcdbackpack/i2cm"
	"github.com/GermanBionicSystems/lcdbackpack/i2cm/i2cmtest"
	"github.com/google/go-cmp/cmp"
	periphDisplay "periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const (
	testRows = 2
	testCols = 16
)

var liveDevice = false

var recordingData = map[string][]i2ctest.IO{
	"TestHello": {
		{Addr: 0x27, W: []byte{0x3c, 0x38, 0x0c, 0x08}}, // wake
		{Addr: 0x27, W: []byte{0x3c, 0x38, 0x0c, 0x08}}, // wake
		{Addr: 0x27, W: []byte{0x3c, 0x38, 0x0c, 0x08}}, // wake
		{Addr: 0x27, W: []byte{0x2c, 0x28, 0x0c, 0x08}}, // 4-bit
		{Addr: 0x27, W: []byte{0x2c, 0x28, 0x8c, 0x88}}, // function set
		{Addr: 0x27, W: []byte{0x0c, 0x08, 0x8c, 0x88}}, // display off
		{Addr: 0x27, W: []byte{0x0c, 0x08, 0x1c, 0x18}}, // clear
		{Addr: 0x27, W: []byte{0x0c, 0x08, 0x6c, 0x68}}, // entry mode
		{Addr: 0x27, W: []byte{0x0c, 0x08, 0xcc, 0xc8}}, // display on
		{Addr: 0x27, W: []byte{0x8c, 0x88, 0x0c, 0x08}}, // row 0, col 0
		{Addr: 0x27, W: []byte{0x6d, 0x69, 0x8d, 0x89}}, // h
		{Addr: 0x27, W: []byte{0x6d, 0x69, 0x5d, 0x59}}, // e
		{Addr: 0x27, W: []byte{0x6d, 0x69, 0xcd, 0xc9}}, // l
		{Addr: 0x27, W: []byte{0x6d, 0x69, 0xcd, 0xc9}}, // l
		{Addr: 0x27, W: []byte{0x6d, 0x69, 0xfd, 0xf9}}, // o
	},
}

type delayLog []time.Duration

func (l *delayLog) opts() *Opts {
	return &Opts{
		Rows:    testRows,
		Cols:    testCols,
		Delayer: DelayFunc(func(d time.Duration) { *l = append(*l, d) }),
	}
}

// newRecorded returns an uninitialized display that records every
// transaction.
func newRecorded(t *testing.T) (*Dev, *i2ctest.Record, *delayLog) {
	rec := &i2ctest.Record{}
	delays := &delayLog{}
	dev, err := New(&i2c.Dev{Bus: rec, Addr: DefaultAddress}, delays.opts())
	if err != nil {
		t.Fatal(err)
	}
	return dev, rec, delays
}

// unpack reverses Encode, failing the test if w isn't a well formed packet.
func unpack(t *testing.T, w []byte) (byte, Mode) {
	t.Helper()
	if len(w) != 4 {
		t.Fatalf("expected a 4 byte packet, found %d bytes", len(w))
	}
	ctl := w[0] & 0x0f
	if w[2]&0x0f != ctl || w[1]&0x0f != ctl&^bitEnable || w[3]&0x0f != ctl&^bitEnable {
		t.Fatalf("inconsistent control bits in packet %#v", w)
	}
	if w[0]&0xf0 != w[1]&0xf0 || w[2]&0xf0 != w[3]&0xf0 {
		t.Fatalf("nibble changed while enable was high in packet %#v", w)
	}
	return w[0]&0xf0 | w[2]>>4, Mode(ctl & bitRS)
}

func TestEncode(t *testing.T) {
	for c := range 256 {
		b := byte(c)
		for _, mode := range []Mode{Command, Data} {
			p := Encode(b, mode)
			if len(p) != 4 {
				t.Fatalf("Encode(0x%02x) returned %d bytes", b, len(p))
			}
			for ix, v := range p {
				enabled := v&bitEnable != 0
				if enabled != (ix%2 == 0) {
					t.Errorf("Encode(0x%02x, %s)[%d]=0x%02x: wrong enable bit", b, mode, ix, v)
				}
				if v&bitBacklight == 0 {
					t.Errorf("Encode(0x%02x, %s)[%d]=0x%02x: backlight bit clear", b, mode, ix, v)
				}
				if v&bitRW != 0 {
					t.Errorf("Encode(0x%02x, %s)[%d]=0x%02x: R/W bit set", b, mode, ix, v)
				}
				if Mode(v&bitRS) != mode {
					t.Errorf("Encode(0x%02x, %s)[%d]=0x%02x: wrong mode bit", b, mode, ix, v)
				}
			}
			if p[0]>>4 != b>>4 || p[1]>>4 != b>>4 {
				t.Errorf("Encode(0x%02x): high nibble not in bytes 0-1: %#v", b, p)
			}
			if p[2]>>4 != b&0x0f || p[3]>>4 != b&0x0f {
				t.Errorf("Encode(0x%02x): low nibble not in bytes 2-3: %#v", b, p)
			}
		}
	}
}

func TestCommandAndDataDiffer(t *testing.T) {
	dev, rec, _ := newRecorded(t)
	if err := dev.SendCommand('A'); err != nil {
		t.Fatal(err)
	}
	if err := dev.SendData('A'); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 2 {
		t.Fatalf("expected 2 transactions, found %d", len(rec.Ops))
	}
	for ix := range 4 {
		if rec.Ops[0].W[ix]&bitRS != 0 {
			t.Errorf("command byte %d has RS set", ix)
		}
		if rec.Ops[1].W[ix]&bitRS == 0 {
			t.Errorf("data byte %d has RS clear", ix)
		}
	}
	if cmp.Equal(rec.Ops[0].W, rec.Ops[1].W) {
		t.Error("command and data packets are identical")
	}
}

func TestSetCursor(t *testing.T) {
	tests := []struct {
		row, col byte
		want     byte
	}{
		{0, 0, 0x80},
		{0, 5, 0x85},
		{0, 15, 0x8f},
		{1, 0, 0xc0},
		{1, 7, 0xc7},
		{2, 3, 0x03},
	}
	for _, tc := range tests {
		dev, rec, _ := newRecorded(t)
		got, err := dev.SetCursor(tc.row, tc.col)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("SetCursor(%d, %d)=0x%02x, expected 0x%02x", tc.row, tc.col, got, tc.want)
		}
		if len(rec.Ops) != 1 {
			t.Fatalf("SetCursor(%d, %d) issued %d transactions", tc.row, tc.col, len(rec.Ops))
		}
		b, mode := unpack(t, rec.Ops[0].W)
		if b != tc.want || mode != Command {
			t.Errorf("SetCursor(%d, %d) sent %s 0x%02x", tc.row, tc.col, mode, b)
		}
	}
}

func TestClear(t *testing.T) {
	dev, rec, delays := newRecorded(t)
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 1+clearCells {
		t.Fatalf("expected %d transactions, found %d", 1+clearCells, len(rec.Ops))
	}
	if b, mode := unpack(t, rec.Ops[0].W); b != 0x01 || mode != Command {
		t.Errorf("first transaction is %s 0x%02x, expected the clear instruction", mode, b)
	}
	for ix, op := range rec.Ops[1:] {
		if b, mode := unpack(t, op.W); b != ' ' || mode != Data {
			t.Errorf("transaction %d is %s 0x%02x, expected a blank", ix+1, mode, b)
		}
	}
	if diff := cmp.Diff(delayLog{2 * time.Millisecond}, *delays); diff != "" {
		t.Errorf("unexpected delays (-want +got):\n%s", diff)
	}
}

func TestWriteString(t *testing.T) {
	dev, rec, _ := newRecorded(t)
	n, err := dev.WriteString("hello")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("WriteString() returned %d, expected 5", n)
	}
	if len(rec.Ops) != 5 {
		t.Fatalf("expected 5 transactions, found %d", len(rec.Ops))
	}
	total := 0
	for ix, op := range rec.Ops {
		total += len(op.W)
		if op.Addr != DefaultAddress {
			t.Errorf("transaction %d to 0x%x", ix, op.Addr)
		}
		if b, mode := unpack(t, op.W); b != "hello"[ix] || mode != Data {
			t.Errorf("transaction %d is %s %q", ix, mode, b)
		}
	}
	if total != 20 {
		t.Errorf("expected 20 payload bytes, found %d", total)
	}
}

func TestInit(t *testing.T) {
	for _, rows := range []int{1, 2} {
		rec := &i2ctest.Record{}
		delays := &delayLog{}
		opts := delays.opts()
		opts.Rows = rows
		dev, err := New(&i2c.Dev{Bus: rec, Addr: DefaultAddress}, opts)
		if err != nil {
			t.Fatal(err)
		}
		if err = dev.Init(); err != nil {
			t.Fatal(err)
		}
		functionSet := byte(0x28)
		if rows == 1 {
			functionSet = 0x20
		}
		wantCmds := []byte{0x30, 0x30, 0x30, 0x20, functionSet, 0x08, 0x01, 0x06, 0x0c}
		var gotCmds []byte
		for _, op := range rec.Ops {
			b, mode := unpack(t, op.W)
			if mode != Command {
				t.Errorf("Init() sent data 0x%02x", b)
			}
			gotCmds = append(gotCmds, b)
		}
		if diff := cmp.Diff(wantCmds, gotCmds); diff != "" {
			t.Errorf("rows=%d: unexpected instructions (-want +got):\n%s", rows, diff)
		}
		wantDelays := delayLog{
			50 * time.Millisecond,
			5 * time.Millisecond,
			150 * time.Microsecond,
			10 * time.Millisecond,
			10 * time.Millisecond,
			1 * time.Millisecond,
			1 * time.Millisecond,
			2 * time.Millisecond,
			1 * time.Millisecond,
			1 * time.Millisecond,
		}
		if diff := cmp.Diff(wantDelays, *delays); diff != "" {
			t.Errorf("rows=%d: unexpected delays (-want +got):\n%s", rows, diff)
		}
	}
}

// The delay after each instruction must come after that instruction and
// before the next one.
func TestInitInterleavesDelays(t *testing.T) {
	var events []string
	rec := &i2ctest.Record{}
	opts := &Opts{Rows: 2, Cols: 16, Delayer: DelayFunc(func(d time.Duration) {
		events = append(events, "delay "+d.String())
	})}
	dev, err := New(&logConn{Dev: &i2c.Dev{Bus: rec, Addr: DefaultAddress}, events: &events}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err = dev.Init(); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"delay 50ms",
		"tx", "delay 5ms",
		"tx", "delay 150µs",
		"tx", "delay 10ms",
		"tx", "delay 10ms",
		"tx", "delay 1ms",
		"tx", "delay 1ms",
		"tx", "delay 2ms",
		"tx", "delay 1ms",
		"tx", "delay 1ms",
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("unexpected ordering (-want +got):\n%s", diff)
	}
}

type logConn struct {
	*i2c.Dev
	events *[]string
}

func (c *logConn) Tx(w, r []byte) error {
	*c.events = append(*c.events, "tx")
	return c.Dev.Tx(w, r)
}

func TestHello(t *testing.T) {
	bus := &i2ctest.Playback{Ops: recordingData[t.Name()], DontPanic: true}
	delays := &delayLog{}
	dev, err := NewPCF857xBackpack(bus, DefaultAddress, delays.opts())
	if err != nil {
		t.Fatal(err)
	}
	if _, err = dev.SetCursor(0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err = dev.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

// The same packets must reach the wire when the display runs on the polled
// register master.
func TestOverMaster(t *testing.T) {
	p := &i2cmtest.Peripheral{}
	delays := &delayLog{}
	dev, err := NewPCF857xBackpack(i2cm.New(p), DefaultAddress, delays.opts())
	if err != nil {
		t.Fatal(err)
	}
	if _, err = dev.SetCursor(0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err = dev.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	if err = p.Err(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(recordingData["TestHello"], p.Ops()); diff != "" {
		t.Errorf("unexpected transactions (-want +got):\n%s", diff)
	}
	if p.Stops() != len(recordingData["TestHello"]) {
		t.Errorf("expected one STOP per packet, found %d", p.Stops())
	}
}

func TestBacklights(t *testing.T) {
	dev, rec, _ := newRecorded(t)
	if !dev.BacklightOn() {
		t.Error("backlight should default to on")
	}
	if err := dev.Backlight(0); err != nil {
		t.Fatal(err)
	}
	if err := dev.SendData('x'); err != nil {
		t.Fatal(err)
	}
	if err := dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	if err := dev.SendData('x'); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 4 {
		t.Fatalf("expected 4 transactions, found %d", len(rec.Ops))
	}
	if diff := cmp.Diff([]byte{0x00}, rec.Ops[0].W); diff != "" {
		t.Errorf("backlight off (-want +got):\n%s", diff)
	}
	for ix, v := range rec.Ops[1].W {
		if v&bitBacklight != 0 {
			t.Errorf("packet byte %d has the backlight bit set while off", ix)
		}
	}
	if diff := cmp.Diff([]byte{bitBacklight}, rec.Ops[2].W); diff != "" {
		t.Errorf("backlight on (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Encode('x', Data), Packet(rec.Ops[3].W)); diff != "" {
		t.Errorf("packet after backlight on (-want +got):\n%s", diff)
	}
}

func TestDisplayControl(t *testing.T) {
	dev, rec, _ := newRecorded(t)
	if err := dev.Display(true); err != nil {
		t.Fatal(err)
	}
	if err := dev.Cursor(periphDisplay.CursorUnderline, periphDisplay.CursorBlink); err != nil {
		t.Fatal(err)
	}
	if err := dev.Cursor(periphDisplay.CursorOff); err != nil {
		t.Fatal(err)
	}
	if err := dev.Display(false); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(periphDisplay.Forward); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(periphDisplay.Backward); err != nil {
		t.Fatal(err)
	}
	if err := dev.AutoScroll(true); err != nil {
		t.Fatal(err)
	}
	if err := dev.AutoScroll(false); err != nil {
		t.Fatal(err)
	}
	if err := dev.Home(); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x0c, 0x0f, 0x0c, 0x08, 0x14, 0x10, 0x07, 0x06, 0x02}
	var got []byte
	for _, op := range rec.Ops {
		b, mode := unpack(t, op.W)
		if mode != Command {
			t.Errorf("unexpected data 0x%02x", b)
		}
		got = append(got, b)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected instructions (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	dev, rec, _ := newRecorded(t)
	if err := dev.Move(periphDisplay.Up); !errors.Is(err, periphDisplay.ErrNotImplemented) {
		t.Errorf("Move(Up) expected ErrNotImplemented, received %v", err)
	}
	if err := dev.Cursor(periphDisplay.CursorMode(99)); !errors.Is(err, periphDisplay.ErrInvalidCommand) {
		t.Errorf("Cursor(99) expected ErrInvalidCommand, received %v", err)
	}
	for _, pos := range [][2]int{{-1, 0}, {testRows, 0}, {0, -1}, {0, testCols}} {
		if err := dev.MoveTo(pos[0], pos[1]); err == nil {
			t.Errorf("MoveTo(%d,%d) expected error", pos[0], pos[1])
		}
	}
	if len(rec.Ops) != 0 {
		t.Errorf("rejected calls issued %d transactions", len(rec.Ops))
	}
	if err := dev.MoveTo(1, 3); err != nil {
		t.Error(err)
	}
	if b, _ := unpack(t, rec.Ops[0].W); b != 0xc3 {
		t.Errorf("MoveTo(1,3) sent 0x%02x", b)
	}

	for _, opts := range []Opts{{Rows: 0, Cols: 16}, {Rows: 4, Cols: 20}, {Rows: 2, Cols: 0}, {Rows: 2, Cols: 41}} {
		if _, err := New(&i2c.Dev{Bus: rec, Addr: DefaultAddress}, &opts); err == nil {
			t.Errorf("New(%+v) expected error", opts)
		}
	}

	failing := &i2ctest.Playback{DontPanic: true}
	dev, err := New(&i2c.Dev{Bus: failing, Addr: DefaultAddress}, &Opts{Rows: 2, Cols: 16, Delayer: DelayFunc(func(time.Duration) {})})
	if err != nil {
		t.Fatal(err)
	}
	if err = dev.Init(); err == nil {
		t.Error("Init() expected error from the bus")
	}
	if n, err := dev.WriteString("abc"); err == nil || n != 0 {
		t.Errorf("WriteString() expected error and n=0, received n=%d err=%v", n, err)
	}
}

func TestBasic(t *testing.T) {
	dev, _, _ := newRecorded(t)
	s := dev.String()
	t.Log(s)
	if len(s) == 0 {
		t.Error("display.String()")
	}
	if dev.Rows() != testRows {
		t.Errorf("display.Rows() expected %d, received %d", testRows, dev.Rows())
	}
	if dev.Cols() != testCols {
		t.Errorf("display.Cols() expected %d, received %d", testCols, dev.Cols())
	}
	if dev.MinRow() != 0 || dev.MinCol() != 0 {
		t.Error("expected zero based rows and columns")
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	if dev.BacklightOn() {
		t.Error("Halt() left the backlight on")
	}
}

func TestInterface(t *testing.T) {
	rec := &i2ctest.Record{}
	delays := &delayLog{}
	display, err := NewPCF857xBackpack(rec, DefaultAddress, delays.opts())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = display.Halt() }()
	errs := displaytest.TestTextDisplay(display, liveDevice)
	for _, err := range errs {
		if !errors.Is(err, periphDisplay.ErrNotImplemented) {
			t.Error(err)
		}
	}
	if liveDevice {
		time.Sleep(5 * time.Second)
	}
}

func TestTinyGo(t *testing.T) {
	// drivers.I2C only needs Tx, which any periph bus provides.
	bus := &i2ctest.Record{}
	delays := &delayLog{}
	dev, err := NewTinyGo(bus, DefaultAddress, delays.opts())
	if err != nil {
		t.Fatal(err)
	}
	if _, err = dev.SetCursor(0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err = dev.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(recordingData["TestHello"], bus.Ops); diff != "" {
		t.Errorf("unexpected transactions (-want +got):\n%s", diff)
	}
}
