// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cmtest is meant to be used to test drivers over a fake I²C
// register block.
package i2cmtest

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/lcdbackpack/i2cm"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

type phase int

const (
	idle phase = iota
	started
	addressing
	addressed
)

// Peripheral implements i2cm.Registers. Status bits are raised as soon as
// the hardware would raise them, unless the peripheral is stalled.
//
// Every write transaction from START to STOP is recorded in Ops with the
// 7-bit address.
type Peripheral struct {
	mu      sync.Mutex
	ops     []i2ctest.IO
	cur     i2ctest.IO
	phase   phase
	status  i2cm.Status
	sr1Read bool
	ack     bool
	stalled bool
	stops   int
	err     error
}

// Ops returns a copy of the completed transactions.
func (p *Peripheral) Ops() []i2ctest.IO {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]i2ctest.IO(nil), p.ops...)
}

// Ack reports whether acknowledgement was enabled.
func (p *Peripheral) Ack() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ack
}

// Stops returns the number of STOP conditions requested.
func (p *Peripheral) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// Err returns the first sequencing violation seen, if any.
func (p *Peripheral) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stall makes Status report no bits until Release is called.
func (p *Peripheral) Stall() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stalled = true
}

// Release undoes Stall.
func (p *Peripheral) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stalled = false
}

// SetControl implements i2cm.Registers.
func (p *Peripheral) SetControl(bits i2cm.Control) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bits&i2cm.ControlAck != 0 {
		p.ack = true
	}
	if bits&i2cm.ControlStart != 0 {
		if p.phase != idle {
			p.fail("START while a transaction is open")
		}
		p.phase = started
		p.cur = i2ctest.IO{}
		p.status = i2cm.StatusStart
	}
	if bits&i2cm.ControlStop != 0 {
		p.stops++
		if p.phase != addressed {
			p.fail("STOP before the address phase completed")
		} else {
			p.ops = append(p.ops, p.cur)
		}
		p.phase = idle
		p.status = 0
	}
}

// Status implements i2cm.Registers.
func (p *Peripheral) Status() i2cm.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stalled {
		return 0
	}
	if p.status&i2cm.StatusAddr != 0 {
		p.sr1Read = true
	}
	return p.status
}

// Status2 implements i2cm.Registers. Reading it right after SR1 clears the
// address match.
func (p *Peripheral) Status2() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == addressing && p.sr1Read {
		p.phase = addressed
		p.status = i2cm.StatusTxE
		p.sr1Read = false
	}
	return 0
}

// WriteData implements i2cm.Registers.
func (p *Peripheral) WriteData(b byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.phase {
	case started:
		p.cur.Addr = uint16(b >> 1)
		p.phase = addressing
		p.status = i2cm.StatusAddr
	case addressed:
		p.cur.W = append(p.cur.W, b)
		p.status = i2cm.StatusTxE | i2cm.StatusBTF
	default:
		p.fail(fmt.Sprintf("data 0x%02x written outside of the data phase", b))
	}
}

func (p *Peripheral) fail(msg string) {
	if p.err == nil {
		p.err = fmt.Errorf("i2cmtest: %s", msg)
	}
}

var _ i2cm.Registers = &Peripheral{}
