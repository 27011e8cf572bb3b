// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cm is a polled I²C master driver for register-level peripherals
// in the style of the STM32F4 I2C block.
//
// Every phase of a transaction (START, address, data, STOP) is sequenced by
// setting control bits and spinning on status bits. There are no interrupts,
// no DMA and no timeouts: if the peripheral never reports the expected
// status, the call never returns. This is the only failure mode of the
// driver and it is intentionally not converted into an error.
//
// Master implements periph.io/x/conn/v3/i2c.Bus for write transactions, so
// regular periph device drivers can run on top of it.
//
// # Reference
//
// https://www.st.com/resource/en/reference_manual/rm0390-stm32f446xx-advanced-armbased-32bit-mcus-stmicroelectronics.pdf
package i2cm

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Control is a set of bits in the CR1 control register.
type Control uint16

// Status is a set of bits in the SR1 status register.
type Status uint16

const (
	// ControlStart (START) requests a START condition.
	ControlStart Control = 1 << 8
	// ControlStop (STOP) requests a STOP condition after the current byte.
	ControlStop Control = 1 << 9
	// ControlAck (ACK) enables acknowledgement of received bytes.
	ControlAck Control = 1 << 10

	// StatusStart (SB) is set once the START condition has been generated.
	StatusStart Status = 1 << 0
	// StatusAddr (ADDR) is set when the target acknowledged its address.
	StatusAddr Status = 1 << 1
	// StatusBTF is set when the byte transfer finished.
	StatusBTF Status = 1 << 2
	// StatusTxE is set when the data register is empty.
	StatusTxE Status = 1 << 7
)

var (
	// ErrReadNotSupported is returned by Tx when a read is requested. The
	// master only sequences write transactions.
	ErrReadNotSupported = errors.New("i2cm: read transactions are not supported")
	// ErrSpeedFixed is returned by SetSpeed. The bus clock is programmed by
	// the board bring-up, not by the driver.
	ErrSpeedFixed = errors.New("i2cm: bus speed is fixed at bring-up")
)

// Registers is the register block of an I²C peripheral that was already
// clocked, pin-muxed and enabled by the board bring-up.
type Registers interface {
	// SetControl sets bits in CR1, leaving the others unchanged.
	SetControl(bits Control)
	// Status reads SR1.
	Status() Status
	// Status2 reads SR2. Its value is not used but the read has side
	// effects on the peripheral.
	Status2() uint16
	// WriteData writes DR.
	WriteData(b byte)
}

// Master sequences I²C transactions on a Registers block.
type Master struct {
	regs Registers

	mu sync.Mutex
}

// New returns a Master driving regs.
func New(regs Registers) *Master {
	return &Master{regs: regs}
}

// Start enables acknowledgement, requests a START condition and waits until
// the peripheral reports it generated.
func (m *Master) Start() {
	m.regs.SetControl(ControlAck)
	m.regs.SetControl(ControlStart)
	m.waitFor(StatusStart)
}

// SelectTarget sends the target address, already shifted into its
// transmission position, and waits for the address match. The match is
// cleared by reading SR1 followed by SR2.
//
// It must be called exactly once per transaction, right after Start.
func (m *Master) SelectTarget(addr byte) {
	m.regs.WriteData(addr)
	m.waitFor(StatusAddr)
	_ = m.regs.Status()
	_ = m.regs.Status2()
}

// WriteData sends one byte and waits until its transfer finished.
func (m *Master) WriteData(b byte) {
	m.waitFor(StatusTxE)
	m.regs.WriteData(b)
	m.waitFor(StatusBTF)
}

// WriteMulti sends p in order, p[0] first. Each byte is written once the
// data register is empty; the call returns after the last byte transfer
// finished.
func (m *Master) WriteMulti(p []byte) {
	m.waitFor(StatusTxE)
	for _, b := range p {
		m.waitFor(StatusTxE)
		m.regs.WriteData(b)
	}
	m.waitFor(StatusBTF)
}

// Stop requests a STOP condition and returns immediately.
//
// It does not wait for the bus to become idle. A Start issued right after
// may observe the tail of the previous transfer.
func (m *Master) Stop() {
	m.regs.SetControl(ControlStop)
}

// Tx implements i2c.Bus. It runs one write transaction to the 7-bit
// address addr: START, address, every byte of w, STOP.
//
// r must be empty.
func (m *Master) Tx(addr uint16, w, r []byte) error {
	if len(r) != 0 {
		return ErrReadNotSupported
	}
	if addr > 0x7f {
		return fmt.Errorf("i2cm: invalid 7-bit address 0x%x", addr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Start()
	m.SelectTarget(byte(addr << 1))
	for _, b := range w {
		m.WriteData(b)
	}
	m.Stop()
	return nil
}

// WriteRegister writes reg followed by buf to the 7-bit address addr in a
// single transaction.
func (m *Master) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("i2cm: invalid 7-bit address 0x%x", addr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Start()
	m.SelectTarget(addr << 1)
	m.WriteData(reg)
	if len(buf) > 0 {
		m.WriteMulti(buf)
	}
	m.Stop()
	return nil
}

// SetSpeed implements i2c.Bus. It always returns ErrSpeedFixed.
func (m *Master) SetSpeed(f physic.Frequency) error {
	return ErrSpeedFixed
}

func (m *Master) String() string {
	return "i2cm"
}

// waitFor spins until all bits of s are set in SR1.
func (m *Master) waitFor(s Status) {
	for m.regs.Status()&s != s {
	}
}

var _ i2c.Bus = &Master{}
var _ drivers.I2C = &Master{}
