// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"

	"periph.io/x/conn/v3"
	"tinygo.org/x/drivers"
)

// tinygoConn addresses one device on a TinyGo I2C bus.
type tinygoConn struct {
	bus  drivers.I2C
	addr uint16
}

func (c *tinygoConn) String() string {
	return fmt.Sprintf("tinygo-i2c(0x%02x)", c.addr)
}

func (c *tinygoConn) Tx(w, r []byte) error {
	return c.bus.Tx(c.addr, w, r)
}

func (c *tinygoConn) Duplex() conn.Duplex {
	return conn.Half
}

// NewTinyGo returns an initialized display on a PCF8574 backpack reached
// through a TinyGo bus such as machine.I2C0.
func NewTinyGo(bus drivers.I2C, address uint16, opts *Opts) (*Dev, error) {
	dev, err := New(&tinygoConn{bus: bus, addr: address}, opts)
	if err != nil {
		return nil, err
	}
	if err = dev.Init(); err != nil {
		return nil, err
	}
	return dev, nil
}

var _ conn.Conn = &tinygoConn{}
