// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build tinygo && stm32f4

package i2cm

import (
	"device/stm32"
)

// stm32Regs maps Registers onto a memory mapped STM32F4 I2C block.
type stm32Regs struct {
	i2c *stm32.I2C_Type
}

// NewSTM32 returns a Master on the I2C block at regs, e.g. stm32.I2C1. The
// peripheral clock, the SCL/SDA pin alternate functions, CCR/TRISE and
// CR1.PE must already be configured.
func NewSTM32(regs *stm32.I2C_Type) *Master {
	return New(&stm32Regs{i2c: regs})
}

func (r *stm32Regs) SetControl(bits Control) {
	r.i2c.CR1.SetBits(uint32(bits))
}

func (r *stm32Regs) Status() Status {
	return Status(r.i2c.SR1.Get())
}

func (r *stm32Regs) Status2() uint16 {
	return uint16(r.i2c.SR2.Get())
}

func (r *stm32Regs) WriteData(b byte) {
	r.i2c.DR.Set(uint32(b))
}
