// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build tinygo && stm32f4

package main

import (
	"device/stm32"
	"machine"

	"github.com/GermanBionicSystems/lcdbackpack/hd44780"
	"github.com/GermanBionicSystems/lcdbackpack/i2cm"
)

const label = "hello"

func main() {
	// The TinyGo runtime sets up the clock tree and the delay timer.
	// Configure muxes PB8/PB9 to I2C1 and programs standard mode timing;
	// from then on the polled master owns the peripheral.
	if err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 100 * machine.KHz,
		SCL:       machine.PB8,
		SDA:       machine.PB9,
	}); err != nil {
		panic(err)
	}
	// machine.I2C0 is backed by I2C1 on the F4 boards; both must name the
	// same peripheral.
	bus := i2cm.NewSTM32(stm32.I2C1)

	lcd, err := hd44780.NewPCF857xBackpack(bus, hd44780.DefaultAddress, &hd44780.DefaultOpts)
	if err != nil {
		panic(err)
	}
	_, _ = lcd.SetCursor(0, 0)
	_, _ = lcd.WriteString(label)

	select {}
}
