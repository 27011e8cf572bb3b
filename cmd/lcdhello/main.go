// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !tinygo

// lcdhello initializes an HD44780 display on a PCF8574 backpack and writes a
// label on its first row.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/GermanBionicSystems/lcdbackpack/hd44780"
	"github.com/GermanBionicSystems/lcdbackpack/lcdsim"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

type config struct {
	bus  string
	addr uint16
	text string
	rows int
	cols int
	sim  bool
	png  string
}

func mainImpl(log logrus.FieldLogger, cfg config) error {
	var bus i2c.Bus
	var sim *lcdsim.Dev
	if cfg.sim {
		sim = lcdsim.New(&lcdsim.Opts{Addr: cfg.addr, Rows: cfg.rows, Cols: cfg.cols})
		bus = sim
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		b, err := i2creg.Open(cfg.bus)
		if err != nil {
			return fmt.Errorf("failed to open I²C: %w", err)
		}
		defer b.Close()
		bus = b
	}
	log = log.WithFields(logrus.Fields{"bus": bus.String(), "addr": fmt.Sprintf("0x%02x", cfg.addr)})

	log.Debug("initializing display")
	lcd, err := hd44780.NewPCF857xBackpack(bus, cfg.addr, &hd44780.Opts{Rows: cfg.rows, Cols: cfg.cols})
	if err != nil {
		return err
	}
	if _, err = lcd.SetCursor(0, 0); err != nil {
		return err
	}
	if _, err = lcd.WriteString(cfg.text); err != nil {
		return err
	}
	log.WithField("text", cfg.text).Info("label written")

	if sim != nil {
		if err = sim.Render(nil); err != nil {
			return err
		}
		if cfg.png != "" {
			if err = sim.SavePNG(cfg.png); err != nil {
				return err
			}
			log.WithField("png", cfg.png).Info("snapshot saved")
		}
	}
	return nil
}

func main() {
	busName := flag.String("bus", "", "I²C bus to use")
	addr := flag.Uint("addr", uint(hd44780.DefaultAddress), "7-bit address of the backpack")
	text := flag.String("text", "hello", "label to write on the first row")
	rows := flag.Int("rows", hd44780.DefaultOpts.Rows, "display rows (1 or 2)")
	cols := flag.Int("cols", hd44780.DefaultOpts.Cols, "display columns")
	sim := flag.Bool("sim", false, "drive an emulated display and print it")
	png := flag.String("png", "", "with -sim, also save a PNG snapshot to this path")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(colorable.NewColorableStderr())
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   isatty.IsTerminal(os.Stderr.Fd()),
		DisableColors: !isatty.IsTerminal(os.Stderr.Fd()),
	})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if flag.NArg() != 0 {
		log.Fatalf("unexpected argument: %v", flag.Args())
	}
	if *addr > 0x7f {
		log.Fatalf("-addr must be a 7-bit address, got 0x%x", *addr)
	}

	cfg := config{
		bus:  *busName,
		addr: uint16(*addr),
		text: *text,
		rows: *rows,
		cols: *cols,
		sim:  *sim,
		png:  *png,
	}
	if err := mainImpl(log, cfg); err != nil {
		log.WithError(err).Fatal("lcdhello failed")
	}
}
