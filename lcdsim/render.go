// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"golang.org/x/image/font/gofont/gomono"
)

var (
	backlightOn  = color.NRGBA{0x7a, 0xb8, 0x2e, 0xff}
	backlightOff = color.NRGBA{0x1c, 0x2a, 0x12, 0xff}
	pixelOn      = color.NRGBA{0x10, 0x18, 0x08, 0xff}
)

// Image geometry in pixels.
const (
	cellW    = 16
	cellH    = 30
	margin   = 12
	fontSize = 24
)

// Render writes the visible rows to w, framed by blocks in the backlight
// color. If w is nil, the output goes to a colorable stdout.
func (d *Dev) Render(w io.Writer) error {
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return d.render(w, ansi256.Default)
}

func (d *Dev) render(w io.Writer, palette *ansi256.Palette) error {
	lines := d.Lines()
	bl := backlightOff
	if d.Backlight() {
		bl = backlightOn
	}
	on := d.On()

	var buf bytes.Buffer
	edge := palette.Block(bl)
	for _, line := range lines {
		if !on {
			line = strings.Repeat(" ", len(line))
		}
		_, _ = buf.WriteString("\033[0m")
		_, _ = buf.WriteString(edge)
		_, _ = buf.WriteString("\033[0m ")
		_, _ = buf.WriteString(line)
		_, _ = buf.WriteString(" ")
		_, _ = buf.WriteString(edge)
		_, _ = buf.WriteString("\033[0m\n")
	}
	_, err := buf.WriteTo(w)
	return err
}

// Image draws the display as it would look: the backlight color as the
// background and the visible characters in a monospace font.
func (d *Dev) Image() (image.Image, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: fontSize})
	defer face.Close()

	w := 2*margin + d.cols*cellW
	h := 2*margin + d.rows*cellH
	dc := gg.NewContext(w, h)
	if d.Backlight() {
		dc.SetColor(backlightOn)
	} else {
		dc.SetColor(backlightOff)
	}
	dc.Clear()
	if !d.On() {
		return dc.Image(), nil
	}
	dc.SetFontFace(face)
	dc.SetColor(pixelOn)
	for row, line := range d.Lines() {
		y := float64(margin + (row+1)*cellH - cellH/4)
		for col := range len(line) {
			x := float64(margin + col*cellW)
			dc.DrawString(line[col:col+1], x, y)
		}
	}
	return dc.Image(), nil
}

// SavePNG writes Image() to path.
func (d *Dev) SavePNG(path string) error {
	img, err := d.Image()
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
