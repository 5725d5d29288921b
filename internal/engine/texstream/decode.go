// Package texstream decodes and downscales textures on background
// workers and hands finished pixels to the render thread, which
// rewrites live texture slots under a per-frame upload budget.
package texstream

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/lumen3d/lumen/internal/engine/registry"
)

// ErrDecode indicates an unreadable or unsupported image.
var ErrDecode = errors.New("texstream: decode failed")

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
	jpegMagic = []byte{0xFF, 0xD8}
)

// Decode sniffs the container format, decodes, and downscales so the
// longest edge fits maxSize. Returns RGBA8 pixels ready for upload.
func Decode(data []byte, maxSize int) (*registry.TextureData, error) {
	var (
		img image.Image
		err error
	)
	switch {
	case bytes.HasPrefix(data, pngMagic):
		img, err = png.Decode(bytes.NewReader(data))
	case bytes.HasPrefix(data, jpegMagic):
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		img, err = decodeTGA(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	rgba := toRGBA(img)
	if maxSize > 0 {
		rgba = downscale(rgba, maxSize)
	}

	b := rgba.Bounds()
	return &registry.TextureData{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: rgba.Pix,
	}, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}

// downscale fits the image inside maxSize x maxSize, preserving aspect
// ratio. Already-small images pass through untouched.
func downscale(img *image.RGBA, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}

	if w >= h {
		h = h * maxSize / w
		w = maxSize
	} else {
		w = w * maxSize / h
		h = maxSize
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}
