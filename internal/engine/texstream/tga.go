package texstream

import (
	"fmt"
	"image"
)

// TGA image types accepted by the decoder.
const (
	tgaTrueColor    = 2
	tgaTrueColorRLE = 10
)

// decodeTGA reads uncompressed and RLE true-color TGA files at 24 or
// 32 bits per pixel. TGA stores BGR(A) bottom-up by default.
func decodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("tga: header truncated")
	}

	idLen := int(data[0])
	if data[1] != 0 {
		return nil, fmt.Errorf("tga: color-mapped images not supported")
	}
	kind := data[2]
	if kind != tgaTrueColor && kind != tgaTrueColorRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", kind)
	}
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	depth := int(data[16])
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("tga: unsupported depth %d", depth)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tga: bad dimensions %dx%d", width, height)
	}
	topDown := data[17]&0x20 != 0

	if 18+idLen > len(data) {
		return nil, fmt.Errorf("tga: id field truncated")
	}
	px := data[18+idLen:]
	bpp := depth / 8
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	write := func(pixel int, b, g, r, a byte) {
		x := pixel % width
		y := pixel / width
		if !topDown {
			y = height - 1 - y
		}
		i := img.PixOffset(x, y)
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	read := func(at int) (byte, byte, byte, byte) {
		a := byte(255)
		if bpp == 4 {
			a = px[at+3]
		}
		return px[at], px[at+1], px[at+2], a
	}

	total := width * height
	if kind == tgaTrueColor {
		if len(px) < total*bpp {
			return nil, fmt.Errorf("tga: pixel data truncated")
		}
		for p := 0; p < total; p++ {
			b, g, r, a := read(p * bpp)
			write(p, b, g, r, a)
		}
		return img, nil
	}

	// RLE: the high bit selects a run packet, low bits carry count-1.
	pixel, at := 0, 0
	for pixel < total {
		if at >= len(px) {
			return nil, fmt.Errorf("tga: rle stream truncated")
		}
		header := px[at]
		at++
		count := int(header&0x7F) + 1

		if header&0x80 != 0 {
			if at+bpp > len(px) {
				return nil, fmt.Errorf("tga: rle run truncated")
			}
			b, g, r, a := read(at)
			at += bpp
			for i := 0; i < count && pixel < total; i++ {
				write(pixel, b, g, r, a)
				pixel++
			}
		} else {
			for i := 0; i < count && pixel < total; i++ {
				if at+bpp > len(px) {
					return nil, fmt.Errorf("tga: raw packet truncated")
				}
				b, g, r, a := read(at)
				at += bpp
				write(pixel, b, g, r, a)
				pixel++
			}
		}
	}
	return img, nil
}
