package texture

import (
	"fmt"
	"image"
	"image/color"
)

// TGA image types handled by DecodeTGA.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

const tgaHeaderSize = 18

// tgaHeader is the fixed part of a TGA file.
type tgaHeader struct {
	idLength     int
	colorMapType byte
	imageType    byte
	width        int
	height       int
	bpp          int
	topToBottom  bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("%w: tga header truncated (%d bytes)", ErrDecode, len(data))
	}
	h := tgaHeader{
		idLength:     int(data[0]),
		colorMapType: data[1],
		imageType:    data[2],
		width:        int(data[12]) | int(data[13])<<8,
		height:       int(data[14]) | int(data[15])<<8,
		bpp:          int(data[16]),
		topToBottom:  data[17]&0x20 != 0,
	}

	if h.colorMapType != 0 {
		return h, fmt.Errorf("%w: color-mapped tga", ErrDecode)
	}
	switch h.imageType {
	case tgaTrueColor, tgaTrueColorRLE:
		if h.bpp != 24 && h.bpp != 32 {
			return h, fmt.Errorf("%w: tga true-color depth %d", ErrDecode, h.bpp)
		}
	case tgaGray, tgaGrayRLE:
		if h.bpp != 8 {
			return h, fmt.Errorf("%w: tga grayscale depth %d", ErrDecode, h.bpp)
		}
	default:
		return h, fmt.Errorf("%w: tga image type %d", ErrDecode, h.imageType)
	}
	if h.width == 0 || h.height == 0 {
		return h, fmt.Errorf("%w: tga has zero size %dx%d", ErrDecode, h.width, h.height)
	}
	return h, nil
}

// DecodeTGA decodes uncompressed and RLE TGA files in 8-bit grayscale,
// 24-bit BGR or 32-bit BGRA. The standard library and x/image have no TGA
// support, and TGA is common in model texture sets.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}

	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: tga id field truncated", ErrDecode)
	}

	d := &tgaDecoder{
		hdr:   h,
		img:   image.NewRGBA(image.Rect(0, 0, h.width, h.height)),
		data:  data[offset:],
		bytes: h.bpp / 8,
	}
	if h.imageType == tgaTrueColorRLE || h.imageType == tgaGrayRLE {
		err = d.decodeRLE()
	} else {
		err = d.decodeRaw()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	hdr   tgaHeader
	img   *image.RGBA
	data  []byte
	pos   int
	bytes int
	pixel int
}

// next reads one pixel from the stream.
func (d *tgaDecoder) next() (color.RGBA, error) {
	if d.pos+d.bytes > len(d.data) {
		return color.RGBA{}, fmt.Errorf("%w: tga pixel data truncated at pixel %d", ErrDecode, d.pixel)
	}
	p := d.data[d.pos : d.pos+d.bytes]
	d.pos += d.bytes

	if d.bytes == 1 {
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: 0xff}, nil
	}
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	if d.bytes == 4 {
		c.A = p[3]
	}
	return c, nil
}

// put stores c at the current pixel, honouring the origin bit, and advances.
func (d *tgaDecoder) put(c color.RGBA) {
	x := d.pixel % d.hdr.width
	y := d.pixel / d.hdr.width
	if !d.hdr.topToBottom {
		y = d.hdr.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
	d.pixel++
}

func (d *tgaDecoder) total() int {
	return d.hdr.width * d.hdr.height
}

func (d *tgaDecoder) decodeRaw() error {
	for d.pixel < d.total() {
		c, err := d.next()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) decodeRLE() error {
	for d.pixel < d.total() {
		if d.pos >= len(d.data) {
			return fmt.Errorf("%w: tga rle stream ends at pixel %d", ErrDecode, d.pixel)
		}
		packet := d.data[d.pos]
		d.pos++
		count := int(packet&0x7f) + 1

		if packet&0x80 != 0 {
			c, err := d.next()
			if err != nil {
				return err
			}
			for i := 0; i < count && d.pixel < d.total(); i++ {
				d.put(c)
			}
			continue
		}

		for i := 0; i < count && d.pixel < d.total(); i++ {
			c, err := d.next()
			if err != nil {
				return err
			}
			d.put(c)
		}
	}
	return nil
}
