package artifact

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// Ext is the file extension of every stored artifact.
const Ext = "bmp"

// Color modes reported by ColorMode.
const (
	ModeRGB   = "RGB"
	ModeRGBA  = "RGBA"
	ModeGray  = "L"
	ModePal   = "P"
	ModeYCbCr = "YCbCr"
	ModeCMYK  = "CMYK"
	ModeOther = "other"
)

// DefaultMaxPixels bounds decoded images when no explicit limit is given.
const DefaultMaxPixels int64 = 89478485

// Decode reads the image header first and refuses images declaring more than
// maxPixels pixels before any pixel buffer is allocated. maxPixels <= 0 means
// DefaultMaxPixels.
func Decode(r io.Reader, maxPixels int64) (image.Image, error) {
	const op = "artifact.Decode"

	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("%s: %w: zero-area image", op, ErrDecode)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, fmt.Errorf("%s: %w: %dx%d exceeds %d pixels", op, ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("%s: %w: zero-area image", op, ErrDecode)
	}
	return img, nil
}

// DecodeDataURL decodes a base64 image, with or without a
// "data:image/...;base64," header as produced by canvas.toDataURL.
func DecodeDataURL(s string, maxPixels int64) (image.Image, error) {
	const op = "artifact.DecodeDataURL"

	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ",")
		if i < 0 {
			return nil, fmt.Errorf("%s: %w: malformed data url", op, ErrDecode)
		}
		payload = payload[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}
	return Decode(bytes.NewReader(raw), maxPixels)
}

func ColorMode(img image.Image) string {
	switch t := img.(type) {
	case *image.NRGBA:
		if t.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	case *image.RGBA:
		if t.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.Paletted:
		return ModePal
	case *image.YCbCr:
		return ModeYCbCr
	case *image.CMYK:
		return ModeCMYK
	}
	return ModeOther
}

// NormalizeRGB returns img unchanged when it already is opaque RGB. Otherwise
// it returns an opaque copy with the alpha channel discarded, not composited.
func NormalizeRGB(img image.Image) image.Image {
	if ColorMode(img) == ModeRGB {
		return img
	}

	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func EncodeBMP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RGBPixels flattens img row by row into [r, g, b] triples.
func RGBPixels(img image.Image) [][3]uint8 {
	src := imaging.Clone(img)
	b := src.Bounds()
	out := make([][3]uint8, 0, b.Dx()*b.Dy())
	for i := 0; i < len(src.Pix); i += 4 {
		out = append(out, [3]uint8{src.Pix[i], src.Pix[i+1], src.Pix[i+2]})
	}
	return out
}
