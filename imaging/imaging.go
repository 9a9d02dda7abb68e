package imaging

// imaging module converts uploaded images into classifier input tensors
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// classifier input geometry
const (
	Width    = 224
	Height   = 224
	Channels = 3
)

// DefaultMaxPixels is default limit of decoded image area, the same limit
// PIL uses for decompression bombs
const DefaultMaxPixels int64 = 1024 * 1024 * 1024 / 4 / 3

// MaxPixels limits width*height of images we decode, images whose header
// declares larger area are rejected before any pixel buffer is allocated
var MaxPixels = DefaultMaxPixels

// ErrDecode is returned when given bytes can not be decoded as an image
var ErrDecode = errors.New("unable to decode image")

// ErrShape is returned by Validate for tensors of unexpected shape
var ErrShape = errors.New("wrong tensor shape")

// Extensions lists file extensions accepted from web uploads
var Extensions = []string{".jpg", ".jpeg", ".png"}

// Tensor represents single batch of image data in NHWC layout
type Tensor struct {
	Shape [4]int64  // batch, height, width, channels
	Data  []float32 // channel values in [0,1], RGB order
}

// NewTensor creates zero valued tensor of classifier input shape
func NewTensor() *Tensor {
	return &Tensor{
		Shape: [4]int64{1, Height, Width, Channels},
		Data:  make([]float32, Width*Height*Channels),
	}
}

// Validate checks that tensor has classifier input shape
func (t *Tensor) Validate() error {
	if t == nil {
		return errors.Wrap(ErrShape, "nil tensor")
	}
	expect := [4]int64{1, Height, Width, Channels}
	if t.Shape != expect {
		return errors.Wrapf(ErrShape, "got %v, expect %v", t.Shape, expect)
	}
	if len(t.Data) != Width*Height*Channels {
		return errors.Wrapf(ErrShape, "got %d values, expect %d", len(t.Data), Width*Height*Channels)
	}
	return nil
}

// At returns value of given pixel channel
func (t *Tensor) At(y, x, c int) float32 {
	return t.Data[(y*Width+x)*Channels+c]
}

// Decode decodes raw image bytes and returns image and its format name.
// Image header is checked against MaxPixels first.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errors.Wrap(ErrDecode, "empty image data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(ErrDecode, err.Error())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", errors.Wrap(ErrDecode, fmt.Sprintf("invalid image dimensions: %dx%d", cfg.Width, cfg.Height))
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); MaxPixels > 0 && pixels > MaxPixels {
		msg := fmt.Sprintf("image %dx%d is too large, %d pixels exceeds limit of %d", cfg.Width, cfg.Height, pixels, MaxPixels)
		return nil, "", errors.Wrap(ErrDecode, msg)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(ErrDecode, err.Error())
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", errors.Wrap(ErrDecode, fmt.Sprintf("invalid image dimensions: %dx%d", b.Dx(), b.Dy()))
	}
	return img, format, nil
}

// Preprocess decodes raw image bytes and converts them into classifier tensor
func Preprocess(data []byte) (*Tensor, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage resizes given image to classifier geometry and converts it to
// tensor of shape (1, 224, 224, 3) with RGB values scaled to [0,1].
// Alpha channel is dropped.
func FromImage(img image.Image) *Tensor {
	resized := resize.Resize(Width, Height, img, resize.Bicubic)
	b := resized.Bounds()

	tensor := NewTensor()
	i := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := color.NRGBAModel.Convert(resized.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			tensor.Data[i] = float32(c.R) / 255.0
			tensor.Data[i+1] = float32(c.G) / 255.0
			tensor.Data[i+2] = float32(c.B) / 255.0
			i += Channels
		}
	}
	return tensor
}

// EncodePNG encodes given image into PNG bytes
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, errors.Wrap(err, "unable to encode PNG")
	}
	return buf.Bytes(), nil
}

// AllowedFile checks if given file name has one of accepted image extensions
func AllowedFile(fname string) bool {
	ext := strings.ToLower(filepath.Ext(fname))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
