package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	_ "image/gif"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProcessedImage is an upload ready for object storage.
type ProcessedImage struct {
	Data        []byte
	ContentType string
	Resized     bool
	Dimensions  ImageDimensions
}

// DownscaleImage keeps images whose longest edge is within maxDimension
// untouched. Larger images are resized with Lanczos3 and re-encoded in their
// original format (gif is re-encoded as png).
func DownscaleImage(r io.Reader, maxDimension uint) (*ProcessedImage, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	width, height := uint(config.Width), uint(config.Height)
	if maxDimension == 0 || (width <= maxDimension && height <= maxDimension) {
		return &ProcessedImage{
			Data:        raw,
			ContentType: "image/" + format,
			Dimensions:  ImageDimensions{Width: config.Width, Height: config.Height},
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	// a zero dimension tells resize to keep the aspect ratio
	var resized image.Image
	if width >= height {
		resized = resize.Resize(maxDimension, 0, img, resize.Lanczos3)
	} else {
		resized = resize.Resize(0, maxDimension, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	contentType := "image/png"
	switch format {
	case "jpeg":
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	default:
		err = png.Encode(&buf, resized)
	}
	if err != nil {
		return nil, err
	}

	b := resized.Bounds()
	return &ProcessedImage{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Resized:     true,
		Dimensions:  ImageDimensions{Width: b.Dx(), Height: b.Dy()},
	}, nil
}
