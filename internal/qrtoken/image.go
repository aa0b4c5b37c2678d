package qrtoken

import (
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"
)

var (
	ErrImageDecode = errors.New("unreadable image")
	ErrNoQRCode    = errors.New("no QR code found in image")
)

const (
	MinImageSize = 64
	MaxImageSize = 2048
)

// EncodePNG renders content as a QR code PNG at the requested pixel
// size. Sizes outside the supported range are clamped.
func EncodePNG(content string, size int) ([]byte, error) {
	if size < MinImageSize {
		size = MinImageSize
	}
	if size > MaxImageSize {
		size = MaxImageSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

// DecodeImage reads an uploaded image and returns the decoded QR
// payload string.
func DecodeImage(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", ErrImageDecode
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", ErrImageDecode
	}

	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", ErrNoQRCode
	}

	return result.GetText(), nil
}
