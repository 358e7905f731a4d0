package utils

import (
	"image"
	"os"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	// imaging registers bmp and tiff; webp needs its own decoder.
	_ "golang.org/x/image/webp"
)

// OutputSuffix is appended to the truncated input name of every converted file.
const OutputSuffix = "_no_background.png"

// OutputName derives the output file name from an input file name by dropping
// its last four characters and appending OutputSuffix. The drop assumes a
// dot plus three-letter extension, so "photo.png" maps to
// "photo_no_background.png" and "a.jpeg" to "a._no_background.png".
// Bytes that are not valid UTF-8 count as one character each and are kept
// as they are.
func OutputName(name string) string {
	end := len(name)
	for range 4 {
		if end == 0 {
			break
		}
		_, size := utf8.DecodeLastRuneInString(name[:end])
		end -= size
	}
	return name[:end] + OutputSuffix
}

// ReadImage decodes the file at path and normalizes it to 8-bit
// non-premultiplied RGBA. Sources without alpha come back fully opaque.
func ReadImage(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return imaging.Clone(img), nil
}

// SaveImage encodes img as PNG at path, replacing any existing file.
func SaveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
