package lumamask

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/mat"
)

// Threshold is the luminance below which a pixel is kept as foreground.
// The comparison is strict: a pixel at exactly 128 is background.
const Threshold = 128.0

// BT.709 luma weights.
const (
	weightR = 0.2126
	weightG = 0.7152
	weightB = 0.0722
)

var (
	// Foreground is written for pixels darker than Threshold.
	Foreground = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	// Background is written for every other pixel.
	Background = color.NRGBA{R: 255, G: 255, B: 255, A: 0}
)

// PixelLuminance returns 0.2126*R + 0.7152*G + 0.0722*B for 8-bit channel values.
func PixelLuminance(r, g, b uint8) float64 {
	// Explicit conversions round each product so the compiler cannot fuse
	// them into FMA instructions; results are identical on every GOARCH.
	lr := float64(weightR * float64(r))
	lg := float64(weightG * float64(g))
	lb := float64(weightB * float64(b))
	return lr + lg + lb
}

// Luminance builds an H x W luminance map of img. Alpha is ignored.
// It returns nil when img has no pixels.
func Luminance(img *image.NRGBA) *mat.Dense {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	data := make([]float64, w*h)
	for y := range h {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := range w {
			p := row[x*4 : x*4+4 : x*4+4]
			data[labelOffset(w, x, y)] = PixelLuminance(p[0], p[1], p[2])
		}
	}
	return mat.NewDense(h, w, data)
}

// Mask is a row-major grid of foreground decisions, one per pixel.
type Mask struct {
	W, H int
	Bits []bool // len = W*H
}

// NewMask thresholds a luminance map. A nil map yields an empty mask.
func NewMask(lum *mat.Dense) Mask {
	if lum == nil {
		return Mask{}
	}
	h, w := lum.Dims()
	m := Mask{W: w, H: h, Bits: make([]bool, w*h)}
	for y := range h {
		for x := range w {
			m.Bits[labelOffset(w, x, y)] = lum.At(y, x) < Threshold
		}
	}
	return m
}

// Segment computes the foreground mask of img.
func Segment(img *image.NRGBA) Mask {
	lum := Luminance(img)
	if lum == nil {
		b := img.Bounds()
		return Mask{W: max(b.Dx(), 0), H: max(b.Dy(), 0)}
	}
	return NewMask(lum)
}

// At reports whether (x, y) is foreground.
func (m Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Bits[labelOffset(m.W, x, y)]
}

// Coverage returns the fraction of foreground pixels, 0 for an empty mask.
func (m Mask) Coverage() float64 {
	if len(m.Bits) == 0 {
		return 0
	}
	n := 0
	for _, fg := range m.Bits {
		if fg {
			n++
		}
	}
	return float64(n) / float64(len(m.Bits))
}

// Apply renders the mask as a new image anchored at the origin:
// Foreground where the mask is set, Background elsewhere.
func (m Mask) Apply() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.W, m.H))
	for y := range m.H {
		for x := range m.W {
			c := Background
			if m.At(x, y) {
				c = Foreground
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// RemoveBackground returns a black-on-transparent copy of img. Dark pixels
// become opaque black, everything else fully transparent white. The input
// alpha channel plays no part and img is left untouched.
func RemoveBackground(img *image.NRGBA) *image.NRGBA {
	return Segment(img).Apply()
}

func labelOffset(w, x, y int) int {
	return y*w + x
}
