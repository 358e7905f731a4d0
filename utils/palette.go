package utils

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/setanarut/lumamask"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// Upper bound on pixels fed to kmeans.
const maxKMeansSamples = 12000

type weightedColor struct {
	col colorful.Color
	w   float64
}

// Brightness is the BT.709 luminance of c on the 0-255 scale, the same
// measure the background remover thresholds against.
func Brightness(c colorful.Color) float64 {
	r, g, b := c.Clamped().RGB255()
	return lumamask.PixelLuminance(r, g, b)
}

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		ya, yb := Brightness(a), Brightness(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

// ExtractPalette returns up to k representative colors of img using method.
// When method yields nothing the other method is tried; the method that
// produced the result is returned alongside it.
func ExtractPalette(img image.Image, k int, method PaletteMethod) ([]colorful.Color, PaletteMethod) {
	order := []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans}
	if method == PaletteMethodKMeans {
		order = []PaletteMethod{PaletteMethodKMeans, PaletteMethodDominantColor}
	}
	for _, m := range order {
		var p []colorful.Color
		if m == PaletteMethodKMeans {
			p = ExtractKMeansPalette(img, k)
		} else {
			p = ExtractDominantPalette(img, k)
		}
		if len(p) != 0 {
			return p, m
		}
	}
	return nil, method
}

// ExtractDominantPalette picks k colors from the dominantcolor candidates.
func ExtractDominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 || img.Bounds().Empty() {
		return nil
	}
	found := dominantcolor.FindWeight(img, max(24, k*8))
	cands := make([]weightedColor, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(color.NRGBA{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B, A: 255})
		cands = append(cands, weightedColor{col: col, w: c.Weight})
	}
	return pickDiverse(cands, k)
}

// ExtractKMeansPalette clusters a subsample of the visible pixels of img and
// picks k colors among the cluster centers.
func ExtractKMeansPalette(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if k <= 0 || n <= 0 {
		return nil
	}
	step := 1
	if n > maxKMeansSamples {
		step = int(math.Sqrt(float64(n)/maxKMeansSamples)) + 1
	}

	var obs clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			obs = append(obs, clusters.Coordinates{
				float64(c.R) / 255,
				float64(c.G) / 255,
				float64(c.B) / 255,
			})
		}
	}
	if len(obs) == 0 {
		return nil
	}

	parts, err := kmeans.New().Partition(obs, min(max(k*4, k+2), len(obs)))
	if err != nil {
		return nil
	}
	cands := make([]weightedColor, 0, len(parts))
	for _, c := range parts {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}
		cands = append(cands, weightedColor{col: col, w: float64(len(c.Observations))})
	}
	return pickDiverse(cands, k)
}

// pickDiverse starts from the heaviest candidate and then repeatedly adds the
// candidate farthest (in Lab) from everything chosen so far, scaled by the
// square root of its relative weight.
func pickDiverse(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))

	heaviest := 0.0
	for i := range cands {
		cands[i].col = cands[i].col.Clamped()
		cands[i].w = max(cands[i].w, 1e-6)
		heaviest = max(heaviest, cands[i].w)
	}

	taken := make([]bool, len(cands))
	chosen := make([]colorful.Color, 0, k)
	first := 0
	for i := range cands {
		if cands[i].w > cands[first].w {
			first = i
		}
	}
	taken[first] = true
	chosen = append(chosen, cands[first].col)

	for len(chosen) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if taken[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, s := range chosen {
				nearest = min(nearest, c.col.DistanceLab(s))
			}
			score := nearest * (0.55 + 0.45*math.Sqrt(c.w/heaviest))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		taken[best] = true
		chosen = append(chosen, cands[best].col)
	}
	return chosen
}
