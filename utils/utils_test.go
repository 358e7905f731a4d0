package utils

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo_no_background.png"},
		{"cat.jpg", "cat_no_background.png"},
		{"scan.jpeg", "scan._no_background.png"},
		{"plot.tiff", "plot._no_background.png"},
		{"a.gif", "a_no_background.png"},
		{"abcd", "_no_background.png"},
		{"ab", "_no_background.png"},
		{"", "_no_background.png"},
		{"çizim.png", "çizim_no_background.png"},
		{"resim.çiz", "resim_no_background.png"},
		{"\xff\xfeab.png", "\xff\xfeab_no_background.png"},
		{"ab.pn\xff", "ab_no_background.png"},
		{"\xff\xfe\xfd", "_no_background.png"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputName(tt.in))
		})
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestReadImageNormalizes(t *testing.T) {
	dir := t.TempDir()

	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})
	grayPath := filepath.Join(dir, "gray.png")
	writePNG(t, grayPath, gray)

	img, err := ReadImage(grayPath)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{200, 200, 200, 255}, img.NRGBAAt(1, 1))

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	nrgba.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 40})
	nrgbaPath := filepath.Join(dir, "nrgba.png")
	writePNG(t, nrgbaPath, nrgba)

	img, err = ReadImage(nrgbaPath)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{10, 20, 30, 40}, img.NRGBAAt(0, 0))
}

func TestReadImageJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solid.jpg")
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, src, nil))
	require.NoError(t, f.Close())

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 8), img.Bounds().Size())
	assert.Equal(t, uint8(255), img.NRGBAAt(4, 4).A)
}

func TestReadImageGIFTransparency(t *testing.T) {
	// The gif decoder zeroes the transparent palette entry, so transparent
	// pixels arrive as (0,0,0,0) whatever RGB the file stored.
	path := filepath.Join(t.TempDir(), "icon.gif")
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{
		color.RGBA{0, 0, 0, 0},
		color.RGBA{255, 255, 255, 255},
	})
	src.SetColorIndex(1, 0, 1)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.Encode(f, src, nil))
	require.NoError(t, f.Close())

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0, 0, 0}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, img.NRGBAAt(1, 0))
}

func TestReadImageErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadImage(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
	assert.Contains(t, err.Error(), "missing.png")

	notImage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("hello"), 0o644))
	_, err = ReadImage(notImage)
	require.Error(t, err)
	assert.Equal(t, image.ErrFormat, errors.Cause(err))

	_, err = ReadImage(dir)
	assert.Error(t, err)
}

func TestSaveImageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{255, 255, 255, 0})
	require.NoError(t, SaveImage(img, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	got, ok := decoded.(*image.NRGBA)
	require.True(t, ok, "decoded %T", decoded)
	assert.Equal(t, img.Pix, got.Pix)
}

func TestSaveImageMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.png")
	err := SaveImage(image.NewNRGBA(image.Rect(0, 0, 1, 1)), path)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestSortPaletteByBrightness(t *testing.T) {
	p := []colorful.Color{
		{R: 1, G: 1, B: 1},
		{R: 0, G: 0, B: 1},
		{R: 0, G: 1, B: 0},
		{R: 0, G: 0, B: 0},
		{R: 1, G: 0, B: 0},
	}
	SortPaletteByBrightness(p)
	hex := make([]string, len(p))
	for i, c := range p {
		hex[i] = c.Hex()
	}
	assert.Equal(t, []string{"#000000", "#0000ff", "#ff0000", "#00ff00", "#ffffff"}, hex)
}

func twoTone() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := range 20 {
		for x := range 20 {
			c := color.NRGBA{220, 30, 30, 255}
			if x >= 10 {
				c = color.NRGBA{20, 40, 200, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestExtractKMeansPalette(t *testing.T) {
	// Every center lies on the segment between the two source colors, so
	// brightness stays inside their range.
	blue := Brightness(colorful.Color{R: 20.0 / 255, G: 40.0 / 255, B: 200.0 / 255})
	red := Brightness(colorful.Color{R: 220.0 / 255, G: 30.0 / 255, B: 30.0 / 255})

	p := ExtractKMeansPalette(twoTone(), 2)
	require.NotEmpty(t, p)
	assert.LessOrEqual(t, len(p), 2)
	for _, c := range p {
		assert.GreaterOrEqual(t, Brightness(c), blue-1)
		assert.LessOrEqual(t, Brightness(c), red+1)
	}

	assert.Nil(t, ExtractKMeansPalette(twoTone(), 0))
	assert.Nil(t, ExtractKMeansPalette(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 2), "fully transparent")
}

func TestExtractPalette(t *testing.T) {
	p, _ := ExtractPalette(twoTone(), 3, PaletteMethodDominantColor)
	assert.NotEmpty(t, p)
	assert.LessOrEqual(t, len(p), 3)

	p, used := ExtractPalette(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 3, PaletteMethodKMeans)
	assert.Empty(t, p)
	assert.Equal(t, PaletteMethodKMeans, used)

	assert.Equal(t, "kmeans", PaletteMethodKMeans.String())
	assert.Equal(t, "dominantcolor", PaletteMethodDominantColor.String())
}

func TestPickDiverse(t *testing.T) {
	cands := []weightedColor{
		{col: colorful.Color{R: 1}, w: 10},
		{col: colorful.Color{R: 0.98}, w: 9},
		{col: colorful.Color{B: 1}, w: 1},
	}
	got := pickDiverse(cands, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "#ff0000", got[0].Hex())
	assert.Equal(t, "#0000ff", got[1].Hex())
	assert.Len(t, pickDiverse(cands, 10), 3)
	assert.Nil(t, pickDiverse(nil, 2))
}

func TestNewLogger(t *testing.T) {
	cfg := NewLoggerConfig()
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zap.InfoLevel, cfg.Level.Level())
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
	assert.NotNil(t, NewLogger("test"))
}
