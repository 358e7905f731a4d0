// Package batch runs the background remover over a whole input directory.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/setanarut/lumamask"
	"github.com/setanarut/lumamask/utils"
)

// Notice is printed once before any file is processed.
const Notice = "This window will close once all images have been created."

// PaletteSize is the number of colors reported per image by Inspect.
const PaletteSize = 5

// Config holds the directories a run reads from and writes to.
type Config struct {
	InputDir  string
	OutputDir string
}

// DefaultConfig returns the fixed layout: input/ and output/ relative to the
// working directory.
func DefaultConfig() Config {
	return Config{
		InputDir:  "input",
		OutputDir: "output",
	}
}

// Result lists the files written by Run, in processing order.
type Result struct {
	Written []string
}

// Run converts every entry of cfg.InputDir into a PNG under cfg.OutputDir.
// Entries are not filtered by name or type. The first error aborts the run;
// files written before it stay on disk and are listed in the Result.
// The output directory must already exist.
func Run(ctx context.Context, cfg Config, logger *zap.SugaredLogger) (Result, error) {
	var res Result
	err := eachEntry(ctx, cfg, func(name string) error {
		out, err := convertFile(cfg, name, logger)
		if err != nil {
			return err
		}
		res.Written = append(res.Written, out)
		return nil
	})
	return res, err
}

func convertFile(cfg Config, name string, logger *zap.SugaredLogger) (string, error) {
	in := filepath.Join(cfg.InputDir, name)
	img, err := utils.ReadImage(in)
	if err != nil {
		return "", err
	}
	mask := lumamask.Segment(img)
	out := filepath.Join(cfg.OutputDir, utils.OutputName(name))
	if err := utils.SaveImage(mask.Apply(), out); err != nil {
		return "", err
	}
	logger.Debugw("removed background",
		"input", in,
		"output", out,
		"width", mask.W,
		"height", mask.H,
		"coverage", mask.Coverage(),
	)
	return out, nil
}

// Report describes one input image.
type Report struct {
	Name          string
	Width, Height int
	// Coverage is the fraction of pixels that would be kept as foreground.
	Coverage float64
	Palette  []colorful.Color
	Method   utils.PaletteMethod
}

func (r Report) String() string {
	hex := make([]string, len(r.Palette))
	for i, c := range r.Palette {
		hex[i] = c.Hex()
	}
	return fmt.Sprintf("%s\t%dx%d\tforeground=%.1f%%\tpalette(%s)=%s",
		r.Name, r.Width, r.Height, r.Coverage*100, r.Method, strings.Join(hex, ","))
}

// Inspect decodes every entry of cfg.InputDir and writes one Report line per
// file to w without producing any output image. Errors abort as in Run.
func Inspect(ctx context.Context, cfg Config, w io.Writer, logger *zap.SugaredLogger) ([]Report, error) {
	var reports []Report
	err := eachEntry(ctx, cfg, func(name string) error {
		img, err := utils.ReadImage(filepath.Join(cfg.InputDir, name))
		if err != nil {
			return err
		}
		mask := lumamask.Segment(img)
		palette, method := utils.ExtractPalette(img, PaletteSize, utils.PaletteMethodDominantColor)
		if method != utils.PaletteMethodDominantColor {
			logger.Debugw("palette fell back", "file", name, "method", method.String())
		}
		utils.SortPaletteByBrightness(palette)
		r := Report{
			Name:     name,
			Width:    mask.W,
			Height:   mask.H,
			Coverage: mask.Coverage(),
			Palette:  palette,
			Method:   method,
		}
		reports = append(reports, r)
		_, err = fmt.Fprintln(w, r)
		return errors.Wrap(err, "writing report")
	})
	return reports, err
}

func eachEntry(ctx context.Context, cfg Config, fn func(name string) error) error {
	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return errors.Wrapf(err, "listing %s", cfg.InputDir)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e.Name()); err != nil {
			return err
		}
	}
	return nil
}
