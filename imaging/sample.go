package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"swatch-extractor/internal/types"

	_ "golang.org/x/image/webp"
)

// Statistic reduces the pixels of the sample region to one value per channel.
type Statistic string

const (
	StatisticMean   Statistic = "mean"
	StatisticMedian Statistic = "median"
)

// ErrEmptyRegion is returned when the image is too small for the crop band.
var ErrEmptyRegion = errors.New("sample region is empty")

// Sampler estimates a representative color from the center of an image.
// It is a crude single-statistic heuristic, meant to be checked by hand.
type Sampler struct {
	cropStart float64
	cropEnd   float64
	statistic Statistic
}

// NewSampler validates the sampling configuration.
func NewSampler(cfg types.SamplingConfig) (*Sampler, error) {
	if cfg.CropStart < 0 || cfg.CropEnd > 1 || cfg.CropStart >= cfg.CropEnd {
		return nil, fmt.Errorf("invalid crop band [%.2f, %.2f): need 0 <= start < end <= 1", cfg.CropStart, cfg.CropEnd)
	}

	stat := Statistic(cfg.Statistic)
	if stat == "" {
		stat = StatisticMean
	}
	if stat != StatisticMean && stat != StatisticMedian {
		return nil, fmt.Errorf("unknown sampling statistic %q (want mean or median)", cfg.Statistic)
	}

	return &Sampler{
		cropStart: cfg.CropStart,
		cropEnd:   cfg.CropEnd,
		statistic: stat,
	}, nil
}

// SampleFile decodes the image at path and samples it.
func (s *Sampler) SampleFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &types.SamplingError{Path: path, Cause: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", &types.SamplingError{Path: path, Cause: fmt.Errorf("decode: %w", err)}
	}

	hex, err := s.SampleImage(img)
	if err != nil {
		return "", &types.SamplingError{Path: path, Cause: err}
	}
	return hex, nil
}

// SampleImage returns the "#rrggbb" color of the central region of img.
// Alpha is ignored.
func (s *Sampler) SampleImage(img image.Image) (string, error) {
	region := s.Region(img.Bounds())
	if region.Empty() {
		return "", ErrEmptyRegion
	}

	var r, g, b uint8
	switch s.statistic {
	case StatisticMedian:
		r, g, b = medianColor(img, region)
	default:
		r, g, b = meanColor(img, region)
	}
	return FormatHex(r, g, b), nil
}

// Region returns the crop rectangle [start*W, end*W) x [start*H, end*H)
// within bounds.
func (s *Sampler) Region(bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(math.Floor(s.cropStart*w)),
		bounds.Min.Y+int(math.Floor(s.cropStart*h)),
		bounds.Min.X+int(math.Floor(s.cropEnd*w)),
		bounds.Min.Y+int(math.Floor(s.cropEnd*h)),
	)
}

// FormatHex renders a color as lowercase, zero-padded "#rrggbb".
func FormatHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func meanColor(img image.Image, region image.Rectangle) (uint8, uint8, uint8) {
	var sumR, sumG, sumB uint64
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			c := pixel(img, x, y)
			sumR += uint64(c.R)
			sumG += uint64(c.G)
			sumB += uint64(c.B)
		}
	}

	n := float64(region.Dx() * region.Dy())
	return roundChannel(float64(sumR) / n), roundChannel(float64(sumG) / n), roundChannel(float64(sumB) / n)
}

func medianColor(img image.Image, region image.Rectangle) (uint8, uint8, uint8) {
	var histR, histG, histB [256]int
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			c := pixel(img, x, y)
			histR[c.R]++
			histG[c.G]++
			histB[c.B]++
		}
	}

	n := region.Dx() * region.Dy()
	return histogramMedian(&histR, n), histogramMedian(&histG, n), histogramMedian(&histB, n)
}

// histogramMedian averages the two middle values for an even count.
func histogramMedian(hist *[256]int, n int) uint8 {
	lo, hi := (n-1)/2, n/2
	loVal, hiVal := -1, -1
	seen := 0
	for v, count := range hist {
		seen += count
		if loVal < 0 && seen > lo {
			loVal = v
		}
		if seen > hi {
			hiVal = v
			break
		}
	}
	return roundChannel(float64(loVal+hiVal) / 2)
}

func roundChannel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
