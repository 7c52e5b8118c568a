package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"swatch-extractor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func defaultSampler(t *testing.T) *Sampler {
	t.Helper()
	s, err := NewSampler(types.DefaultConfig().Sampling)
	require.NoError(t, err)
	return s
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// framedImage paints border everywhere and center inside the 30%-70% band
func framedImage(w, h int, border, center color.Color) *image.NRGBA {
	img := solidImage(w, h, border)
	for y := h * 3 / 10; y < h*7/10; y++ {
		for x := w * 3 / 10; x < w*7/10; x++ {
			img.Set(x, y, center)
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swatch.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestSampleImage_CentralRegionOnly(t *testing.T) {
	oak := color.NRGBA{R: 0xa6, G: 0x7c, B: 0x52, A: 0xff}
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	for _, size := range [][2]int{{10, 10}, {100, 60}, {37, 53}} {
		img := framedImage(size[0], size[1], white, oak)

		hex, err := defaultSampler(t).SampleImage(img)

		require.NoError(t, err)
		assert.Equal(t, "#a67c52", hex, "size %v", size)
	}
}

func TestSampleImage_MeanRoundsToNearest(t *testing.T) {
	// 10x10 -> region is 4x4; left half red=10, right half red=11 gives 10.5
	img := solidImage(10, 10, color.NRGBA{A: 0xff})
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := uint8(10)
			if x >= 5 {
				v = 11
			}
			img.Set(x, y, color.NRGBA{R: v, G: 0, B: 255, A: 0xff})
		}
	}

	hex, err := defaultSampler(t).SampleImage(img)

	require.NoError(t, err)
	assert.Equal(t, "#0b00ff", hex)
}

func TestSampleImage_IgnoresAlpha(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0x80})

	hex, err := defaultSampler(t).SampleImage(img)

	require.NoError(t, err)
	assert.Equal(t, "#123456", hex)
}

func TestSampleImage_Median(t *testing.T) {
	s, err := NewSampler(types.SamplingConfig{CropStart: 0, CropEnd: 1, Statistic: "median"})
	require.NoError(t, err)

	// 3 dark pixels, 1 bright outlier: mean would be pulled up, median is not
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	img.Set(1, 0, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	img.Set(0, 1, color.NRGBA{R: 12, G: 12, B: 12, A: 255})
	img.Set(1, 1, color.NRGBA{R: 250, G: 250, B: 250, A: 255})

	hex, err := s.SampleImage(img)

	require.NoError(t, err)
	assert.Equal(t, "#0b0b0b", hex)
}

func TestSampleImage_DegenerateImage(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {1, 10}, {10, 1}} {
		_, err := defaultSampler(t).SampleImage(solidImage(size[0], size[1], color.Black))
		assert.ErrorIs(t, err, ErrEmptyRegion, "size %v", size)
	}

	_, err := defaultSampler(t).SampleImage(solidImage(3, 3, color.Black))
	assert.NoError(t, err)
}

func TestSampleImage_NonZeroBoundsOrigin(t *testing.T) {
	full := framedImage(20, 20, color.White, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	shifted := image.NewNRGBA(image.Rect(100, 100, 120, 120))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			shifted.Set(100+x, 100+y, full.At(x, y))
		}
	}

	hex, err := defaultSampler(t).SampleImage(shifted)

	require.NoError(t, err)
	assert.Equal(t, "#010203", hex)
}

func TestSampleFile_HexFormatAndIdempotence(t *testing.T) {
	img := framedImage(50, 40, color.Black, color.NRGBA{R: 0x0a, G: 0xbc, B: 0x0f, A: 255})
	path := writePNG(t, img)
	s := defaultSampler(t)

	first, err := s.SampleFile(path)
	require.NoError(t, err)
	second, err := s.SampleFile(path)
	require.NoError(t, err)

	assert.Regexp(t, hexPattern, first)
	assert.Equal(t, first, second)
	assert.Equal(t, "#0abc0f", first)
}

func TestSampleFile_Errors(t *testing.T) {
	s := defaultSampler(t)

	_, err := s.SampleFile(filepath.Join(t.TempDir(), "missing.png"))
	var samplingErr *types.SamplingError
	require.True(t, errors.As(err, &samplingErr))

	notImage := filepath.Join(t.TempDir(), "page.jpg")
	require.NoError(t, os.WriteFile(notImage, []byte("<html></html>"), 0o644))
	_, err = s.SampleFile(notImage)
	require.True(t, errors.As(err, &samplingErr))
	assert.Equal(t, notImage, samplingErr.Path)

	tiny := writePNG(t, solidImage(1, 1, color.White))
	_, err = s.SampleFile(tiny)
	require.True(t, errors.As(err, &samplingErr))
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestNewSampler_Validation(t *testing.T) {
	_, err := NewSampler(types.SamplingConfig{CropStart: 0.7, CropEnd: 0.3})
	assert.Error(t, err)

	_, err = NewSampler(types.SamplingConfig{CropStart: -0.1, CropEnd: 0.5})
	assert.Error(t, err)

	_, err = NewSampler(types.SamplingConfig{CropStart: 0.3, CropEnd: 0.7, Statistic: "kmeans"})
	assert.Error(t, err)

	s, err := NewSampler(types.SamplingConfig{CropStart: 0.25, CropEnd: 0.75})
	require.NoError(t, err)
	assert.Equal(t, StatisticMean, s.statistic)
}

func TestFormatHex(t *testing.T) {
	assert.Equal(t, "#000000", FormatHex(0, 0, 0))
	assert.Equal(t, "#0a0b0c", FormatHex(10, 11, 12))
	assert.Equal(t, "#ffffff", FormatHex(255, 255, 255))
}
