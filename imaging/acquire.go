package imaging

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"swatch-extractor/internal/types"
	"swatch-extractor/utils"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultExtension is used when neither the URL nor the content reveal a format.
const DefaultExtension = ".jpg"

var rasterExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true, ".avif": true,
}

// Acquirer downloads product images into a local directory. File names are
// unique for the lifetime of an Acquirer: when two products sanitize to the
// same name, later files get a numeric suffix (Merino_Oak_2.jpg) instead of
// replacing the earlier image.
type Acquirer struct {
	fetcher utils.PageFetcher
	logger  types.Logger
	closer  func()

	mu   sync.Mutex
	used map[string]bool
}

// NewAcquirer creates an acquirer with its own image client, paced by
// config.ImageDelay independently of page requests.
func NewAcquirer(config *types.Config, logger types.Logger) *Acquirer {
	client := utils.NewImageClient(config, logger)
	a := NewAcquirerWithFetcher(client, logger)
	a.closer = client.Close
	return a
}

// NewAcquirerWithFetcher creates an acquirer around an existing fetcher.
// Close does not release a fetcher passed in this way.
func NewAcquirerWithFetcher(fetcher utils.PageFetcher, logger types.Logger) *Acquirer {
	return &Acquirer{
		fetcher: fetcher,
		logger:  logger,
		used:    make(map[string]bool),
	}
}

// Acquire downloads imageURL and stores it in destDir under a file name
// derived from productName. The file appears under its final name only once
// it has been written completely.
func (a *Acquirer) Acquire(ctx context.Context, imageURL, productName, destDir string) (string, error) {
	a.logger.Debugf("Downloading image for %s: %s", productName, imageURL)

	page, err := a.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return "", err
		}
		return "", &types.AcquisitionError{URL: imageURL, Cause: err}
	}

	mtype := mimetype.Detect(page.Body)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", &types.AcquisitionError{URL: imageURL, Cause: fmt.Errorf("content is %s, not an image", mtype.String())}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", &types.AcquisitionError{URL: imageURL, Path: destDir, Cause: err}
	}

	filePath := filepath.Join(destDir, a.reserveName(SanitizeName(productName), ImageExtension(imageURL, mtype)))
	if err := writeFileAtomic(filePath, page.Body); err != nil {
		return "", &types.AcquisitionError{URL: imageURL, Path: filePath, Cause: err}
	}

	a.logger.Infof("Saved: %s (%s)", filePath, humanize.Bytes(uint64(len(page.Body))))
	return filePath, nil
}

// reserveName returns stem+ext, or stem_N+ext for the smallest N >= 2 not
// yet handed out. Names compare case-insensitively.
func (a *Acquirer) reserveName(stem, ext string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := stem + ext
	for n := 2; a.used[strings.ToLower(name)]; n++ {
		name = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	a.used[strings.ToLower(name)] = true
	return name
}

// Close releases the underlying client.
func (a *Acquirer) Close() {
	if a.closer != nil {
		a.closer()
	}
}

// SanitizeName reduces a product name to letters and digits joined by
// underscores: "Merino - Oak" becomes "Merino_Oak".
func SanitizeName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "product"
	}
	return strings.Join(words, "_")
}

// ImageExtension picks the file extension from the URL path when it names a
// raster format, otherwise from the detected content type, otherwise
// DefaultExtension.
func ImageExtension(imageURL string, detected *mimetype.MIME) string {
	if u, err := url.Parse(imageURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if rasterExtensions[ext] {
			return ext
		}
	}

	if detected != nil && strings.HasPrefix(detected.String(), "image/") {
		if ext := detected.Extension(); rasterExtensions[ext] {
			return ext
		}
	}

	return DefaultExtension
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
