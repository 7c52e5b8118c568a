package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"swatch-extractor/adapters"
	"swatch-extractor/imaging"
	"swatch-extractor/internal/metrics"
	"swatch-extractor/internal/types"

	"github.com/google/uuid"
)

// CollectionExtractor runs the whole pipeline for one collection page:
// discover product links, then resolve, download and sample each product in
// listing order.
type CollectionExtractor struct {
	config   *types.Config
	logger   types.Logger
	adapter  *adapters.ShopifyAdapter
	acquirer *imaging.Acquirer
	sampler  *imaging.Sampler
	writer   *ResultWriter
	metrics  *metrics.Recorder
}

// NewCollectionExtractor creates an extractor. recorder may be nil.
func NewCollectionExtractor(config *types.Config, logger types.Logger, recorder *metrics.Recorder) (*CollectionExtractor, error) {
	sampler, err := imaging.NewSampler(config.Sampling)
	if err != nil {
		return nil, err
	}

	return &CollectionExtractor{
		config:   config,
		logger:   logger,
		adapter:  adapters.NewShopifyAdapter(config, logger),
		acquirer: imaging.NewAcquirer(config, logger),
		sampler:  sampler,
		writer:   NewResultWriter(filepath.Join(config.OutputDir, config.OutputFile)),
		metrics:  recorder,
	}, nil
}

// ExtractAll runs the pipeline and persists the result set. A collection
// page without product links is the only fatal outcome; it returns a
// *types.ListingExhaustedError and writes nothing. Every discovered product
// yields a record, complete or not. When ctx is cancelled mid-run the
// records finished so far are written and returned with the context error.
func (e *CollectionExtractor) ExtractAll(ctx context.Context) (*types.RunResult, error) {
	startTime := time.Now()
	result := &types.RunResult{
		RunID:         uuid.NewString(),
		CollectionURL: e.config.CollectionURL,
		OutputFile:    e.writer.Path(),
		StartedAt:     startTime,
	}
	e.logger.Infof("Starting run %s at %v using %s", result.RunID, startTime.Format("15:04:05.000"), e.adapter)

	// Step 1: discover product links
	e.logger.Info("Step 1: Discovering product URLs...")
	refs, err := e.adapter.GetProductReferences(ctx, e.config.CollectionURL)
	if err != nil {
		if ctx.Err() != nil {
			e.metrics.ObserveRun(metrics.RunFailed, time.Since(startTime))
			return nil, ctx.Err()
		}
		e.metrics.ObserveRun(metrics.RunListingExhausted, time.Since(startTime))
		return nil, &types.ListingExhaustedError{
			URL:   e.config.CollectionURL,
			Rules: len(e.adapter.Rules().Listing),
			Cause: err,
		}
	}
	if len(refs) == 0 {
		e.metrics.ObserveRun(metrics.RunListingExhausted, time.Since(startTime))
		return nil, &types.ListingExhaustedError{
			URL:   e.config.CollectionURL,
			Rules: len(e.adapter.Rules().Listing),
		}
	}

	e.logger.Infof("Found %d product URLs", len(refs))

	// Step 2: process each product
	e.logger.Info("Step 2: Extracting product details, images and colors...")
	imagesDir := filepath.Join(e.config.OutputDir, e.config.ImagesDir)
	result.Records = make([]types.ProductRecord, 0, len(refs))

	var runErr error
	for i, ref := range refs {
		productStartTime := time.Now()
		e.logger.Infof("Processing product %d/%d: %s", i+1, len(refs), ref.URL)

		record, outcome := e.processProduct(ctx, ref, imagesDir)
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.logger.Warnf("Run interrupted at product %d/%d, keeping %d finished records", i+1, len(refs), len(result.Records))
			runErr = ctxErr
			break
		}

		result.Records = append(result.Records, record)
		result.Outcomes = append(result.Outcomes, outcome)
		e.metrics.ObserveProduct(outcome)
		e.logger.Debugf("Product %s processed in %v", ref.URL, time.Since(productStartTime))

		if e.config.Incremental {
			if err := e.writer.Write(result.Records); err != nil {
				e.metrics.ObserveRun(metrics.RunFailed, time.Since(startTime))
				return result, err
			}
		}
	}

	if err := e.writer.Write(result.Records); err != nil {
		e.metrics.ObserveRun(metrics.RunFailed, time.Since(startTime))
		return result, err
	}

	result.Duration = time.Since(startTime)
	e.logger.Infof("Results saved to %s", e.writer.Path())
	e.logger.Infof("Extraction completed in %v", result.Duration)
	e.logger.Infof("Successfully processed %d/%d products", result.CompleteCount(), len(refs))

	if runErr != nil {
		e.metrics.ObserveRun(metrics.RunFailed, result.Duration)
		return result, fmt.Errorf("run %s interrupted: %w", result.RunID, runErr)
	}
	e.metrics.ObserveRun(metrics.RunSucceeded, result.Duration)
	return result, nil
}

// processProduct moves one product through the pipeline. Failures are
// contained here: the record keeps what was resolved before the failing
// stage and the outcome names that stage.
func (e *CollectionExtractor) processProduct(ctx context.Context, ref types.ProductReference, imagesDir string) (types.ProductRecord, types.ProductOutcome) {
	outcome := types.ProductOutcome{URL: ref.URL, State: types.StageDiscovered}

	details, err := e.adapter.GetProductDetails(ctx, ref.URL)
	if err != nil {
		details = e.adapter.FallbackDetails(ref.URL)
		e.fail(&outcome, types.StageDetailFetch, err)
		return newRecord(ref.URL, details), outcome
	}
	outcome.State = types.StageNameResolved
	record := newRecord(ref.URL, details)

	if details.ImageURL == "" {
		e.fail(&outcome, types.StageImageURL, &types.ExtractionError{URL: ref.URL, Field: "image"})
		return record, outcome
	}
	imageURL := details.ImageURL
	record.ImageURL = &imageURL

	localPath, err := e.acquirer.Acquire(ctx, imageURL, details.Name, imagesDir)
	if err != nil {
		e.fail(&outcome, types.StageImageDownload, err)
		return record, outcome
	}
	outcome.State = types.StageImageAcquired
	record.LocalImagePath = &localPath

	hex, err := e.sampler.SampleFile(localPath)
	if err != nil {
		e.fail(&outcome, types.StageColorSample, err)
		return record, outcome
	}
	outcome.State = types.StageColorSampled
	record.HexColor = &hex

	outcome.State = types.StageFinalized
	e.logger.Debugf("Extracted %s: color %q, hex %s", details.Name, details.Color, hex)
	return record, outcome
}

func (e *CollectionExtractor) fail(outcome *types.ProductOutcome, stage types.Stage, err error) {
	outcome.State = types.StagePartial
	outcome.FailedStage = stage
	outcome.Err = err
	e.logger.Warnf("Product %s incomplete at stage %s: %v", outcome.URL, stage, err)
}

func newRecord(productURL string, details *adapters.ProductDetails) types.ProductRecord {
	name := details.Name
	if name == "" {
		name = productURL
	}
	return types.ProductRecord{
		URL:   productURL,
		Name:  name,
		Color: details.Color,
	}
}

// Close cleans up resources.
func (e *CollectionExtractor) Close() {
	if e.adapter != nil {
		e.adapter.Close()
	}
	if e.acquirer != nil {
		e.acquirer.Close()
	}
}

// Run builds an extractor for config, runs it once and releases it.
func Run(ctx context.Context, config *types.Config, logger types.Logger, recorder *metrics.Recorder) (*types.RunResult, error) {
	e, err := NewCollectionExtractor(config, logger, recorder)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	return e.ExtractAll(ctx)
}
