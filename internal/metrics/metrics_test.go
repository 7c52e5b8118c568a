package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"swatch-extractor/internal/types"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProduct(t *testing.T) {
	r := NewRecorder()

	r.ObserveProduct(types.ProductOutcome{URL: "a", State: types.StageFinalized})
	r.ObserveProduct(types.ProductOutcome{URL: "b", State: types.StagePartial, FailedStage: types.StageImageDownload})
	r.ObserveProduct(types.ProductOutcome{URL: "c", State: types.StagePartial, FailedStage: types.StageImageDownload})
	r.ObserveProduct(types.ProductOutcome{URL: "d", State: types.StagePartial, FailedStage: types.StageColorSample})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.products.WithLabelValues("finalized")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.products.WithLabelValues("partial")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.stageFailures.WithLabelValues("image_download")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageFailures.WithLabelValues("color_sample")))
}

func TestObserveRun(t *testing.T) {
	r := NewRecorder()

	r.ObserveRun(RunSucceeded, 2*time.Second)
	r.ObserveRun(RunListingExhausted, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues(RunSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues(RunListingExhausted)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveProduct(types.ProductOutcome{State: types.StageFinalized})
		r.ObserveRun(RunFailed, time.Second)
	})
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(RunSucceeded, time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `swatch_runs_total{result="succeeded"} 1`)
}
