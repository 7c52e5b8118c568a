package types

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRecord_NullOptionalFields(t *testing.T) {
	record := ProductRecord{
		URL:   "https://shop.example/products/merino-oak",
		Name:  "Merino Oak",
		Color: "Oak",
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"url": "https://shop.example/products/merino-oak",
		"name": "Merino Oak",
		"color": "Oak",
		"image_url": null,
		"local_image_path": null,
		"hex_color": null
	}`, string(data))
}

func TestRunResult_Counts(t *testing.T) {
	result := &RunResult{
		Outcomes: []ProductOutcome{
			{URL: "a", State: StageFinalized},
			{URL: "b", State: StagePartial, FailedStage: StageImageDownload},
			{URL: "c", State: StagePartial, FailedStage: StageImageDownload},
			{URL: "d", State: StagePartial, FailedStage: StageDetailFetch},
		},
	}

	assert.Equal(t, 1, result.CompleteCount())
	assert.Equal(t, map[Stage]int{
		StageImageDownload: 2,
		StageDetailFetch:   1,
	}, result.FailuresByStage())
}

func TestErrors_Unwrap(t *testing.T) {
	fetchErr := &FetchError{URL: "https://shop.example", Cause: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, fetchErr, io.ErrUnexpectedEOF)
	assert.Contains(t, fetchErr.Error(), "https://shop.example")

	statusErr := &FetchError{URL: "https://shop.example", StatusCode: 404}
	assert.Contains(t, statusErr.Error(), "unexpected status code: 404")

	listingErr := &ListingExhaustedError{URL: "https://shop.example", Cause: statusErr}
	var target *FetchError
	require.True(t, errors.As(listingErr, &target))
	assert.Equal(t, 404, target.StatusCode)
}

func TestRuleSet_WithDefaults(t *testing.T) {
	custom := RuleSet{
		Listing: []LinkRule{{Selector: "a.only"}},
	}

	rules := custom.WithDefaults()

	assert.Equal(t, []LinkRule{{Selector: "a.only"}}, rules.Listing)
	assert.Equal(t, DefaultRuleSet().Title, rules.Title)
	assert.Equal(t, DefaultRuleSet().Image, rules.Image)
}
