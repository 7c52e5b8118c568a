package adapters

import (
	"strings"
	"testing"

	"swatch-extractor/internal/types"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSelection(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

func TestFirstMatch_StopsAtFirstResolvingRule(t *testing.T) {
	var tried []string
	rules := []string{"a", "b", "c"}

	v, i, ok := FirstMatch(rules, func(r string) (string, bool) {
		tried = append(tried, r)
		return strings.ToUpper(r), r == "b"
	})

	require.True(t, ok)
	assert.Equal(t, "B", v)
	assert.Equal(t, 1, i)
	assert.Equal(t, []string{"a", "b"}, tried)
}

func TestFirstMatch_NoRuleResolves(t *testing.T) {
	v, i, ok := FirstMatch([]int{1, 2}, func(int) (string, bool) { return "x", false })

	assert.False(t, ok)
	assert.Equal(t, -1, i)
	assert.Empty(t, v)
}

func TestExtractText(t *testing.T) {
	root := mustSelection(t, `<html><head>
		<meta property="og:title" content="Merino - Oak">
		</head><body><h1>
			Merino   -  Oak
		</h1><h2></h2></body></html>`)

	text, ok := ExtractText(root, types.TextRule{Selector: "h1"})
	require.True(t, ok)
	assert.Equal(t, "Merino - Oak", text)

	text, ok = ExtractText(root, types.TextRule{Selector: `meta[property="og:title"]`, Attr: "content"})
	require.True(t, ok)
	assert.Equal(t, "Merino - Oak", text)

	_, ok = ExtractText(root, types.TextRule{Selector: "h2"})
	assert.False(t, ok, "empty text does not count as a match")

	_, ok = ExtractText(root, types.TextRule{Selector: ".missing"})
	assert.False(t, ok)
}

func TestPickImageURL(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		attrs []string
		want  string
	}{
		{
			name: "prefers high resolution attribute over src",
			html: `<img src="small.jpg" data-zoom="large.jpg">`,
			want: "large.jpg",
		},
		{
			name: "falls back to src",
			html: `<img src="small.jpg">`,
			want: "small.jpg",
		},
		{
			name: "largest srcset width",
			html: `<img src="a.jpg" srcset="a_360.jpg 360w, a_1080.jpg 1080w, a_720.jpg 720w">`,
			want: "a_1080.jpg",
		},
		{
			name: "largest srcset density",
			html: `<img srcset="b.jpg, b@3x.jpg 3x, b@2x.jpg 2x">`,
			want: "b@3x.jpg",
		},
		{
			name: "skips inline placeholder",
			html: `<img data-src="data:image/gif;base64,R0lGOD" src="real.jpg">`,
			want: "real.jpg",
		},
		{
			name: "expands shopify width template",
			html: `<img data-src="//cdn.shopify.com/oak_{width}x.jpg" data-widths="[180, 360, 1296]">`,
			want: "//cdn.shopify.com/oak_1296x.jpg",
		},
		{
			name:  "explicit attribute list",
			html:  `<img src="ignored.jpg" data-original="orig.jpg">`,
			attrs: []string{"data-original"},
			want:  "orig.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := mustSelection(t, "<body>"+tt.html+"</body>").Find("img")
			got, ok := PickImageURL(sel, tt.attrs)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://shop.example/collections/merino"

	got, err := ResolveURL(base, "/products/merino-oak#reviews")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/products/merino-oak", got)

	got, err = ResolveURL(base, "//cdn.example/oak.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/oak.jpg", got)

	got, err = ResolveURL(base, "https://other.example/products/x")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example/products/x", got)

	_, err = ResolveURL(base, "javascript:void(0)")
	assert.Error(t, err)

	_, err = ResolveURL(base, "  ")
	assert.Error(t, err)
}

func TestDeslugifyName(t *testing.T) {
	assert.Equal(t, "Merino Oak", DeslugifyName("https://shop.example/products/merino-oak"))
	assert.Equal(t, "Merino Oak", DeslugifyName("https://shop.example/products/merino-oak/"))
	assert.Equal(t, "Soft Silk Mohair", DeslugifyName("https://shop.example/products/soft_silk--mohair?variant=1"))
	assert.Equal(t, "", DeslugifyName("https://shop.example"))
}

func TestTrimSiteSuffix(t *testing.T) {
	assert.Equal(t, "Merino - Oak", TrimSiteSuffix("Merino - Oak – Knitting for Olive"))
	assert.Equal(t, "Merino - Oak", TrimSiteSuffix("Merino - Oak | Shop"))
	assert.Equal(t, "Merino | Oak", TrimSiteSuffix("Merino | Oak | Shop"))
	assert.Equal(t, "Merino - Oak", TrimSiteSuffix("Merino - Oak"))
	assert.Equal(t, "– Shop", TrimSiteSuffix("– Shop"))
}

func TestDeriveColorLabel(t *testing.T) {
	assert.Equal(t, "Oak", DeriveColorLabel("Merino - Oak"))
	assert.Equal(t, "Dusty Rose", DeriveColorLabel("Merino – Dusty Rose"))
	assert.Equal(t, "Plum", DeriveColorLabel("Yarn | Merino - Plum"))
	assert.Equal(t, "Merino Oak", DeriveColorLabel("Merino Oak"))
	assert.Equal(t, "Merino -", DeriveColorLabel("Merino - "))
}
