package amtrak

import (
	"testing"

	"amtrak-price-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsFixture = `<html><body>
<div data-testid="search-results">
  <div data-testid="journey-card">
    <span>Train #171</span><span>Northeast Regional</span><span>Coach</span><span>$85.00</span>
  </div>
  <div data-testid="journey-card">
    <span>Acela 2151</span><span>Business</span><span>$129</span><span>$210</span>
  </div>
  <div data-testid="journey-card">
    <span>Train #95</span><span>Sold out</span>
  </div>
</div>
</body></html>`

func TestExtractInnermostCards(t *testing.T) {
	page, err := NewHTMLExtractor().Extract(resultsFixture)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Cards)
	assert.Equal(t, []models.PriceObservation{
		{ServiceID: "171", Price: 85},
		{ServiceID: "2151", Price: 129},
	}, page.Observations)
}

const classCardsFixture = `<html><body>
<div data-testid="search-results">
  <div class="journey-card"><span>Train #171</span><span class="fare-result">$95</span></div>
  <div class="journey-card"><span>Train #123</span><span class="fare-result">$85</span></div>
  <div class="journey-card"><span>Train #175</span><span class="fare-result">$120</span></div>
</div>
</body></html>`

func TestExtractCardsInsideHintedWrapper(t *testing.T) {
	page, err := NewHTMLExtractor().Extract(classCardsFixture)
	require.NoError(t, err)

	assert.Equal(t, 3, page.Cards)
	assert.Equal(t, []models.PriceObservation{
		{ServiceID: "171", Price: 95},
		{ServiceID: "123", Price: 85},
		{ServiceID: "175", Price: 120},
	}, page.Observations)
}

func TestExtractUnnumberedCardsSplitByPrice(t *testing.T) {
	raw := `<div class="search-results">
  <div class="trip-card"><span>10:05</span><span>$49</span></div>
  <div class="trip-card"><span>12:05</span><span>$64</span></div>
</div>`
	page, err := NewHTMLExtractor().Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Cards)
	assert.Equal(t, []models.PriceObservation{{Price: 49}, {Price: 64}}, page.Observations)
}

func TestExtractAdjacentSpansDontMerge(t *testing.T) {
	raw := `<div class="journey-row"><span>Train #171</span><span>$85</span></div>`
	page, err := NewHTMLExtractor().Extract(raw)
	require.NoError(t, err)
	require.Len(t, page.Observations, 1)
	assert.Equal(t, "171", page.Observations[0].ServiceID)
	assert.Equal(t, 85.0, page.Observations[0].Price)
}

func TestExtractNoCards(t *testing.T) {
	page, err := NewHTMLExtractor().Extract(`<p>Fares from $49</p>`)
	require.NoError(t, err)
	assert.Zero(t, page.Cards)
	assert.Empty(t, page.Observations)
}

func TestLooseIgnoresScripts(t *testing.T) {
	raw := `<html><body><p>Fares from $49 to $1,200.50</p><script>var fee = "$5";</script></body></html>`
	assert.Equal(t, []float64{49, 1200.5}, NewHTMLExtractor().Loose(raw))
}

func TestServiceID(t *testing.T) {
	cases := map[string]string{
		"Train #66 departs 10:05":         "66",
		"# 2153 Acela":                    "2153",
		"Northeast Regional 171 $85":      "171",
		"2151 Acela Business":             "2151",
		"Departs 10:05 Arrives 13:40 $85": "",
	}
	for text, want := range cases {
		assert.Equal(t, want, serviceID(text), text)
	}
}
