package amtrak

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"amtrak-price-tracker/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type card struct {
	train string
	price string
}

func resultsPage(cards ...card) string {
	var b strings.Builder
	b.WriteString(`<div data-testid="search-results">`)
	for _, c := range cards {
		fmt.Fprintf(&b, `<div data-testid="journey-card"><span>Train #%s</span><span>%s</span></div>`, c.train, c.price)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// fakePager serves a fixed list of pages
type fakePager struct {
	pages   []string
	pos     int
	fetches int
}

func (p *fakePager) Content(context.Context) (string, error) {
	p.fetches++
	return p.pages[p.pos], nil
}

func (p *fakePager) Next(context.Context) (bool, error) {
	if p.pos+1 >= len(p.pages) {
		return false, nil
	}
	p.pos++
	return true, nil
}

func newTestEngine(p Pager) *Engine {
	return NewEngine(p, NewHTMLExtractor(), 0, utils.NewNopLogger())
}

func TestScrapeStopsAtMatch(t *testing.T) {
	pager := &fakePager{pages: []string{
		resultsPage(card{"171", "$95"}, card{"175", "$120"}),
		resultsPage(card{"123", "$85"}, card{"125", "$150"}),
		resultsPage(card{"127", "$60"}),
	}}

	res, err := newTestEngine(pager).Scrape(context.Background(), "123", 5)
	require.NoError(t, err)
	require.NotNil(t, res.MatchedPrice)
	assert.Equal(t, 85.0, *res.MatchedPrice)
	assert.Equal(t, []float64{85, 95, 120}, res.Prices)
	assert.Equal(t, 2, pager.fetches, "page 3 must not be read")
}

func TestScrapeMatchesClassCardsInsideWrapper(t *testing.T) {
	pager := &fakePager{pages: []string{classCardsFixture}}

	res, err := newTestEngine(pager).Scrape(context.Background(), "123", 1)
	require.NoError(t, err)
	require.NotNil(t, res.MatchedPrice)
	assert.Equal(t, 85.0, *res.MatchedPrice)
	assert.Equal(t, []float64{85, 95}, res.Prices)
}

func TestScrapeTargetMissingWalksAllPages(t *testing.T) {
	page := resultsPage(card{"171", "$95"}, card{"175", "$120"}, card{"177", "$150"})
	pager := &fakePager{pages: []string{page, page, page, page, page, page}}

	res, err := newTestEngine(pager).Scrape(context.Background(), "999", 5)
	require.NoError(t, err)
	assert.Nil(t, res.MatchedPrice)
	assert.Equal(t, []float64{95, 120, 150}, res.Prices)
	assert.Equal(t, 5, res.Pages)
	assert.Equal(t, 5, pager.fetches)
}

func TestScrapeStopsWhenNoNextPage(t *testing.T) {
	pager := &fakePager{pages: []string{
		resultsPage(card{"171", "$95"}),
		resultsPage(card{"175", "$120"}),
	}}

	res, err := newTestEngine(pager).Scrape(context.Background(), "999", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, []float64{95, 120}, res.Prices)
}

func TestScrapeLooseFallback(t *testing.T) {
	pager := &fakePager{pages: []string{
		`<p>Fares $49, $15 and $72.50</p>`,
		resultsPage(card{"171", "$95"}),
	}}

	res, err := newTestEngine(pager).Scrape(context.Background(), "171", 5)
	require.NoError(t, err)
	assert.Nil(t, res.MatchedPrice)
	assert.Equal(t, []float64{49, 72.5}, res.Prices)
	assert.Equal(t, 1, pager.fetches)
}

func TestScrapeWithoutTargetReadsOnePage(t *testing.T) {
	pager := &fakePager{pages: []string{
		resultsPage(card{"171", "$95"}),
		resultsPage(card{"175", "$120"}),
	}}

	res, err := newTestEngine(pager).Scrape(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Nil(t, res.MatchedPrice)
	assert.Equal(t, []float64{95}, res.Prices)
	assert.Equal(t, 1, pager.fetches)
}

func TestScrapeIgnoresOutOfRangeMatch(t *testing.T) {
	pager := &fakePager{pages: []string{
		resultsPage(card{"171", "$5,000"}, card{"175", "$120"}),
	}}

	res, err := newTestEngine(pager).Scrape(context.Background(), "171", 1)
	require.NoError(t, err)
	assert.Nil(t, res.MatchedPrice)
	assert.Equal(t, []float64{120}, res.Prices)
}

type failingPager struct{}

func (failingPager) Content(context.Context) (string, error) {
	return "", ErrChannelClosed
}

func (failingPager) Next(context.Context) (bool, error) {
	return false, nil
}

func TestScrapeFirstPageUnreadable(t *testing.T) {
	_, err := newTestEngine(failingPager{}).Scrape(context.Background(), "171", 5)
	require.ErrorIs(t, err, ErrChannelClosed)
}
