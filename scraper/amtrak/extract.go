package amtrak

import (
	"fmt"
	"regexp"
	"strings"

	"amtrak-price-tracker/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is what one results page yielded
type Page struct {
	Cards        int // priced result cards recognized
	Observations []models.PriceObservation
}

// Extractor turns raw page content into fare observations. The layout rules
// live behind this interface so they can be swapped and tested without a browser.
type Extractor interface {
	Extract(raw string) (Page, error)
	// Loose returns every dollar amount on the page, ignoring structure
	Loose(raw string) []float64
}

// Hints for elements that may be a journey card. Which hint matched does not
// matter; nesting decides what counts as a card.
var defaultCardSelectors = []string{
	`[data-testid*="journey"], [data-testid*="trip"], [data-testid*="result"], [data-testid*="segment"]`,
	`[class*="journey"]`,
	`[class*="trip-card"], [class*="tripCard"], [class*="search-result"], [class*="result-card"]`,
	`[class*="segment"]`,
	`[class*="trip"], [class*="result"]`,
}

var serviceFamilies = []string{
	"acela", "northeast regional", "keystone", "empire service", "vermonter", "palmetto", "carolinian",
	"silver star", "silver meteor", "crescent", "cardinal", "capitol limited", "lake shore limited",
	"pennsylvanian", "downeaster", "coast starlight", "pacific surfliner", "cascades", "san joaquins",
	"capitol corridor", "southwest chief", "sunset limited", "texas eagle", "city of new orleans",
	"california zephyr", "empire builder", "auto train", "adirondack", "ethan allen", "maple leaf",
	"hiawatha", "wolverine",
}

// Tried in order; the first that matches names the train.
var serviceIDPatterns = func() []*regexp.Regexp {
	families := strings.Join(serviceFamilies, "|")
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btrain\s*#\s*(\d{1,4})\b`),
		regexp.MustCompile(`#\s*(\d{1,4})\b`),
		regexp.MustCompile(fmt.Sprintf(`(?i)\b(?:%s)\s*(\d{3,4})\b`, families)),
		regexp.MustCompile(fmt.Sprintf(`(?i)\b(\d{3,4})\s*(?:%s)\b`, families)),
	}
}()

// HTMLExtractor finds journey cards in an HTML document with goquery
type HTMLExtractor struct {
	cardSelectors []string
}

// NewHTMLExtractor creates an extractor with the built-in card hints
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{cardSelectors: defaultCardSelectors}
}

// Extract parses raw HTML into one observation per priced card
func (e *HTMLExtractor) Extract(raw string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse page: %w", err)
	}

	cards := e.findCards(doc)
	page := Page{Cards: len(cards)}
	for _, card := range cards {
		text := spacedText(card)
		price, ok := firstAmount(text)
		if !ok {
			continue
		}
		page.Observations = append(page.Observations, models.PriceObservation{
			ServiceID: serviceID(text),
			Price:     price,
		})
	}
	return page, nil
}

// Loose returns every parseable dollar amount in the document text
func (e *HTMLExtractor) Loose(raw string) []float64 {
	text := raw
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		doc.Find("script, style, noscript").Remove()
		text = doc.Text()
	}
	var out []float64
	for _, m := range looseAmountRegex.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// findCards returns the innermost priced elements matched by any card hint.
// An element that wraps another priced element is a container, not a card,
// unless the inner one carries no train number while the outer one does.
func (e *HTMLExtractor) findCards(doc *goquery.Document) []*goquery.Selection {
	type candidate struct {
		node *html.Node
		id   string
	}
	var candidates []candidate
	doc.Find(strings.Join(e.cardSelectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		if !amountRegex.MatchString(s.Text()) {
			return
		}
		candidates = append(candidates, candidate{node: s.Nodes[0], id: serviceID(spacedText(s))})
	})

	var kept []candidate
	for _, c := range candidates {
		container := false
		for _, inner := range candidates {
			if inner.node != c.node && within(inner.node, c.node) && (inner.id != "" || c.id == "") {
				container = true
				break
			}
		}
		if !container {
			kept = append(kept, c)
		}
	}

	var cards []*goquery.Selection
	for _, c := range kept {
		nested := false
		for _, outer := range kept {
			if outer.node != c.node && within(c.node, outer.node) {
				nested = true
				break
			}
		}
		if !nested {
			cards = append(cards, doc.FindNodes(c.node))
		}
	}
	return cards
}

// within reports whether n sits anywhere below ancestor
func within(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func serviceID(text string) string {
	for _, re := range serviceIDPatterns {
		if m := re.FindStringSubmatch(text); len(m) >= 2 {
			return m[1]
		}
	}
	return ""
}

// spacedText is goquery's Text with a space between text nodes, so adjacent
// spans like "171" and "$85" don't run together.
func spacedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		collectText(n, &b)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
