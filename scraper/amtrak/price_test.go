package amtrak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSetDedupAndRange(t *testing.T) {
	set := NewPriceSet()
	for _, v := range []float64{49, 49, 72.5, 72.5, 15} {
		set.Add(v)
	}
	require.Equal(t, []float64{49, 72.5}, set.Values())
	require.Equal(t, 2, set.Len())
}

func TestPriceSetSortsAscending(t *testing.T) {
	set := NewPriceSet()
	for _, v := range []float64{150, 95, 2000, 2000.01, 20, 19.99} {
		set.Add(v)
	}
	assert.Equal(t, []float64{20, 95, 150, 2000}, set.Values())
}

func TestFirstAmount(t *testing.T) {
	cases := map[string]float64{
		"Coach from $85":         85,
		"$1,234.56 total":        1234.56,
		"Train 171 $ 72.50 $99":  72.5,
		"Business $129.00 saver": 129,
	}
	for text, want := range cases {
		got, ok := firstAmount(text)
		require.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := firstAmount("Sold out")
	assert.False(t, ok)
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, ok := parseAmount("")
	assert.False(t, ok)
	_, ok = parseAmount(",,")
	assert.False(t, ok)
	v, ok := parseAmount("1,050")
	require.True(t, ok)
	assert.Equal(t, 1050.0, v)
}

func TestIsChannelClosed(t *testing.T) {
	assert.True(t, isChannelClosed(errString("Execution context was destroyed.")))
	assert.True(t, isChannelClosed(errString("Inspected target navigated or closed")))
	assert.False(t, isChannelClosed(errString("ReferenceError: x is not defined")))
	assert.False(t, isChannelClosed(nil))
}

type errString string

func (e errString) Error() string { return string(e) }
