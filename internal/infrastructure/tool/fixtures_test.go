package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketDataFixtures_ReturnConfiguredResult(t *testing.T) {
	fixtures := []interface {
		Name() string
		Invoke(ctx context.Context, args map[string]any) (string, error)
	}{
		NewFetchPriceHistory("price history payload"),
		NewFetchTimeSeries("time series payload"),
		NewSearchMacroCorpus("corpus excerpt payload"),
		NewFetchFREDSeries("fred series payload"),
	}

	names := map[string]bool{}
	for _, f := range fixtures {
		out, err := f.Invoke(context.Background(), map[string]any{"ticker": "SPY"})
		require.NoError(t, err)
		assert.NotEmpty(t, out)
		names[f.Name()] = true
	}

	assert.True(t, names["fetch_price_history"])
	assert.True(t, names["fetch_time_series"])
	assert.True(t, names["search_macro_corpus"])
	assert.True(t, names["fetch_fred_series"])
}

func TestMarketDataFixture_SchemaAndDescriptionPresent(t *testing.T) {
	f := NewFetchPriceHistory("x")
	assert.NotEmpty(t, f.Description())
	schema := f.ParametersSchema()
	assert.Equal(t, "object", schema["type"])
}
