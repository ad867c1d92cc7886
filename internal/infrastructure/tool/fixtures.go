package tool

import "context"

// MarketDataFixture is a canned agent.Tool for one of the four
// macro/price tool names named in §4.1's data-heavy set. Market-data
// ingestion is an explicit non-goal, so this returns a fixed string
// rather than reaching any real provider; it exists to let the Agent
// Runtime's tool-call loop and compression path (agent.Compressor) run
// end to end against something other than symphony_save in tests.
type MarketDataFixture struct {
	name        string
	description string
	schema      map[string]any
	result      string
}

// NewFetchPriceHistory returns the fetch_price_history fixture tool,
// whose result is a long string by construction so tests can exercise
// the compression threshold.
func NewFetchPriceHistory(result string) *MarketDataFixture {
	return &MarketDataFixture{
		name:        "fetch_price_history",
		description: "Returns daily OHLC price history for a ticker over a date range.",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ticker":     map[string]any{"type": "string"},
				"start_date": map[string]any{"type": "string"},
				"end_date":   map[string]any{"type": "string"},
			},
			"required": []string{"ticker", "start_date", "end_date"},
		},
		result: result,
	}
}

// NewFetchTimeSeries returns the fetch_time_series fixture tool.
func NewFetchTimeSeries(result string) *MarketDataFixture {
	return &MarketDataFixture{
		name:        "fetch_time_series",
		description: "Returns a named macro or market time series over a date range.",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"series_id":  map[string]any{"type": "string"},
				"start_date": map[string]any{"type": "string"},
				"end_date":   map[string]any{"type": "string"},
			},
			"required": []string{"series_id"},
		},
		result: result,
	}
}

// NewSearchMacroCorpus returns the search_macro_corpus fixture tool.
func NewSearchMacroCorpus(result string) *MarketDataFixture {
	return &MarketDataFixture{
		name:        "search_macro_corpus",
		description: "Searches a corpus of macro research notes and returns matching excerpts.",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
			"required": []string{"query"},
		},
		result: result,
	}
}

// NewFetchFREDSeries returns the fetch_fred_series fixture tool.
func NewFetchFREDSeries(result string) *MarketDataFixture {
	return &MarketDataFixture{
		name:        "fetch_fred_series",
		description: "Returns a FRED economic data series by series ID.",
		schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"series_id": map[string]any{"type": "string"},
			},
			"required": []string{"series_id"},
		},
		result: result,
	}
}

func (f *MarketDataFixture) Name() string                     { return f.name }
func (f *MarketDataFixture) Description() string               { return f.description }
func (f *MarketDataFixture) ParametersSchema() map[string]any { return f.schema }

func (f *MarketDataFixture) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return f.result, nil
}
