// Package validator implements the Strategy Validator (C2): structural
// and semantic checks producing classified ValidationErrors with fix
// guidance (§4.3).
package validator

// ThesisToleranceRel is the relative tolerance used when matching a
// numeric threshold parsed from thesis_document against thresholds
// appearing in logic_tree conditions (§4.3, §9 Open Question — fixed
// here at ±20% per SPEC_FULL.md §12).
const ThesisToleranceRel = 0.20

// SignalOnlyAllowList are tickers that may appear inside a logic_tree
// condition without being a member of strategy.assets (§4.3, §9 Open
// Question — decided as package data per SPEC_FULL.md §12). These are
// broad-market and volatility proxies used purely as trend/regime
// signals, never held.
var SignalOnlyAllowList = map[string]bool{
	"SPY":  true,
	"QQQ":  true,
	"VIXY": true,
	"VIXM": true,
	"VXX":  true,
	"UVXY": true,
	"TLT":  true,
	"IWM":  true,
}

// LeveragedETFs are 2x/3x leveraged or inverse ETFs requiring the
// convexity/decay + drawdown + benchmark leverage-justification triad in
// thesis_document (§4.3).
var LeveragedETFs = map[string]bool{
	"TQQQ": true,
	"SQQQ": true,
	"UPRO": true,
	"SPXU": true,
	"TMF":  true,
	"TMV":  true,
	"UVXY": true,
	"SVXY": true,
	"SOXL": true,
	"SOXS": true,
}

// ApprovedAbsolutePriceProxies is the allow-list of tickers for which an
// absolute `*_price > X` comparison is a valid condition operand (§4.3
// "Absolute-threshold whitelist"). Every other ticker may only be
// compared relatively (vs its own moving average, or cross-asset).
var ApprovedAbsolutePriceProxies = map[string]bool{
	"VIXY": true,
	"VIXM": true,
	"VXX":  true,
	"UVXY": true,
}

// VolatilityProxyTickers is the subset of ApprovedAbsolutePriceProxies
// whose use in a condition triggers the VIXY-thesis-alignment check
// (§4.3, §4.4 scenario 4 in §8).
var VolatilityProxyTickers = map[string]bool{
	"VIXY": true,
	"VIXM": true,
	"VXX":  true,
	"UVXY": true,
}

// VolatilityKeywords is the closed, case-insensitive, word-boundary
// vocabulary that must appear in thesis_document or rebalancing_rationale
// when a condition references a volatility proxy (§4.3).
var VolatilityKeywords = []string{
	"vix",
	"vixy",
	"volatility",
	"vol regime",
	"vol spike",
}

// LeverageJustificationTerms is the triad every leveraged-ETF thesis must
// mention (§4.3): convexity OR decay, plus drawdown, plus benchmark.
var LeverageJustificationTerms = map[string][]string{
	"convexity_or_decay": {"convexity", "decay"},
	"drawdown":           {"drawdown"},
	"benchmark":          {"benchmark"},
}

// sectorOf is a minimal ticker-to-sector map sufficient to evaluate the
// single-sector concentration rule (§4.3) against the tickers this
// domain's example strategies reference. A production system would
// source this from a market-data provider; it is out of scope here
// (§1 Non-goals: market-data ingestion).
var sectorOf = map[string]string{
	"XLK": "technology", "QQQ": "technology", "TQQQ": "technology", "SQQQ": "technology", "SOXL": "technology", "SOXS": "technology",
	"XLF": "financials",
	"XLE": "energy",
	"XLV": "healthcare",
	"XLY": "consumer_discretionary",
	"XLP": "consumer_staples",
	"XLI": "industrials",
	"XLU": "utilities",
	"XLB": "materials",
	"XLRE": "real_estate",
	"SPY": "broad_market", "IWM": "broad_market", "AGG": "fixed_income", "TLT": "fixed_income", "TMF": "fixed_income", "TMV": "fixed_income",
	"GLD": "commodities", "VIXY": "volatility", "VIXM": "volatility", "VXX": "volatility", "UVXY": "volatility", "SVXY": "volatility",
}

// SectorOf returns the configured sector for ticker, or "unknown" if not
// in the table.
func SectorOf(ticker string) string {
	if s, ok := sectorOf[ticker]; ok {
		return s
	}
	return "unknown"
}

// DeployableUniverse is every ticker this configuration knows how to
// place a trade in, used by Deploy's blocking audit (§4.5 step 2: "every
// branch ticker is on the deployable universe"). Built from sectorOf
// plus the allow-lists above so a single sector/leverage/proxy addition
// automatically widens the deployable set.
var DeployableUniverse = buildDeployableUniverse()

func buildDeployableUniverse() map[string]bool {
	universe := map[string]bool{}
	for t := range sectorOf {
		universe[t] = true
	}
	for t := range SignalOnlyAllowList {
		universe[t] = true
	}
	for t := range LeveragedETFs {
		universe[t] = true
	}
	for t := range ApprovedAbsolutePriceProxies {
		universe[t] = true
	}
	return universe
}
