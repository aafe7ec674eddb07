package breadth

import (
	"github.com/shopspring/decimal"
)

// Sentiment rule thresholds. The rule set is fixed; ranges overlap by
// construction, so evaluation order is the semantic tie-break.
const (
	strongRiseRatio  = 60
	strongLimitUp    = 50
	mildRiseRatio    = 50
	mildLimitUp      = 30
	bearishRiseRatio = 40
	bearishLimitUp   = 20
)

// Classify derives the sentiment analysis result from a window of
// cleaned observations. Only the single day equal to the maximum date
// in the window is consulted; earlier days exist for trend rendering.
//
// Classification never fails: missing items leave their fields at the
// zero defaults and the label is still computed from whatever remains.
func Classify(window []Observation) AnalysisResult {
	result := AnalysisResult{Sentiment: SentimentNeutral}
	if len(window) == 0 {
		return result
	}

	latest := LatestDate(window)
	result.Date = latest

	day := make([]Observation, 0, 16)
	for _, o := range window {
		if o.Date.Equal(latest) {
			day = append(day, o)
		}
	}

	rise, riseOK := extract(day, ItemAdvancing)
	fall, fallOK := extract(day, ItemDeclining)
	flat, flatOK := extract(day, ItemUnchanged)
	susp, suspOK := extract(day, ItemSuspended)

	// All four counts are required to derive the ratio; otherwise the
	// zero defaults stand and classification proceeds regardless.
	if riseOK && fallOK && flatOK && suspOK {
		total := rise + fall + flat + susp
		result.TotalInstruments = total
		if total > 0 {
			result.RiseRatio = round2(rise / total * 100)
		}
	}

	if activity, ok := extract(day, ItemActivity); ok {
		result.ActivityLevel = round2(activity)
	}
	if limitUp, ok := extract(day, ItemLimitUp); ok {
		result.LimitUpCount = int(limitUp)
	}

	switch {
	case result.RiseRatio > strongRiseRatio && result.LimitUpCount > strongLimitUp:
		result.Sentiment = SentimentStronglyBullish
	case result.RiseRatio > mildRiseRatio && result.LimitUpCount > mildLimitUp:
		result.Sentiment = SentimentMildlyBullish
	case result.RiseRatio < bearishRiseRatio && result.LimitUpCount < bearishLimitUp:
		result.Sentiment = SentimentCautiouslyBearish
	default:
		result.Sentiment = SentimentNeutral
	}

	return result
}

// extract returns the value for the given item label within a single
// day's observations. When the feed delivered the item more than once,
// the last occurrence wins, mirroring the store's dedup semantics.
// Missing items and unparseable values report ok=false.
func extract(day []Observation, item string) (float64, bool) {
	var value float64
	found := false
	for _, o := range day {
		if o.Item != item || o.Missing() {
			continue
		}
		value = o.Value
		found = true
	}
	return value, found
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
