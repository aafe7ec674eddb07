package breadth

import (
	"math"
	"time"
)

// Item labels as published by the upstream market-activity feed.
// Labels not listed here are carried through the pipeline untouched.
const (
	ItemActivity  = "活跃度"  // market activity percentage
	ItemAdvancing = "上涨"   // advancing instruments
	ItemDeclining = "下跌"   // declining instruments
	ItemUnchanged = "平盘"   // unchanged instruments
	ItemSuspended = "停牌"   // suspended instruments
	ItemLimitUp   = "真实涨停" // genuine limit-up count
)

// SnapshotRow is one observation as retrieved from the upstream feed.
// Value is kept raw: it may be a plain number or a percent-suffixed
// string such as "12.3%".
type SnapshotRow struct {
	Item      string
	Value     string
	Timestamp time.Time
	Date      time.Time
}

// Observation is a snapshot row after the cleaning pass. Value is NaN
// when the raw value could not be coerced; consumers must treat NaN as
// missing data, never as zero.
type Observation struct {
	Date  time.Time
	Item  string
	Value float64
}

// Missing reports whether the observation carries no usable value.
func (o Observation) Missing() bool {
	return math.IsNaN(o.Value)
}

// Sentiment is the categorical market-sentiment label derived from the
// latest day's indicators.
type Sentiment int

const (
	SentimentNeutral Sentiment = iota
	SentimentStronglyBullish
	SentimentMildlyBullish
	SentimentCautiouslyBearish
)

// String returns the human-readable label for the sentiment.
func (s Sentiment) String() string {
	switch s {
	case SentimentStronglyBullish:
		return "strongly bullish"
	case SentimentMildlyBullish:
		return "mildly bullish"
	case SentimentCautiouslyBearish:
		return "cautiously bearish"
	default:
		return "neutral / choppy"
	}
}

// AnalysisResult is the ephemeral outcome of classifying the latest
// day in a window. It is recomputed each run and never persisted.
type AnalysisResult struct {
	Date             time.Time
	TotalInstruments float64
	RiseRatio        float64
	ActivityLevel    float64
	LimitUpCount     int
	Sentiment        Sentiment
}
