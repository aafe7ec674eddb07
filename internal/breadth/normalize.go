package breadth

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumeric coerces a raw field value into a float64. Percent signs
// are stripped anywhere in the string before parsing, so "12.3%"
// yields 12.3. Values that still fail to parse yield NaN rather than
// an error; the caller must treat NaN as missing data, not as zero.
func ParseNumeric(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "%", "")
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Clean applies the numeric coercion element-wise over a batch of
// snapshot rows, producing observations ready for window filtering.
func Clean(rows []SnapshotRow) []Observation {
	obs := make([]Observation, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, Observation{
			Date:  r.Date,
			Item:  r.Item,
			Value: ParseNumeric(r.Value),
		})
	}
	return obs
}
