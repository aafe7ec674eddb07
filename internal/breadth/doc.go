// Package breadth holds the market-breadth domain core: the snapshot
// and observation types, numeric normalization, rolling-window
// selection, and the rule-based sentiment classifier.
//
// The pipeline shape is fetch -> persist -> clean -> window -> classify.
// This package owns the clean/window/classify steps; persistence lives
// in internal/store and the upstream boundary in internal/fetch.
//
// Normalization turns raw string values (possibly percent-suffixed,
// like "12.3%") into float64s, with NaN as the explicit missing-value
// sentinel. Classification consumes only the latest day in the window
// and never fails: missing indicators leave their fields at zero
// defaults and the fixed rule set still produces a label.
//
// Example:
//
//	window, err := breadth.SelectWindow(breadth.Clean(history), time.Now(), 60)
//	if err != nil {
//		// no data in the window; skip analysis
//	}
//	result := breadth.Classify(window)
//	fmt.Println(result.Sentiment)
package breadth
