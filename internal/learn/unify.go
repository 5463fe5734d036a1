package learn

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/purs3lab/arbitrar/internal/database"
)

// UnifiedKeys is the unified feature vocabulary across a pool: the union of
// causality keys observed in every feature document, in sorted order. The
// external training stage consumes it as unified.json.
type UnifiedKeys struct {
	InvokedBefore []string `json:"invoked_before"`
	InvokedAfter  []string `json:"invoked_after"`
}

// UnifyFeatures loads the feature document of every data point (with at
// most workers concurrent reads), unifies their causality vocabularies, and
// encodes each document into a flat vector over the unified key space:
// invoked-before flags, then invoked-after flags, then the return-value
// checked flag. The result is index-aligned with points.
func UnifyFeatures(points []*database.DataPoint, workers int) (UnifiedKeys, [][]float64, error) {
	if workers <= 0 {
		workers = 4
	}
	docs := make([]database.Document, len(points))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, dp := range points {
		g.Go(func() error {
			doc, err := dp.Feature()
			if err != nil {
				return fmt.Errorf("feature for %s: %w", dp, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return UnifiedKeys{}, nil, err
	}

	beforeSet := map[string]bool{}
	afterSet := map[string]bool{}
	for _, doc := range docs {
		for fn := range invokedMap(doc, "invoked_before") {
			beforeSet[fn] = true
		}
		for fn := range invokedMap(doc, "invoked_after") {
			afterSet[fn] = true
		}
	}
	unified := UnifiedKeys{
		InvokedBefore: sortedKeys(beforeSet),
		InvokedAfter:  sortedKeys(afterSet),
	}

	xs := make([][]float64, len(docs))
	for i, doc := range docs {
		xs[i] = encodeFeature(doc, unified)
	}
	return unified, xs, nil
}

// encodeFeature flattens one feature document over the unified vocabulary.
func encodeFeature(doc database.Document, unified UnifiedKeys) []float64 {
	before := invokedMap(doc, "invoked_before")
	after := invokedMap(doc, "invoked_after")

	x := make([]float64, 0, len(unified.InvokedBefore)+len(unified.InvokedAfter)+1)
	for _, fn := range unified.InvokedBefore {
		x = append(x, boolFlag(before[fn]))
	}
	for _, fn := range unified.InvokedAfter {
		x = append(x, boolFlag(after[fn]))
	}
	x = append(x, boolFlag(retvalChecked(doc)))
	return x
}

func boolFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
