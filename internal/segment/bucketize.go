package segment

import (
	"sort"
	"time"

	"trade-journal-lab/internal/domain"
	"trade-journal-lab/internal/metrics"
)

// Options configures bucketing.
type Options struct {
	// Location in which hour, weekday, session, day and month are evaluated.
	// Defaults to UTC.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Bucketize partitions trades along dim and aggregates each non-empty bucket.
// Buckets are returned in enumeration order. Trades lacking the data dim
// needs are counted in Excluded, so the bucket counts plus Excluded always
// equal len(trades). The input is not modified.
func Bucketize(trades []*domain.Trade, dim domain.Dimension, opts Options) domain.Breakdown {
	loc := opts.location()

	groups := make(map[string][]*domain.Trade)
	keys := make(map[string]bucketKey)
	excluded := 0
	for _, t := range trades {
		k, ok := keyFor(t, dim, loc)
		if !ok {
			excluded++
			continue
		}
		if _, seen := keys[k.key]; !seen {
			keys[k.key] = k
		}
		groups[k.key] = append(groups[k.key], t)
	}

	ordered := make([]bucketKey, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, k)
	}
	if sortsByKey(dim) {
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].key < ordered[j].key })
		for i := range ordered {
			ordered[i].order = i
		}
	} else {
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })
	}

	buckets := make([]domain.Bucket, len(ordered))
	for i, k := range ordered {
		buckets[i] = domain.Bucket{
			Key:    k.key,
			Label:  k.label,
			Order:  k.order,
			Result: metrics.Compute(groups[k.key]),
		}
	}

	return domain.Breakdown{Dimension: dim, Buckets: buckets, Excluded: excluded}
}

// sortsByKey reports whether dim enumerates its buckets by key. Symbols sort
// alphabetically; ISO dates and months sort chronologically.
func sortsByKey(dim domain.Dimension) bool {
	switch dim {
	case domain.DimensionInstrument, domain.DimensionDay, domain.DimensionMonth:
		return true
	}
	return false
}

// BucketizeAll runs Bucketize for every dimension in report order.
func BucketizeAll(trades []*domain.Trade, opts Options) []domain.Breakdown {
	out := make([]domain.Breakdown, len(domain.AllDimensions))
	for i, dim := range domain.AllDimensions {
		out[i] = Bucketize(trades, dim, opts)
	}
	return out
}

// Best returns the bucket with the highest net profit. Ties go to the bucket
// earliest in enumeration order. ok is false for an empty breakdown.
func Best(b domain.Breakdown) (domain.Bucket, bool) {
	return pick(b, func(candidate, current float64) bool { return candidate > current })
}

// Worst returns the bucket with the lowest net profit. Ties go to the bucket
// earliest in enumeration order. ok is false for an empty breakdown.
func Worst(b domain.Breakdown) (domain.Bucket, bool) {
	return pick(b, func(candidate, current float64) bool { return candidate < current })
}

func pick(b domain.Breakdown, better func(candidate, current float64) bool) (domain.Bucket, bool) {
	if len(b.Buckets) == 0 {
		return domain.Bucket{}, false
	}
	best := b.Buckets[0]
	for _, bucket := range b.Buckets[1:] {
		if better(bucket.Result.NetProfit, best.Result.NetProfit) {
			best = bucket
		}
	}
	return best, true
}

// Ranked returns the buckets by net profit, highest first. Equal profits keep
// enumeration order. The breakdown is not modified.
func Ranked(b domain.Breakdown) []domain.Bucket {
	ranked := make([]domain.Bucket, len(b.Buckets))
	copy(ranked, b.Buckets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.NetProfit > ranked[j].Result.NetProfit
	})
	return ranked
}
