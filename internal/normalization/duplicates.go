package normalization

import "trade-journal-lab/internal/domain"

// splitDuplicates keeps the first trade for each ID. Later trades with an ID
// already seen, or already present in existing, are returned as duplicates.
func splitDuplicates(trades []*domain.Trade, existing map[string]struct{}) (unique, dups []*domain.Trade) {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if _, ok := existing[t.ID]; ok {
			dups = append(dups, t)
			continue
		}
		if _, ok := seen[t.ID]; ok {
			dups = append(dups, t)
			continue
		}
		seen[t.ID] = struct{}{}
		unique = append(unique, t)
	}
	return unique, dups
}
