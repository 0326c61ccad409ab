package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trade-journal-lab/internal/domain"
)

func TestSplitDuplicates_KeepsFirstInIngestionOrder(t *testing.T) {
	a := &domain.Trade{ID: "1", Profit: 1}
	b := &domain.Trade{ID: "2", Profit: 2}
	again := &domain.Trade{ID: "1", Profit: 3}
	stored := &domain.Trade{ID: "9", Profit: 4}

	unique, dups := splitDuplicates([]*domain.Trade{b, a, again, stored}, map[string]struct{}{"9": {}})

	assert.Equal(t, []*domain.Trade{b, a}, unique)
	assert.Equal(t, []*domain.Trade{again, stored}, dups)
}
