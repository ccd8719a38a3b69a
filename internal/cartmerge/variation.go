package cartmerge

import (
	"slices"
	"strconv"
	"strings"
)

// VariationSet is an order-independent set of variation ids.
type VariationSet struct {
	ids []uint
}

func NewVariationSet(ids ...uint) VariationSet {
	if len(ids) == 0 {
		return VariationSet{}
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return VariationSet{ids: slices.Compact(sorted)}
}

func (s VariationSet) Equal(o VariationSet) bool {
	return slices.Equal(s.ids, o.ids)
}

// Key is a canonical string for the set, usable as a map key.
func (s VariationSet) Key() string {
	var b strings.Builder
	for i, id := range s.ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

// LineKey identifies a cart line: same product and same variation set.
func LineKey(productID uint, set VariationSet) string {
	return strconv.FormatUint(uint64(productID), 10) + "|" + set.Key()
}
