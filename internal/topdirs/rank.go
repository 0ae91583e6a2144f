package topdirs

import "slices"

// Dedupe keeps the first record seen for each size and drops every later
// record with the same SizeGiB, whatever its path. Two unrelated directories
// with identical totals therefore collapse into one entry.
func Dedupe(records []Record) []Record {
	seen := make(map[float64]struct{}, len(records))
	kept := make([]Record, 0, len(records))

	for _, record := range records {
		if _, ok := seen[record.SizeGiB]; ok {
			continue
		}

		seen[record.SizeGiB] = struct{}{}
		kept = append(kept, record)
	}

	return kept
}

// Rank deduplicates records, sorts them largest first (ties keep arrival
// order) and keeps at most topN of them.
func Rank(records []Record, topN int) []Record {
	ranked := Dedupe(records)

	slices.SortStableFunc(ranked, func(a, b Record) int {
		switch {
		case a.SizeGiB > b.SizeGiB:
			return -1
		case a.SizeGiB < b.SizeGiB:
			return 1
		default:
			return 0
		}
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return ranked
}
