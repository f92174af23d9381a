package engine

// ============================================================================
// FILTERS: Date range + categorical allow-lists over a Dataset
// ============================================================================
// Single-pass filter: checks ALL constraints per row in one loop.
// Category sets are tested before the date range since they are cheaper;
// the result does not depend on that order.
// Returns a Dataset holding an index list into the same storage.
// ============================================================================

// Filter returns the rows of ds matching every restriction in spec.
//   - Date range applies only when ds has a date column and both bounds are
//     set; it is inclusive on both ends and drops rows with a missing date.
//   - A category restriction applies when its list is non-empty and the
//     column exists; values match exactly, missing cells never match.
//
// With no applicable restriction the input is returned unchanged.
func Filter(ds *Dataset, spec FilterSpec) *Dataset {
	if ds == nil {
		return nil
	}

	type catFilter struct {
		cells []string
		set   map[string]bool
	}

	var cats []catFilter
	for col, allowed := range spec.Categories {
		if len(allowed) == 0 {
			continue
		}
		c := ds.colIndex(col)
		if c < 0 {
			continue
		}
		cats = append(cats, catFilter{cells: ds.data.raw[c], set: toSet(allowed)})
	}

	useDates := spec.HasDateRange() && ds.data.dateCol >= 0
	if len(cats) == 0 && !useDates {
		return ds
	}
	start, end := spec.DateStart.Time, spec.DateEnd.Time

	positions := make([]int, 0, ds.Len())
	for i, r := range ds.rows {
		pass := true
		for _, f := range cats {
			v, ok := categoryAt(f.cells, r)
			if !ok || !f.set[v] {
				pass = false
				break
			}
		}
		if pass && useDates {
			d := ds.data.dates[r]
			pass = d.Valid && !d.Time.Before(start) && !d.Time.After(end)
		}
		if pass {
			positions = append(positions, i)
		}
	}

	return ds.subset(positions)
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
