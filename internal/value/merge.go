package value

// Merge deep-merges override onto base and returns the result. Neither input
// is modified.
//
// When both sides are tables the result holds the union of their keys, and
// keys present on both sides are merged recursively. In every other case
// override replaces base outright: sequences are not merged element-wise, and
// a table may replace a scalar (or the reverse) without complaint.
func Merge(base, override Value) Value {
	baseTable, baseOK := base.AsTable()
	overrideTable, overrideOK := override.AsTable()
	if !baseOK || !overrideOK {
		return override.Clone()
	}
	return TableOf(mergeTables(baseTable, overrideTable))
}

func mergeTables(base, override Table) Table {
	out := base.Clone()
	if out == nil {
		out = make(Table, len(override))
	}
	for key, ov := range override {
		if bv, exists := out[key]; exists {
			out[key] = Merge(bv, ov)
			continue
		}
		out[key] = ov.Clone()
	}
	return out
}

// MergeAll folds layers from lowest to highest precedence, starting from an
// empty table.
func MergeAll(layers ...Value) Value {
	result := EmptyTable()
	for _, layer := range layers {
		result = Merge(result, layer)
	}
	return result
}
