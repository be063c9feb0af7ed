package harvest

// FilterSpec is the set of accepted top-level region names. An empty set
// accepts everything.
type FilterSpec struct {
	Regions []string
}

// Empty reports whether the set imposes no restriction.
func (s FilterSpec) Empty() bool {
	return len(s.Regions) == 0
}

// Filter keeps a record iff its path is non-empty and its top-level segment
// is in the region set. Must run after Normalize so inherited paths count.
func Filter(records []Record, spec FilterSpec) []Record {
	if spec.Empty() {
		return records
	}
	accepted := make(map[string]struct{}, len(spec.Regions))
	for _, r := range spec.Regions {
		accepted[r] = struct{}{}
	}
	out := records[:0:0]
	for _, rec := range records {
		if len(rec.Climb.PathTokens) == 0 {
			continue
		}
		if _, ok := accepted[rec.Climb.PathTokens.Country()]; ok {
			out = append(out, rec)
		}
	}
	return out
}
