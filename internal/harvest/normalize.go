package harvest

// Normalize reconciles each climb's missing fields from its containing
// area: an empty path inherits the area's path tokens, and a missing
// latitude inherits the area's latitude and longitude together. Inheritance
// is best-effort; a record with no coordinate anywhere keeps nil and is
// never dropped. Fields already populated are left alone, so applying
// Normalize twice is the same as applying it once.
func Normalize(records []Record) []Record {
	for i := range records {
		rec := &records[i]
		if len(rec.Climb.PathTokens) == 0 && len(rec.Area.PathTokens) > 0 {
			rec.Climb.PathTokens = append(PartitionKey(nil), rec.Area.PathTokens...)
		}
		if rec.Climb.Metadata.Lat == nil && rec.Area.Metadata.Lat != nil {
			rec.Climb.Metadata.Lat = copyFloat(rec.Area.Metadata.Lat)
			rec.Climb.Metadata.Lng = copyFloat(rec.Area.Metadata.Lng)
		}
	}
	return records
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
