package table

// DefaultSampleLimit bounds the distinct values kept per column profile.
const DefaultSampleLimit = 1000

// ColumnProfile is the immutable snapshot of one column taken at load time.
// Samples hold distinct non-null values in first-seen order; matching never
// depends on that order.
type ColumnProfile struct {
	FileID      string   `json:"file_id"`
	Column      string   `json:"column_name"`
	Type        Kind     `json:"inferred_type"`
	Samples     []string `json:"samples"`
	Cardinality int      `json:"cardinality"`
	NullCount   int      `json:"null_count"`
}

// Profile snapshots every column of t. sampleLimit <= 0 uses DefaultSampleLimit.
func (t *Table) Profile(sampleLimit int) []ColumnProfile {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleLimit
	}

	profiles := make([]ColumnProfile, 0, len(t.columns))

	for c, name := range t.columns {
		p := ColumnProfile{
			FileID: t.Alias,
			Column: name,
			Type:   t.kinds[c],
		}

		seen := make(map[string]struct{})

		for _, v := range t.data[c] {
			if v.Null {
				p.NullCount++
				continue
			}

			if _, ok := seen[v.Text]; ok {
				continue
			}

			seen[v.Text] = struct{}{}
			if len(p.Samples) < sampleLimit {
				p.Samples = append(p.Samples, v.Text)
			}
		}

		p.Cardinality = len(seen)
		profiles = append(profiles, p)
	}

	return profiles
}
