package discover

import (
	"time"

	"go.uber.org/zap"

	"crossmap/internal/match"
	"crossmap/internal/table"
)

// Defaults for Options.
const (
	DefaultFuzzyLimit = 100
	DefaultNameWeight = 0.3
	DefaultWorkers    = 4
	// JoinConfidence is the minimum confidence for a join suggestion.
	JoinConfidence = 0.9
	maxSamplePairs = 5
)

// Options configures a discovery pass.
type Options struct {
	// Threshold is the minimum confidence for a candidate and the minimum
	// score for a fuzzy value hit.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// SampleLimit bounds distinct values profiled per column.
	SampleLimit int `yaml:"sample_limit" json:"sample_limit"`
	// FuzzyLimit bounds source values compared by similarity per pair.
	FuzzyLimit int `yaml:"fuzzy_limit" json:"fuzzy_limit"`
	// NameWeight scales the column-name bonus.
	NameWeight float64 `yaml:"name_weight" json:"name_weight"`
	// Workers bounds concurrently scored column pairs.
	Workers int `yaml:"workers" json:"workers"`
	// Timeout bounds a whole pass; zero means no limit.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Profiles are column snapshots keyed by table alias. Tables without
	// one are profiled at the start of the pass.
	Profiles map[string][]table.ColumnProfile `yaml:"-" json:"-"`

	Log *zap.Logger `yaml:"-" json:"-"`
}

// DefaultOptions returns the default discovery settings.
func DefaultOptions() Options {
	return Options{
		Threshold:   match.DefaultThreshold,
		SampleLimit: table.DefaultSampleLimit,
		FuzzyLimit:  DefaultFuzzyLimit,
		NameWeight:  DefaultNameWeight,
		Workers:     DefaultWorkers,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()

	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = d.Threshold
	}

	if o.SampleLimit <= 0 {
		o.SampleLimit = d.SampleLimit
	}

	if o.FuzzyLimit <= 0 {
		o.FuzzyLimit = d.FuzzyLimit
	}

	if o.NameWeight < 0 || o.NameWeight > 1 {
		o.NameWeight = d.NameWeight
	}

	if o.Workers <= 0 {
		o.Workers = 1
	}

	if o.Log == nil {
		o.Log = zap.NewNop()
	}

	return o
}
