package config

import (
	"time"

	"github.com/nao1215/phishguard/internal/reference"
)

// FetchSettings configures page-text sampling.
type FetchSettings struct {
	// Enabled turns sampling on or off. Nil leaves the default.
	Enabled *bool `yaml:"enabled,omitempty"`

	Timeout            time.Duration `yaml:"timeout,omitempty"`
	TextWait           time.Duration `yaml:"textWait,omitempty"`
	Proxy              string        `yaml:"proxy,omitempty"`
	UserAgent          string        `yaml:"userAgent,omitempty"`
	RateLimit          float64       `yaml:"rateLimit,omitempty"`
	MaxBodySize        int64         `yaml:"maxBodySize,omitempty"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify,omitempty"`
}

// TrainingSettings configures model training.
type TrainingSettings struct {
	Trees    int     `yaml:"trees,omitempty"`
	MaxDepth int     `yaml:"maxDepth,omitempty"`
	Seed     *uint64 `yaml:"seed,omitempty"`
}

// File represents the structure of the .phishguard configuration file.
type File struct {
	Fetch       FetchSettings    `yaml:"fetch,omitempty"`
	Training    TrainingSettings `yaml:"training,omitempty"`
	Concurrency int              `yaml:"concurrency,omitempty"`
	ModelDir    string           `yaml:"modelDir,omitempty"`
	DataDir     string           `yaml:"dataDir,omitempty"`

	// DisableReference turns off the built-in table of known URLs.
	DisableReference bool `yaml:"disableReference,omitempty"`

	// Reference adds URLs with known verdicts. They take precedence over
	// the built-in table.
	Reference []reference.Entry `yaml:"reference,omitempty"`
}

// ReferenceTable returns the entries of the Reference section as a table.
func (f *File) ReferenceTable() (*reference.Table, error) {
	if f == nil || len(f.Reference) == 0 {
		return reference.Empty(), nil
	}
	return reference.New(f.Reference...)
}

// Apply copies every setting present in f onto c. Zero values in f are
// treated as unset.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	c.File = f

	if f.Fetch.Enabled != nil {
		c.FetchText = *f.Fetch.Enabled
	}
	if f.Fetch.Timeout > 0 {
		c.Timeout = f.Fetch.Timeout
	}
	if f.Fetch.TextWait > 0 {
		c.TextWait = f.Fetch.TextWait
	}
	if f.Fetch.Proxy != "" {
		c.ProxyAddress = f.Fetch.Proxy
	}
	if f.Fetch.UserAgent != "" {
		c.UserAgent = f.Fetch.UserAgent
	}
	if f.Fetch.RateLimit > 0 {
		c.RateLimit = f.Fetch.RateLimit
	}
	if f.Fetch.MaxBodySize > 0 {
		c.MaxBodySize = f.Fetch.MaxBodySize
	}
	if f.Fetch.InsecureSkipVerify {
		c.InsecureSkipVerify = true
	}

	if f.Training.Trees > 0 {
		c.Trees = f.Training.Trees
	}
	if f.Training.MaxDepth > 0 {
		c.MaxDepth = f.Training.MaxDepth
	}
	if f.Training.Seed != nil {
		c.Seed = *f.Training.Seed
	}

	if f.Concurrency > 0 {
		c.Concurrency = f.Concurrency
	}
	if f.ModelDir != "" {
		c.ModelDir = f.ModelDir
	}
	if f.DataDir != "" {
		c.DBDir = f.DataDir
	}
	if f.DisableReference {
		c.UseReference = false
	}
}
