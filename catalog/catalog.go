package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/dbn-playground/errors"
)

// DefaultFetchConcurrency bounds concurrent example fetches.
const DefaultFetchConcurrency = 8

// Example is a named sample program. Its content is unset until the
// bootstrap fetch assigns it, and it is assigned at most once.
type Example struct {
	Name        string
	Description string
	content     atomic.Pointer[string]
}

// Content returns the fetched content and whether it was ever assigned.
func (e *Example) Content() (string, bool) {
	p := e.content.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// Text returns the content, or the empty string when it is unset.
func (e *Example) Text() string {
	s, _ := e.Content()
	return s
}

// Fetched reports whether content has been assigned.
func (e *Example) Fetched() bool {
	return e.content.Load() != nil
}

// assign sets content once; later calls are ignored and report false.
func (e *Example) assign(content string) bool {
	return e.content.CompareAndSwap(nil, &content)
}

// Catalog is an ordered list of examples with unique names. Order is fixed
// when the catalog is defined.
type Catalog struct {
	examples []*Example
	index    map[string]int
}

// New defines a catalog from names, in order.
func New(names ...string) (*Catalog, error) {
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Name: n}
	}
	return NewFromEntries(entries)
}

// Entry is a catalog definition record.
type Entry struct {
	Name        string
	Description string
}

// NewFromEntries defines a catalog from entries, in order.
func NewFromEntries(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		examples: make([]*Example, 0, len(entries)),
		index:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseConfig, "example name must not be empty")
		}
		if _, dup := c.index[e.Name]; dup {
			return nil, errors.New(errors.PhaseConfig, errors.KindDuplicate).
				Path(e.Name).
				Detail("example %q defined twice", e.Name).
				Build()
		}
		c.index[e.Name] = len(c.examples)
		c.examples = append(c.examples, &Example{Name: e.Name, Description: e.Description})
	}
	return c, nil
}

// MustNew is like New but panics on error. For tests and static catalogs.
func MustNew(names ...string) *Catalog {
	c, err := New(names...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.examples)
}

// Names returns example names in definition order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.examples))
	for i, e := range c.examples {
		names[i] = e.Name
	}
	return names
}

// Examples returns the examples in definition order.
func (c *Catalog) Examples() []*Example {
	out := make([]*Example, len(c.examples))
	copy(out, c.examples)
	return out
}

func (c *Catalog) Lookup(name string) (*Example, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.examples[i], true
}

// Suggest returns the catalog name closest to name by edit distance.
func (c *Catalog) Suggest(name string) (string, bool) {
	best, bestDist := "", -1
	for _, e := range c.examples {
		d := levenshtein.ComputeDistance(name, e.Name)
		if bestDist < 0 || d < bestDist {
			best, bestDist = e.Name, d
		}
	}
	if bestDist < 0 || bestDist > len(name)/2+2 {
		return "", false
	}
	return best, true
}

// FetchReport summarizes a catalog fetch.
type FetchReport struct {
	Failed   map[string]error
	Fetched  []string
	Skipped  []string
	Duration time.Duration
}

// OK reports whether every example was fetched.
func (r *FetchReport) OK() bool {
	return len(r.Failed) == 0
}

// FetchOptions tunes Fetch.
type FetchOptions struct {
	Logger      *zap.Logger
	Concurrency int
}

// Fetch loads the content of every example concurrently. A failed fetch
// leaves that example unset and is recorded in the report; it never fails
// the whole fetch. Examples that already have content are skipped.
func (c *Catalog) Fetch(ctx context.Context, f Fetcher, opts FetchOptions) *FetchReport {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultFetchConcurrency
	}

	start := time.Now()
	results := make([]error, len(c.examples))
	fetched := make([]bool, len(c.examples))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, ex := range c.examples {
		if ex.Fetched() {
			continue
		}
		g.Go(func() error {
			content, err := f.Fetch(ctx, ex.Name)
			if err != nil {
				results[i] = errors.FetchFailed(ex.Name, err)
				return nil
			}
			fetched[i] = ex.assign(content)
			return nil
		})
	}
	_ = g.Wait()

	report := &FetchReport{Failed: make(map[string]error)}
	for i, ex := range c.examples {
		switch {
		case results[i] != nil:
			report.Failed[ex.Name] = results[i]
			logger.Warn("example fetch failed", zap.String("example", ex.Name), zap.Error(results[i]))
		case fetched[i]:
			report.Fetched = append(report.Fetched, ex.Name)
		default:
			report.Skipped = append(report.Skipped, ex.Name)
		}
	}
	report.Duration = time.Since(start)

	logger.Info("catalog fetched",
		zap.Int("examples", len(c.examples)),
		zap.Int("fetched", len(report.Fetched)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("elapsed", report.Duration))

	return report
}
