// Package tzindex answers period lookups for the zones of a tz database.
//
// Zones are compiled on first use and memoised. Concurrent first lookups of
// the same zone share one compilation.
package tzindex

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ngrash/tzperiod/tzc"
	"github.com/ngrash/tzperiod/tzdb"
	"github.com/ngrash/tzperiod/tzperiod"
)

// ErrNotFound is returned for names that are neither zones nor aliases.
var ErrNotFound = fmt.Errorf("zone %w", tzdb.ErrNotFound)

// maxOffset bounds the distance between a local time and universal time.
const maxOffset = 26 * 60 * 60

// Index is safe for concurrent use.
type Index struct {
	db     *tzdb.DB
	logger *slog.Logger
	opts   tzc.Options

	mu      sync.RWMutex
	periods map[string][]tzperiod.Period
	group   singleflight.Group
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = l
	}
}

// WithCompileOptions sets the options zones are compiled with.
func WithCompileOptions(opts tzc.Options) Option {
	return func(idx *Index) {
		idx.opts = opts
	}
}

// WithCache seeds the index with compiled timelines keyed by canonical
// zone name, for example tables read by package tzcache. Entries for names
// that are not canonical zones of the database are ignored.
func WithCache(tables map[string][]tzperiod.Period) Option {
	return func(idx *Index) {
		for name, ps := range tables {
			if _, ok := idx.db.Zone(name); ok {
				idx.periods[name] = ps
			}
		}
	}
}

// New returns an index over db.
func New(db *tzdb.DB, opts ...Option) *Index {
	idx := &Index{
		db:      db,
		logger:  slog.Default(),
		periods: make(map[string][]tzperiod.Period),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.opts.Logger == nil {
		idx.opts.Logger = idx.logger
	}
	return idx
}

// ZoneExists reports whether name is a zone or an alias.
func (idx *Index) ZoneExists(name string) bool {
	_, ok := idx.db.Canonical(name)
	return ok
}

// CanonicalZone reports whether name is a canonical zone.
func (idx *Index) CanonicalZone(name string) bool {
	_, ok := idx.db.Zone(name)
	return ok
}

// ZoneAlias reports whether name is an alias of another zone.
func (idx *Index) ZoneAlias(name string) bool {
	c, ok := idx.db.Canonical(name)
	return ok && c != name
}

// ZoneList returns all zone and alias names, sorted.
func (idx *Index) ZoneList() []string { return idx.db.ZoneAndLinkList() }

// CanonicalZoneList returns the canonical zone names, sorted.
func (idx *Index) CanonicalZoneList() []string { return idx.db.ZoneList() }

// ZoneAliasList returns the alias names, sorted.
func (idx *Index) ZoneAliasList() []string { return idx.db.LinkList() }

// Links returns the map from alias to canonical zone name.
func (idx *Index) Links() map[string]string { return idx.db.Links() }

// TZDataVersion returns the release version of the database.
func (idx *Index) TZDataVersion() string { return idx.db.Version() }

// LeapSeconds returns the leap seconds in chronological order.
func (idx *Index) LeapSeconds() []tzdb.LeapSecond { return idx.db.LeapSeconds() }

// IsLeapSecond reports whether a leap second occurs at the end of the given day.
func (idx *Index) IsLeapSecond(year int, month time.Month, day int) bool {
	return idx.db.IsLeapSecond(year, month, day)
}

// Periods returns the whole timeline of the named zone or alias.
// The slice is shared and must not be modified.
func (idx *Index) Periods(name string) ([]tzperiod.Period, error) {
	canonical, ok := idx.db.Canonical(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if ps, ok := idx.cached(canonical); ok {
		return ps, nil
	}
	v, err, _ := idx.group.Do(canonical, func() (any, error) {
		if ps, ok := idx.cached(canonical); ok {
			return ps, nil
		}
		ps, err := tzc.CompileZone(idx.db, canonical, idx.opts)
		if err != nil {
			return nil, err
		}
		idx.mu.Lock()
		idx.periods[canonical] = ps
		idx.mu.Unlock()
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]tzperiod.Period), nil
}

func (idx *Index) cached(canonical string) ([]tzperiod.Period, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ps, ok := idx.periods[canonical]
	return ps, ok
}

// PeriodsForTime returns the periods of the named zone that contain t read
// in frame f. In the UTC frame there is always exactly one. In the wall and
// standard frames there are two for repeated times and none for skipped ones.
func (idx *Index) PeriodsForTime(name string, t tzperiod.Time, f tzperiod.Frame) ([]tzperiod.Period, error) {
	ps, err := idx.Periods(name)
	if err != nil {
		return nil, err
	}
	var matches []tzperiod.Period
	for _, p := range candidates(ps, t, f) {
		if p.Contains(t, f) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// candidates returns the periods that can contain t in frame f.
func candidates(ps []tzperiod.Period, t tzperiod.Time, f tzperiod.Frame) []tzperiod.Period {
	lo, hi := t, t
	if f != tzperiod.UTC {
		lo, hi = t.Add(-maxOffset), t.Add(maxOffset)
	}
	i := sort.Search(len(ps), func(i int) bool {
		u := ps[i].Until.UTC
		return u > lo || u == tzperiod.Max
	})
	j := i
	for j < len(ps) && ps[j].From.UTC <= hi {
		j++
	}
	return ps[i:j]
}

// Resolve classifies t read in frame f in the named zone.
func (idx *Index) Resolve(name string, t tzperiod.Time, f tzperiod.Frame) (tzperiod.Result, error) {
	ps, err := idx.Periods(name)
	if err != nil {
		return nil, err
	}
	cs := candidates(ps, t, f)
	var matches []tzperiod.Period
	for _, p := range cs {
		if p.Contains(t, f) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		for i := len(cs) - 2; i >= 0; i-- {
			if cs[i].Until.In(f) <= t {
				return tzperiod.Gap{Before: cs[i], After: cs[i+1]}, nil
			}
		}
		return nil, fmt.Errorf("zone %s: no period around %v %v", name, t, f)
	case 1:
		return tzperiod.Unambiguous{Period: matches[0]}, nil
	default:
		return tzperiod.Ambiguous{Earlier: matches[0], Later: matches[len(matches)-1]}, nil
	}
}

// Preload compiles every zone that is not yet in the index.
func (idx *Index) Preload(ctx context.Context) error {
	start := time.Now()
	compiled, err := tzc.Compile(ctx, idx.db, idx.opts)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for name, ps := range compiled {
		if _, ok := idx.periods[name]; !ok {
			idx.periods[name] = ps
		}
	}
	idx.logger.Debug("preloaded zones", slog.Int("zones", len(compiled)), slog.Duration("duration", time.Since(start)))
	return nil
}

// Tables returns the timelines compiled so far keyed by canonical zone name.
func (idx *Index) Tables() map[string][]tzperiod.Period {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	m := make(map[string][]tzperiod.Period, len(idx.periods))
	for name, ps := range idx.periods {
		m[name] = ps
	}
	return m
}
