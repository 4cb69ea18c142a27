// Package tzc compiles the zones of a tz database into period timelines
// and TZif files.
package tzc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ngrash/tzperiod/internal/tzir"
	"github.com/ngrash/tzperiod/tzdata"
	"github.com/ngrash/tzperiod/tzdb"
	"github.com/ngrash/tzperiod/tzif"
	"github.com/ngrash/tzperiod/tzperiod"
)

// Options control compilation. The zero value expands rules from 1900
// through 2203 and logs to slog.Default().
type Options struct {
	MinYear int
	MaxYear int
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// CompileZone returns the periods of the named zone. Aliases compile to the
// periods of their canonical zone.
func CompileZone(db *tzdb.DB, name string, opts Options) ([]tzperiod.Period, error) {
	canonical, ok := db.Canonical(name)
	if !ok {
		return nil, fmt.Errorf("zone %q: %w", name, tzdb.ErrNotFound)
	}
	z, _ := db.Zone(canonical)

	start := time.Now()
	ps, err := tzir.Build(z, db, tzir.Options{MinYear: opts.MinYear, MaxYear: opts.MaxYear})
	if err != nil {
		return nil, fmt.Errorf("compiling zone %s: %w", canonical, err)
	}
	if err := tzperiod.Validate(ps); err != nil {
		return nil, fmt.Errorf("compiling zone %s: %w", canonical, err)
	}
	opts.logger().Debug("compiled zone",
		slog.String("zone", canonical),
		slog.Int("periods", len(ps)),
		slog.Duration("duration", time.Since(start)))
	return ps, nil
}

// Compile compiles every canonical zone of db concurrently.
func Compile(ctx context.Context, db *tzdb.DB, opts Options) (map[string][]tzperiod.Period, error) {
	var (
		mu     sync.Mutex
		result = make(map[string][]tzperiod.Period)
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range db.ZoneList() {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ps, err := CompileZone(db, name, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			result[name] = ps
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// CompileTZif compiles every zone of db to a TZif file. The result holds an
// entry for each canonical zone and each alias.
func CompileTZif(ctx context.Context, db *tzdb.DB, opts Options) (map[string][]byte, error) {
	compiled, err := Compile(ctx, db, opts)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]byte, len(compiled))
	for name, ps := range compiled {
		b, err := EncodeTZif(ps)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", name, err)
		}
		result[name] = b
	}
	for alias, target := range db.Links() {
		result[alias] = result[target]
	}
	return result, nil
}

// EncodeTZif encodes a timeline as a validated TZif file.
func EncodeTZif(ps []tzperiod.Period) ([]byte, error) {
	data, err := tzif.FromPeriods(ps)
	if err != nil {
		return nil, err
	}
	if err := tzif.Validate(data); err != nil {
		return nil, fmt.Errorf("invalid tzif: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := data.Encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompileBytes compiles the zones of a single source file to TZif files.
func CompileBytes(dataBuf []byte, opts Options) (map[string][]byte, error) {
	f, err := tzdata.Parse(bytes.NewReader(dataBuf))
	if err != nil {
		return nil, err
	}
	db, err := tzdb.New(f)
	if err != nil {
		return nil, err
	}
	return CompileTZif(context.Background(), db, opts)
}
