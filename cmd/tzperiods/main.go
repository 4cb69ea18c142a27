// Command tzperiods compiles tz database sources and answers period lookups.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ngrash/tzperiod/internal/tzir"
	"github.com/ngrash/tzperiod/tzc"
	"github.com/ngrash/tzperiod/tzcache"
	"github.com/ngrash/tzperiod/tzdb"
	"github.com/ngrash/tzperiod/tzdb/ianadist"
	"github.com/ngrash/tzperiod/tzindex"
)

const EnvPrefix = "TZPERIODS"

const (
	LevelTrace = slog.Level(-8)
)

// errUsage is returned after usage has been printed.
var errUsage = errors.New("usage")

type command struct {
	name    string
	args    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"lookup", "ZONE TIME", "find the periods containing a time", (*app).lookup},
	{"periods", "ZONE", "list the periods of a zone", (*app).periods},
	{"zones", "", "list zone names", (*app).zones},
	{"leapseconds", "", "list leap seconds", (*app).leapseconds},
	{"version", "", "print the tz database version", (*app).version},
	{"zic", "-o DIR", "write a TZif file for every zone and alias", (*app).zic},
	{"cache", "-o FILE", "write the compiled periods of every zone", (*app).cache},
	{"fetch", "-o DIR", "download a release from IANA", (*app).fetch},
	{"inspect", "FILE", "print the contents of a TZif file", (*app).inspect},
	{"diff", "A B", "compare two TZif files", (*app).diff},
	{"locate", "--lat LAT --lon LON", "find the zone at coordinates", (*app).locate},
}

// app holds the global configuration shared by the commands.
type app struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	tzdataDir string
	archive   string
	cacheFile string
	opts      tzc.Options
	client    *ianadist.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Environ(), os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		slog.Error("tzperiods failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args, environ []string, stdout, stderr io.Writer) error {
	a := &app{ctx: ctx, stdout: stdout, stderr: stderr, client: ianadist.DefaultClient}

	fs := pflag.NewFlagSet("tzperiods", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	level := levelFlag(slog.LevelInfo)
	fs.StringVar(&a.tzdataDir, "tzdata", "", "directory with tz source files")
	fs.StringVar(&a.archive, "archive", "", "tzdata release archive (tar.gz) to read instead of --tzdata")
	fs.StringVar(&a.cacheFile, "cache", "", "period cache written by the cache command")
	fs.IntVar(&a.opts.MinYear, "min-year", 0, "first year rules are expanded for (default 1900)")
	fs.IntVar(&a.opts.MaxYear, "max-year", 0, "last year rules are expanded for (default 2203)")
	fs.Var(&level, "log-level", "log level (trace/debug/info/warn/error)")
	logJSON := fs.Bool("log-json", false, "output logs as JSON")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: tzperiods [options] COMMAND [arguments]\n\ncommands:\n")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-12s %-20s %s\n", c.name, c.args, c.summary)
		}
		fmt.Fprintf(stderr, "\noptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nnote: all options can be specified as environment variables with the prefix %q and dashes replaced with underscores\n", EnvPrefix)
	}

	for _, e := range environ {
		if e, ok := strings.CutPrefix(e, EnvPrefix+"_"); ok {
			if k, v, ok := strings.Cut(e, "="); ok {
				if err := fs.Set(strings.ReplaceAll(strings.ToLower(k), "_", "-"), v); err != nil {
					fmt.Fprintf(stderr, "env %s: %v\n", k, err)
					fs.Usage()
					return errUsage
				}
			}
		}
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return errUsage
	}

	opts := &slog.HandlerOptions{Level: slog.Level(level)}
	if *logJSON {
		a.logger = slog.New(slog.NewJSONHandler(stderr, opts))
	} else {
		a.logger = slog.New(slog.NewTextHandler(stderr, opts))
	}
	slog.SetDefault(a.logger)
	a.opts.Logger = a.logger

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	for _, c := range commands {
		if c.name == name {
			a.logger.Log(ctx, LevelTrace, "running command", "command", name, "args", rest)
			return c.run(a, rest)
		}
	}
	fmt.Fprintf(stderr, "unknown command %q\n", name)
	fs.Usage()
	return errUsage
}

// levelFlag is a slog.Level flag that also accepts "trace".
type levelFlag slog.Level

func (l *levelFlag) String() string {
	if slog.Level(*l) == LevelTrace {
		return "trace"
	}
	return strings.ToLower(slog.Level(*l).String())
}

func (l *levelFlag) Set(s string) error {
	if strings.EqualFold(s, "trace") {
		*l = levelFlag(LevelTrace)
		return nil
	}
	var v slog.Level
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return err
	}
	*l = levelFlag(v)
	return nil
}

func (l *levelFlag) Type() string { return "level" }

// subcommand returns a flag set for the named command.
func (a *app) subcommand(name, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: tzperiods %s %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func (a *app) parse(fs *pflag.FlagSet, args []string, nargs int) error {
	if err := fs.Parse(args); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(a.stderr, err)
			fs.Usage()
		}
		return errUsage
	}
	if fs.NArg() != nargs {
		fs.Usage()
		return errUsage
	}
	return nil
}

// loadDB reads the tz sources from the archive or the source directory.
func (a *app) loadDB() (*tzdb.DB, error) {
	switch {
	case a.archive != "":
		f, err := os.Open(a.archive)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r, err := ianadist.ReadArchive(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.archive, err)
		}
		a.logger.Debug("read release archive", "path", a.archive, "version", r.Version, "files", len(r.DataFiles))
		return tzdb.FromRelease(r)
	case a.tzdataDir != "":
		db, err := tzdb.LoadDir(a.tzdataDir)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("loaded sources", "dir", a.tzdataDir, "version", db.Version(), "zones", len(db.ZoneList()))
		return db, nil
	default:
		return nil, errors.New("no tz sources: set --tzdata or --archive")
	}
}

// index returns a lookup index, seeded from the period cache if one is set.
func (a *app) index() (*tzindex.Index, error) {
	db, err := a.loadDB()
	if err != nil {
		return nil, err
	}
	opts := []tzindex.Option{tzindex.WithLogger(a.logger), tzindex.WithCompileOptions(a.opts)}
	if a.cacheFile != "" {
		t, err := tzcache.ReadFile(a.cacheFile)
		if err != nil {
			return nil, err
		}
		minYear, maxYear := a.years()
		if t.Version != db.Version() || t.MinYear != minYear || t.MaxYear != maxYear {
			a.logger.Warn("ignoring period cache built from other sources",
				"cache_version", t.Version, "cache_years", fmt.Sprintf("%d-%d", t.MinYear, t.MaxYear),
				"version", db.Version(), "years", fmt.Sprintf("%d-%d", minYear, maxYear))
		} else {
			opts = append(opts, tzindex.WithCache(t.Zones))
		}
	}
	return tzindex.New(db, opts...), nil
}

// years returns the effective rule expansion horizon.
func (a *app) years() (int, int) {
	minYear, maxYear := a.opts.MinYear, a.opts.MaxYear
	if minYear == 0 {
		minYear = tzir.DefaultMinYear
	}
	if maxYear == 0 {
		maxYear = tzir.DefaultMaxYear
	}
	return minYear, maxYear
}

func sortedKeys[V any](m map[string]V) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
