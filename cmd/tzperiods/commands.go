package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ngrash/tzperiod/internal/geo"
	"github.com/ngrash/tzperiod/tzc"
	"github.com/ngrash/tzperiod/tzcache"
	"github.com/ngrash/tzperiod/tzdb/ianadist"
	"github.com/ngrash/tzperiod/tzif"
	"github.com/ngrash/tzperiod/tzperiod"
)

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime reads a calendar time without zone, or one of min, max and now.
func parseTime(s string) (tzperiod.Time, error) {
	switch strings.ToLower(s) {
	case "min":
		return tzperiod.Min, nil
	case "max":
		return tzperiod.Max, nil
	case "now":
		return tzperiod.FromTime(time.Now().UTC()), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return tzperiod.FromTime(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q: want YYYY-MM-DD[THH:MM[:SS]], min, max or now", s)
}

type gapJSON struct {
	Before tzperiod.Period `json:"before"`
	After  tzperiod.Period `json:"after"`
}

type lookupJSON struct {
	Zone      string            `json:"zone"`
	Canonical string            `json:"canonical"`
	Time      string            `json:"time"`
	Frame     string            `json:"frame"`
	Result    string            `json:"result"`
	Periods   []tzperiod.Period `json:"periods"`
	Gap       *gapJSON          `json:"gap,omitempty"`
}

func (a *app) lookup(args []string) error {
	fs := a.subcommand("lookup", "[--frame wall|standard|utc] [--json] ZONE TIME")
	frameName := fs.String("frame", "wall", "frame TIME is read in (wall, standard or utc)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := a.parse(fs, args, 2); err != nil {
		return err
	}
	frame, err := tzperiod.ParseFrame(*frameName)
	if err != nil {
		return err
	}
	t, err := parseTime(fs.Arg(1))
	if err != nil {
		return err
	}
	idx, err := a.index()
	if err != nil {
		return err
	}
	zone := fs.Arg(0)
	res, err := idx.Resolve(zone, t, frame)
	if err != nil {
		return err
	}

	out := lookupJSON{Zone: zone, Time: t.String(), Frame: frame.String(), Periods: res.Periods()}
	out.Canonical = zone
	if links := idx.Links(); links[zone] != "" {
		out.Canonical = links[zone]
	}
	switch r := res.(type) {
	case tzperiod.Unambiguous:
		out.Result = "unambiguous"
	case tzperiod.Ambiguous:
		out.Result = "ambiguous"
	case tzperiod.Gap:
		out.Result = "gap"
		out.Gap = &gapJSON{Before: r.Before, After: r.After}
	}

	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintf(a.stdout, "%s %s %s: %s\n", zone, out.Time, out.Frame, out.Result)
	for _, p := range out.Periods {
		fmt.Fprintf(a.stdout, "  %v\n", p)
	}
	if out.Gap != nil {
		fmt.Fprintf(a.stdout, "  before %v\n  after  %v\n", out.Gap.Before, out.Gap.After)
	}
	return nil
}

func (a *app) periods(args []string) error {
	fs := a.subcommand("periods", "[--json] ZONE")
	asJSON := fs.Bool("json", false, "print the periods as JSON")
	if err := a.parse(fs, args, 1); err != nil {
		return err
	}
	idx, err := a.index()
	if err != nil {
		return err
	}
	ps, err := idx.Periods(fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return json.NewEncoder(a.stdout).Encode(ps)
	}
	for _, p := range ps {
		fmt.Fprintf(a.stdout, "%-20v %-20v %-8s %+7d %+6d\n", p.From.Wall, p.Until.Wall, p.Abbr, p.UTCOffset, p.StdOffset)
	}
	return nil
}

func (a *app) zones(args []string) error {
	fs := a.subcommand("zones", "[--canonical | --aliases | --links]")
	canonical := fs.Bool("canonical", false, "list canonical zones only")
	aliases := fs.Bool("aliases", false, "list aliases only")
	links := fs.Bool("links", false, "list aliases with their canonical zone")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	db, err := a.loadDB()
	if err != nil {
		return err
	}
	switch {
	case *links:
		m := db.Links()
		for _, alias := range sortedKeys(m) {
			fmt.Fprintf(a.stdout, "%s -> %s\n", alias, m[alias])
		}
		return nil
	case *canonical:
		return printLines(a.stdout, db.ZoneList())
	case *aliases:
		return printLines(a.stdout, db.LinkList())
	default:
		return printLines(a.stdout, db.ZoneAndLinkList())
	}
}

func printLines(w io.Writer, lines []string) error {
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func (a *app) leapseconds(args []string) error {
	fs := a.subcommand("leapseconds", "")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	db, err := a.loadDB()
	if err != nil {
		return err
	}
	for _, ls := range db.LeapSeconds() {
		fmt.Fprintf(a.stdout, "%s %+d %d\n", ls.Time.Format(time.RFC3339), ls.Correction, ls.Total)
	}
	if exp, ok := db.LeapSecondsExpire(); ok {
		fmt.Fprintf(a.stdout, "expires %s\n", exp.Format(time.RFC3339))
	}
	return nil
}

func (a *app) version(args []string) error {
	fs := a.subcommand("version", "")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	db, err := a.loadDB()
	if err != nil {
		return err
	}
	if db.Version() == "" {
		return errors.New("tz sources carry no version file")
	}
	_, err = fmt.Fprintln(a.stdout, db.Version())
	return err
}

func (a *app) zic(args []string) error {
	fs := a.subcommand("zic", "-o DIR")
	dir := fs.StringP("output", "o", "", "output directory")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	if *dir == "" {
		fs.Usage()
		return errUsage
	}
	db, err := a.loadDB()
	if err != nil {
		return err
	}
	files, err := tzc.CompileTZif(a.ctx, db, a.opts)
	if err != nil {
		return err
	}
	for _, name := range sortedKeys(files) {
		path := filepath.Join(*dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return err
		}
	}
	a.logger.Info("wrote tzif files", "dir", *dir, "files", len(files), "version", db.Version())
	return nil
}

func (a *app) cache(args []string) error {
	fs := a.subcommand("cache", "-o FILE")
	out := fs.StringP("output", "o", "", "output file")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	if *out == "" {
		fs.Usage()
		return errUsage
	}
	db, err := a.loadDB()
	if err != nil {
		return err
	}
	zones, err := tzc.Compile(a.ctx, db, a.opts)
	if err != nil {
		return err
	}
	t := tzcache.Tables{Version: db.Version(), Zones: zones}
	t.MinYear, t.MaxYear = a.years()
	if err := tzcache.WriteFile(*out, t); err != nil {
		return err
	}
	a.logger.Info("wrote period cache", "path", *out, "zones", len(zones), "version", t.Version)
	return nil
}

func (a *app) fetch(args []string) error {
	fs := a.subcommand("fetch", "[--release VERSION] -o DIR")
	dir := fs.StringP("output", "o", "", "directory to write the release sources to")
	release := fs.String("release", "", "release version, for example 2024b (default latest)")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	if *dir == "" {
		fs.Usage()
		return errUsage
	}
	var (
		rel  *ianadist.Release
		etag string
		err  error
	)
	if *release == "" {
		rel, etag, err = a.client.Latest(a.ctx, "")
	} else {
		rel, etag, err = a.client.Version(a.ctx, *release, "")
	}
	if err != nil {
		return err
	}
	if err := rel.WriteDir(*dir); err != nil {
		return err
	}
	a.logger.Info("fetched release", "version", rel.Version, "etag", etag, "dir", *dir, "files", len(rel.DataFiles))
	_, err = fmt.Fprintln(a.stdout, rel.Version)
	return err
}

func readTZif(name string) (tzif.Data, []byte, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return tzif.Data{}, nil, err
	}
	r := bytes.NewReader(b)
	d, err := tzif.DecodeData(r)
	if err != nil {
		return d, nil, fmt.Errorf("%s: %w", name, err)
	}
	rest, _ := io.ReadAll(r)
	return d, rest, nil
}

func (a *app) inspect(args []string) error {
	fs := a.subcommand("inspect", "[--v1] FILE")
	printV1 := fs.Bool("v1", false, "always print the version 1 header and data")
	if err := a.parse(fs, args, 1); err != nil {
		return err
	}
	d, rest, err := readTZif(fs.Arg(0))
	if err != nil {
		return err
	}
	w := a.stdout
	if d.Version == tzif.V1 || *printV1 {
		printBlock(w, d.V1Header, d.V1Data)
	}
	if d.Version > tzif.V1 {
		printBlock(w, d.V2Header, d.V2Data)
		fmt.Fprintf(w, "Footer\n  TZString = %q\n\n", d.Footer.TZString)
	}

	ts, err := d.Transitions()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Transitions")
	for _, t := range ts {
		at := "-inf"
		if t.At != math.MinInt64 {
			at = time.Unix(t.At, 0).UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "  %-25s %+7d dst=%-5v %s\n", at, t.Utoff, t.Dst, t.Abbrev)
	}
	if err := tzif.Validate(d); err != nil {
		fmt.Fprintf(w, "\ninvalid: %v\n", err)
	}
	if len(rest) > 0 {
		fmt.Fprintf(w, "\nremaining data: %d bytes\n", len(rest))
	}
	return nil
}

func printBlock(w io.Writer, h tzif.Header, b tzif.DataBlock) {
	fmt.Fprintln(w, "Header")
	fmt.Fprintln(w, "  version  =", h.Version)
	fmt.Fprintln(w, "  isutcnt  =", h.Isutcnt)
	fmt.Fprintln(w, "  isstdcnt =", h.Isstdcnt)
	fmt.Fprintln(w, "  leapcnt  =", h.Leapcnt)
	fmt.Fprintln(w, "  timecnt  =", h.Timecnt)
	fmt.Fprintln(w, "  typecnt  =", h.Typecnt)
	fmt.Fprintln(w, "  charcnt  =", h.Charcnt)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Data block")
	fmt.Fprintf(w, "  TransitionTimes (%d) = %v\n", len(b.TransitionTimes), b.TransitionTimes)
	fmt.Fprintf(w, "  TransitionTypes (%d) = %v\n", len(b.TransitionTypes), b.TransitionTypes)
	fmt.Fprintf(w, "  LocalTimeTypes (%d) = %+v\n", len(b.LocalTimeTypes), b.LocalTimeTypes)
	fmt.Fprintf(w, "  Designations (%d) = %q\n", len(b.Designations), strings.Split(strings.TrimSuffix(string(b.Designations), "\x00"), "\x00"))
	fmt.Fprintf(w, "  LeapSeconds (%d) = %+v\n", len(b.LeapSeconds), b.LeapSeconds)
	fmt.Fprintf(w, "  StandardWall (%d) = %v\n", len(b.StandardWall), b.StandardWall)
	fmt.Fprintf(w, "  UTLocal (%d) = %v\n", len(b.UTLocal), b.UTLocal)
	fmt.Fprintln(w)
}

func (a *app) diff(args []string) error {
	fs := a.subcommand("diff", "A B")
	if err := a.parse(fs, args, 2); err != nil {
		return err
	}
	ad, _, err := readTZif(fs.Arg(0))
	if err != nil {
		return err
	}
	bd, _, err := readTZif(fs.Arg(1))
	if err != nil {
		return err
	}
	if diff := cmp.Diff(ad, bd); diff != "" {
		fmt.Fprintf(a.stdout, "files are different: -A +B\n%s", diff)
	} else {
		fmt.Fprintln(a.stdout, "files are identical")
	}
	return nil
}

func (a *app) locate(args []string) error {
	fs := a.subcommand("locate", "--lat LAT --lon LON")
	lat := fs.Float64("lat", math.NaN(), "latitude in degrees")
	lon := fs.Float64("lon", math.NaN(), "longitude in degrees")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	if math.IsNaN(*lat) || math.IsNaN(*lon) {
		fs.Usage()
		return errUsage
	}
	zone, err := geo.ZoneAt(*lat, *lon)
	if err != nil {
		return err
	}
	if a.tzdataDir == "" && a.archive == "" {
		_, err = fmt.Fprintln(a.stdout, zone)
		return err
	}

	idx, err := a.index()
	if err != nil {
		return err
	}
	now := tzperiod.FromTime(time.Now().UTC())
	ps, err := idx.PeriodsForTime(zone, now, tzperiod.UTC)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "%s %s %+d\n", zone, ps[0].Abbr, ps[0].TotalOffset())
	return err
}
