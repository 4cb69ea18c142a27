package tzir

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ngrash/tzperiod/tzdata"
	"github.com/ngrash/tzperiod/tzdb"
	"github.com/ngrash/tzperiod/tzperiod"
)

func loadTestdata(t *testing.T) *tzdb.DB {
	t.Helper()
	db, err := tzdb.LoadDir("../../testdata/tzdata")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func buildZone(t *testing.T, db *tzdb.DB, name string) []tzperiod.Period {
	t.Helper()
	z, ok := db.Zone(name)
	if !ok {
		t.Fatalf("zone %s not found", name)
	}
	ps, err := Build(z, db, Options{})
	if err != nil {
		t.Fatalf("Build(%s) error: %v", name, err)
	}
	if err := tzperiod.Validate(ps); err != nil {
		t.Fatalf("Build(%s) returned invalid periods: %v", name, err)
	}
	return ps
}

func parseDB(t *testing.T, src string) *tzdb.DB {
	t.Helper()
	f, err := tzdata.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	db, err := tzdb.New(f)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// periodAt returns the period containing the universal time t.
func periodAt(t *testing.T, ps []tzperiod.Period, at tzperiod.Time) tzperiod.Period {
	t.Helper()
	for _, p := range ps {
		if p.Contains(at, tzperiod.UTC) {
			return p
		}
	}
	t.Fatalf("no period contains %v", at)
	return tzperiod.Period{}
}

func TestBuild_EtcUTC(t *testing.T) {
	ps := buildZone(t, loadTestdata(t), "Etc/UTC")
	want := []tzperiod.Period{{
		From:  tzperiod.Boundary{UTC: tzperiod.Min, Standard: tzperiod.Min, Wall: tzperiod.Min},
		Until: tzperiod.Boundary{UTC: tzperiod.Max, Standard: tzperiod.Max, Wall: tzperiod.Max},
		Abbr:  "UTC",
	}}
	if diff := cmp.Diff(want, ps); diff != "" {
		t.Errorf("Build(Etc/UTC) mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Copenhagen(t *testing.T) {
	ps := buildZone(t, loadTestdata(t), "Europe/Copenhagen")

	first := ps[0]
	if first.UTCOffset != 3020 || first.StdOffset != 0 || first.Abbr != "LMT" || first.From.UTC != tzperiod.Min {
		t.Errorf("first period = %v, want LMT utc+3020 from min", first)
	}
	if want := tzperiod.Date(1890, time.January, 1, 0, 0, 0).Add(-3020); first.Until.UTC != want {
		t.Errorf("LMT ends at %v, want %v", first.Until.UTC, want)
	}

	cest := periodAt(t, ps, tzperiod.Date(1916, time.June, 1, 0, 0, 0))
	want := tzperiod.Period{
		UTCOffset: 3600,
		StdOffset: 3600,
		From:      tzperiod.NewBoundary(tzperiod.Date(1916, time.May, 14, 22, 0, 0), 3600, 3600),
		Until:     tzperiod.NewBoundary(tzperiod.Date(1916, time.September, 30, 21, 0, 0), 3600, 3600),
		Abbr:      "CEST",
	}
	if diff := cmp.Diff(want, cest); diff != "" {
		t.Errorf("Copenhagen 1916 summer mismatch (-want +got):\n%s", diff)
	}

	// The line with C-Eur rules starts in standard time at 1942-11-02 01:00 UTC.
	cet := periodAt(t, ps, tzperiod.Date(1942, time.December, 1, 0, 0, 0))
	if cet.Abbr != "CET" || cet.From.UTC != tzperiod.Date(1942, time.November, 2, 1, 0, 0) {
		t.Errorf("Copenhagen 1942 winter = %v, want CET from 1942-11-02T01:00:00", cet)
	}

	// EU rules switch at 01:00 UTC.
	summer := periodAt(t, ps, tzperiod.Date(2024, time.July, 1, 0, 0, 0))
	if summer.Abbr != "CEST" || summer.From.UTC != tzperiod.Date(2024, time.March, 31, 1, 0, 0) || summer.Until.UTC != tzperiod.Date(2024, time.October, 27, 1, 0, 0) {
		t.Errorf("Copenhagen 2024 summer = %v", summer)
	}
}

func TestBuild_ChicagoFallBack(t *testing.T) {
	ps := buildZone(t, loadTestdata(t), "America/Chicago")

	cdt := periodAt(t, ps, tzperiod.Date(2006, time.July, 1, 0, 0, 0))
	want := tzperiod.Period{
		UTCOffset: -6 * 3600,
		StdOffset: 3600,
		From:      tzperiod.NewBoundary(tzperiod.Date(2006, time.April, 2, 8, 0, 0), -6*3600, 3600),
		Until:     tzperiod.NewBoundary(tzperiod.Date(2006, time.October, 29, 7, 0, 0), -6*3600, 3600),
		Abbr:      "CDT",
	}
	if diff := cmp.Diff(want, cdt); diff != "" {
		t.Errorf("Chicago 2006 summer mismatch (-want +got):\n%s", diff)
	}
	if got, want := cdt.Until.Wall, tzperiod.Date(2006, time.October, 29, 2, 0, 0); got != want {
		t.Errorf("CDT ends at wall %v, want %v", got, want)
	}

	cst := periodAt(t, ps, tzperiod.Date(2006, time.December, 1, 0, 0, 0))
	if got, want := cst.From.Wall, tzperiod.Date(2006, time.October, 29, 1, 0, 0); got != want || cst.Abbr != "CST" {
		t.Errorf("CST = %v starting at wall %v, want CST starting at %v", cst, got, want)
	}

	// War time and peace time.
	if p := periodAt(t, ps, tzperiod.Date(1943, time.January, 1, 0, 0, 0)); p.Abbr != "CWT" {
		t.Errorf("Chicago 1943 abbreviation = %q, want CWT", p.Abbr)
	}
	if p := periodAt(t, ps, tzperiod.Date(1945, time.September, 1, 0, 0, 0)); p.Abbr != "CPT" {
		t.Errorf("Chicago 1945 abbreviation = %q, want CPT", p.Abbr)
	}
	// Eastern standard time in 1936.
	if p := periodAt(t, ps, tzperiod.Date(1936, time.June, 1, 0, 0, 0)); p.Abbr != "EST" || p.UTCOffset != -5*3600 {
		t.Errorf("Chicago 1936 = %v, want EST utc-18000", p)
	}

	last := ps[len(ps)-1]
	if last.Abbr != "CST" || last.From.UTC != tzperiod.Date(2203, time.November, 6, 7, 0, 0) {
		t.Errorf("last period = %v, want CST from the last transition of 2203", last)
	}
}

func TestBuild_NumericFormats(t *testing.T) {
	db := loadTestdata(t)
	cases := map[string]string{
		"Asia/Dubai": "+04",
		"Etc/GMT-14": "+14",
		"Etc/GMT+12": "-12",
	}
	for zone, want := range cases {
		ps := buildZone(t, db, zone)
		if got := ps[len(ps)-1].Abbr; got != want {
			t.Errorf("%s abbreviation = %q, want %q", zone, got, want)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	db := loadTestdata(t)
	for _, name := range db.ZoneList() {
		a := buildZone(t, db, name)
		b := buildZone(t, db, name)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("Build(%s) differs between runs (-first +second):\n%s", name, diff)
		}
	}
}

func TestBuild_FixedSave(t *testing.T) {
	db := parseDB(t, `
Zone Test/Fixed 1:00 1:00 CEST 1950
                1:00 -    CET  1960
                1:00 -    CET
`)
	ps := buildZone(t, db, "Test/Fixed")
	if len(ps) != 2 {
		t.Fatalf("Build() = %d periods, want 2: %v", len(ps), ps)
	}
	if got, want := ps[0].Until.UTC, tzperiod.Date(1949, time.December, 31, 22, 0, 0); got != want {
		t.Errorf("CEST ends at %v, want %v", got, want)
	}
	if ps[0].StdOffset != 3600 || ps[1].StdOffset != 0 {
		t.Errorf("std offsets = %d, %d, want 3600, 0", ps[0].StdOffset, ps[1].StdOffset)
	}
}

func TestBuild_SlashFormat(t *testing.T) {
	db := parseDB(t, `
Rule GB 1972 max - Mar lastSun 1:00u 1:00 BST
Rule GB 1972 max - Oct lastSun 1:00u 0    GMT
Zone Test/London 0:00 GB GMT/BST
`)
	ps := buildZone(t, db, "Test/London")
	if p := periodAt(t, ps, tzperiod.Date(2000, time.July, 1, 0, 0, 0)); p.Abbr != "BST" {
		t.Errorf("summer abbreviation = %q, want BST", p.Abbr)
	}
	if p := periodAt(t, ps, tzperiod.Date(2000, time.January, 1, 0, 0, 0)); p.Abbr != "GMT" {
		t.Errorf("winter abbreviation = %q, want GMT", p.Abbr)
	}
}

func TestBuild_Errors(t *testing.T) {
	cases := []struct {
		name    string
		zone    tzdata.Zone
		wantErr error
	}{
		{
			name:    "unknown rules",
			zone:    tzdata.Zone{Name: "Test/A", Lines: []tzdata.ZoneLine{{Rules: tzdata.ZoneRules{Form: tzdata.ZoneRulesName, Name: "Nope"}, Format: "X%sT"}}},
			wantErr: ErrRulesNotFound,
		},
		{
			name: "last line with until",
			zone: tzdata.Zone{Name: "Test/B", Lines: []tzdata.ZoneLine{{Format: "X", Until: tzdata.Until{Defined: true, Year: 1900, Parts: tzdata.UntilYear}}}},
		},
		{
			name: "inner line without until",
			zone: tzdata.Zone{Name: "Test/C", Lines: []tzdata.ZoneLine{{Format: "X"}, {Format: "Y"}}},
		},
		{
			name: "no lines",
			zone: tzdata.Zone{Name: "Test/D"},
		},
	}
	db := parseDB(t, "")
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Build(c.zone, db, Options{})
			if err == nil {
				t.Fatalf("Build() returned nil error")
			}
			if c.wantErr != nil && !errors.Is(err, c.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, c.wantErr)
			}
		})
	}
}

func TestAbbreviation(t *testing.T) {
	cases := []struct {
		format string
		letter string
		utcOff int64
		save   int64
		want   string
	}{
		{"CE%sT", "S", 3600, 3600, "CEST"},
		{"CE%sT", "", 3600, 0, "CET"},
		{"GMT/BST", "", 0, 0, "GMT"},
		{"GMT/BST", "", 0, 3600, "BST"},
		{"%z", "", 4 * 3600, 0, "+04"},
		{"%z", "", -(3*3600 + 30*60), 0, "-0330"},
		{"%z", "", 5*3600 + 30*60, 0, "+0530"},
		{"%z", "", 3020, 0, "+005020"},
		{"%z", "", -3 * 3600, 3600, "-02"},
		{"LMT", "S", 0, 0, "LMT"},
	}
	for _, c := range cases {
		if got := Abbreviation(c.format, c.letter, c.utcOff, c.save); got != c.want {
			t.Errorf("Abbreviation(%q, %q, %d, %d) = %q, want %q", c.format, c.letter, c.utcOff, c.save, got, c.want)
		}
	}
}
