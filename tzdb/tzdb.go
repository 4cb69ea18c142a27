// Package tzdb organizes the records of parsed tz source files into lookup
// tables: rule sets by name, zones by name and links from alias to zone.
package tzdb

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ngrash/tzperiod/tzdata"
)

// ErrNotFound is returned for zone and rule set names that are not in the database.
var ErrNotFound = errors.New("not found")

// DB holds the organized records of a tz database release.
// A DB is immutable and safe for concurrent use.
type DB struct {
	rules map[string][]tzdata.Rule
	zones map[string]tzdata.Zone
	// links maps aliases to canonical zone names.
	links map[string]string

	zoneList        []string
	linkList        []string
	zoneAndLinkList []string

	version        string
	leapSeconds    []LeapSecond
	leapExpires    time.Time
	hasLeapExpires bool
}

// New organizes the records of the given files.
// It fails if a zone is defined twice, a name is both a zone and a link,
// or a link does not resolve to a zone.
func New(files ...tzdata.File) (*DB, error) {
	db := &DB{
		rules: make(map[string][]tzdata.Rule),
		zones: make(map[string]tzdata.Zone),
		links: make(map[string]string),
	}

	// targets holds the raw link targets before they are flattened.
	targets := make(map[string]string)
	var (
		leaps   []tzdata.Leap
		expires []tzdata.Expires
	)
	for _, f := range files {
		for _, r := range f.Rules {
			db.rules[r.Name] = append(db.rules[r.Name], r)
		}
		for _, z := range f.Zones {
			if _, ok := db.zones[z.Name]; ok {
				return nil, fmt.Errorf("%s: zone %q defined more than once", f.Name, z.Name)
			}
			db.zones[z.Name] = z
		}
		for _, l := range f.Links {
			if prev, ok := targets[l.To]; ok && prev != l.From {
				return nil, fmt.Errorf("%s: link %q defined more than once", f.Name, l.To)
			}
			targets[l.To] = l.From
		}
		leaps = append(leaps, f.Leaps...)
		expires = append(expires, f.Expires...)
	}

	for alias := range targets {
		if _, ok := db.zones[alias]; ok {
			return nil, fmt.Errorf("link %q: name is also a zone", alias)
		}
		canonical, err := resolveLink(alias, targets, db.zones)
		if err != nil {
			return nil, err
		}
		db.links[alias] = canonical
	}

	for name := range db.zones {
		db.zoneList = append(db.zoneList, name)
	}
	for alias := range db.links {
		db.linkList = append(db.linkList, alias)
	}
	sort.Strings(db.zoneList)
	sort.Strings(db.linkList)
	db.zoneAndLinkList = append(append(make([]string, 0, len(db.zoneList)+len(db.linkList)), db.zoneList...), db.linkList...)
	sort.Strings(db.zoneAndLinkList)

	var err error
	if db.leapSeconds, err = leapSeconds(leaps); err != nil {
		return nil, err
	}
	if n := len(expires); n > 0 {
		e := expires[n-1]
		db.leapExpires = time.Date(e.Year, e.Month, e.Day, e.Time.Hours, e.Time.Minutes, e.Time.Seconds, 0, time.UTC)
		db.hasLeapExpires = true
	}
	return db, nil
}

// resolveLink follows alias through targets until it reaches a zone.
func resolveLink(alias string, targets map[string]string, zones map[string]tzdata.Zone) (string, error) {
	seen := map[string]bool{alias: true}
	name := alias
	for {
		target, ok := targets[name]
		if !ok {
			return "", fmt.Errorf("link %q: target %q: %w", alias, name, ErrNotFound)
		}
		if _, ok := zones[target]; ok {
			return target, nil
		}
		if seen[target] {
			return "", fmt.Errorf("link %q: cycle through %q", alias, target)
		}
		seen[target] = true
		name = target
	}
}

// RulesByName returns the rules of the named rule set in source order.
func (db *DB) RulesByName(name string) ([]tzdata.Rule, bool) {
	rs, ok := db.rules[name]
	return rs, ok
}

// Zone returns the zone with the given canonical name.
func (db *DB) Zone(name string) (tzdata.Zone, bool) {
	z, ok := db.zones[name]
	return z, ok
}

// Canonical resolves name to a canonical zone name.
// Canonical names resolve to themselves and aliases to their zone.
func (db *DB) Canonical(name string) (string, bool) {
	if _, ok := db.zones[name]; ok {
		return name, true
	}
	c, ok := db.links[name]
	return c, ok
}

// Links returns a copy of the map from alias to canonical zone name.
func (db *DB) Links() map[string]string {
	m := make(map[string]string, len(db.links))
	for k, v := range db.links {
		m[k] = v
	}
	return m
}

// ZoneList returns the sorted canonical zone names.
func (db *DB) ZoneList() []string {
	return append([]string(nil), db.zoneList...)
}

// LinkList returns the sorted alias names.
func (db *DB) LinkList() []string {
	return append([]string(nil), db.linkList...)
}

// ZoneAndLinkList returns the sorted union of zone and alias names.
func (db *DB) ZoneAndLinkList() []string {
	return append([]string(nil), db.zoneAndLinkList...)
}

// Version returns the release version, for example "2024b", or the empty
// string if the database was not loaded with a version file.
func (db *DB) Version() string {
	return db.version
}
