// Package geo maps coordinates to tz database zone names.
// The boundary data embedded by tzf adds several megabytes to binaries
// importing this package.
package geo

import (
	"errors"
	"sync"

	"github.com/ringsaturn/tzf"
)

var (
	ErrNotFound     = errors.New("geo: no zone at coordinates")
	ErrInvalidCoord = errors.New("geo: invalid coordinates")
)

// Finder looks up zone names.
type Finder struct {
	finder tzf.F
}

// New loads the default boundary data set.
func New() (*Finder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, err
	}
	return &Finder{finder: f}, nil
}

// ZoneAt returns the name of the zone containing the point at lat, lon.
func (f *Finder) ZoneAt(lat, lon float64) (string, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", ErrInvalidCoord
	}
	name := f.finder.GetTimezoneName(lon, lat)
	if name == "" {
		return "", ErrNotFound
	}
	return name, nil
}

var (
	defaultOnce   sync.Once
	defaultFinder *Finder
	defaultErr    error
)

// ZoneAt looks up lat, lon with a shared Finder loaded on first use.
func ZoneAt(lat, lon float64) (string, error) {
	defaultOnce.Do(func() {
		defaultFinder, defaultErr = New()
	})
	if defaultErr != nil {
		return "", defaultErr
	}
	return defaultFinder.ZoneAt(lat, lon)
}
