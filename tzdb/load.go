package tzdb

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/ngrash/tzperiod/tzdata"
	"github.com/ngrash/tzperiod/tzdb/ianadist"
)

// DefaultFiles are the source files of a release that define zones and links.
var DefaultFiles = []string{
	"africa",
	"antarctica",
	"asia",
	"australasia",
	"europe",
	"northamerica",
	"southamerica",
	"etcetera",
	"backward",
}

const (
	leapSecondsFile = "leapseconds"
	versionFile     = "version"
)

// Load reads the named source files from fsys, together with the leapseconds
// and version files if they exist.
// Without names, the DefaultFiles that exist in fsys are read.
func Load(fsys fs.FS, names ...string) (*DB, error) {
	optional := len(names) == 0
	if optional {
		names = DefaultFiles
	}

	var files []tzdata.File
	for _, name := range names {
		f, err := parseFSFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) && optional {
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files found")
	}

	leaps, err := parseFSFile(fsys, leapSecondsFile)
	switch {
	case err == nil:
		files = append(files, leaps)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	db, err := New(files...)
	if err != nil {
		return nil, err
	}

	version, err := fs.ReadFile(fsys, versionFile)
	switch {
	case err == nil:
		db.version = strings.TrimSpace(string(version))
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read version: %w", err)
	}
	return db, nil
}

// LoadDir is Load for the source files in a directory.
func LoadDir(dir string, names ...string) (*DB, error) {
	return Load(os.DirFS(dir), names...)
}

func parseFSFile(fsys fs.FS, name string) (tzdata.File, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return tzdata.File{}, err
	}
	defer f.Close()
	return tzdata.ParseFile(name, f)
}

// FromRelease organizes the files of a downloaded release.
func FromRelease(r *ianadist.Release) (*DB, error) {
	names := make([]string, 0, len(r.DataFiles))
	for name := range r.DataFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]tzdata.File, 0, len(names)+1)
	for _, name := range names {
		f, err := tzdata.ParseFile(name, bytes.NewReader(r.DataFiles[name]))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(r.LeapSecondsFile) > 0 {
		f, err := tzdata.ParseFile(leapSecondsFile, bytes.NewReader(r.LeapSecondsFile))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	db, err := New(files...)
	if err != nil {
		return nil, err
	}
	db.version = r.Version
	return db, nil
}
