// Package ianadist downloads and extracts tzdb releases distributed by IANA.
//
// Releases are downloaded from the [IANA data server]. Clients are advised
// to store the [ETags] returned in this package and pass them to subsequent
// calls to avoid downloading the same data multiple times.
//
// [ETags]: https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/ETag
// [IANA data server]: https://www.iana.org/time-zones
package ianadist

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// TZDataFiles is a map of tzdb source file names to file contents.
// Filenames are never empty and file contents always start with
// one of the magic headers of source files:
//
//	# tzdb data for
//	# tzdb links for
//
// Example:
//
//	 TZDataFiles{
//		"africa", []byte("# tzdb data for Africa and environs\n..."),
//		"backward", []byte("# tzdb links for backward compatibility\n..."),
//	 	"etcetera", []byte("# tzdb data for ships at sea and other miscellany\n..."),
//	 }
type TZDataFiles map[string][]byte

// Names returns the file names in sorted order.
func (f TZDataFiles) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Release is a parsed IANA time zone database release.
type Release struct {
	// Version is the version of the IANA time zone database
	// without surrounding white space. For example, "2024b".
	Version string
	// DataFiles is a map of tzdb source file names to file contents.
	DataFiles TZDataFiles
	// LeapSecondsFile is the content of the leap seconds file.
	LeapSecondsFile []byte
}

// WriteDir writes the source, leapseconds and version files of the release to dir,
// creating it if needed. The result can be read with tzdb.LoadDir.
func (r *Release) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string][]byte{versionFilename: []byte(r.Version + "\n")}
	if len(r.LeapSecondsFile) > 0 {
		files[leapSecondsFilename] = r.LeapSecondsFile
	}
	for name, data := range r.DataFiles {
		files[name] = data
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// DefaultClient is the default client to download the IANA time zone database.
// It is used by the top-level functions [Latest], [Version] and [Download] in this package.
var DefaultClient = &Client{}

// Client is a client to download the IANA time zone database.
// The zero value is ready to use.
type Client struct {
	// HTTPClient is the http.Client used for downloads.
	// If HTTPClient is nil, http.DefaultClient is used.
	//
	// Tests use it to prevent network calls with a fake http.RoundTripper
	// that returns canned responses.
	HTTPClient *http.Client
}

// httpClient returns the http.Client used by the client.
// If HTTPClient is nil, http.DefaultClient is returned.
func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

const (
	// baseURL is the base URL for time zones on the IANA data server.
	baseURL = "https://data.iana.org/time-zones/"
	// latestDataPath is the path to the latest IANA time zone database
	// relative to the baseURL.
	latestDataPath = "tzdata-latest.tar.gz"
	// leapSecondsFilename is the name of the leap seconds file in the archive.
	leapSecondsFilename = "leapseconds"
	// versionFilename is the name of the version file in the archive.
	versionFilename = "version"
	// emptyEtag is the empty etag value.
	emptyEtag = ""
	// maxFileSize bounds the size of a single archive member.
	maxFileSize = 16 << 20
)

// dataFileMagicHeaders identify source files in the archive.
var dataFileMagicHeaders = []string{"# tzdb data for", "# tzdb links for"}

func isDataFile(data []byte) bool {
	for _, magic := range dataFileMagicHeaders {
		if strings.HasPrefix(string(data[:min(len(data), len(magic))]), magic) {
			return true
		}
	}
	return false
}

// ReadArchive unpacks the IANA time zone database from an archive.
//
// The io.Reader must contain a gzip-compressed tar archive as found at
// https://data.iana.org/time-zones/releases/.
func ReadArchive(r io.Reader) (*Release, error) {
	gunzip, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read gzip: %w", err)
	}
	defer gunzip.Close()
	tr := tar.NewReader(gunzip)

	result := Release{DataFiles: make(TZDataFiles)}
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if header.Size > maxFileSize {
			continue // Too large for a source file.
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", header.Name, err)
		}

		switch name := filepath.Base(header.Name); {
		case name == leapSecondsFilename:
			result.LeapSecondsFile = data
		case name == versionFilename:
			result.Version = strings.TrimSpace(string(data))
			if result.Version == "" {
				return nil, fmt.Errorf("empty version file")
			}
		case isDataFile(data):
			result.DataFiles[name] = data
		}
	}

	if len(result.DataFiles) == 0 {
		return nil, fmt.Errorf("no data files found")
	}
	if result.Version == "" {
		return nil, fmt.Errorf("no version found")
	}

	return &result, nil
}

// Latest downloads and unpacks the latest IANA time zone database.
//
// If the server responds with a 304 Not Modified status code, the returned
// ETag is the same as the input and the returned Release and error are
// both nil.
//
// If an error is returned, the returned ETag is empty and the returned
// Release is nil.
//
// Latest is a wrapper around DefaultClient.Latest.
func Latest(ctx context.Context, etag string) (*Release, string, error) {
	return DefaultClient.Latest(ctx, etag)
}

// Latest downloads and unpacks the latest IANA time zone database.
// See the package level Latest for the ETag semantics.
func (c *Client) Latest(ctx context.Context, etag string) (*Release, string, error) {
	return c.fetchRelease(ctx, latestDataPath, etag)
}

// Version downloads and unpacks the given release, for example "2024b".
//
// Version is a wrapper around DefaultClient.Version.
func Version(ctx context.Context, version, etag string) (*Release, string, error) {
	return DefaultClient.Version(ctx, version, etag)
}

// Version downloads and unpacks the given release, for example "2024b".
// The ETag semantics are the same as for Latest.
func (c *Client) Version(ctx context.Context, version, etag string) (*Release, string, error) {
	if version == "" || strings.ContainsAny(version, "/.") {
		return nil, emptyEtag, fmt.Errorf("invalid version %q", version)
	}
	return c.fetchRelease(ctx, "releases/tzdata"+version+".tar.gz", etag)
}

func (c *Client) fetchRelease(ctx context.Context, path, etag string) (*Release, string, error) {
	r, newEtag, err := c.Download(ctx, path, etag)
	if err != nil {
		return nil, emptyEtag, err
	}
	if r == nil {
		return nil, etag, nil // Not modified.
	}
	defer func() {
		// Drain and close the response body to ensure the
		// connection can be reused.
		_, _ = io.Copy(io.Discard, r)
		_ = r.Close()
	}()

	release, err := ReadArchive(r)
	if err != nil {
		return nil, emptyEtag, err
	}

	return release, newEtag, nil
}

// Download downloads the resource at the given path from the IANA time zone
// data server.
//
// The returned ETag is the ETag of the downloaded resource. If the server
// responds with a 304 Not Modified status code, the returned ETag is the same
// as the input and the returned io.ReadCloser and error are both nil.
//
// If no error is returned, the returned io.ReadCloser is a [http.Response.Body]
// and needs to be read fully and closed by the caller to prevent resource leaks.
//
// An error is returned for HTTP status codes other than 200 OK and 304 Not Modified.
//
// Download is a wrapper around DefaultClient.Download.
func Download(ctx context.Context, path, etag string) (io.ReadCloser, string, error) {
	return DefaultClient.Download(ctx, path, etag)
}

// Download downloads the resource at the given path from the IANA time zone
// data server. See the package level Download for details.
func (c *Client) Download(ctx context.Context, path, etag string) (io.ReadCloser, string, error) {
	u, err := url.JoinPath(baseURL, path)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("join URL: %w", err)
	}
	return c.downloadIfNoneMatch(ctx, u, etag)
}

// downloadIfNoneMatch downloads the resource at the given URL with caching using the given ETag.
//
// If the etag is not empty and the server responds with a 304 Not Modified status code,
// the returned io.ReadCloser and error are both nil, and the etag is the same as the input.
func (c *Client) downloadIfNoneMatch(ctx context.Context, url, etag string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("create request for %q: %w", url, err)
	}

	if etag != emptyEtag {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("GET %q: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Drain and close the response body to reuse the connection.
		if resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil, etag, nil
		}

		return nil, emptyEtag, fmt.Errorf("response for %q: unexpected status: %s", url, resp.Status)
	}

	// Caller must take care of closing the response body.
	return resp.Body, resp.Header.Get("etag"), nil
}
