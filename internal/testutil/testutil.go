// Package testutil provides fixtures shared by package tests: release
// tarballs and an HTTP server that serves them.
package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"
)

// TarGz builds a gzip-compressed tar archive holding files (name → content).
func TarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	sort.Strings(names)

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, name := range names {
		content := files[name]

		hdr := &tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header %s: %v", name, err)
		}

		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing tar entry %s: %v", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}

	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}

	return buf.Bytes()
}

// AssetServer serves fixed bodies by URL path and counts the requests it
// answers. Unknown paths get 404.
type AssetServer struct {
	*httptest.Server

	hits atomic.Int64
}

// NewAssetServer starts an AssetServer that is closed when the test ends.
func NewAssetServer(t *testing.T, bodies map[string][]byte) *AssetServer {
	t.Helper()

	s := &AssetServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)

		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)

	return s
}

// Hits returns the number of requests served so far.
func (s *AssetServer) Hits() int {
	return int(s.hits.Load())
}
