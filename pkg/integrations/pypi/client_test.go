package pypi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/licensetower/pkg/integrations"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c := NewClient(nil, time.Hour).WithBaseURL(server.URL + "/pypi")
	c.SetHTTPClient(server.Client())
	return c
}

func TestClient_FetchRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pypi/flask/2.0.0/json" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"info": map[string]any{
			"name":        "Flask",
			"version":     "2.0.0",
			"summary":     "A micro web framework",
			"license":     "BSD-3-Clause",
			"classifiers": []string{"License :: OSI Approved :: BSD License", "Framework :: Flask"},
			"home_page":   "https://palletsprojects.com/p/flask",
		}})
	}))
	defer server.Close()

	rel, err := testClient(t, server).FetchRelease(context.Background(), "flask", "2.0.0", true)
	if err != nil {
		t.Fatalf("FetchRelease failed: %v", err)
	}
	if rel.Summary != "A micro web framework" {
		t.Errorf("Summary = %q, want %q", rel.Summary, "A micro web framework")
	}
	if rel.Name != "Flask" {
		t.Errorf("Name = %q, want %q", rel.Name, "Flask")
	}
}

func TestClient_FetchMetadataFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/Jasmine/1.0/json", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/pypi/jasmine/1.0/json", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/pypi/jasmine/1.0/json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info": {"name": "jasmine", "version": "1.0", "summary": "Behaviour-driven testing"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	meta, err := testClient(t, server).FetchMetadata(context.Background(), "Jasmine", "1.0")
	if err != nil {
		t.Fatalf("FetchMetadata: %v", err)
	}
	if meta.Summary != "Behaviour-driven testing" {
		t.Errorf("Summary = %q, want %q", meta.Summary, "Behaviour-driven testing")
	}
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	c := testClient(t, server)

	_, err := c.FetchRelease(context.Background(), "missing-pkg", "1.0", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("FetchRelease() error = %v, want ErrNotFound", err)
	}
	if _, err := c.FetchMetadata(context.Background(), "missing-pkg", "1.0"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("FetchMetadata() error = %v, want ErrNotFound", err)
	}
}

func TestClient_FetchMetadataForbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := testClient(t, server).FetchMetadata(context.Background(), "x", "1"); !errors.Is(err, integrations.ErrNetwork) {
		t.Errorf("FetchMetadata() error = %v, want ErrNetwork", err)
	}
}

func TestLicenseStrings(t *testing.T) {
	tests := []struct {
		name string
		rel  Release
		want []string
	}{
		{"expression wins", Release{LicenseExpression: "MIT OR Apache-2.0", License: "MIT"}, []string{"MIT OR Apache-2.0"}},
		{
			"classifiers",
			Release{Classifiers: []string{"License :: OSI Approved :: MIT License", "Programming Language :: Python"}},
			[]string{"MIT License"},
		},
		{"short license field", Release{License: "BSD"}, []string{"BSD"}},
		{"full text ignored", Release{License: "Copyright\n\nPermission is hereby granted"}, nil},
		{"nothing", Release{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, licenseStrings(&tt.rel)); diff != "" {
				t.Errorf("licenseStrings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
