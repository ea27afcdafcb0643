// Package api serves scans and license lookups over HTTP.
//
//	GET  /healthz                 liveness and build version
//	GET  /v1/managers             registered adapter names
//	POST /v1/scans                scan a project on the server's filesystem
//	GET  /v1/licenses             the license corpus
//	GET  /v1/licenses/{name}      resolve a license name or expression
//
// Errors are JSON objects {"code": ..., "message": ...}. Configuration
// errors map to 400, unknown licenses to 404 and everything else to 500.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/licensetower/pkg/buildinfo"
	"github.com/matzehuels/licensetower/pkg/core/license"
	"github.com/matzehuels/licensetower/pkg/core/scan"
	"github.com/matzehuels/licensetower/pkg/errors"
)

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// Server holds the handler dependencies.
type Server struct {
	scanner *scan.Scanner
	matcher *license.Matcher
	logger  *log.Logger
}

// New returns a server. A nil matcher uses license.Default(); a nil logger
// discards.
func New(scanner *scan.Scanner, matcher *license.Matcher, logger *log.Logger) *Server {
	if matcher == nil {
		matcher = license.Default()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{scanner: scanner, matcher: matcher, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/managers", s.listManagers)
		r.Post("/scans", s.createScan)
		r.Get("/licenses", s.listLicenses)
		r.Get("/licenses/{name}", s.getLicense)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) listManagers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"package_managers": s.scanner.Names()})
}

// ScanRequest is the body of POST /v1/scans.
type ScanRequest struct {
	Path            string   `json:"path"`
	PackageManagers []string `json:"package_managers,omitempty"`
}

func (s *Server) createScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidOption, err, "decode request"))
		return
	}
	res, err := s.scanner.Resolve(r.Context(), req.Path, req.PackageManagers...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LicenseInfo describes one corpus license.
type LicenseInfo struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	URL     string   `json:"url,omitempty"`
}

func infoOf(l *license.License) LicenseInfo {
	return LicenseInfo{Name: l.Name, Aliases: l.Aliases, URL: l.URL}
}

func (s *Server) listLicenses(w http.ResponseWriter, _ *http.Request) {
	all := s.matcher.All()
	out := make([]LicenseInfo, 0, len(all))
	for _, l := range all {
		out = append(out, infoOf(l))
	}
	writeJSON(w, http.StatusOK, map[string][]LicenseInfo{"licenses": out})
}

// LicenseLookup is the body of GET /v1/licenses/{name}.
type LicenseLookup struct {
	Query    string        `json:"query"`
	Licenses []LicenseInfo `json:"licenses"`
	Complete bool          `json:"complete"`
}

func (s *Server) getLicense(w http.ResponseWriter, r *http.Request) {
	q := chi.URLParam(r, "name")
	if err := errors.ValidateLicenseQuery(q); err != nil {
		s.writeError(w, err)
		return
	}
	set := s.matcher.FindAllByName(q)
	if !set.HasKnown() {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no license matches %q", q))
		return
	}
	out := LicenseLookup{Query: q, Complete: set.Len() == set.WithoutUnknown().Len()}
	for _, l := range set.WithoutUnknown().Slice() {
		out.Licenses = append(out.Licenses, infoOf(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func statusOf(err error) int {
	switch {
	case errors.IsConfig(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeNetwork):
		return http.StatusBadGateway
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorBody{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
