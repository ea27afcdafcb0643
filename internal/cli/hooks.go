package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/licensetower/pkg/observability"
)

// logHooks reports observability events through the CLI logger.
type logHooks struct {
	logger *log.Logger
}

func registerHooks(logger *log.Logger) {
	h := &logHooks{logger: logger}
	observability.SetScanHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *logHooks) OnScanStart(_ context.Context, project string) {
	h.logger.Debug("scan started", "project", project)
}

func (h *logHooks) OnScanComplete(_ context.Context, project string, packages int, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("scan failed", "project", project, "err", err)
	}
}

func (h *logHooks) OnAdapterStart(_ context.Context, _, manager string) {
	h.logger.Debug("running package manager", "manager", manager)
}

func (h *logHooks) OnAdapterComplete(_ context.Context, _, manager string, packages int, d time.Duration, err error) {
	h.logger.Info("enumerated", "manager", manager, "packages", packages, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnUnknownLicense(_ context.Context, _, manager, pkg string) {
	h.logger.Debug("unknown license", "manager", manager, "package", pkg)
}

func (h *logHooks) OnCacheHit(_ context.Context, namespace string) {
	h.logger.Debug("cache hit", "namespace", namespace)
}

func (h *logHooks) OnCacheMiss(_ context.Context, namespace string) {
	h.logger.Debug("cache miss", "namespace", namespace)
}

func (h *logHooks) OnCacheSet(context.Context, string, int) {}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "host", host, "path", path, "err", err)
}
