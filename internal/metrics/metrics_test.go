package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/keithlinneman/yummigo-web/internal/version"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func labelsOf(m *dto.Metric) map[string]string {
	out := make(map[string]string)
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestNew_Scrape(t *testing.T) {
	m := New()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, name := range []string{
		"http_inflight_requests",
		"http_panic_total",
		"profiling_active",
		"content_field_edits_total",
		"content_watcher_stale",
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metric %q not found in /metrics output", name)
		}
	}
}

func TestSetBuildInfo(t *testing.T) {
	m := New()
	modified := true
	m.SetBuildInfo(version.Info{App: "yummigo-web", Version: "1.0.0", Commit: "abc", GoVersion: "go1.24", Modified: &modified})

	f := gatherMetric(t, m.reg, "build_info")
	if f == nil {
		t.Fatal("build_info not found")
	}
	labels := labelsOf(f.GetMetric()[0])
	if labels["version"] != "1.0.0" || labels["vcs_modified"] != "true" {
		t.Fatalf("labels = %v", labels)
	}
	if v := f.GetMetric()[0].GetGauge().GetValue(); v != 1 {
		t.Fatalf("build_info = %f, want 1", v)
	}
}

func TestSetBuildInfo_UnknownModified(t *testing.T) {
	m := New()
	m.SetBuildInfo(version.Info{App: "yummigo-web"})
	labels := labelsOf(gatherMetric(t, m.reg, "build_info").GetMetric()[0])
	if labels["vcs_modified"] != "unknown" {
		t.Fatalf("vcs_modified = %q, want unknown", labels["vcs_modified"])
	}
}

func TestSetContent_ReplacesPrevious(t *testing.T) {
	m := New()
	m.SetContent("file", "aaa", time.Unix(100, 0))
	m.SetContent("s3", "bbb", time.Unix(200, 0))

	f := gatherMetric(t, m.reg, "content_info")
	if len(f.GetMetric()) != 1 {
		t.Fatalf("content_info series = %d, want 1", len(f.GetMetric()))
	}
	labels := labelsOf(f.GetMetric()[0])
	if labels["source"] != "s3" || labels["sha256"] != "bbb" {
		t.Fatalf("labels = %v", labels)
	}
	ts := gatherMetric(t, m.reg, "content_loaded_timestamp_seconds").GetMetric()[0].GetGauge().GetValue()
	if ts != 200 {
		t.Fatalf("loaded ts = %f, want 200", ts)
	}
}

func TestContentSaves_ResultLabel(t *testing.T) {
	m := New()
	m.IncContentSave("patch", nil)
	m.IncContentSave("patch", errors.New("boom"))
	m.IncContentSave("patch", nil)

	got := map[string]float64{}
	for _, metric := range gatherMetric(t, m.reg, "content_saves_total").GetMetric() {
		got[labelsOf(metric)["result"]] = metric.GetCounter().GetValue()
	}
	if got["ok"] != 2 || got["error"] != 1 {
		t.Fatalf("saves = %v", got)
	}
}

func TestObserveUpload_ErrorNotSized(t *testing.T) {
	m := New()
	m.ObserveUpload("Hero", 2048, nil)
	m.ObserveUpload("Hero", 4096, errors.New("too large"))

	h := gatherMetric(t, m.reg, "image_upload_size_bytes").GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 || h.GetSampleSum() != 2048 {
		t.Fatalf("upload histogram count=%d sum=%f", h.GetSampleCount(), h.GetSampleSum())
	}
	if n := len(gatherMetric(t, m.reg, "image_uploads_total").GetMetric()); n != 2 {
		t.Fatalf("upload series = %d, want 2", n)
	}
}

func TestWatcherGauges(t *testing.T) {
	m := New()
	m.SetWatcherStale(true)
	m.SetWatcherLastSuccess(time.Unix(42, 0))
	m.IncWatcherError("fetch")

	if v := gatherMetric(t, m.reg, "content_watcher_stale").GetMetric()[0].GetGauge().GetValue(); v != 1 {
		t.Fatalf("stale = %f, want 1", v)
	}
	if v := gatherMetric(t, m.reg, "content_watcher_last_success_timestamp_seconds").GetMetric()[0].GetGauge().GetValue(); v != 42 {
		t.Fatalf("last success = %f, want 42", v)
	}
	m.SetWatcherStale(false)
	if v := gatherMetric(t, m.reg, "content_watcher_stale").GetMetric()[0].GetGauge().GetValue(); v != 0 {
		t.Fatalf("stale = %f, want 0", v)
	}
}
