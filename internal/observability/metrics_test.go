package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/beatbridge/internal/bridge"
)

func TestRegisterBridgeIsIdempotentAndScrapable(t *testing.T) {
	telem := bridge.Telemetry{
		FramesTotal: 3,
		BytesTotal:  96,
		StallCycles: 5,
		QueueLevel:  2,
		Aborts:      1,
	}
	source := func() bridge.Telemetry { return telem }
	RegisterBridge(source)
	RegisterBridge(source) // second registration must be a no-op

	srv := NewMetricsServer(":0", source, zerolog.Nop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("scrape status=%d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	page := string(body)
	for _, want := range []string{
		"beatbridge_bridge_frames_total 3",
		"beatbridge_bridge_bytes_total 96",
		"beatbridge_bridge_stall_cycles_total 5",
		"beatbridge_bridge_queue_level 2",
		"beatbridge_bridge_aborts_total 1",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("scrape missing %q:\n%s", want, page)
		}
	}
}

func TestTelemetryEndpointServesSnapshot(t *testing.T) {
	source := func() bridge.Telemetry { return bridge.Telemetry{FramesTotal: 7} }
	srv := NewMetricsServer(":0", source, zerolog.Nop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/telemetry", nil)
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "\"FramesTotal\":7") {
		t.Fatalf("snapshot body: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewMetricsServer(":0", func() bridge.Telemetry { return bridge.Telemetry{} }, zerolog.Nop())
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "beatbridge") {
		t.Fatalf("health: code=%d body=%s", rec.Code, rec.Body.String())
	}
}
