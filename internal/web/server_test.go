package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hoplab/panelhop/internal/app"
	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/pkg/log"
)

type sentCall struct {
	target app.Target
	kind   domain.CommandKind
}

type fakeSender struct {
	profiles []domain.DeviceProfile
	calls    []sentCall
	gridBufs []domain.PixelBuffer
	report   domain.SendReport
	err      error
}

func (f *fakeSender) Send(_ context.Context, target app.Target, frame domain.CommandFrame) (domain.SendReport, error) {
	f.calls = append(f.calls, sentCall{target: target, kind: frame.Kind})
	return f.report, f.err
}

func (f *fakeSender) SendGrid(_ context.Context, buf domain.PixelBuffer) (domain.SendReport, error) {
	f.gridBufs = append(f.gridBufs, buf)
	return f.report, f.err
}

func (f *fakeSender) Profiles() []domain.DeviceProfile {
	return f.profiles
}

type fakeScanner struct {
	discoveries []ports.Discovery
}

func (f *fakeScanner) Scan(_ context.Context, found func(ports.Discovery)) error {
	for _, d := range f.discoveries {
		found(d)
	}
	return nil
}

func testProfiles() []domain.DeviceProfile {
	return []domain.DeviceProfile{
		{
			ID:      domain.MustDeviceID("AA:00:00:00:00:01"),
			Name:    "desk",
			Enabled: true,
			Order:   1,
			Grid:    domain.GridTopLeft,
		},
		{
			ID:      domain.MustDeviceID("AA:00:00:00:00:02"),
			Name:    "shelf",
			Enabled: false,
			Order:   2,
		},
	}
}

func okReport(id domain.DeviceID) domain.SendReport {
	return domain.SendReport{{ID: id, Name: "desk", Elapsed: 120 * time.Millisecond}}
}

func newTestServer(sender *fakeSender, scanner ports.Scanner) *Server {
	return NewServer(sender, scanner, log.NewNoopLogger())
}

func postForm(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlePanels(t *testing.T) {
	sender := &fakeSender{profiles: testProfiles()}
	srv := newTestServer(sender, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/panels", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var panels []panelJSON
	if err := json.NewDecoder(rec.Body).Decode(&panels); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(panels) != 2 {
		t.Fatalf("got %d panels, want 2", len(panels))
	}
	if panels[0].Name != "desk" || panels[0].Grid != "top-left" || !panels[0].Enabled {
		t.Errorf("first panel = %+v", panels[0])
	}
	if panels[1].Grid != "" {
		t.Errorf("unassigned panel reports grid %q", panels[1].Grid)
	}
}

func TestHandleTextToPanel(t *testing.T) {
	profiles := testProfiles()
	sender := &fakeSender{profiles: profiles, report: okReport(profiles[0].ID)}
	srv := newTestServer(sender, nil)

	rec := postForm(t, srv.Handler(), "/api/text", url.Values{
		"text":   {"HI"},
		"color":  {"red"},
		"target": {"desk"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(sender.calls) != 1 {
		t.Fatalf("got %d sends, want 1", len(sender.calls))
	}
	call := sender.calls[0]
	if call.kind != domain.KindText {
		t.Errorf("frame kind = %v, want text", call.kind)
	}
	if call.target.Kind != app.TargetDevice || call.target.Device != profiles[0].ID {
		t.Errorf("target = %+v, want device desk", call.target)
	}

	var report reportJSON
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !report.OK || len(report.Results) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestHandleTextToGrid(t *testing.T) {
	sender := &fakeSender{profiles: testProfiles(), report: domain.SendReport{}}
	srv := newTestServer(sender, nil)

	rec := postForm(t, srv.Handler(), "/api/text", url.Values{
		"text":   {"GO"},
		"target": {"grid"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(sender.gridBufs) != 1 {
		t.Fatalf("got %d grid sends, want 1", len(sender.gridBufs))
	}
	if !sender.gridBufs[0].IsGrid() {
		t.Errorf("grid buffer is %dx%d", sender.gridBufs[0].Width(), sender.gridBufs[0].Height())
	}
}

func TestHandleTextRequiresText(t *testing.T) {
	srv := newTestServer(&fakeSender{}, nil)

	rec := postForm(t, srv.Handler(), "/api/text", url.Values{"target": {"all"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTextBadColor(t *testing.T) {
	srv := newTestServer(&fakeSender{}, nil)

	rec := postForm(t, srv.Handler(), "/api/text", url.Values{
		"text":  {"HI"},
		"color": {"mauve"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSendImage(t *testing.T) {
	profiles := testProfiles()
	sender := &fakeSender{profiles: profiles, report: okReport(profiles[0].ID)}
	srv := newTestServer(sender, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "fixture.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	mw.WriteField("target", "all")
	mw.WriteField("mode", "fit")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/send", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(sender.calls) != 1 {
		t.Fatalf("got %d sends, want 1", len(sender.calls))
	}
	if sender.calls[0].kind != domain.KindImage {
		t.Errorf("frame kind = %v, want image", sender.calls[0].kind)
	}
	if sender.calls[0].target.Kind != app.TargetAll {
		t.Errorf("target = %+v, want all", sender.calls[0].target)
	}
}

func TestHandleSendRequiresImage(t *testing.T) {
	srv := newTestServer(&fakeSender{}, nil)

	rec := postForm(t, srv.Handler(), "/api/send", url.Values{"target": {"all"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleClearUnknownPanel(t *testing.T) {
	srv := newTestServer(&fakeSender{profiles: testProfiles()}, nil)

	rec := postForm(t, srv.Handler(), "/api/clear", url.Values{"target": {"attic"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlePingDefaultsToAll(t *testing.T) {
	profiles := testProfiles()
	sender := &fakeSender{profiles: profiles, report: okReport(profiles[0].ID)}
	srv := newTestServer(sender, nil)

	rec := postForm(t, srv.Handler(), "/api/ping", url.Values{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(sender.calls) != 1 || sender.calls[0].target.Kind != app.TargetAll {
		t.Fatalf("calls = %+v, want one all-target ping", sender.calls)
	}
	if sender.calls[0].kind != domain.KindPing {
		t.Errorf("frame kind = %v, want ping", sender.calls[0].kind)
	}
}

func TestHandleScan(t *testing.T) {
	profiles := testProfiles()
	scanner := &fakeScanner{discoveries: []ports.Discovery{
		{ID: profiles[0].ID, LocalName: "LED_BLE_D58123", RSSI: -40},
		{ID: domain.MustDeviceID("BB:00:00:00:00:09"), LocalName: "LED_BLE_NEW", RSSI: -70},
		{ID: profiles[0].ID, LocalName: "LED_BLE_D58123", RSSI: -41},
	}}
	srv := newTestServer(&fakeSender{profiles: profiles}, scanner)

	rec := postForm(t, srv.Handler(), "/api/scan", url.Values{"seconds": {"1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var found []discoveryJSON
	if err := json.NewDecoder(rec.Body).Decode(&found); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("got %d discoveries, want 2 after dedupe", len(found))
	}
	if !found[0].Known {
		t.Errorf("registered panel not marked known: %+v", found[0])
	}
	if found[1].Known {
		t.Errorf("new panel marked known: %+v", found[1])
	}
}

func TestHandleScanWithoutRadio(t *testing.T) {
	srv := newTestServer(&fakeSender{}, nil)

	rec := postForm(t, srv.Handler(), "/api/scan", url.Values{})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthAndIndex(t *testing.T) {
	srv := newTestServer(&fakeSender{profiles: testProfiles()}, nil)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("/health = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/ status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "panelhop") {
		t.Errorf("index page missing title")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("/nope status = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeSender{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clear", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
