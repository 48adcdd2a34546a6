package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hoplab/panelhop/internal/app"
	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/media"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/internal/protocol"
	"github.com/hoplab/panelhop/pkg/log"
)

// targetGrid is the sentinel target name alongside "all" and panel
// names.
const targetGrid = "grid"

type panelJSON struct {
	MAC     string `json:"mac"`
	Name    string `json:"name,omitempty"`
	Enabled bool   `json:"enabled"`
	Order   int    `json:"order"`
	Grid    string `json:"grid,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type resultJSON struct {
	MAC       string `json:"mac"`
	Name      string `json:"name,omitempty"`
	Position  string `json:"position,omitempty"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Attempts  int    `json:"attempts"`
	Chunks    int    `json:"chunks"`
	Bytes     int    `json:"bytes"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

type reportJSON struct {
	OK      bool         `json:"ok"`
	Summary string       `json:"summary"`
	Results []resultJSON `json:"results"`
}

type discoveryJSON struct {
	MAC   string `json:"mac"`
	Name  string `json:"name,omitempty"`
	RSSI  int16  `json:"rssi"`
	Known bool   `json:"known"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	profiles := s.sender.Profiles()
	panels := make([]panelJSON, 0, len(profiles))
	for _, p := range profiles {
		grid := ""
		if p.Grid != domain.GridNone {
			grid = p.Grid.String()
		}
		panels = append(panels, panelJSON{
			MAC:     p.ID.String(),
			Name:    p.Name,
			Enabled: p.Enabled,
			Order:   p.Order,
			Grid:    grid,
			Notes:   p.Notes,
		})
	}
	writeJSON(w, http.StatusOK, panels)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("image upload missing: %v", err))
		return
	}
	defer file.Close()

	img, err := media.Decode(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, err := media.ParseResizeMode(r.FormValue("mode"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if r.FormValue("target") == targetGrid {
		buf, err := media.PrepareGrid(img, mode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		report, err := s.sender.SendGrid(r.Context(), buf)
		s.respond(w, report, err)
		return
	}

	target, err := s.parseTarget(r.FormValue("target"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	buf, err := media.PreparePanel(img, mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	frame, err := protocol.EncodeImage(buf)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	report, err := s.sender.Send(r.Context(), target, frame)
	s.respond(w, report, err)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}
	fg, err := media.ParseColor(r.FormValue("color"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if r.FormValue("target") == targetGrid {
		// The grid shows one large rendering split across its panels.
		buf, err := media.RenderText(text, domain.GridSize, domain.GridSize, fg, media.Color{})
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		report, err := s.sender.SendGrid(r.Context(), buf)
		s.respond(w, report, err)
		return
	}

	target, err := s.parseTarget(r.FormValue("target"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	mask, err := media.RenderMask(text, domain.PanelSize, domain.PanelSize)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	frame, err := protocol.EncodeText(mask, fg.R, fg.G, fg.B)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	report, err := s.sender.Send(r.Context(), target, frame)
	s.respond(w, report, err)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.handleBareFrame(w, r, protocol.EncodeClear())
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.handleBareFrame(w, r, protocol.EncodePing())
}

// handleBareFrame serves the payload-free commands, which share one
// frame across every selected panel.
func (s *Server) handleBareFrame(w http.ResponseWriter, r *http.Request, frame domain.CommandFrame) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	target, err := s.parseTarget(r.FormValue("target"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	report, err := s.sender.Send(r.Context(), target, frame)
	s.respond(w, report, err)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.scanner == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("no radio available"))
		return
	}

	window := s.ScanWindow
	if window <= 0 {
		window = DefaultScanWindow
	}
	if secs := r.FormValue("seconds"); secs != "" {
		n, err := strconv.Atoi(secs)
		if err != nil || n < 1 || n > 60 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("seconds must be 1..60, got %q", secs))
			return
		}
		window = time.Duration(n) * time.Second
	}

	known := make(map[domain.DeviceID]bool)
	for _, p := range s.sender.Profiles() {
		known[p.ID] = true
	}

	ctx, cancel := context.WithTimeout(r.Context(), window)
	defer cancel()

	seen := make(map[domain.DeviceID]bool)
	found := make([]discoveryJSON, 0, 4)
	err := s.scanner.Scan(ctx, func(d ports.Discovery) {
		if seen[d.ID] {
			return
		}
		seen[d.ID] = true
		found = append(found, discoveryJSON{
			MAC:   d.ID.String(),
			Name:  d.LocalName,
			RSSI:  d.RSSI,
			Known: known[d.ID],
		})
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	profiles := s.sender.Profiles()
	enabled := 0
	for _, p := range profiles {
		if p.Enabled {
			enabled++
		}
	}

	w.Header().Set("Content-Type", "text/html")
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>panelhop</title>
    <style>
        body { font-family: system-ui; background: #111; color: #ffbf00; padding: 2rem; }
        h1 { letter-spacing: 0.1em; }
        .info { background: #1c1c1c; padding: 1rem; border-radius: 8px; margin: 1rem 0; }
        a { color: #ff9900; }
        code { color: #ddd; }
    </style>
</head>
<body>
    <h1>panelhop</h1>
    <div class="info">
        <p><strong>Panels:</strong> %d configured, %d enabled</p>
        <p><strong>API:</strong> <a href="/api/panels">/api/panels</a></p>
    </div>
    <p>POST <code>/api/send</code> (multipart image), <code>/api/text</code>,
       <code>/api/clear</code>, <code>/api/ping</code>, <code>/api/scan</code>.
       Select panels with <code>target=&lt;name|mac|all|grid&gt;</code>.</p>
</body>
</html>`, len(profiles), enabled)
	w.Write([]byte(html))
}

// parseTarget resolves the target form value: "all" (or empty), a panel
// name, or a panel address. "grid" is handled by the callers that can
// split composites.
func (s *Server) parseTarget(value string) (app.Target, error) {
	name := strings.TrimSpace(value)
	if name == "" || strings.EqualFold(name, "all") {
		return app.AllTarget(), nil
	}

	if id, err := domain.ParseDeviceID(name); err == nil {
		return app.DeviceTarget(id), nil
	}
	for _, p := range s.sender.Profiles() {
		if strings.EqualFold(p.Name, name) {
			return app.DeviceTarget(p.ID), nil
		}
	}
	return app.Target{}, fmt.Errorf("%w: no panel named %q", domain.ErrUnknownDevice, name)
}

// respond renders a send outcome, mapping resolution failures to
// status codes and per-panel failures into the report body.
func (s *Server) respond(w http.ResponseWriter, report domain.SendReport, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrUnknownDevice):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrDimension):
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}

	out := reportJSON{
		OK:      report.AllOK(),
		Summary: report.Summary(),
		Results: make([]resultJSON, 0, len(report)),
	}
	for _, res := range report {
		rj := resultJSON{
			MAC:       res.ID.String(),
			Name:      res.Name,
			OK:        res.OK(),
			Attempts:  res.Attempts,
			Chunks:    res.ChunksWritten,
			Bytes:     res.BytesSent,
			ElapsedMS: res.Elapsed.Milliseconds(),
		}
		if res.Position != domain.GridNone {
			rj.Position = res.Position.String()
		}
		if res.Err != nil {
			rj.Error = res.Err.Error()
		}
		out.Results = append(out.Results, rj)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request rejected", log.Int("status", status), log.Err(err))
	writeJSON(w, status, errorJSON{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
