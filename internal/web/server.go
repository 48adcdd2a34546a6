package web

import (
	"context"
	"net/http"
	"time"

	"github.com/hoplab/panelhop/internal/app"
	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/pkg/log"
)

// maxUploadBytes caps one image upload. Panels show 32x32; anything
// bigger than this is a mistake, not a larger picture.
const maxUploadBytes = 16 << 20

// DefaultScanWindow bounds one discovery sweep started from the API.
const DefaultScanWindow = domain.DefaultScanTimeout

// Sender is the slice of the coordinator the handlers drive.
type Sender interface {
	Send(ctx context.Context, target app.Target, frame domain.CommandFrame) (domain.SendReport, error)
	SendGrid(ctx context.Context, buf domain.PixelBuffer) (domain.SendReport, error)
	Profiles() []domain.DeviceProfile
}

// Server handles the HTTP API. Scanner may be nil; the scan endpoint
// then answers 503.
type Server struct {
	sender  Sender
	scanner ports.Scanner
	logger  ports.Logger

	// ScanWindow bounds scans started from /api/scan. Zero means
	// DefaultScanWindow.
	ScanWindow time.Duration
}

// NewServer creates the control surface over the given coordinator.
func NewServer(sender Sender, scanner ports.Scanner, logger ports.Logger) *Server {
	return &Server{
		sender:  sender,
		scanner: scanner,
		logger:  logger,
	}
}

// Handler returns the routing mux, for embedding in existing servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/panels", s.handlePanels)
	mux.HandleFunc("/api/send", s.handleSend)
	mux.HandleFunc("/api/text", s.handleText)
	mux.HandleFunc("/api/clear", s.handleClear)
	mux.HandleFunc("/api/ping", s.handlePing)
	mux.HandleFunc("/api/scan", s.handleScan)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", s.handleIndex)

	return mux
}

// Run serves the API on addr until ctx ends, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.logger.Info("web surface up", log.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errc
	return nil
}
