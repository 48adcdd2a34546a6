package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/internal/protocol"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}
func (m mockLogger) With(fields ...ports.Field) ports.Logger {
	return m
}

// stubLink accepts every write. The large chunk size keeps any frame to a
// single chunk so tests never pace real sleeps.
type stubLink struct {
	mu      sync.Mutex
	writes  int
	onWrite func() error
}

func (l *stubLink) WriteChunk(ctx context.Context, ch domain.Chunk) error {
	l.mu.Lock()
	l.writes++
	l.mu.Unlock()
	if l.onWrite != nil {
		return l.onWrite()
	}
	return nil
}

func (l *stubLink) ChunkSize() int { return 4096 }
func (l *stubLink) Close() error   { return nil }

// stubDialer connects every device except those in refuse.
type stubDialer struct {
	mu      sync.Mutex
	dials   int
	refuse  map[domain.DeviceID]bool
	onWrite func() error
}

func (d *stubDialer) Dial(ctx context.Context, id domain.DeviceID) (ports.DeviceLink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.refuse[id] {
		return nil, errors.New("out of range")
	}
	return &stubLink{onWrite: d.onWrite}, nil
}

func (d *stubDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func gridProfiles() []domain.DeviceProfile {
	mk := func(last byte, name string, order int, pos domain.GridPosition) domain.DeviceProfile {
		return domain.DeviceProfile{
			ID:             domain.DeviceID{0xAA, 0, 0, 0, 0, last},
			Name:           name,
			Enabled:        true,
			Order:          order,
			Grid:           pos,
			ConnectTimeout: 50 * time.Millisecond,
			RetryCount:     0,
		}
	}
	return []domain.DeviceProfile{
		mk(1, "tl", 1, domain.GridTopLeft),
		mk(2, "tr", 2, domain.GridTopRight),
		mk(3, "bl", 3, domain.GridBottomLeft),
		mk(4, "br", 4, domain.GridBottomRight),
	}
}

func gridBuffer(t *testing.T) domain.PixelBuffer {
	t.Helper()
	buf, err := domain.NewFilledBuffer(domain.GridSize, domain.GridSize, 1, 2, 3)
	if err != nil {
		t.Fatalf("NewFilledBuffer: %v", err)
	}
	return buf
}

func TestCoordinator_SendAll(t *testing.T) {
	profiles := gridProfiles()
	profiles[2].Enabled = false

	dialer := &stubDialer{}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(profiles)

	report, err := c.Send(context.Background(), AllTarget(), protocol.EncodePing())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	// One result per enabled panel, in registry order.
	if report.Size() != 3 {
		t.Fatalf("report size = %d, want 3", report.Size())
	}
	wantNames := []string{"tl", "tr", "br"}
	for i, res := range report {
		if res.Name != wantNames[i] {
			t.Errorf("result %d = %s, want %s", i, res.Name, wantNames[i])
		}
		if res.Err != nil {
			t.Errorf("result %d failed: %v", i, res.Err)
		}
	}
	if !report.AllOK() {
		t.Error("AllOK() = false, want true")
	}
}

func TestCoordinator_SendDevice(t *testing.T) {
	profiles := gridProfiles()
	profiles[0].Enabled = false // explicit targeting ignores Enabled

	dialer := &stubDialer{}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(profiles)

	report, err := c.Send(context.Background(), DeviceTarget(profiles[0].ID), protocol.EncodePing())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if report.Size() != 1 || report[0].ID != profiles[0].ID {
		t.Fatalf("report = %+v, want the one targeted panel", report)
	}
	if report[0].Err != nil {
		t.Errorf("send failed: %v", report[0].Err)
	}
}

func TestCoordinator_SendUnknownDevice(t *testing.T) {
	c := NewCoordinator(&stubDialer{}, mockLogger{}, 0, nil)
	c.UpdateProfiles(gridProfiles())

	ghost := domain.MustDeviceID("DE:AD:BE:EF:00:00")
	_, err := c.Send(context.Background(), DeviceTarget(ghost), protocol.EncodePing())
	if !errors.Is(err, domain.ErrUnknownDevice) {
		t.Fatalf("error = %v, want ErrUnknownDevice", err)
	}
}

func TestCoordinator_SendAllEmpty(t *testing.T) {
	profiles := gridProfiles()
	for i := range profiles {
		profiles[i].Enabled = false
	}

	dialer := &stubDialer{}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(profiles)

	report, err := c.Send(context.Background(), AllTarget(), protocol.EncodePing())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !report.Empty() {
		t.Errorf("report size = %d, want 0", report.Size())
	}
	if dialer.Dials() != 0 {
		t.Errorf("dials = %d, want 0", dialer.Dials())
	}
}

func TestCoordinator_SendGrid(t *testing.T) {
	dialer := &stubDialer{}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(gridProfiles())

	report, err := c.SendGrid(context.Background(), gridBuffer(t))
	if err != nil {
		t.Fatalf("SendGrid: %v", err)
	}

	if report.Size() != 4 {
		t.Fatalf("report size = %d, want 4", report.Size())
	}
	wantPos := []domain.GridPosition{
		domain.GridTopLeft, domain.GridTopRight, domain.GridBottomLeft, domain.GridBottomRight,
	}
	for i, res := range report {
		if res.Position != wantPos[i] {
			t.Errorf("result %d position = %v, want %v", i, res.Position, wantPos[i])
		}
		if res.Err != nil {
			t.Errorf("slot %v failed: %v", res.Position, res.Err)
		}
	}
}

func TestCoordinator_SendGridTargetSameFrame(t *testing.T) {
	profiles := gridProfiles()
	profiles[1].Grid = domain.GridNone

	dialer := &stubDialer{}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(profiles)

	report, err := c.Send(context.Background(), GridTarget(), protocol.EncodeClear())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Only slot holders, in raster order; tr gave up its slot.
	if report.Size() != 3 {
		t.Fatalf("report size = %d, want 3", report.Size())
	}
	wantNames := []string{"tl", "bl", "br"}
	for i, res := range report {
		if res.Name != wantNames[i] {
			t.Errorf("result %d = %s, want %s", i, res.Name, wantNames[i])
		}
	}
	if !report.AllOK() {
		t.Error("AllOK() = false, want true")
	}
}

func TestCoordinator_SendGridPartialFailure(t *testing.T) {
	profiles := gridProfiles()
	dialer := &stubDialer{refuse: map[domain.DeviceID]bool{profiles[1].ID: true}}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(profiles)

	report, err := c.SendGrid(context.Background(), gridBuffer(t))
	if err != nil {
		t.Fatalf("SendGrid: %v", err)
	}

	// The unreachable panel contributes a failed entry; the other three
	// still complete.
	if report.Size() != 4 {
		t.Fatalf("report size = %d, want 4 regardless of failures", report.Size())
	}
	if got := report.Succeeded(); got != 3 {
		t.Errorf("Succeeded() = %d, want 3", got)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].ID != profiles[1].ID {
		t.Fatalf("Failed() = %+v, want just the refused panel", failed)
	}
	if !errors.Is(failed[0].Err, domain.ErrConnection) {
		t.Errorf("failure = %v, want ErrConnection", failed[0].Err)
	}
	if report.Summary() != "3 of 4 panel(s) updated" {
		t.Errorf("Summary() = %q", report.Summary())
	}
}

func TestCoordinator_SendGridRejectsBadDimensions(t *testing.T) {
	dialer := &stubDialer{}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(gridProfiles())

	buf, err := domain.NewPixelBuffer(31, 32, make([]byte, 31*32*3))
	if err != nil {
		t.Fatalf("NewPixelBuffer: %v", err)
	}

	_, err = c.SendGrid(context.Background(), buf)
	if !errors.Is(err, domain.ErrDimension) {
		t.Fatalf("error = %v, want ErrDimension", err)
	}
	if dialer.Dials() != 0 {
		t.Errorf("dials = %d, want 0 for rejected buffer", dialer.Dials())
	}
}

func TestCoordinator_SendGridNoAssignments(t *testing.T) {
	profiles := gridProfiles()
	for i := range profiles {
		profiles[i].Grid = domain.GridNone
	}
	c := NewCoordinator(&stubDialer{}, mockLogger{}, 0, nil)
	c.UpdateProfiles(profiles)

	_, err := c.SendGrid(context.Background(), gridBuffer(t))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}

func TestCoordinator_ConnectSlotCap(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	dialer := &stubDialer{onWrite: func() error {
		started <- struct{}{}
		<-release
		return nil
	}}
	c := NewCoordinator(dialer, mockLogger{}, 1, nil)
	c.UpdateProfiles(gridProfiles())

	done := make(chan domain.SendReport, 1)
	go func() {
		report, _ := c.Send(context.Background(), AllTarget(), protocol.EncodePing())
		done <- report
	}()

	// With one slot, exactly one transfer is in flight at a time.
	<-started
	select {
	case <-started:
		t.Fatal("second transfer started while slot was held")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	report := <-done
	if !report.AllOK() {
		t.Fatalf("report = %+v, want all ok", report)
	}
}

func TestCoordinator_UpdateProfilesDropsChangedSessions(t *testing.T) {
	profiles := gridProfiles()
	dialer := &stubDialer{}
	c := NewCoordinator(dialer, mockLogger{}, 0, nil)
	c.UpdateProfiles(profiles)

	if _, err := c.Send(context.Background(), DeviceTarget(profiles[0].ID), protocol.EncodePing()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(c.SessionStates()) != 1 {
		t.Fatalf("sessions = %d, want 1", len(c.SessionStates()))
	}

	// Changing a tuning field retires the session; the rest are untouched.
	profiles[0].SendDelay = 99 * time.Millisecond
	c.UpdateProfiles(profiles)

	if len(c.SessionStates()) != 0 {
		t.Errorf("sessions = %d after profile change, want 0", len(c.SessionStates()))
	}

	// The next send works with the fresh profile.
	report, err := c.Send(context.Background(), DeviceTarget(profiles[0].ID), protocol.EncodePing())
	if err != nil || !report.AllOK() {
		t.Fatalf("Send after update = (%+v, %v), want success", report, err)
	}
}
