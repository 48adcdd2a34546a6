package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/internal/protocol"
	"github.com/hoplab/panelhop/internal/session"
	"github.com/hoplab/panelhop/pkg/log"
)

// DefaultMaxConcurrentConnects caps how many panels the coordinator dials
// at once. The radio stack degrades with more simultaneous centrals.
const DefaultMaxConcurrentConnects = 3

// DefaultTransferTimeout bounds the chunk-writing phase of one send, on
// top of the device's connect budget.
const DefaultTransferTimeout = 30 * time.Second

// Coordinator fans frames out to device sessions and collects one result
// per targeted panel. Every operation is best effort: individual failures
// never abort the rest of the fan-out, and the report always holds one
// entry per target in target order.
type Coordinator struct {
	dialer   ports.LinkDialer
	logger   ports.Logger
	observer session.StateObserver
	slots    *semaphore.Weighted

	mu       sync.Mutex
	profiles map[domain.DeviceID]domain.DeviceProfile
	sessions map[domain.DeviceID]*session.Session
}

// NewCoordinator creates a coordinator. maxConnects caps concurrent
// connect/transfer cycles; zero or negative means
// DefaultMaxConcurrentConnects. The observer may be nil.
func NewCoordinator(dialer ports.LinkDialer, logger ports.Logger, maxConnects int, observer session.StateObserver) *Coordinator {
	if maxConnects <= 0 {
		maxConnects = DefaultMaxConcurrentConnects
	}
	return &Coordinator{
		dialer:   dialer,
		logger:   logger,
		observer: observer,
		slots:    semaphore.NewWeighted(int64(maxConnects)),
		profiles: make(map[domain.DeviceID]domain.DeviceProfile),
		sessions: make(map[domain.DeviceID]*session.Session),
	}
}

// UpdateProfiles replaces the profile snapshot. Sessions for removed or
// changed profiles are closed so the next send picks up fresh settings;
// unchanged profiles keep their sessions and any warm links.
func (c *Coordinator) UpdateProfiles(profiles []domain.DeviceProfile) {
	next := make(map[domain.DeviceID]domain.DeviceProfile, len(profiles))
	for _, p := range profiles {
		next[p.ID] = p
	}

	c.mu.Lock()
	var stale []*session.Session
	for id, sess := range c.sessions {
		if p, ok := next[id]; !ok || p != c.profiles[id] {
			stale = append(stale, sess)
			delete(c.sessions, id)
		}
	}
	c.profiles = next
	c.mu.Unlock()

	for _, sess := range stale {
		// Close waits for an in-flight transfer; do not hold up the
		// registry reload on it.
		go func(s *session.Session) {
			if err := s.Close(); err != nil {
				c.logger.Warn("stale session close", log.Err(err))
			}
		}(sess)
	}

	c.logger.Debug("profiles updated",
		log.Int("profiles", len(profiles)),
		log.Int("sessions_dropped", len(stale)),
	)
}

// Profiles returns the current snapshot in registry order.
func (c *Coordinator) Profiles() []domain.DeviceProfile {
	c.mu.Lock()
	out := make([]domain.DeviceProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p)
	}
	c.mu.Unlock()

	domain.SortProfiles(out)
	return out
}

// SessionStates reports the live state of every known session.
func (c *Coordinator) SessionStates() map[domain.DeviceID]session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[domain.DeviceID]session.State, len(c.sessions))
	for id, sess := range c.sessions {
		out[id] = sess.State()
	}
	return out
}

// Send delivers one frame to every panel the target selects. The report
// holds one entry per panel in target order; a panel that cannot be
// reached contributes a failed entry instead of aborting the rest.
// The returned error is reserved for target resolution problems; an empty
// target set is not an error.
func (c *Coordinator) Send(ctx context.Context, target Target, frame domain.CommandFrame) (domain.SendReport, error) {
	profiles, err := c.resolve(target)
	if err != nil {
		return nil, err
	}

	jobs := make([]sendJob, len(profiles))
	for i, p := range profiles {
		jobs[i] = sendJob{profile: p, frame: frame, position: domain.GridNone}
	}
	return c.fanOut(ctx, target, frame.Kind, jobs), nil
}

// SendGrid splits a composite image across the assigned grid panels, each
// receiving its own encoded quadrant. The buffer must be GridSize square;
// anything else is ErrDimension before any radio work starts. An empty
// grid assignment is ErrConfiguration.
func (c *Coordinator) SendGrid(ctx context.Context, buf domain.PixelBuffer) (domain.SendReport, error) {
	profiles := c.Profiles()
	layout, err := domain.LayoutFromProfiles(profiles)
	if err != nil {
		return nil, err
	}
	if layout.Len() == 0 {
		return nil, fmt.Errorf("%w: no panels assigned to grid slots", domain.ErrConfiguration)
	}

	tiles, err := domain.SplitGrid(buf, layout)
	if err != nil {
		return nil, err
	}

	byID := make(map[domain.DeviceID]domain.DeviceProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	jobs := make([]sendJob, 0, len(tiles))
	for _, tile := range tiles {
		frame, err := protocol.EncodeImage(tile.Buffer)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, sendJob{profile: byID[tile.ID], frame: frame, position: tile.Position})
	}

	return c.fanOut(ctx, GridTarget(), domain.KindImage, jobs), nil
}

// sendJob is one unit of fan-out work: a frame bound for one panel.
type sendJob struct {
	profile  domain.DeviceProfile
	frame    domain.CommandFrame
	position domain.GridPosition
}

// fanOut runs the jobs concurrently, capped by the connect semaphore, and
// returns one result per job in job order.
func (c *Coordinator) fanOut(ctx context.Context, target Target, kind domain.CommandKind, jobs []sendJob) domain.SendReport {
	opID := uuid.New().String()
	opLog := c.logger.With(
		log.String("op", opID),
		log.String("target", target.String()),
		log.String("kind", kind.String()),
	)
	opLog.Info("send started", log.Int("panels", len(jobs)))

	report := make(domain.SendReport, len(jobs))
	start := time.Now()

	var g errgroup.Group
	for i := range jobs {
		i, job := i, jobs[i]
		g.Go(func() error {
			report[i] = c.runJob(ctx, job)
			return nil
		})
	}
	// Goroutines always return nil; failures live in the report.
	_ = g.Wait()

	opLog.Info("send finished",
		log.String("summary", report.Summary()),
		log.Duration("elapsed", time.Since(start)),
	)
	return report
}

// runJob delivers one frame to one panel, bounded by the device's connect
// budget plus the transfer allowance.
func (c *Coordinator) runJob(ctx context.Context, job sendJob) domain.SendResult {
	fail := func(err error) domain.SendResult {
		return domain.SendResult{
			ID:       job.profile.ID,
			Name:     job.profile.DisplayName(),
			Position: job.position,
			Err:      err,
		}
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		return fail(fmt.Errorf("%w: waiting for connect slot: %v", domain.ErrConnection, err))
	}
	defer c.slots.Release(1)

	bound := job.profile.AttemptBudget() + DefaultTransferTimeout
	jobCtx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	res := c.sessionFor(job.profile).Send(jobCtx, job.frame)
	res.Position = job.position
	return res
}

// sessionFor returns the session for a profile, creating it on first use.
func (c *Coordinator) sessionFor(profile domain.DeviceProfile) *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess, ok := c.sessions[profile.ID]; ok {
		return sess
	}
	sess := session.New(profile, c.dialer, c.logger, c.observer)
	c.sessions[profile.ID] = sess
	return sess
}

// resolve expands a target into the profiles it addresses, in send order.
func (c *Coordinator) resolve(target Target) ([]domain.DeviceProfile, error) {
	switch target.Kind {
	case TargetAll:
		var out []domain.DeviceProfile
		for _, p := range c.Profiles() {
			if p.Enabled {
				out = append(out, p)
			}
		}
		return out, nil

	case TargetDevice:
		c.mu.Lock()
		p, ok := c.profiles[target.Device]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDevice, target.Device)
		}
		return []domain.DeviceProfile{p}, nil

	case TargetGrid:
		profiles := c.Profiles()
		layout, err := domain.LayoutFromProfiles(profiles)
		if err != nil {
			return nil, err
		}
		byID := make(map[domain.DeviceID]domain.DeviceProfile, len(profiles))
		for _, p := range profiles {
			byID[p.ID] = p
		}
		var out []domain.DeviceProfile
		for _, pos := range domain.GridPositions() {
			if id, ok := layout.At(pos); ok {
				out = append(out, byID[id])
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown target kind %d", domain.ErrConfiguration, target.Kind)
}

// Close shuts down every session, dropping any open links.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	sessions := make([]*session.Session, 0, len(c.sessions))
	for _, sess := range c.sessions {
		sessions = append(sessions, sess)
	}
	c.sessions = make(map[domain.DeviceID]*session.Session)
	c.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.Close(); err != nil {
			c.logger.Warn("session close", log.Err(err))
		}
	}
	return nil
}
