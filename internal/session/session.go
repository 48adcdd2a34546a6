package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/internal/protocol"
	"github.com/hoplab/panelhop/pkg/log"
)

// SettleDelay is the minimum time a link stays open after the final chunk.
// Dropping the connection immediately makes the panels flicker or discard
// the last rows, so the cooldown window never undercuts this.
const SettleDelay = 500 * time.Millisecond

// Chunk-write retries reuse the shared retry primitive with a tighter
// schedule than connects; a stuck characteristic either recovers fast or
// not at all.
const (
	chunkRetryInitial = 100 * time.Millisecond
	chunkRetryMax     = time.Second
)

// Session owns the connection lifecycle for one device and delivers
// encoded frames to it chunk by chunk. All methods are safe for
// concurrent use; transfers themselves are serialized per session.
type Session struct {
	profile domain.DeviceProfile
	dialer  ports.LinkDialer
	logger  ports.Logger
	m       *machine

	// op serializes Send, TrySend, Close and idle expiry.
	op        sync.Mutex
	link      ports.DeviceLink
	gen       uint64
	idleTimer *time.Timer

	// sleep is swapped out by tests to observe pacing without waiting.
	sleep sleepFunc
	now   func() time.Time
}

// New creates a session for one device. The profile is normalized with
// package defaults. The observer may be nil.
func New(profile domain.DeviceProfile, dialer ports.LinkDialer, logger ports.Logger, observer StateObserver) *Session {
	p := profile.WithDefaults()
	scoped := logger.With(log.String("device", p.DisplayName()))
	return &Session{
		profile: p,
		dialer:  dialer,
		logger:  scoped,
		m:       newMachine(p.ID, scoped, observer),
		sleep:   realSleep,
		now:     time.Now,
	}
}

// ID returns the device this session is bound to.
func (s *Session) ID() domain.DeviceID { return s.profile.ID }

// Profile returns the normalized device profile.
func (s *Session) Profile() domain.DeviceProfile { return s.profile }

// State returns the current session state.
func (s *Session) State() State { return s.m.State() }

// Send delivers one frame to the device, blocking until the transfer
// finishes or fails. Concurrent calls queue in arrival order. The outcome,
// including any terminal error, is carried in the result.
func (s *Session) Send(ctx context.Context, frame domain.CommandFrame) domain.SendResult {
	s.op.Lock()
	defer s.op.Unlock()
	return s.deliver(ctx, frame)
}

// TrySend is Send without queueing: when a transfer is already in flight
// it returns ErrSessionBusy immediately and the frame is not delivered.
func (s *Session) TrySend(ctx context.Context, frame domain.CommandFrame) (domain.SendResult, error) {
	if !s.op.TryLock() {
		return domain.SendResult{ID: s.profile.ID, Name: s.profile.DisplayName(), Err: domain.ErrSessionBusy},
			domain.ErrSessionBusy
	}
	defer s.op.Unlock()
	return s.deliver(ctx, frame), nil
}

// Close drops any open link and returns the session to Idle. A session
// may be reused after Close.
func (s *Session) Close() error {
	s.op.Lock()
	defer s.op.Unlock()

	s.gen++
	s.stopIdleTimer()
	s.dropLink()
	switch s.m.State() {
	case StateCooldown, StateFailed:
		_ = s.m.TransitionTo(StateIdle, "closed")
	}
	return nil
}

// deliver runs one complete transfer. Callers hold s.op.
func (s *Session) deliver(ctx context.Context, frame domain.CommandFrame) domain.SendResult {
	start := s.now()
	res := domain.SendResult{ID: s.profile.ID, Name: s.profile.DisplayName()}

	s.gen++
	s.stopIdleTimer()

	reused := false
	if s.link != nil {
		if s.m.State() == StateCooldown {
			reused = true
		} else {
			s.dropLink()
		}
	}

	if reused {
		if err := s.m.TransitionTo(StateSending, "reusing open link"); err != nil {
			res.Err = err
			res.Elapsed = s.now().Sub(start)
			return res
		}
	} else {
		attempts, err := s.connect(ctx)
		res.Attempts = attempts
		if err != nil {
			res.Err = err
			res.Elapsed = s.now().Sub(start)
			return res
		}
		if err := s.m.TransitionTo(StateSending, "transfer start"); err != nil {
			res.Err = err
			res.Elapsed = s.now().Sub(start)
			return res
		}
	}

	written, bytes, err := s.transfer(ctx, frame)
	res.ChunksWritten = written
	res.BytesSent = bytes
	res.Elapsed = s.now().Sub(start)

	if err != nil {
		s.dropLink()
		_ = s.m.TransitionTo(StateFailed, "transfer failed")
		res.Err = err
		s.logger.Error("send failed",
			log.String("kind", frame.Kind.String()),
			log.Int("chunks_written", written),
			log.Err(err),
		)
		return res
	}

	_ = s.m.TransitionTo(StateCooldown, "transfer complete")
	s.armIdleTimer()

	s.logger.Info("frame sent",
		log.String("kind", frame.Kind.String()),
		log.Int("chunks", written),
		log.Int("bytes", bytes),
		log.Duration("elapsed", res.Elapsed),
		log.Bool("reused_link", reused),
	)
	return res
}

// connect runs the dial cycle with retries. It moves the machine to
// Connected on success, Failed on exhaustion, and returns the number of
// attempts made.
func (s *Session) connect(ctx context.Context) (int, error) {
	var err error
	switch s.m.State() {
	case StateIdle:
		err = s.m.TransitionTo(StateConnecting, "send requested")
	case StateFailed:
		err = s.m.TransitionTo(StateConnecting, "retry after failure")
	default:
		err = fmt.Errorf("%w: connect from state %s", domain.ErrConfiguration, s.m.State())
	}
	if err != nil {
		return 0, err
	}

	b := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	attempts := s.profile.RetryCount + 1

	tries, dialErr := retry(ctx, attempts, b, s.sleep, func(ctx context.Context) error {
		dialCtx, cancel := context.WithTimeout(ctx, s.profile.ConnectTimeout)
		defer cancel()

		link, err := s.dialer.Dial(dialCtx, s.profile.ID)
		if err != nil {
			s.logger.Debug("connect attempt failed", log.Err(err))
			return err
		}
		s.link = link
		return nil
	})

	if dialErr != nil {
		_ = s.m.TransitionTo(StateFailed, "connect attempts exhausted")
		return tries, fmt.Errorf("%w: %s after %d attempt(s): %v",
			domain.ErrConnection, s.profile.DisplayName(), tries, dialErr)
	}

	_ = s.m.TransitionTo(StateConnected, "link established")
	return tries, nil
}

// transfer writes the frame chunk by chunk over the open link, pacing
// writes with the clamped inter-chunk gap. It returns how many chunks and
// payload bytes reached the link.
func (s *Session) transfer(ctx context.Context, frame domain.CommandFrame) (int, int, error) {
	chunker, err := protocol.NewChunker(s.link.ChunkSize())
	if err != nil {
		return 0, 0, err
	}
	chunks := chunker.Split(frame)
	gap := protocol.ClampSendGap(s.profile.SendDelay)

	written, bytes := 0, 0
	for i, ch := range chunks {
		if i > 0 {
			if err := s.sleep(ctx, gap); err != nil {
				return written, bytes, fmt.Errorf("%w: transfer canceled after %d/%d chunks: %v",
					domain.ErrChunkWrite, written, len(chunks), err)
			}
		}

		b := newBackoff(chunkRetryInitial, chunkRetryMax)
		_, err := retry(ctx, s.profile.RetryCount+1, b, s.sleep, func(ctx context.Context) error {
			return s.link.WriteChunk(ctx, ch)
		})
		if err != nil {
			return written, bytes, fmt.Errorf("%w: chunk %d/%d: %v",
				domain.ErrChunkWrite, ch.Index+1, len(chunks), err)
		}

		written++
		bytes += len(ch.Payload)
	}
	return written, bytes, nil
}

// armIdleTimer schedules the cooldown-to-idle disconnect. Callers hold s.op.
func (s *Session) armIdleTimer() {
	window := s.profile.IdleWindow
	if window < SettleDelay {
		window = SettleDelay
	}
	gen := s.gen
	s.idleTimer = time.AfterFunc(window, func() { s.expireIdle(gen) })
}

// expireIdle closes the link when the cooldown window passes untouched.
// A send that started after the timer was armed bumps gen and wins.
func (s *Session) expireIdle(gen uint64) {
	s.op.Lock()
	defer s.op.Unlock()

	if s.gen != gen {
		return
	}
	s.dropLink()
	_ = s.m.TransitionTo(StateIdle, "idle window expired")
}

// stopIdleTimer cancels a pending idle disconnect. Callers hold s.op.
func (s *Session) stopIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
}

// dropLink closes and forgets the link. Callers hold s.op.
func (s *Session) dropLink() {
	if s.link != nil {
		if err := s.link.Close(); err != nil {
			s.logger.Debug("link close", log.Err(err))
		}
		s.link = nil
	}
}
