// Package service runs drawing sessions for the HTTP API: it owns the session
// store, drives each attempt's countdown and feeds scored attempts to the
// share pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	sharequeue "github.com/okian/drawtree/internal/adapters/mq/queue"
	workerpool "github.com/okian/drawtree/internal/adapters/mq/worker"
	"github.com/okian/drawtree/internal/adapters/repository"
	"github.com/okian/drawtree/internal/domain/dedupe"
	"github.com/okian/drawtree/internal/domain/device"
	"github.com/okian/drawtree/internal/domain/mapper"
	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/internal/domain/recorder"
	"github.com/okian/drawtree/internal/domain/scoring"
	"github.com/okian/drawtree/internal/domain/session"
	"github.com/okian/drawtree/internal/share"
	"github.com/okian/drawtree/pkg/logger"
	"github.com/okian/drawtree/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultTickInterval  = 100 * time.Millisecond
	defaultQueueSize     = 1024
	defaultDedupeSize    = 10_000
	defaultShardCount    = 8
	defaultSessionTTL    = 15 * time.Minute
	defaultUploadTimeout = 10 * time.Second
)

// Service implements the API dependencies for the drawing game.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.ShardedStore
	deduper    dedupe.Deduper
	shareQueue *sharequeue.InMemoryQueue
	workerPool *workerpool.Pool
	publisher  workerpool.Publisher
	detector   *device.Detector
	scorer     scoring.Scorer
	clock      session.Clock

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	shardCount        int
	sessionTTL        time.Duration
	tickInterval      time.Duration
	totalDuration     float64
	noiseThreshold    float64
	teleportThreshold float64
	coverageThreshold float64
	uploadURL         string
	uploadKey         string
	uploadTimeout     time.Duration
	siteURL           string

	// State
	started   bool
	runCtx    context.Context
	cancelRun context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of share workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the share queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many share keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of session store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithSessionTTL sets how long an untouched session lives.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithTickInterval sets the countdown tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithTotalDuration sets the length of one attempt in milliseconds.
func WithTotalDuration(ms float64) Option {
	return func(s *Service) {
		if ms > 0 {
			s.totalDuration = ms
		}
	}
}

// WithRecorderThresholds sets the path sampling filter. A zero teleport
// disables the upper bound.
func WithRecorderThresholds(noise, teleport float64) Option {
	return func(s *Service) {
		if noise >= 0 {
			s.noiseThreshold = noise
		}
		if teleport >= 0 {
			s.teleportThreshold = teleport
		}
	}
}

// WithCoverageThreshold sets the scoring distance for a covered outline point.
func WithCoverageThreshold(d float64) Option {
	return func(s *Service) {
		if d > 0 {
			s.coverageThreshold = d
		}
	}
}

// WithDetector sets the device capability detector.
func WithDetector(d *device.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithClock sets the clock sessions count down against.
func WithClock(c session.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithPublisher replaces the share publisher built from the upload settings.
func WithPublisher(p workerpool.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithUpload configures the image host. An empty key disables uploads.
func WithUpload(endpoint, apiKey string, timeout time.Duration) Option {
	return func(s *Service) {
		s.uploadURL = endpoint
		s.uploadKey = apiKey
		if timeout > 0 {
			s.uploadTimeout = timeout
		}
	}
}

// WithSiteURL sets the game URL share links advertise.
func WithSiteURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.siteURL = u
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         defaultQueueSize,
		dedupeSize:        defaultDedupeSize,
		shardCount:        defaultShardCount,
		sessionTTL:        defaultSessionTTL,
		tickInterval:      defaultTickInterval,
		totalDuration:     session.DefaultTotalDuration,
		noiseThreshold:    recorder.DefaultNoiseThreshold,
		teleportThreshold: recorder.DefaultTeleportThreshold,
		coverageThreshold: scoring.DefaultThreshold,
		uploadURL:         share.DefaultUploadURL,
		uploadTimeout:     defaultUploadTimeout,
		siteURL:           share.DefaultSiteURL,
		detector:          device.NewDetector(),
		clock:             session.NewSystemClock(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting drawing service...")

	s.runCtx, s.cancelRun = context.WithCancel(ctx)
	s.scorer = scoring.NewCoverageScorer(scoring.WithThreshold(s.coverageThreshold))
	s.store = repository.NewShardedStore(s.runCtx,
		repository.WithShardCount(s.shardCount),
		repository.WithIdleTTL(s.sessionTTL),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.shareQueue = sharequeue.NewInMemoryQueue(
		sharequeue.WithCapacity(s.queueSize),
		sharequeue.WithBufferSize(s.queueSize),
	)

	if s.publisher == nil {
		s.publisher = share.NewPublisher(
			share.NewRenderer(),
			share.NewImageHost(s.uploadKey,
				share.WithEndpoint(s.uploadURL),
				share.WithUploadTimeout(s.uploadTimeout),
			),
			share.NewLinks(s.siteURL),
		)
	}

	s.workerPool = workerpool.NewPool(s.workerCount, s.shareQueue, s.publisher, s)
	s.workerPool.Start(s.runCtx)

	s.started = true
	s.logger.Info(ctx, "drawing service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("tickInterval", s.tickInterval),
		logger.Float64("totalDurationMs", s.totalDuration),
	)

	return nil
}

// Stop gracefully shuts down the service. Pending share jobs are drained
// before the session store closes.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping drawing service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "session store close failed", logger.Error(err))
	}
	s.cancelRun()

	s.started = false
	s.logger.Info(ctx, "drawing service stopped")
}

// entry resolves a session id to its store entry.
func (s *Service) entry(ctx context.Context, id string) (*repository.Entry, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	return store.Get(ctx, id)
}

// CreateSession opens a session for the reporting device. Capability and
// orientation are applied before the first view is returned, so an unfit
// device starts out blocked.
func (s *Service) CreateSession(ctx context.Context, req NewSessionRequest) (SessionView, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return SessionView{}, ErrNotStarted
	}

	sess := session.New(
		session.WithClock(s.clock),
		session.WithScorer(s.scorer),
		session.WithRecorder(recorder.New(
			recorder.WithNoiseThreshold(s.noiseThreshold),
			recorder.WithTeleportThreshold(s.teleportThreshold),
		)),
		session.WithTotalDuration(s.totalDuration),
		session.WithOrientationCheck(s.detector.SuitableOrientation),
	)

	capable := s.detector.Capable(req.Device)
	if _, err := sess.Handle(ctx, session.DetectDevice{Capable: capable}); err != nil {
		return SessionView{}, fmt.Errorf("detect device: %w", err)
	}
	if req.Width > 0 && req.Height > 0 {
		if _, err := sess.Handle(ctx, session.Orient{Width: req.Width, Height: req.Height}); err != nil {
			return SessionView{}, fmt.Errorf("orient: %w", err)
		}
	}

	e, err := store.Create(ctx, sess)
	if err != nil {
		return SessionView{}, err
	}

	s.logger.Info(ctx, "session created",
		logger.String("session_id", e.ID.String()),
		logger.Bool("capable", capable),
		logger.String("state", sess.State().String()),
	)
	return sessionView(e.ID, sess), nil
}

// GetSession returns the current view of a session.
func (s *Service) GetSession(ctx context.Context, id string) (SessionView, error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	var v SessionView
	_ = e.Do(func(st *repository.State) error {
		v = sessionView(e.ID, st.Session)
		return nil
	})
	return v, nil
}

// EndSession drops a session and stops its countdown.
func (s *Service) EndSession(ctx context.Context, id string) error {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}
	return store.Delete(ctx, id)
}

// StartGame begins a fresh attempt.
func (s *Service) StartGame(ctx context.Context, id string) (SessionView, error) {
	return s.dispatch(ctx, id, session.StartGame{})
}

// StopDraw ends the running attempt and scores it.
func (s *Service) StopDraw(ctx context.Context, id string) (SessionView, error) {
	return s.dispatch(ctx, id, session.StopDraw{})
}

// Orient reports a new surface size.
func (s *Service) Orient(ctx context.Context, id string, width, height float64) (SessionView, error) {
	return s.dispatch(ctx, id, session.Orient{Width: width, Height: height})
}

// Draw feeds one gesture event. Lifting the finger ends the attempt.
func (s *Service) Draw(ctx context.Context, id, phase string, ev mapper.Event, g mapper.Geometry) (SessionView, error) {
	var cmd session.Command
	switch phase {
	case PhaseBegin:
		cmd = session.DrawBegin{Event: ev, Geometry: g}
	case PhaseMove:
		cmd = session.DrawMove{Event: ev, Geometry: g}
	case PhaseEnd:
		cmd = session.StopDraw{}
	default:
		return SessionView{}, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}
	return s.dispatch(ctx, id, cmd)
}

// dispatch applies cmd to a session under its lock and reacts to the outcome.
func (s *Service) dispatch(ctx context.Context, id string, cmd session.Command) (SessionView, error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	var v SessionView
	err = e.Do(func(st *repository.State) error {
		if err := s.apply(ctx, e, st, cmd); err != nil {
			return err
		}
		v = sessionView(e.ID, st.Session)
		return nil
	})
	return v, err
}

// apply runs cmd and keeps the countdown driver and metrics in step with
// the session. Callers hold the entry lock.
func (s *Service) apply(ctx context.Context, e *repository.Entry, st *repository.State, cmd session.Command) error {
	sess := st.Session
	prev := sess.State()
	start := time.Now()

	out, err := sess.Handle(ctx, cmd)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrBlocked):
			metrics.RecordBlockedCommand(prev.String())
		default:
			metrics.RecordScoringError()
			s.logger.Error(ctx, "command failed",
				logger.String("session_id", e.ID.String()),
				logger.String("command", fmt.Sprintf("%T", cmd)),
				logger.Error(err),
			)
		}
		return err
	}

	switch {
	case out.Accepted:
		metrics.RecordSample(metrics.SampleAccepted)
	case out.Rejected:
		metrics.RecordSample(metrics.SampleRejected)
	case out.Stale:
		metrics.RecordStaleTick()
	}

	if _, ok := cmd.(session.StartGame); ok {
		metrics.RecordGameStarted()
		s.restartTicker(e, st, sess.Epoch())
		s.logger.Debug(ctx, "attempt started",
			logger.String("session_id", e.ID.String()),
			logger.Uint64("epoch", sess.Epoch()),
		)
	}

	if out.Stopped {
		trigger := metrics.TriggerStop
		if _, ok := cmd.(session.TimerTick); ok {
			trigger = metrics.TriggerTimeout
		}
		score, _ := sess.Score()
		metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
		metrics.RecordGameScored(trigger, score)
		s.logger.Info(ctx, "attempt scored",
			logger.String("session_id", e.ID.String()),
			logger.Uint64("epoch", sess.Epoch()),
			logger.String("trigger", trigger),
			logger.Int("score", score),
			logger.Int("path_len", len(sess.Path())),
		)
	}

	if sess.State() != session.Drawing && st.StopTicker != nil {
		st.StopTicker()
		st.StopTicker = nil
	}
	return nil
}

// restartTicker replaces the countdown driver of an entry with one bound to
// epoch. Callers hold the entry lock.
func (s *Service) restartTicker(e *repository.Entry, st *repository.State, epoch uint64) {
	if st.StopTicker != nil {
		st.StopTicker()
	}
	ctx, cancel := context.WithCancel(s.runCtx)
	st.StopTicker = cancel
	go s.runTicker(ctx, e, epoch)
}

// runTicker delivers TimerTick commands until the attempt it was started
// for ends. A tick that lands after a restart is stale and ends the loop.
func (s *Service) runTicker(ctx context.Context, e *repository.Entry, epoch uint64) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			done := false
			err := e.Do(func(st *repository.State) error {
				if ctx.Err() != nil {
					done = true
					return nil
				}
				if err := s.apply(ctx, e, st, session.TimerTick{Epoch: epoch}); err != nil {
					return err
				}
				done = st.Session.State() != session.Drawing || st.Session.Epoch() != epoch
				return nil
			})
			if err != nil {
				s.logger.Warn(ctx, "tick failed, retrying on next tick",
					logger.String("session_id", e.ID.String()),
					logger.Error(err),
				)
			}
			if done {
				return
			}
		}
	}
}

// Reference returns the outline players trace.
func (s *Service) Reference() ReferenceView {
	return ReferenceView{ViewBox: model.TreeViewBox, Points: model.TreeOutline().Points()}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"tickIntervalMs":  s.tickInterval.Milliseconds(),
		"totalDurationMs": s.totalDuration,
	}

	if s.started {
		queueLen := s.shareQueue.Len(ctx)
		sessions := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["sessions"] = sessions
		stats["shareKeys"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateSessionsActive(sessions)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	return stats
}
