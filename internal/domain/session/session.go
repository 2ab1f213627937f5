// Package session implements the game lifecycle: it owns the countdown,
// routes pointer samples into the path recorder and scores the finished path
// exactly once per attempt.
package session

import (
	"context"
	"fmt"

	"github.com/okian/drawtree/internal/domain/mapper"
	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/internal/domain/recorder"
	"github.com/okian/drawtree/internal/domain/scoring"
)

// DefaultTotalDuration is the length of one attempt in milliseconds.
const DefaultTotalDuration = 5000.0

// State is a lifecycle state.
type State int

const (
	Idle State = iota
	Drawing
	Scored
	Unsupported
	Reoriented
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Scored:
		return "scored"
	case Unsupported:
		return "unsupported"
	case Reoriented:
		return "reoriented"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome describes what a command did.
type Outcome struct {
	// Changed is set when the state changed.
	Changed bool
	// Stopped is set when the attempt was scored by this command.
	Stopped bool
	// Stale is set when a tick was ignored.
	Stale bool
	// Accepted is set when a sample grew the path.
	Accepted bool
	// Rejected is set when a sample was dropped (no position or filtered).
	Rejected bool
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithClock sets the clock used by the countdown.
func WithClock(c Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithScorer sets the scoring engine.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Session) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithRecorder sets the path recorder.
func WithRecorder(r *recorder.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithReference sets the outline the path is scored against.
func WithReference(ref model.ReferenceOutline) Option {
	return func(s *Session) {
		if ref.Len() > 0 {
			s.reference = ref
		}
	}
}

// WithTotalDuration sets the attempt length in milliseconds.
func WithTotalDuration(ms float64) Option {
	return func(s *Session) {
		if ms > 0 {
			s.total = ms
		}
	}
}

// WithOrientationCheck sets the predicate deciding whether a surface size is
// suitable for drawing.
func WithOrientationCheck(fn func(width, height float64) bool) Option {
	return func(s *Session) {
		if fn != nil {
			s.suitable = fn
		}
	}
}

// Session is one player's game. It is not safe for concurrent use; callers
// serialise commands.
type Session struct {
	state     State
	clock     Clock
	countdown Countdown
	total     float64
	remaining float64
	rec       *recorder.Recorder
	scorer    scoring.Scorer
	reference model.ReferenceOutline
	suitable  func(width, height float64) bool

	result  scoring.Result
	scored  bool
	capable bool
}

// New creates an idle session with configuration options.
func New(opts ...Option) *Session {
	s := &Session{
		state:     Idle,
		clock:     NewSystemClock(),
		total:     DefaultTotalDuration,
		rec:       recorder.New(),
		scorer:    scoring.NewCoverageScorer(),
		reference: model.TreeOutline(),
		suitable:  portrait,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.remaining = s.total
	return s
}

func portrait(width, height float64) bool {
	if width <= 0 || height <= 0 {
		return true
	}
	return width <= height
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Remaining returns the last observed time left in milliseconds.
func (s *Session) Remaining() float64 { return s.remaining }

// Total returns the attempt length in milliseconds.
func (s *Session) Total() float64 { return s.total }

// Path returns a snapshot of the traced path.
func (s *Session) Path() model.Path { return s.rec.Finish() }

// Score returns the score of the last finished attempt.
func (s *Session) Score() (int, bool) { return s.result.Score, s.scored }

// Result returns the full scoring result of the last finished attempt.
func (s *Session) Result() (scoring.Result, bool) { return s.result, s.scored }

// Epoch returns the epoch of the current countdown. Ticks must carry it.
func (s *Session) Epoch() uint64 { return s.countdown.Epoch() }

// Capable reports whether device capability has been confirmed.
func (s *Session) Capable() bool { return s.capable }

// Reference returns the outline attempts are scored against.
func (s *Session) Reference() model.ReferenceOutline { return s.reference }

// Handle applies cmd to the session.
func (s *Session) Handle(ctx context.Context, cmd Command) (Outcome, error) {
	switch c := cmd.(type) {
	case StartGame:
		return s.startGame()
	case DrawBegin:
		return s.draw(c.Event, c.Geometry, true), nil
	case DrawMove:
		return s.draw(c.Event, c.Geometry, false), nil
	case StopDraw:
		if s.state != Drawing {
			return Outcome{}, nil
		}
		return s.stop(ctx)
	case TimerTick:
		return s.tick(ctx, c.Epoch)
	case DetectDevice:
		return s.detect(c.Capable), nil
	case Orient:
		return s.orient(c.Width, c.Height), nil
	default:
		return Outcome{}, fmt.Errorf("%T: %w", cmd, ErrUnknownCommand)
	}
}

func (s *Session) startGame() (Outcome, error) {
	switch s.state {
	case Unsupported, Reoriented:
		return Outcome{}, fmt.Errorf("start in %s: %w", s.state, ErrBlocked)
	}
	s.rec.Reset()
	s.result = scoring.Result{}
	s.scored = false
	s.remaining = s.total
	s.countdown.Start(s.clock.NowMillis(), s.total)
	prev := s.state
	s.state = Drawing
	return Outcome{Changed: prev != Drawing}, nil
}

func (s *Session) draw(ev mapper.Event, g mapper.Geometry, begin bool) Outcome {
	if s.state != Drawing {
		return Outcome{}
	}
	p, ok := mapper.MapEventToLocal(ev, g)
	if !ok {
		return Outcome{Rejected: true}
	}
	if begin {
		s.rec.Begin(p)
		return Outcome{Accepted: true}
	}
	if s.rec.Extend(p) {
		return Outcome{Accepted: true}
	}
	return Outcome{Rejected: true}
}

// stop scores the finished path. On a scoring error nothing changes so the
// stop can be retried.
func (s *Session) stop(ctx context.Context) (Outcome, error) {
	res, err := s.scorer.Score(ctx, scoring.Input{Path: s.rec.Finish(), Reference: s.reference})
	if err != nil {
		return Outcome{}, fmt.Errorf("score attempt: %w", err)
	}
	s.countdown.Stop()
	s.result = res
	s.scored = true
	s.state = Scored
	return Outcome{Changed: true, Stopped: true}, nil
}

func (s *Session) tick(ctx context.Context, epoch uint64) (Outcome, error) {
	if s.state != Drawing || !s.countdown.Current(epoch) {
		return Outcome{Stale: true}, nil
	}
	s.remaining = s.countdown.Remaining(s.clock.NowMillis())
	if s.remaining > 0 {
		return Outcome{}, nil
	}
	return s.stop(ctx)
}

func (s *Session) detect(capable bool) Outcome {
	if capable {
		s.capable = true
		return Outcome{}
	}
	s.capable = false
	if s.state == Unsupported {
		return Outcome{}
	}
	s.abandon()
	s.state = Unsupported
	return Outcome{Changed: true}
}

func (s *Session) orient(width, height float64) Outcome {
	ok := s.suitable(width, height)
	switch {
	case !ok && (s.state == Idle || s.state == Drawing):
		s.abandon()
		s.state = Reoriented
		return Outcome{Changed: true}
	case ok && s.state == Reoriented && s.capable:
		s.state = Idle
		return Outcome{Changed: true}
	}
	return Outcome{}
}

// abandon invalidates a running attempt and discards its path.
func (s *Session) abandon() {
	if s.state != Drawing {
		return
	}
	s.countdown.Invalidate()
	s.rec.Reset()
	s.remaining = s.total
}
