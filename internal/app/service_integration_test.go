package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/drawtree/internal/app"
	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

// stubPublisher stands in for render+upload. It can fail, or hold jobs
// until released.
type stubPublisher struct {
	fail    atomic.Bool
	calls   atomic.Int64
	hold    chan struct{}
	started chan string
}

func newStubPublisher() *stubPublisher {
	return &stubPublisher{started: make(chan string, 64)}
}

func (p *stubPublisher) Publish(ctx context.Context, job model.ShareJob) (model.ShareResult, error) { //nolint:gocritic // hugeParam: matches the worker contract
	p.calls.Add(1)
	p.started <- job.SessionID
	if p.hold != nil {
		select {
		case <-p.hold:
		case <-ctx.Done():
			return model.ShareResult{}, ctx.Err()
		}
	}
	if p.fail.Load() {
		return model.ShareResult{}, errors.New("image host down")
	}
	return model.ShareResult{
		ImageURL:  "https://i.test/" + job.JobID + ".png",
		ViewerURL: "https://i.test/" + job.JobID,
		Links:     map[string]string{"link": "copy me"},
	}, nil
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// playExact traces the reference outline point by point and lifts the finger.
func playExact(ctx context.Context, svc *service.Service, id string) (service.SessionView, error) {
	if _, err := svc.StartGame(ctx, id); err != nil {
		return service.SessionView{}, err
	}
	pts := svc.Reference().Points
	if _, err := svc.Draw(ctx, id, service.PhaseBegin, touchAt(pts[0].X, pts[0].Y), rawSurface); err != nil {
		return service.SessionView{}, err
	}
	for _, p := range pts[1:] {
		if _, err := svc.Draw(ctx, id, service.PhaseMove, touchAt(p.X, p.Y), rawSurface); err != nil {
			return service.SessionView{}, err
		}
	}
	return svc.Draw(ctx, id, service.PhaseEnd, touchAt(0, 0), rawSurface)
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		pub := newStubPublisher()
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithPublisher(pub),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		v, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone, Width: 390, Height: 844})
		So(err, ShouldBeNil)

		Convey("When the outline is traced exactly", func() {
			got, err := playExact(ctx, svc, v.ID)

			Convey("Then the attempt scores 100 and earns the star", func() {
				So(err, ShouldBeNil)
				So(got.State, ShouldEqual, "scored")
				So(got.Score, ShouldNotBeNil)
				So(*got.Score, ShouldEqual, 100)
				So(got.Star, ShouldBeTrue)
				So(len(got.Path), ShouldBeGreaterThan, 1)
			})

			Convey("And stopping again changes nothing", func() {
				again, err := svc.StopDraw(ctx, v.ID)
				So(err, ShouldBeNil)
				So(*again.Score, ShouldEqual, 100)
				So(again.Epoch, ShouldEqual, got.Epoch)
			})

			Convey("And sharing publishes it once", func() {
				sv, dup, err := svc.Share(ctx, v.ID)
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(sv.Status, ShouldEqual, service.ShareQueued)

				So(eventually(func() bool {
					st, _ := svc.ShareStatus(ctx, v.ID)
					return st.Status == service.ShareSucceeded
				}), ShouldBeTrue)

				st, _ := svc.ShareStatus(ctx, v.ID)
				So(st.ImageURL, ShouldStartWith, "https://i.test/")
				So(st.Score, ShouldEqual, 100)
				So(st.Links, ShouldContainKey, "link")

				again, dup, err := svc.Share(ctx, v.ID)
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(again.Status, ShouldEqual, service.ShareSucceeded)
				So(pub.calls.Load(), ShouldEqual, int64(1))
			})

			Convey("And a failed share can be retried", func() {
				pub.fail.Store(true)
				_, _, err := svc.Share(ctx, v.ID)
				So(err, ShouldBeNil)
				So(eventually(func() bool {
					st, _ := svc.ShareStatus(ctx, v.ID)
					return st.Status == service.ShareFailed
				}), ShouldBeTrue)

				st, _ := svc.ShareStatus(ctx, v.ID)
				So(st.Error, ShouldContainSubstring, "image host down")

				pub.fail.Store(false)
				_, dup, err := svc.Share(ctx, v.ID)
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(eventually(func() bool {
					st, _ := svc.ShareStatus(ctx, v.ID)
					return st.Status == service.ShareSucceeded
				}), ShouldBeTrue)

				got, _ := svc.GetSession(ctx, v.ID)
				So(*got.Score, ShouldEqual, 100)
			})
		})

		Convey("When sharing before any score exists", func() {
			_, _, err := svc.Share(ctx, v.ID)

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrNotScored), ShouldBeTrue)
				st, err := svc.ShareStatus(ctx, v.ID)
				So(err, ShouldBeNil)
				So(st.Status, ShouldEqual, service.ShareNone)
			})
		})

		Convey("When the attempt is restarted mid-draw", func() {
			first, err := svc.StartGame(ctx, v.ID)
			So(err, ShouldBeNil)
			second, err := svc.StartGame(ctx, v.ID)
			So(err, ShouldBeNil)

			Convey("Then the epoch moves on and the clock is full again", func() {
				So(second.Epoch, ShouldEqual, first.Epoch+1)
				So(second.State, ShouldEqual, "drawing")
				So(second.RemainingMS, ShouldEqual, 5000.0)
			})
		})

		Convey("When the device turns sideways mid-draw", func() {
			_, err := svc.StartGame(ctx, v.ID)
			So(err, ShouldBeNil)
			_, _ = svc.Draw(ctx, v.ID, service.PhaseBegin, touchAt(10, 10), rawSurface)
			got, err := svc.Orient(ctx, v.ID, 844, 390)

			Convey("Then the attempt is abandoned without a score", func() {
				So(err, ShouldBeNil)
				So(got.State, ShouldEqual, "reoriented")
				So(got.Score, ShouldBeNil)
				So(got.Path, ShouldBeEmpty)

				_, err := svc.StartGame(ctx, v.ID)
				So(errors.Is(err, session.ErrBlocked), ShouldBeTrue)
			})
		})
	})
}

func TestServiceCountdown(t *testing.T) {
	Convey("Given a service with a short attempt", t, func() {
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithTotalDuration(60),
			service.WithTickInterval(5*time.Millisecond),
			service.WithPublisher(newStubPublisher()),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		v, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone})
		So(err, ShouldBeNil)

		Convey("When nobody draws", func() {
			_, err := svc.StartGame(ctx, v.ID)
			So(err, ShouldBeNil)

			Convey("Then the countdown ends the attempt with a zero score", func() {
				So(eventually(func() bool {
					got, _ := svc.GetSession(ctx, v.ID)
					return got.State == "scored"
				}), ShouldBeTrue)

				got, _ := svc.GetSession(ctx, v.ID)
				So(*got.Score, ShouldEqual, 0)
				So(got.RemainingMS, ShouldEqual, 0.0)
				So(got.Clock, ShouldEqual, "00 : 00")
			})
		})

		Convey("When the attempt restarts before the first one runs out", func() {
			first, _ := svc.StartGame(ctx, v.ID)
			time.Sleep(20 * time.Millisecond)
			second, _ := svc.StartGame(ctx, v.ID)

			Convey("Then only the newer countdown scores", func() {
				So(eventually(func() bool {
					got, _ := svc.GetSession(ctx, v.ID)
					return got.State == "scored"
				}), ShouldBeTrue)
				got, _ := svc.GetSession(ctx, v.ID)
				So(got.Epoch, ShouldEqual, second.Epoch)
				So(got.Epoch, ShouldNotEqual, first.Epoch)
			})
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a single worker and a one-slot queue", t, func() {
		pub := newStubPublisher()
		pub.hold = make(chan struct{})
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithPublisher(pub),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		var release sync.Once
		defer svc.Stop()
		defer release.Do(func() { close(pub.hold) })

		ids := make([]string, 4)
		for i := range ids {
			v, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone})
			So(err, ShouldBeNil)
			_, err = svc.StartGame(ctx, v.ID)
			So(err, ShouldBeNil)
			_, err = svc.StopDraw(ctx, v.ID)
			So(err, ShouldBeNil)
			ids[i] = v.ID
		}

		Convey("When more shares arrive than can be held", func() {
			_, _, err := svc.Share(ctx, ids[0])
			So(err, ShouldBeNil)
			So(<-pub.started, ShouldEqual, ids[0])

			// The dequeue side holds one job while the worker is busy.
			_, _, err = svc.Share(ctx, ids[1])
			So(err, ShouldBeNil)
			So(eventually(func() bool { return svc.GetStats()["queueLength"] == 0 }), ShouldBeTrue)

			_, _, err = svc.Share(ctx, ids[2])
			So(err, ShouldBeNil)

			_, _, err = svc.Share(ctx, ids[3])

			Convey("Then the overflow is refused and can be retried later", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)

				release.Do(func() { close(pub.hold) })
				So(eventually(func() bool {
					st, _ := svc.ShareStatus(ctx, ids[2])
					return st.Status == service.ShareSucceeded
				}), ShouldBeTrue)

				_, dup, err := svc.Share(ctx, ids[3])
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
			})
		})
	})
}

func TestServiceShareClaims(t *testing.T) {
	Convey("Given a busy worker and a deduper that remembers one attempt", t, func() {
		pub := newStubPublisher()
		pub.hold = make(chan struct{})
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(4),
			service.WithDedupeSize(1),
			service.WithPublisher(pub),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		var release sync.Once
		defer svc.Stop()
		defer release.Do(func() { close(pub.hold) })

		scored := make([]service.SessionView, 2)
		for i := range scored {
			v, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone})
			So(err, ShouldBeNil)
			_, err = svc.StartGame(ctx, v.ID)
			So(err, ShouldBeNil)
			scored[i], err = svc.StopDraw(ctx, v.ID)
			So(err, ShouldBeNil)
		}
		first, second := scored[0], scored[1]

		_, _, err := svc.Share(ctx, first.ID)
		So(err, ShouldBeNil)
		So(<-pub.started, ShouldEqual, first.ID)

		Convey("When another attempt pushes the first claim out", func() {
			_, dup, err := svc.Share(ctx, second.ID)
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)

			view, dup, err := svc.Share(ctx, first.ID)

			Convey("Then the in-flight job is still recognised", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(view.Status, ShouldEqual, service.ShareQueued)

				release.Do(func() { close(pub.hold) })
				So(eventually(func() bool {
					st, _ := svc.ShareStatus(ctx, second.ID)
					return st.Status == service.ShareSucceeded
				}), ShouldBeTrue)
				So(pub.calls.Load(), ShouldEqual, int64(2))
			})
		})

		Convey("When a failed job completes while the attempt is retried", func() {
			failed := model.ShareJob{JobID: "stale", SessionID: first.ID, Epoch: first.Epoch, Score: *first.Score}
			svc.Complete(ctx, failed, model.ShareResult{}, errors.New("image host down"))

			st, err := svc.ShareStatus(ctx, first.ID)
			So(err, ShouldBeNil)
			So(st.Status, ShouldEqual, service.ShareFailed)

			view, dup, err := svc.Share(ctx, first.ID)

			Convey("Then the retry is queued and keeps its status", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(view.Status, ShouldEqual, service.ShareQueued)

				st, err := svc.ShareStatus(ctx, first.ID)
				So(err, ShouldBeNil)
				So(st.Status, ShouldEqual, service.ShareQueued)
			})
		})
	})
}
