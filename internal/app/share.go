package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sharequeue "github.com/okian/drawtree/internal/adapters/mq/queue"
	"github.com/okian/drawtree/internal/adapters/repository"
	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/pkg/logger"
	"github.com/okian/drawtree/pkg/metrics"
)

// Share queues the latest scored attempt of a session for publishing. At
// most one job per attempt is in flight; asking again returns the current
// status with duplicate set. A published attempt stays claimed, a failed
// one may be shared again.
func (s *Service) Share(ctx context.Context, id string) (view ShareView, duplicate bool, err error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return ShareView{}, false, err
	}

	err = e.Do(func(st *repository.State) error {
		score, ok := st.Session.Score()
		if !ok {
			return ErrNotScored
		}
		epoch := st.Session.Epoch()
		key := model.ShareKey(e.ID.String(), epoch)

		// The deduper is bounded, so a job still in flight for this attempt
		// is also recognised from the session's own share record.
		if inFlight(st.Share, epoch) || s.deduper.SeenAndRecord(ctx, key) {
			duplicate = true
			metrics.RecordShareJob(metrics.ShareDuplicate)
			view = shareView(st.Share)
			return nil
		}

		job := model.ShareJob{
			JobID:     uuid.NewString(),
			SessionID: e.ID.String(),
			Epoch:     epoch,
			Score:     score,
			Path:      st.Session.Path(),
			Enqueued:  time.Now(),
		}
		if err := s.shareQueue.Enqueue(ctx, job); err != nil {
			s.deduper.Unrecord(ctx, key)
			metrics.RecordShareJob(metrics.ShareRejected)
			if errors.Is(err, sharequeue.ErrFull) || errors.Is(err, sharequeue.ErrClosed) {
				return fmt.Errorf("%w: %w", ErrBackpressure, err)
			}
			return err
		}

		st.Share = repository.ShareRecord{Status: ShareQueued, Epoch: epoch, Score: score}
		metrics.RecordShareJob(metrics.ShareQueued)
		s.logger.Debug(ctx, "share queued",
			logger.String("session_id", job.SessionID),
			logger.String("job_id", job.JobID),
			logger.Uint64("epoch", epoch),
		)
		view = shareView(st.Share)
		return nil
	})
	return view, duplicate, err
}

// ShareStatus returns the share status of a session.
func (s *Service) ShareStatus(ctx context.Context, id string) (ShareView, error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return ShareView{}, err
	}
	var v ShareView
	_ = e.Do(func(st *repository.State) error {
		v = shareView(st.Share)
		return nil
	})
	return v, nil
}

// inFlight reports whether rec holds a queued or published share of epoch.
func inFlight(rec repository.ShareRecord, epoch uint64) bool {
	return rec.Epoch == epoch && (rec.Status == ShareQueued || rec.Status == ShareSucceeded)
}

// Complete records the outcome of a share job. Failures release the attempt
// so it can be shared again; the session itself is never touched.
func (s *Service) Complete(ctx context.Context, job model.ShareJob, res model.ShareResult, err error) { //nolint:gocritic // hugeParam: matches the worker contract
	e, gerr := s.store.Get(ctx, job.SessionID)
	if gerr != nil {
		if err != nil {
			s.deduper.Unrecord(ctx, job.Key())
		}
		s.logger.Debug(ctx, "share finished for a dropped session",
			logger.String("session_id", job.SessionID),
			logger.String("job_id", job.JobID),
		)
		return
	}

	// The claim is released under the entry lock, after the failure is
	// recorded, so a retry queued right after cannot be marked failed.
	_ = e.Do(func(st *repository.State) error {
		if err != nil {
			defer s.deduper.Unrecord(ctx, job.Key())
		}
		if st.Share.Epoch != job.Epoch {
			return nil
		}
		if err != nil {
			st.Share.Status = ShareFailed
			st.Share.Error = err.Error()
			return nil
		}
		st.Share = repository.ShareRecord{
			Status:    ShareSucceeded,
			Epoch:     job.Epoch,
			Score:     job.Score,
			ImageURL:  res.ImageURL,
			ViewerURL: res.ViewerURL,
			Links:     res.Links,
		}
		return nil
	})
}
