package model

import (
	"strconv"
	"time"
)

// ShareJob asks for one scored attempt to be rendered, uploaded and turned
// into share links.
type ShareJob struct {
	JobID     string
	SessionID string
	Epoch     uint64
	Score     int
	Path      Path
	Enqueued  time.Time
}

// Key identifies the attempt a job belongs to. At most one job per key is
// in flight.
func (j ShareJob) Key() string {
	return ShareKey(j.SessionID, j.Epoch)
}

// ShareKey builds the in-flight key for a session attempt.
func ShareKey(sessionID string, epoch uint64) string {
	return sessionID + "#" + strconv.FormatUint(epoch, 10)
}

// ShareResult is what a finished share job produced.
type ShareResult struct {
	ImageURL  string
	ViewerURL string
	Links     map[string]string
}
