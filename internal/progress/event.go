package progress

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported stages.
const (
	StageJobStart    Stage = "JOB_START"
	StageParentBatch Stage = "PARENT_BATCH"
	StageChildBatch  Stage = "CHILD_BATCH"
	StageJobDone     Stage = "JOB_DONE"
	StageJobError    Stage = "JOB_ERROR"
)

// Terminal reports whether the stage ends a job.
func (s Stage) Terminal() bool {
	return s == StageJobDone || s == StageJobError
}

// Event is one progress update for a scrape job.
type Event struct {
	JobID  string
	UserID int64
	// TS is the UTC time the emitter recorded the event.
	TS    time.Time
	Stage Stage
	// Progress is the completion percentage in [0, 100].
	Progress float64
	// BlobURI and ContentHash are set on JOB_DONE.
	BlobURI     string
	ContentHash string
	// Dur is the job's wall time on terminal events.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == "" {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageJobStart, StageParentBatch, StageChildBatch, StageJobDone, StageJobError:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if math.IsNaN(e.Progress) || e.Progress < 0 || e.Progress > 100 {
		return fmt.Errorf("progress %v out of range", e.Progress)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// Round1 rounds a percentage to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Percent returns the share of done in total scaled into a band of width
// span starting at base, rounded to one decimal. A zero total yields the
// top of the band.
func Percent(base, span float64, done, total int) float64 {
	if total <= 0 {
		return base + span
	}
	return base + Round1(float64(done)/float64(total)*span)
}
