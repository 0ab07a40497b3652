package processor

import (
	"time"

	"reelgen/internal/pkg/errors"
	"reelgen/internal/pkg/metrics"
)

// State is a step of a generation job.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateBuilding  State = "building"
	StateInvoking  State = "invoking"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Every running state may fail; there is no retry.
var transitions = map[State][]State{
	StateIdle:     {StateFetching, StateFailed},
	StateFetching: {StateBuilding, StateFailed},
	StateBuilding: {StateInvoking, StateFailed},
	StateInvoking: {StateSucceeded, StateFailed},
}

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Job tracks the state of one generation and times its stages.
type Job struct {
	ID string

	state   State
	entered time.Time
}

func newJob(id string) *Job {
	return &Job{ID: id, state: StateIdle, entered: time.Now()}
}

func (j *Job) State() State { return j.state }

// advance moves the job to next, recording how long the previous running
// stage took.
func (j *Job) advance(next State) error {
	for _, allowed := range transitions[j.state] {
		if allowed != next {
			continue
		}
		if j.state != StateIdle {
			metrics.StageDuration.WithLabelValues(string(j.state)).Observe(time.Since(j.entered).Seconds())
		}
		j.state = next
		j.entered = time.Now()
		return nil
	}
	return errors.Newf(errors.CodeInternal, "invalid job transition %s -> %s", j.state, next).
		WithField("job_id", j.ID)
}
