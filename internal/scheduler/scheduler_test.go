package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonho/sentbt/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     int
	err      error
}

func (j *fakeJob) Name() string                  { return j.name }
func (j *fakeJob) Schedule() string              { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error { j.runs++; return j.err }

func TestAddJob(t *testing.T) {
	s := New(logger.NewNop())
	job := &fakeJob{name: "refresh", schedule: "0 0 2 * * *"}

	require.NoError(t, s.AddJob(job))

	history, err := s.History("refresh")
	require.NoError(t, err)
	assert.Empty(t, history.Results)
}

func TestAddJob_Duplicate(t *testing.T) {
	s := New(logger.NewNop())
	job := &fakeJob{name: "refresh", schedule: "0 0 2 * * *"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job))
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(logger.NewNop())
	job := &fakeJob{name: "refresh", schedule: "not a cron spec"}

	assert.Error(t, s.AddJob(job))
}

func TestRunJob_Unknown(t *testing.T) {
	s := New(logger.NewNop())
	assert.Error(t, s.RunJob("missing"))
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.SuccessRate())

	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: false})
	assert.Equal(t, 0.5, h.SuccessRate())

	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{Success: true})
	}
	assert.Len(t, h.Results, 100, "history capped at 100 results")
}
