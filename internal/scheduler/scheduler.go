// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of background work
type Job interface {
	Run() error
	Name() string
}

// Scheduler runs registered jobs on their cron schedules.
// Schedules use the standard five-field format plus descriptors such as
// "@daily" and "@every 1h". A job still running when its next tick fires
// skips that tick, and a panicking job is recovered and logged.
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a stopped scheduler
func New(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	adapter := cronLogger{log: log}

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// AddJob schedules job. Registering a second job under the same name replaces the first.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddJob(schedule, loggedJob{job: job, log: s.log})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if previous, ok := s.entries[job.Name()]; ok {
		s.cron.Remove(previous)
	}
	s.entries[job.Name()] = id
	s.mu.Unlock()

	s.log.Info().Str("job", job.Name()).Str("schedule", schedule).Msg("Job registered")
	return nil
}

// NextRun returns when the named job fires next. The zero time means the job is
// unknown or the scheduler has not been started.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start begins firing jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop halts the scheduler and waits for running jobs to return
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// RunNow runs job on the calling goroutine, outside its schedule
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job on demand")
	return job.Run()
}

// loggedJob adapts Job to cron.Job, logging the outcome of each tick
type loggedJob struct {
	job Job
	log zerolog.Logger
}

func (j loggedJob) Run() {
	log := j.log.With().Str("job", j.job.Name()).Logger()
	if err := j.job.Run(); err != nil {
		log.Error().Err(err).Msg("Job failed")
		return
	}
	log.Debug().Msg("Job completed")
}

// cronLogger routes cron's own messages through zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
