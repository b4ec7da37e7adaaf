// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobObserver is told about every scheduled job execution
type JobObserver interface {
	ObserveJob(name string, start time.Time, err error)
}

// Scheduler runs jobs on six-field cron schedules (seconds first) in a
// fixed location. A job still running when its next tick fires skips that tick.
type Scheduler struct {
	cron     *cron.Cron
	observer JobObserver
	log      zerolog.Logger
}

// New creates a new scheduler evaluating schedules in loc
func New(loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	log = log.With().Str("component", "scheduler").Str("tz", loc.String()).Logger()
	cronLog := cronLogger{log: log}

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log: log,
	}
}

// SetObserver installs o to receive job outcomes; call before Start
func (s *Scheduler) SetObserver(o JobObserver) {
	s.observer = o
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Entries()).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job on schedule, e.g. "0 30 15 * * MON-FRI" or "@every 30s"
func (s *Scheduler) AddJob(schedule string, job Job) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.execute(job) }); err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) execute(job Job) {
	start := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	err := job.Run()
	if s.observer != nil {
		s.observer.ObserveJob(job.Name(), start, err)
	}

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("duration", time.Since(start)).
			Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("Job completed")
}

// cronLogger routes cron's own messages (skips, recovered panics) to zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
