package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/engine"
	"github.com/ncsaa/hoopsched/internal/model"
)

var (
	// ErrQueueFull means the task buffer is at capacity.
	ErrQueueFull = errors.New("job queue is full")
	// ErrNotStarted means a job was enqueued before the workers came up.
	ErrNotStarted = errors.New("job workers not started")
)

// JobState tracks a generation job through its lifecycle.
type JobState string

const (
	JobPending  JobState = "PENDING"
	JobProgress JobState = "PROGRESS"
	JobSuccess  JobState = "SUCCESS"
	JobFailure  JobState = "FAILURE"
)

// Job is one queued schedule generation. Mutable fields are guarded by the
// store lock; handlers read through JobView copies.
type Job struct {
	ID      string
	State   JobState
	Stage   string
	Pass    int
	Placed  int
	Message string
	Created time.Time

	// Set once when the run settles, never mutated after.
	Schedule *model.Schedule
	Report   *model.ValidationReport

	cfg    *config.Config
	league *model.League
	seed   int64
	ctx    context.Context
	cancel context.CancelFunc
}

// view copies the externally visible fields. Callers hold the store lock.
func (j *Job) view() JobView {
	return JobView{
		ID:       j.ID,
		State:    j.State,
		Stage:    j.Stage,
		Pass:     j.Pass,
		Placed:   j.Placed,
		Message:  j.Message,
		Schedule: j.Schedule,
		Report:   j.Report,
	}
}

// JobView is a point-in-time copy of a job, safe to read without the lock.
type JobView struct {
	ID       string
	State    JobState
	Stage    string
	Pass     int
	Placed   int
	Message  string
	Schedule *model.Schedule
	Report   *model.ValidationReport
}

// jobStore is the uuid-keyed in-memory job table plus the fixed worker
// pool that runs generations. Records live until the process exits; a
// scheduling run is a once-a-season affair, not a high-volume workload.
type jobStore struct {
	log     zerolog.Logger
	workers int

	mu      sync.Mutex
	jobs    map[string]*Job
	started bool

	tasks  chan *Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func newJobStore(workers, depth int, log zerolog.Logger) *jobStore {
	if workers < 1 {
		workers = 2
	}
	if depth < 1 {
		depth = 16
	}
	return &jobStore{
		log:     log,
		workers: workers,
		jobs:    make(map[string]*Job),
		tasks:   make(chan *Job, depth),
	}
}

// Start spins up the worker pool. Calling it twice is a no-op.
func (s *jobStore) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.log.Info().Int("workers", s.workers).Msg("job workers started")
}

// Stop cancels every running job and waits for the workers to drain.
func (s *jobStore) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()
	cancel()
	s.wg.Wait()
}

// Enqueue registers a job and hands it to the pool. The caller gets the
// pending record back immediately; the run happens on a worker.
func (s *jobStore) Enqueue(cfg *config.Config, league *model.League, seed int64) (JobView, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return JobView{}, ErrNotStarted
	}
	ctx, cancel := context.WithCancel(s.ctx)
	job := &Job{
		ID:      uuid.NewString(),
		State:   JobPending,
		Created: time.Now().UTC(),
		cfg:     cfg,
		league:  league,
		seed:    seed,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.jobs[job.ID] = job
	s.mu.Unlock()

	select {
	case s.tasks <- job:
	default:
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		cancel()
		return JobView{}, ErrQueueFull
	}

	s.mu.Lock()
	view := job.view()
	s.mu.Unlock()
	return view, nil
}

// Get returns a snapshot of the job, if it exists.
func (s *jobStore) Get(id string) (JobView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return JobView{}, false
	}
	return job.view(), true
}

// Cancel signals a job's context. Cancellation is cooperative: the
// optimizer notices between passes, so the job settles shortly after
// rather than instantly. Cancelling a settled job is a no-op.
func (s *jobStore) Cancel(id string) (JobView, bool) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return JobView{}, false
	}
	cancel := job.cancel
	view := job.view()
	s.mu.Unlock()
	cancel()
	return view, true
}

func (s *jobStore) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case job := <-s.tasks:
			s.run(job)
		}
	}
}

// run executes one generation, streaming optimizer checkpoints into the
// job record and settling it with the outcome.
func (s *jobStore) run(job *Job) {
	log := s.log.With().Str("task_id", job.ID).Logger()
	s.update(job, func(j *Job) {
		j.State = JobProgress
		j.Stage = "starting"
	})

	eng := engine.New(job.cfg, job.league, job.seed, log)
	eng.OnProgress(func(p engine.Progress) {
		s.update(job, func(j *Job) {
			j.Stage = p.Stage
			j.Pass = p.Pass
			j.Placed = p.Placed
		})
	})

	sched, report, err := eng.Generate(job.ctx)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("generation failed")
		s.update(job, func(j *Job) {
			j.State = JobFailure
			j.Message = err.Error()
		})
	case report.Cancelled:
		log.Info().Int("games", sched.Len()).Msg("generation cancelled")
		s.update(job, func(j *Job) {
			j.State = JobFailure
			j.Message = "generation cancelled"
			j.Schedule = sched
			j.Report = report
			j.Placed = sched.Len()
		})
	default:
		log.Info().Int("games", sched.Len()).Msg("generation complete")
		s.update(job, func(j *Job) {
			j.State = JobSuccess
			j.Schedule = sched
			j.Report = report
			j.Placed = sched.Len()
		})
	}
}

func (s *jobStore) update(job *Job, fn func(*Job)) {
	s.mu.Lock()
	fn(job)
	s.mu.Unlock()
}
