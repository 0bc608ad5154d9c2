// Package scheduler drives recurring harvest runs from daily, weekly, and interval
// triggers, polling in fixed ticks until its context is cancelled.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

// State is the scheduler lifecycle position.
type State string

// Scheduler states.
const (
	StateIdle       State = "idle"
	StateRegistered State = "registered"
	StateRunning    State = "running"
	StateFaulted    State = "faulted"
	StateStopped    State = "stopped"
)

// Job is the work every trigger invokes.
type Job func(ctx context.Context) error

// Config holds parsed schedule settings. Zero polling values take defaults.
type Config struct {
	DailyAt       TimeOfDay
	WeeklyDay     time.Weekday
	WeeklyAt      TimeOfDay
	Interval      time.Duration // <= 0 disables the interval trigger
	RunOnStart    bool
	Tick          time.Duration
	CheckEvery    int
	AnnounceEvery int
	Cooldown      time.Duration
	Location      *time.Location
}

// DefaultConfig returns the stock schedule: 02:00 daily, Monday 08:00, every 6h.
func DefaultConfig() Config {
	return Config{
		DailyAt:       TimeOfDay{Hour: 2},
		WeeklyDay:     time.Monday,
		WeeklyAt:      TimeOfDay{Hour: 8},
		Interval:      6 * time.Hour,
		RunOnStart:    true,
		Tick:          time.Second,
		CheckEvery:    60,
		AnnounceEvery: 15,
		Cooldown:      time.Minute,
		Location:      time.UTC,
	}
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(clock crawler.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithSleep replaces the context-aware sleep used for ticks and cooldowns.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) {
		s.sleep = fn
	}
}

// Scheduler runs a Job whenever one of its triggers is due.
type Scheduler struct {
	cfg    Config
	job    Job
	clock  crawler.Clock
	sleep  func(ctx context.Context, d time.Duration) error
	logger *zap.Logger

	mu       sync.RWMutex
	state    State
	triggers []Trigger
}

// New constructs a Scheduler in the idle state.
func New(cfg Config, job Job, logger *zap.Logger, opts ...Option) *Scheduler {
	def := DefaultConfig()
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = def.CheckEvery
	}
	if cfg.AnnounceEvery <= 0 {
		cfg.AnnounceEvery = def.AnnounceEvery
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cfg:    cfg,
		job:    job,
		sleep:  sleepContext,
		logger: logger,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start clears and registers the triggers, logs each next run, and performs the
// eager run when configured. A failed eager run is logged, not returned.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.job == nil {
		return errors.New("scheduler job is required")
	}
	now := s.now()
	triggers := []Trigger{
		{Name: "daily", Kind: KindDaily, At: s.cfg.DailyAt},
		{Name: "weekly", Kind: KindWeekly, Weekday: s.cfg.WeeklyDay, At: s.cfg.WeeklyAt},
	}
	if s.cfg.Interval > 0 {
		triggers = append(triggers, Trigger{Name: "interval", Kind: KindInterval, Every: s.cfg.Interval})
	}
	for i := range triggers {
		triggers[i].Next = triggers[i].NextAfter(now)
		s.logger.Info("trigger registered",
			zap.String("trigger", triggers[i].Name),
			zap.String("schedule", triggers[i].Describe()),
			zap.Time("next_run", triggers[i].Next),
		)
	}

	s.mu.Lock()
	s.triggers = triggers
	s.state = StateRegistered
	s.mu.Unlock()

	if !s.cfg.RunOnStart {
		return nil
	}
	s.logger.Info("running initial harvest")
	s.setState(StateRunning)
	err := s.invoke(ctx)
	s.setState(StateRegistered)
	if err != nil {
		s.logger.Error("initial harvest failed", zap.Error(err))
	}
	return nil
}

// Run polls the triggers until ctx is cancelled, then returns nil. Job errors and
// panics are logged, put the scheduler in the faulted state for one cooldown, and the
// loop resumes.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.RLock()
	registered := len(s.triggers) > 0
	s.mu.RUnlock()
	if !registered {
		return errors.New("scheduler has no registered triggers; call Start first")
	}

	for {
		if ctx.Err() != nil {
			s.setState(StateStopped)
			s.logger.Info("scheduler stopped")
			return nil
		}
		s.setState(StateRunning)

		if err := s.runPending(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			s.logger.Error("scheduler job failed", zap.Error(err), zap.Duration("cooldown", s.cfg.Cooldown))
			s.setState(StateFaulted)
			// An interrupted cooldown ends at the top of the loop.
			_ = s.sleep(ctx, s.cfg.Cooldown)
			continue
		}
		s.waitTicks(ctx)
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Triggers returns a copy of the registered triggers.
func (s *Scheduler) Triggers() []Trigger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Trigger, len(s.triggers))
	copy(out, s.triggers)
	return out
}

func (s *Scheduler) runPending(ctx context.Context) error {
	var errs []error
	s.mu.RLock()
	count := len(s.triggers)
	s.mu.RUnlock()

	for i := range count {
		s.mu.RLock()
		t := s.triggers[i]
		s.mu.RUnlock()
		if !t.Due(s.now()) {
			continue
		}

		s.logger.Info("trigger fired", zap.String("trigger", t.Name))
		if err := s.invoke(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trigger %s: %w", t.Name, err))
		}

		finished := s.now()
		s.mu.Lock()
		s.triggers[i].LastRun = finished
		s.triggers[i].Next = t.NextAfter(finished)
		next := s.triggers[i].Next
		s.mu.Unlock()
		s.logger.Info("trigger rescheduled", zap.String("trigger", t.Name), zap.Time("next_run", next))
	}
	return errors.Join(errs...)
}

func (s *Scheduler) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return s.job(ctx)
}

// waitTicks sleeps up to CheckEvery ticks, leaving early once a trigger is due.
func (s *Scheduler) waitTicks(ctx context.Context) {
	for i := 0; i < s.cfg.CheckEvery; i++ {
		if err := s.sleep(ctx, s.cfg.Tick); err != nil {
			return
		}
		if i%s.cfg.AnnounceEvery != 0 {
			continue
		}
		if due := s.dueTriggers(); len(due) > 0 {
			s.logger.Info("triggers due", zap.Strings("triggers", due))
			return
		}
	}
}

func (s *Scheduler) dueTriggers() []string {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []string
	for _, t := range s.triggers {
		if t.Due(now) {
			due = append(due, t.Name)
		}
	}
	return due
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Scheduler) now() time.Time {
	if s.clock != nil {
		return s.clock.Now().In(s.cfg.Location)
	}
	return time.Now().In(s.cfg.Location)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
