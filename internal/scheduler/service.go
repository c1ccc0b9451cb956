package scheduler

import (
	"fmt"
	"time"

	"github.com/azure/discussion-insights/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner is the job the scheduler triggers
type Runner interface {
	RunScheduled() error
}

// Service handles scheduling of analysis runs
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner Runner) *Service {
	return &Service{
		config: cfg,
		runner: runner,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location()),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Start begins the scheduled analysis
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		logrus.Info("Starting scheduled analysis run")
		if err := s.runner.RunScheduled(); err != nil {
			logrus.Errorf("Scheduled analysis run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.config.Schedule, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q (%s)", s.config.Schedule, s.config.Location())
	return nil
}

// Next returns when the next run is due. It is zero until the scheduler starts.
func (s *Service) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the scheduler and waits for a running analysis to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
