package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/azure/discussion-insights/internal/chains"
	"github.com/azure/discussion-insights/internal/config"
	"github.com/azure/discussion-insights/internal/consolidation"
	"github.com/azure/discussion-insights/internal/entities"
	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/notifications"
	"github.com/azure/discussion-insights/internal/sentiment"
	"github.com/azure/discussion-insights/internal/sources"
	"github.com/azure/discussion-insights/internal/storage"
	"github.com/azure/discussion-insights/internal/tree"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownSource is returned when a request names a source that is not registered
var ErrUnknownSource = errors.New("unknown source")

// deliveryTimeout bounds storing and notifying once a scheduled run has finished.
// It is separate from RunTimeout so a partial result survives an expired run.
const deliveryTimeout = time.Minute

// Request describes one analysis run
type Request struct {
	Query string `json:"query"`
	// Source selects the backend. Empty uses the configured default.
	Source string `json:"source,omitempty"`
	// Communities are analyzed as independent sources. Empty uses the configured list.
	Communities []string `json:"communities,omitempty"`
}

// Service runs the discussion analysis pipeline across sources
type Service struct {
	config    *config.Config
	sources   map[string]sources.Source
	names     []string
	builder   *tree.Builder
	analyzer  *sentiment.Analyzer
	extractor *entities.Extractor
	engine    *consolidation.Engine
	results   *storage.ResultStore
	notifier  notifications.NotificationInterface
	metrics   *Metrics
	mu        sync.RWMutex
}

// Metrics holds pipeline metrics
type Metrics struct {
	Runs               int            `json:"runs"`
	LastRun            time.Time      `json:"last_run"`
	LastRunDuration    string         `json:"last_run_duration"`
	LastQuery          string         `json:"last_query"`
	LastResult         string         `json:"last_result,omitempty"`
	Discussions        int            `json:"discussions"`
	Comments           int            `json:"comments"`
	Entities           int            `json:"entities"`
	FailedSources      int            `json:"failed_sources"`
	ErrorCount         int            `json:"error_count"`
	SourceMetrics      map[string]int `json:"source_metrics"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
}

// NewService creates a pipeline service. The analyzer and extractor are shared by every
// source pipeline the service runs.
func NewService(
	cfg *config.Config,
	srcs []sources.Source,
	analyzer *sentiment.Analyzer,
	extractor *entities.Extractor,
	store storage.StorageInterface,
	notifier notifications.NotificationInterface,
) *Service {
	service := &Service{
		config:    cfg,
		sources:   make(map[string]sources.Source),
		builder:   tree.NewRedditBuilder(),
		analyzer:  analyzer,
		extractor: extractor,
		engine:    consolidation.NewEngine(cfg.RecomputeMergedSentiment),
		notifier:  notifier,
		metrics: &Metrics{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
	}
	if store != nil {
		service.results = storage.NewResultStore(store)
	}

	for _, src := range srcs {
		name := src.GetName()
		if _, exists := service.sources[name]; exists {
			logrus.Warnf("Ignoring duplicate source %s", name)
			continue
		}
		service.sources[name] = src
		service.names = append(service.names, name)
	}

	return service
}

// SourceNames lists the registered sources in registration order
func (s *Service) SourceNames() []string {
	return append([]string(nil), s.names...)
}

// Results returns the result store, nil when the service has no storage
func (s *Service) Results() *storage.ResultStore {
	return s.results
}

// ProcessSource runs fetch, tree, sentiment, entities and chains for one community of
// the given source. Stages run strictly in that order.
func (s *Service) ProcessSource(ctx context.Context, src sources.Source, community, query string) (*models.SourceResult, error) {
	if !src.IsEnabled() {
		return nil, fmt.Errorf("source %s is disabled", src.GetName())
	}

	start := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"source":    src.GetName(),
		"community": community,
		"query":     query,
	})
	log.Info("Processing source")

	discussions, err := src.FetchDiscussions(ctx, sources.FetchRequest{
		Community:       community,
		Query:           query,
		PostLimit:       s.config.PostLimit,
		CommentLimit:    s.config.CommentLimit,
		MinCommentScore: s.config.MinCommentScore,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discussions: %w", err)
	}

	var (
		mentions     []models.MentionEvent
		commentCount int
		failed       int
	)
	for i := range discussions {
		d := &discussions[i]
		d.Source = community
		d.Comments = s.builder.Build(d.RawComments)
		d.CommentCount = tree.Count(d.Comments)
		commentCount += d.CommentCount

		_, f := s.analyzer.ScoreDiscussion(ctx, d)
		failed += f

		found := s.extractor.MentionsForDiscussion(ctx, d)
		d.EntityChains = chains.ForDiscussion(found, d.ID, community)
		mentions = append(mentions, found...)

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("processing interrupted: %w", err)
		}
	}

	result := &models.SourceResult{
		Source:       community,
		Discussions:  discussions,
		EntityChains: chains.Build(mentions, community),
		Sentiment:    sentiment.SourceSentiment(discussions),
		CommentCount: commentCount,
		FetchedAt:    start,
		Duration:     time.Since(start).String(),
	}

	log.WithFields(logrus.Fields{
		"discussions":     len(discussions),
		"comments":        commentCount,
		"unscored":        failed,
		"mentions":        len(mentions),
		"entity_chains":   len(result.EntityChains),
		"sentiment_label": result.Sentiment.Label,
		"processing_time": result.Duration,
	}).Info("Processed source")

	return result, nil
}

// collector gathers per-source outcomes. Once closed, late outcomes are dropped.
type collector struct {
	mu       sync.Mutex
	closed   bool
	results  []*models.SourceResult
	failures []*models.SourceFailure
}

func (c *collector) succeed(i int, result *models.SourceResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.results[i] = result
	}
}

func (c *collector) fail(i int, community string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.failures[i] = &models.SourceFailure{Source: community, Error: err.Error()}
	}
}

// close stops collection and returns the completed outcomes in request order
func (c *collector) close(communities []string, abandoned bool) ([]models.SourceResult, []models.SourceFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true

	var (
		results  []models.SourceResult
		failures []models.SourceFailure
	)
	for i := range communities {
		switch {
		case c.results[i] != nil:
			results = append(results, *c.results[i])
		case c.failures[i] != nil:
			failures = append(failures, *c.failures[i])
		case abandoned:
			failures = append(failures, models.SourceFailure{Source: communities[i], Error: "abandoned: run cancelled"})
		}
	}
	return results, failures
}

// Analyze runs one pipeline per community concurrently and consolidates the successful
// ones. A failed community is recorded and never fails the run. When ctx is cancelled the
// in-flight pipelines are abandoned and whatever completed is consolidated.
func (s *Service) Analyze(ctx context.Context, req Request) (*models.ConsolidatedResult, error) {
	name := req.Source
	if name == "" {
		name = s.config.DefaultSource
	}
	src, ok := s.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}

	communities := uniqueCommunities(req.Communities)
	if len(communities) == 0 {
		communities = uniqueCommunities(s.config.Communities)
	}
	if len(communities) == 0 {
		return nil, consolidation.ErrNoData
	}

	logrus.Infof("Analyzing %d communities of %s for %q", len(communities), name, req.Query)

	limit := s.config.MaxConcurrentSources
	if limit < 1 {
		limit = 1
	}

	col := &collector{
		results:  make([]*models.SourceResult, len(communities)),
		failures: make([]*models.SourceFailure, len(communities)),
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		g := new(errgroup.Group)
		g.SetLimit(limit)

		for i, community := range communities {
			i, community := i, community
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					col.fail(i, community, err)
					return nil
				}

				sourceCtx, cancel := s.sourceContext(ctx)
				defer cancel()

				result, err := s.ProcessSource(sourceCtx, src, community, req.Query)
				if err != nil {
					logrus.WithFields(logrus.Fields{
						"source":    name,
						"community": community,
					}).Errorf("Source failed: %v", err)
					col.fail(i, community, err)
					return nil
				}
				col.succeed(i, result)
				return nil
			})
		}
		_ = g.Wait()
	}()

	abandoned := false
	select {
	case <-done:
	case <-ctx.Done():
		abandoned = true
		logrus.Warnf("Analysis cancelled, consolidating completed sources: %v", ctx.Err())
	}

	results, failures := col.close(communities, abandoned)
	return s.engine.Consolidate(req.Query, results, failures)
}

func (s *Service) sourceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.SourceTimeout > 0 {
		return context.WithTimeout(ctx, s.config.SourceTimeout)
	}
	return context.WithCancel(ctx)
}

// RunScheduled analyzes the configured query, stores the result and sends the report
func (s *Service) RunScheduled() error {
	start := time.Now()
	logrus.Info("Starting scheduled analysis run")

	timeout := s.config.RunTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	runCtx, cancelRun := context.WithTimeout(context.Background(), timeout)
	defer cancelRun()

	result, err := s.Analyze(runCtx, Request{Query: s.config.Query})

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err != nil {
		logrus.Errorf("Scheduled analysis failed: %v", err)
		s.updateMetrics(nil, "", time.Since(start), err)
		s.alert(ctx, "critical", "Scheduled analysis failed", err.Error())
		return err
	}

	name := ""
	if s.results != nil {
		name, err = s.results.Save(ctx, result)
		if err != nil {
			logrus.Errorf("Failed to store result: %v", err)
			s.updateMetrics(result, "", time.Since(start), err)
			return err
		}
		logrus.Infof("Stored result %s", name)
	}

	s.updateMetrics(result, name, time.Since(start), nil)

	if s.notifier != nil {
		if err := s.notifier.SendReport(ctx, BuildReport(result, s.config.ReportTopEntities)); err != nil {
			logrus.Errorf("Failed to send report: %v", err)
			return err
		}
	}

	if len(result.FailedSources) > 0 {
		failed := make([]string, 0, len(result.FailedSources))
		for _, f := range result.FailedSources {
			failed = append(failed, fmt.Sprintf("%s: %s", f.Source, f.Error))
		}
		s.alert(ctx, "warning",
			fmt.Sprintf("%d of %d sources failed", len(result.FailedSources), len(result.FailedSources)+len(result.Sources)),
			strings.Join(failed, "\n"))
	}

	logrus.Infof("Scheduled analysis run completed in %v", time.Since(start))
	return nil
}

func (s *Service) alert(ctx context.Context, severity, title, message string) {
	if s.notifier == nil {
		return
	}
	alert := &models.Alert{
		ID:        uuid.NewString(),
		Type:      severity,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.notifier.SendAlert(ctx, alert); err != nil {
		logrus.Errorf("Failed to send alert: %v", err)
	}
}

// BuildReport summarizes a consolidated result, keeping the top chains
func BuildReport(result *models.ConsolidatedResult, topEntities int) *models.Report {
	report := &models.Report{
		GeneratedAt:   result.GeneratedAt,
		Query:         result.Query,
		Discussions:   len(result.Discussions),
		Sentiment:     result.Sentiment,
		Sources:       result.Sources,
		TopEntities:   result.EntityChains,
		Summary:       result.Summary,
		FailedSources: result.FailedSources,
	}
	for _, src := range result.Sources {
		report.Comments += src.Comments
	}
	if topEntities > 0 && len(report.TopEntities) > topEntities {
		report.TopEntities = report.TopEntities[:topEntities]
	}
	return report
}

func (s *Service) updateMetrics(result *models.ConsolidatedResult, name string, duration time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Runs++
	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.LastQuery = s.config.Query
	if err != nil {
		s.metrics.ErrorCount++
	}
	if result == nil {
		return
	}

	s.metrics.LastResult = name
	s.metrics.Discussions = len(result.Discussions)
	s.metrics.Entities = result.Summary.TotalEntities
	s.metrics.FailedSources = len(result.FailedSources)
	s.metrics.Comments = 0

	// Reset counters
	s.metrics.SourceMetrics = make(map[string]int)
	s.metrics.SentimentBreakdown = make(map[string]int)

	for _, src := range result.Sources {
		s.metrics.Comments += src.Comments
		s.metrics.SourceMetrics[src.Source] = src.Discussions
	}
	for _, d := range result.Discussions {
		label := models.LabelNeutral
		if d.Sentiment != nil {
			label = d.Sentiment.Label
		}
		s.metrics.SentimentBreakdown[label]++
	}
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

func uniqueCommunities(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
