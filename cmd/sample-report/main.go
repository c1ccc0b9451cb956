package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/azure/discussion-insights/internal/config"
	"github.com/azure/discussion-insights/internal/entities"
	"github.com/azure/discussion-insights/internal/graph"
	"github.com/azure/discussion-insights/internal/models"
	"github.com/azure/discussion-insights/internal/notifications"
	"github.com/azure/discussion-insights/internal/pipeline"
	"github.com/azure/discussion-insights/internal/sentiment"
	"github.com/azure/discussion-insights/internal/sources"
	"github.com/azure/discussion-insights/internal/storage"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	fixturePath  string
	query        string
	outDir       string
	withComments bool
}

func main() {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "sample-report",
		Short: "Analyze a discussion fixture offline",
		Long:  `Runs the full analysis pipeline over a JSON fixture with the VADER scorer and the heuristic tagger, prints the report and writes the result and graph JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.fixturePath, "fixture", "cmd/sample-report/testdata/sample.json", "JSON fixture of communities and discussions")
	cmd.Flags().StringVar(&opts.query, "query", "", "only analyze discussions matching this query")
	cmd.Flags().StringVar(&opts.outDir, "out", "sample_output", "directory for the result and graph JSON")
	cmd.Flags().BoolVar(&opts.withComments, "comments", true, "include comment nodes in the graph")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	logrus.SetLevel(logrus.WarnLevel)

	fmt.Println("🔎 Discussion Insights - Sample Report Generator")
	fmt.Println("================================================")

	static, err := sources.LoadFixture(opts.fixturePath)
	if err != nil {
		return err
	}
	communities := static.Communities()
	sort.Strings(communities)

	cfg := &config.Config{
		Query:                opts.query,
		DefaultSource:        static.GetName(),
		Communities:          communities,
		PostLimit:            25,
		CommentLimit:         200,
		SourceTimeout:        time.Minute,
		RunTimeout:           5 * time.Minute,
		MaxConcurrentSources: 4,
		CommentWorkers:       4,
		ContextWindow:        entities.DefaultContextWindow,
		MinEntityConfidence:  0.5,
		MaxGraphEntities:     25,
		ReportTopEntities:    10,
	}

	local, err := storage.NewLocalStorage(opts.outDir)
	if err != nil {
		return err
	}

	analyzer := sentiment.NewAnalyzer(sentiment.NewVaderScorer(true), cfg.CommentWorkers)
	extractor := entities.NewExtractor(entities.NewHeuristicTagger(), analyzer, cfg.ContextWindow, cfg.MinEntityConfidence)
	console := notifications.NewConsoleNotifier(os.Stdout)
	service := pipeline.NewService(cfg, []sources.Source{static}, analyzer, extractor, local, console)

	fmt.Printf("\n📊 Analyzing %d communities: %s\n", len(communities), strings.Join(communities, ", "))

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	result, err := service.Analyze(ctx, pipeline.Request{Query: cfg.Query})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := console.SendReport(ctx, pipeline.BuildReport(result, cfg.ReportTopEntities)); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	renderChains(result.EntityChains, cfg.ReportTopEntities)

	name, err := service.Results().Save(ctx, result)
	if err != nil {
		fmt.Printf("⚠️  Warning: Could not save result: %v\n", err)
	} else {
		fmt.Printf("\n💾 Result saved to: %s/%s\n", opts.outDir, name)
	}

	g := graph.Build(result, graph.Options{
		MaxEntities:              cfg.MaxGraphEntities,
		MaxCommentsPerDiscussion: 50,
		IncludeComments:          opts.withComments,
	})
	if err := saveGraph(ctx, local, result, g); err != nil {
		fmt.Printf("⚠️  Warning: Could not save graph: %v\n", err)
	} else {
		fmt.Printf("🕸️  Graph saved to: %s/graphs (%d nodes, %d links)\n", opts.outDir, len(g.Nodes), len(g.Links))
	}

	fmt.Println("\n✅ Sample report completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Point FIXTURE_PATH at this file to serve it from the analyzer as the \"static\" source")
	fmt.Println("   • Configure REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET and run 'go run ./cmd/analyzer'")
	return nil
}

// renderChains prints the ranked chains with their per-entity sentiment
func renderChains(chains []models.EntityChain, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Entity", "Type", "Score", "Mentions", "Posts", "Sentiment", "Sources"})

	for i, c := range chains {
		if limit > 0 && i >= limit {
			break
		}
		t.AppendRow(table.Row{
			i + 1,
			c.Text,
			c.Type,
			c.TotalScore,
			c.TotalMentions,
			c.UniquePosts,
			fmt.Sprintf("%s %.3f", c.AverageSentiment.Label, c.AverageSentiment.Compound),
			strings.Join(c.Sources, ", "),
		})
	}
	t.Render()
}

func saveGraph(ctx context.Context, store storage.StorageInterface, result *models.ConsolidatedResult, g *models.Graph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	name := "graphs/" + strings.TrimPrefix(storage.ResultName(result.Query, result.GeneratedAt), storage.ResultsPrefix)
	return store.Store(ctx, name, data)
}
