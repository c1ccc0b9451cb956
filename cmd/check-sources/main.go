package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/azure/discussion-insights/internal/config"
	"github.com/azure/discussion-insights/internal/sources"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🔍 Discussion Insights - Source Connectivity Check")
	fmt.Println("==================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SourceTimeout)
	defer cancel()

	// one post with a handful of comments is enough to prove the round trip
	req := sources.FetchRequest{
		Query:        cfg.Query,
		PostLimit:    1,
		CommentLimit: 5,
	}

	fmt.Println("\n📡 Checking sources...")
	fmt.Println(strings.Repeat("-", 40))

	summary := table.NewWriter()
	summary.SetOutputMirror(os.Stdout)
	summary.SetStyle(table.StyleLight)
	summary.AppendHeader(table.Row{"Source", "Community", "Status", "Discussions", "Comments"})

	reddit := sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret,
		sources.WithRedditUserAgent(cfg.RedditUserAgent),
		sources.WithRequestsPerMinute(cfg.RedditRequestsPerMinute),
	)
	for _, community := range cfg.Communities {
		req.Community = community
		summary.AppendRow(checkSource(ctx, "Reddit r/"+community, reddit, req))
	}

	req.Community = "top"
	summary.AppendRow(checkSource(ctx, "Hacker News", sources.NewHackerNewsSource(), req))

	if cfg.FixturePath != "" {
		static, err := sources.LoadFixture(cfg.FixturePath)
		if err != nil {
			fmt.Printf("🔸 Checking fixture... ❌ ERROR: %v\n", err)
		} else {
			for _, community := range static.Communities() {
				req.Community = community
				summary.AppendRow(checkSource(ctx, "Fixture "+community, static, req))
			}
		}
	}

	fmt.Println()
	summary.Render()

	fmt.Println("\n✅ Source connectivity check completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing credentials in the .env file")
	fmt.Println("   • Run the analyzer with: go run ./cmd/analyzer")
}

func checkSource(ctx context.Context, name string, source sources.Source, req sources.FetchRequest) table.Row {
	fmt.Printf("🔸 Checking %s... ", name)

	if !source.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing credentials)\n")
		return table.Row{source.GetName(), req.Community, "disabled", "-", "-"}
	}

	start := time.Now()
	discussions, err := source.FetchDiscussions(ctx, req)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return table.Row{source.GetName(), req.Community, "error", "-", "-"}
	}

	comments := 0
	for _, d := range discussions {
		comments += len(d.RawComments)
	}
	fmt.Printf("✅ SUCCESS (%d discussions, %d comments in %v)\n", len(discussions), comments, time.Since(start).Round(time.Millisecond))

	// Show a sample discussion
	if len(discussions) > 0 {
		fmt.Printf("   📝 Sample: \"%s\"\n", discussions[0].Title)
	}
	return table.Row{source.GetName(), req.Community, "ok", len(discussions), comments}
}
