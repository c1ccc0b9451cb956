package notifications

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/azure/discussion-insights/internal/models"
)

// ConsoleNotifier writes reports and alerts to a writer. It backs offline runs.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// Ensure ConsoleNotifier implements NotificationInterface
var _ NotificationInterface = (*ConsoleNotifier)(nil)

// NewConsoleNotifier creates a notifier writing to out
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (c *ConsoleNotifier) SendReport(ctx context.Context, report *models.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := strings.Repeat("=", 70)
	_, err := fmt.Fprintf(c.out, "\n%s\n%s%s\n", rule, BuildText(report), rule)
	return err
}

func (c *ConsoleNotifier) SendAlert(ctx context.Context, alert *models.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.out, "\nALERT [%s] %s\n%s\n", alert.Type, alert.Title, alert.Message)
	return err
}
