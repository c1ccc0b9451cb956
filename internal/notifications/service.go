package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/azure/discussion-insights/internal/config"
	"github.com/azure/discussion-insights/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/gomail.v2"
)

const (
	teamsTopEntities = 5
	emailTopEntities = 10
)

// title upper-cases the first letter of each word. Casers are stateful, so one is
// created per call.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Enabled reports whether any channel is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(ctx, buildTeamsMessage(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert posts an alert card to Teams. Without a webhook the alert is only logged.
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	logrus.WithFields(logrus.Fields{
		"alert_id": alert.ID,
		"type":     alert.Type,
	}).Warnf("Alert: %s - %s", alert.Title, alert.Message)

	if s.config.TeamsWebhookURL == "" {
		return nil
	}
	if err := s.postToTeams(ctx, buildAlertMessage(alert)); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

func (s *Service) postToTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func sentimentColor(label string) string {
	switch label {
	case models.LabelPositive:
		return "107C10"
	case models.LabelNegative:
		return "D13438"
	default:
		return "605E5C"
	}
}

func buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: sentimentColor(report.Sentiment.Label),
		Title:      fmt.Sprintf("Discussion Insights - %s", queryTitle(report.Query)),
		Text: fmt.Sprintf("Analyzed %d comments across %d discussions. Overall sentiment is %s (%.3f).",
			report.Comments, report.Discussions, report.Sentiment.Label, report.Sentiment.Compound),
	}

	facts := []TeamsFact{
		{Name: "Discussions", Value: fmt.Sprintf("%d", report.Discussions)},
		{Name: "Comments", Value: fmt.Sprintf("%d", report.Comments)},
		{Name: "Entities", Value: fmt.Sprintf("%d", report.Summary.TotalEntities)},
		{Name: "Entity Mentions", Value: fmt.Sprintf("%d", report.Summary.TotalMentions)},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.TopEntities) > 0 {
		var lines []string
		for i, chain := range report.TopEntities {
			if i >= teamsTopEntities {
				break
			}
			lines = append(lines, entityLine(chain, true))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Entities",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	if len(report.Sources) > 0 {
		var sourceFacts []TeamsFact
		for _, src := range report.Sources {
			sourceFacts = append(sourceFacts, TeamsFact{
				Name: src.Source,
				Value: fmt.Sprintf("%d discussions, %d comments, %s",
					src.Discussions, src.Comments, src.Sentiment.Label),
			})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Sources",
			Facts:         sourceFacts,
		})
	}

	if len(report.FailedSources) > 0 {
		var failedFacts []TeamsFact
		for _, f := range report.FailedSources {
			failedFacts = append(failedFacts, TeamsFact{Name: f.Source, Value: f.Error})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Failed Sources",
			Facts:         failedFacts,
		})
	}

	return message
}

func buildAlertMessage(alert *models.Alert) *TeamsMessage {
	color := "0078D4"
	switch alert.Type {
	case "critical":
		color = "D13438"
	case "warning":
		color = "FFB900"
	}
	return &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: color,
		Title:      alert.Title,
		Text:       alert.Message,
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "Severity", Value: title(alert.Type)},
				{Name: "Raised", Value: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		}},
	}
}

func queryTitle(query string) string {
	if strings.TrimSpace(query) == "" {
		return "All Discussions"
	}
	return query
}

func entityLine(chain models.EntityChain, markdown bool) string {
	name := chain.Text
	if markdown {
		name = "**" + name + "**"
	}
	return fmt.Sprintf("%s (%s) - score %d, %d mentions in %d posts, %s %.3f",
		name, title(strings.ToLower(string(chain.Type))), chain.TotalScore,
		chain.TotalMentions, chain.UniquePosts, chain.AverageSentiment.Label, chain.AverageSentiment.Compound)
}

func (s *Service) sendEmail(report *models.Report) error {
	subject := fmt.Sprintf("Discussion Insights - %s (%d discussions, %s)",
		queryTitle(report.Query), report.Discussions, report.Sentiment.Label)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", BuildText(report))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Discussion Insights</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .entity { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .entity-title { font-weight: bold; margin-bottom: 5px; }
        .entity-meta { color: #666; font-size: 0.9em; }
        .positive { border-left-color: #107c10; }
        .negative { border-left-color: #d13438; }
        .neutral { border-left-color: #605e5c; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Discussion Insights: {{.Query | query}}</h1>
        <p>Generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Discussions:</strong> {{.Discussions}}</p>
        <p><strong>Comments:</strong> {{.Comments}}</p>
        <p><strong>Overall Sentiment:</strong> {{.Sentiment.Label | title}} ({{printf "%.3f" .Sentiment.Compound}})</p>
        <p><strong>Entities:</strong> {{.Summary.TotalEntities}} ({{.Summary.TotalMentions}} mentions)</p>
        {{range .Sources}}
            <p><strong>{{.Source}}:</strong> {{.Discussions}} discussions, {{.Comments}} comments, {{.Sentiment.Label}}</p>
        {{end}}
        {{range .FailedSources}}
            <p><strong>{{.Source}} failed:</strong> {{.Error}}</p>
        {{end}}
    </div>

    {{if .TopEntities}}
    <h2>Top Entities</h2>
    {{range $index, $chain := .TopEntities}}
        {{if lt $index 10}}
        <div class="entity {{$chain.AverageSentiment.Label}}">
            <div class="entity-title">{{$chain.Text}} <small>{{$chain.Type | typename}}</small></div>
            <div class="entity-meta">
                Score {{$chain.TotalScore}} | {{$chain.TotalMentions}} mentions in {{$chain.UniquePosts}} posts |
                {{$chain.AverageSentiment.Label}} {{printf "%.3f" $chain.AverageSentiment.Compound}}
            </div>
        </div>
        {{end}}
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by Discussion Insights.</small></p>
</body>
</html>
`

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"title": title,
	"query": queryTitle,
	"typename": func(t models.EntityType) string {
		return title(strings.ToLower(string(t)))
	},
}).Parse(emailTemplate))

func buildEmailHTML(report *models.Report) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildText renders the plain-text form of a report
func BuildText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Discussion Insights - %s\n", queryTitle(report.Query)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Discussions: %d\n", report.Discussions))
	text.WriteString(fmt.Sprintf("Comments: %d\n", report.Comments))
	text.WriteString(fmt.Sprintf("Sentiment: %s (%.3f)\n", report.Sentiment.Label, report.Sentiment.Compound))
	text.WriteString(fmt.Sprintf("Entities: %d (%d mentions)\n", report.Summary.TotalEntities, report.Summary.TotalMentions))

	if len(report.Sources) > 0 {
		text.WriteString("\nSOURCES\n")
		text.WriteString("=======\n")
		for _, src := range report.Sources {
			text.WriteString(fmt.Sprintf("%s: %d discussions, %d comments, %s\n",
				src.Source, src.Discussions, src.Comments, src.Sentiment.Label))
		}
	}

	if len(report.FailedSources) > 0 {
		text.WriteString("\nFAILED SOURCES\n")
		text.WriteString("==============\n")
		for _, f := range report.FailedSources {
			text.WriteString(fmt.Sprintf("%s: %s\n", f.Source, f.Error))
		}
	}

	if len(report.TopEntities) > 0 {
		text.WriteString("\nTOP ENTITIES\n")
		text.WriteString("============\n")
		for i, chain := range report.TopEntities {
			if i >= emailTopEntities {
				break
			}
			text.WriteString(fmt.Sprintf("%d. %s\n", i+1, entityLine(chain, false)))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by Discussion Insights.\n")

	return text.String()
}
