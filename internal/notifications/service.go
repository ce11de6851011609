package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/analytics"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"gopkg.in/gomail.v2"
)

const (
	reportTitle     = "Social Listening Digest"
	topChannelCount = 5
)

// Service delivers dashboard digests to Teams and email
type Service struct {
	config *config.Config
	client *resty.Client
	dialer mailDialer
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams MessageCard
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
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// SendReport sends a digest via every configured channel. A failing channel does
// not stop the others; all failures are reported together.
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	var failures []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(ctx, s.buildTeamsMessage(report)); err != nil {
			logrus.Errorf("Failed to send Teams digest: %v", err)
			failures = append(failures, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Sent digest to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send digest email: %v", err)
			failures = append(failures, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Sent digest via email")
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

// SendAlert posts an operational alert to Teams. Alerts are not emailed.
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Warnf("Alert not delivered, no Teams webhook configured: %s - %s", alert.Title, alert.Message)
		return nil
	}

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D13438",
		Title:      alert.Title,
		Text:       alert.Message,
		Sections: []TeamsSection{{
			Facts: []TeamsFact{
				{Name: "Type", Value: alert.Type},
				{Name: "Raised", Value: alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		}},
	}
	return s.postToTeams(ctx, message)
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

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	kpis := report.KPIs
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "0078D4",
		Title:      fmt.Sprintf("%s - %s", reportTitle, titleCase(report.Period)),
		Text: fmt.Sprintf("%d of %d mentions match the active filters",
			report.TotalMentions, report.TotalRecords),
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Key metrics",
		Facts: []TeamsFact{
			{Name: "Total Mentions", Value: formatMetric(kpis.TotalMentions, 0)},
			{Name: "Total Engagement", Value: formatMetric(kpis.TotalEngagement, 0)},
			{Name: "Avg Engagement", Value: formatMetric(kpis.AvgEngagementRate, 1)},
			{Name: "Sentiment Score", Value: fmt.Sprintf("%.1f / 100", kpis.SentimentScore.Value)},
			{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
		},
		Markdown: true,
	})

	if len(report.Charts.SentimentDistribution) > 0 {
		var facts []TeamsFact
		for _, slice := range report.Charts.SentimentDistribution {
			facts = append(facts, TeamsFact{
				Name:  slice.Name,
				Value: fmt.Sprintf("%d (%.1f%%)", slice.Count, slice.Percentage),
			})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Sentiment",
			Facts:         facts,
		})
	}

	if len(report.Charts.ChannelPerformance) > 0 {
		var lines []string
		for _, channel := range analytics.TopChannels(report.Charts.ChannelPerformance, topChannelCount) {
			lines = append(lines, fmt.Sprintf("**%s** - %d mentions, %d engagement",
				channel.Channel, channel.MentionCount, channel.TotalEngagement))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Channels",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	if len(report.Influencers) > 0 {
		var lines []string
		for i, influencer := range report.Influencers {
			if i >= 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("**%s** - %d mentions, %d engagement",
				influencer.Username, influencer.Mentions, influencer.TotalEngagement))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Voices",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.Report) error {
	subject := fmt.Sprintf("%s - %s (%d mentions)", reportTitle, titleCase(report.Period), report.TotalMentions)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .kpis { display: flex; gap: 12px; margin: 20px 0; }
        .kpi { background-color: #f5f5f5; padding: 15px; border-radius: 5px; flex: 1; }
        .up { color: #107c10; }
        .down { color: #d13438; }
        .stable { color: #605e5c; }
        table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
        th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #e1e1e1; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <p>{{.Report.Period | title}} digest generated on {{.Report.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="kpis">
        {{range .Metrics}}
        <div class="kpi">
            <strong>{{.Name}}</strong>
            <p>{{.Value}} <span class="{{.Trend}}">{{.Change}}</span></p>
        </div>
        {{end}}
    </div>

    {{with .Report.Charts.SentimentDistribution}}
    <h2>Sentiment</h2>
    <table>
        <tr><th>Sentiment</th><th>Mentions</th><th>Share</th></tr>
        {{range .}}<tr><td>{{.Name}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .Percentage}}%</td></tr>{{end}}
    </table>
    {{end}}

    {{with .Report.Charts.ChannelPerformance}}
    <h2>Channels</h2>
    <table>
        <tr><th>Channel</th><th>Mentions</th><th>Engagement</th></tr>
        {{range .}}<tr><td>{{.Channel}}</td><td>{{.MentionCount}}</td><td>{{.TotalEngagement}}</td></tr>{{end}}
    </table>
    {{end}}

    {{with .Report.Charts.TopCategories}}
    <h2>Top Categories</h2>
    <table>
        <tr><th>Category</th><th>Mentions</th><th>Share</th></tr>
        {{range .}}<tr><td>{{.Category}}</td><td>{{.MentionCount}}</td><td>{{printf "%.1f" .Percentage}}%</td></tr>{{end}}
    </table>
    {{end}}

    {{with .Report.Influencers}}
    <h2>Top Voices</h2>
    <table>
        <tr><th>Username</th><th>Mentions</th><th>Engagement</th><th>Positive</th></tr>
        {{range .}}<tr><td>{{.Username}}</td><td>{{.Mentions}}</td><td>{{.TotalEngagement}}</td><td>{{printf "%.0f" .PositiveRate}}%</td></tr>{{end}}
    </table>
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by the mentions dashboard.</small></p>
</body>
</html>
`

type emailMetric struct {
	Name   string
	Value  string
	Change string
	Trend  models.Trend
}

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"title": titleCase,
}).Parse(emailTemplate))

func buildEmailHTML(report *models.Report) (string, error) {
	kpis := report.KPIs
	data := struct {
		Title   string
		Report  *models.Report
		Metrics []emailMetric
	}{
		Title:  reportTitle,
		Report: report,
		Metrics: []emailMetric{
			newEmailMetric("Total Mentions", kpis.TotalMentions, 0),
			newEmailMetric("Total Engagement", kpis.TotalEngagement, 0),
			newEmailMetric("Avg Engagement", kpis.AvgEngagementRate, 1),
			{Name: "Sentiment Score", Value: fmt.Sprintf("%.1f", kpis.SentimentScore.Value), Trend: models.TrendStable},
		},
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newEmailMetric(name string, metric models.Metric, decimals int) emailMetric {
	return emailMetric{
		Name:   name,
		Value:  fmt.Sprintf("%.*f", decimals, metric.Value),
		Change: fmt.Sprintf("%+.1f%%", metric.Change),
		Trend:  metric.Trend,
	}
}

func buildEmailText(report *models.Report) string {
	var text strings.Builder
	kpis := report.KPIs

	text.WriteString(fmt.Sprintf("%s - %s\n", reportTitle, titleCase(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("KEY METRICS\n")
	text.WriteString("===========\n")
	text.WriteString(fmt.Sprintf("Total Mentions:   %s\n", formatMetric(kpis.TotalMentions, 0)))
	text.WriteString(fmt.Sprintf("Total Engagement: %s\n", formatMetric(kpis.TotalEngagement, 0)))
	text.WriteString(fmt.Sprintf("Avg Engagement:   %s\n", formatMetric(kpis.AvgEngagementRate, 1)))
	text.WriteString(fmt.Sprintf("Sentiment Score:  %.1f / 100\n", kpis.SentimentScore.Value))

	if len(report.Charts.SentimentDistribution) > 0 {
		text.WriteString("\nSENTIMENT\n")
		text.WriteString("=========\n")
		for _, slice := range report.Charts.SentimentDistribution {
			text.WriteString(fmt.Sprintf("%-10s %d (%.1f%%)\n", slice.Name, slice.Count, slice.Percentage))
		}
	}

	if len(report.Charts.ChannelPerformance) > 0 {
		text.WriteString("\nCHANNELS\n")
		text.WriteString("========\n")
		for _, channel := range report.Charts.ChannelPerformance {
			text.WriteString(fmt.Sprintf("%-10s %d mentions, %d engagement\n",
				channel.Channel, channel.MentionCount, channel.TotalEngagement))
		}
	}

	if len(report.Influencers) > 0 {
		text.WriteString("\nTOP VOICES\n")
		text.WriteString("==========\n")
		for i, influencer := range report.Influencers {
			text.WriteString(fmt.Sprintf("%d. %s - %d mentions, %d engagement\n",
				i+1, influencer.Username, influencer.Mentions, influencer.TotalEngagement))
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by the mentions dashboard.\n")
	return text.String()
}

func formatMetric(metric models.Metric, decimals int) string {
	return fmt.Sprintf("%.*f (%+.1f%%, %s)", decimals, metric.Value, metric.Change, metric.Trend)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
