package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxSlackFailures caps the error lines in one message; Slack rejects
// section text over 3000 characters.
const maxSlackFailures = 10

// SlackNotifier posts the run summary to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the summary as one Block Kit message.
func (s *SlackNotifier) Notify(ctx context.Context, summary model.RunSummary) error {
	body, err := json.Marshal(buildPayload(summary))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{StatusCode: resp.StatusCode, Err: fmt.Errorf("slack webhook rejected the message")}
	}
	s.logger.Info("slack summary sent", "run_id", summary.RunID)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"` // fallback for notifications
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildPayload(s model.RunSummary) slackPayload {
	title := headline(s)
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Inserted:*\n%d", s.Inserted())},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Errors:*\n%d", s.Errors())},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Duplicates:*\n%d", s.Duplicates())},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Filtered:*\n%d", s.Filtered())},
			},
		},
	}

	if failed := failures(s); len(failed) > 0 {
		shown := failed
		if len(shown) > maxSlackFailures {
			shown = shown[:maxSlackFailures]
		}
		text := "*Failed sources:*\n" + bulletList(shown)
		if extra := len(failed) - len(shown); extra > 0 {
			text += fmt.Sprintf("\n…and %s more", plural(extra, "source"))
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: counts(s) + " · run " + s.RunID}},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Text: title, Blocks: blocks}
}
