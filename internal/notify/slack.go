// Package notify posts job summaries to Slack when a bot token and channel
// are configured. A nil Notifier is valid and does nothing.
package notify

import (
	"fmt"
	"log"

	"tagsheet/internal/config"

	"github.com/slack-go/slack"
)

type Notifier struct {
	api     *slack.Client
	channel string
}

func New(cfg config.Config) *Notifier {
	if cfg.SlackBotToken == "" || cfg.SlackChannelID == "" {
		return nil
	}
	return &Notifier{
		api:     slack.New(cfg.SlackBotToken),
		channel: cfg.SlackChannelID,
	}
}

// JobFinished posts a one-line summary of a completed classification job.
// Failures are logged only; notification never affects the job outcome.
func (n *Notifier) JobFinished(inputFile, outputFile string, keywords, batches, failedBatches int) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("Classified %d keywords from %s into %s (%d batches", keywords, inputFile, outputFile, batches)
	if failedBatches > 0 {
		text += fmt.Sprintf(", %d failed and written blank", failedBatches)
	}
	text += ")"

	if _, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("slack notify error: %v", err)
	}
}
