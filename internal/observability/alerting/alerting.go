// Package alerting broadcasts dead-letter and pipeline failure events to
// operator-facing notification channels.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	xerrors "StreamForge/internal/errors"
	"StreamForge/pkg/logger"
)

// Channel identifies a notification channel.
type Channel string

const (
	ChannelLog   Channel = "log"
	ChannelEmail Channel = "email"
	ChannelSlack Channel = "slack"
)

// Event describes one failure worth alerting on.
type Event struct {
	Code         xerrors.Code
	Message      string
	Severity     xerrors.Severity
	PluginID     string
	PluginName   string
	PipelineName string
	RecordID     string
	Attempts     int
	MaxRetries   int
	Metadata     map[string]string
	OccurredAt   time.Time
}

// Notifier delivers events to a single channel.
type Notifier interface {
	Channel() Channel
	Notify(ctx context.Context, event Event) error
}

// Dispatcher broadcasts events to every configured notifier.
type Dispatcher interface {
	Notify(ctx context.Context, event Event) error
}

// FanoutDispatcher delivers each event to all registered notifiers.
type FanoutDispatcher struct {
	notifiers map[Channel]Notifier
}

// NewFanout creates a dispatcher over the given notifiers. Nil notifiers are
// skipped.
func NewFanout(notifiers ...Notifier) *FanoutDispatcher {
	set := make(map[Channel]Notifier, len(notifiers))
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		set[n.Channel()] = n
	}
	return &FanoutDispatcher{notifiers: set}
}

// Notify broadcasts the event to every registered channel.
func (d *FanoutDispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", notifier.Channel(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogNotifier writes alerts to the structured logger. It is the default
// channel and needs no external configuration.
type LogNotifier struct {
	Logger *slog.Logger
}

// Channel returns the log channel.
func (n *LogNotifier) Channel() Channel { return ChannelLog }

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	log := n.Logger
	if log == nil {
		log = logger.L()
	}
	log.Error("pipeline failure alert",
		slog.String("code", string(event.Code)),
		slog.String("severity", string(event.Severity)),
		slog.String("plugin_id", event.PluginID),
		slog.String("plugin_name", event.PluginName),
		slog.String("pipeline", event.PipelineName),
		slog.String("record_id", event.RecordID),
		slog.Int("attempts", event.Attempts),
		slog.Int("max_retries", event.MaxRetries),
		slog.String("message", event.Message),
	)
	return nil
}

// EmailSender sends an email message.
type EmailSender interface {
	Send(ctx context.Context, subject, content string, to []string) error
}

// EmailNotifier delivers alerts by email.
type EmailNotifier struct {
	Sender        EmailSender
	To            []string
	SubjectPrefix string
}

// Channel returns the email channel.
func (n *EmailNotifier) Channel() Channel { return ChannelEmail }

// Notify sends the alert email.
func (n *EmailNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.Sender == nil || len(n.To) == 0 {
		logger.L().Warn("email notifier not configured, skipping", slog.String("record_id", event.RecordID))
		return nil
	}
	subject := fmt.Sprintf("%s[%s] %s", n.SubjectPrefix, event.Severity, event.Code)
	content := fmt.Sprintf("time: %s\npipeline: %s\nplugin: %s (%s)\nrecord: %s\nattempts: %d/%d\ncode: %s\nmessage: %s",
		event.OccurredAt.Format(time.RFC3339), event.PipelineName, event.PluginName, event.PluginID,
		event.RecordID, event.Attempts, event.MaxRetries, event.Code, event.Message)
	if len(event.Metadata) > 0 {
		content += "\ndetails:\n"
		for k, v := range event.Metadata {
			content += fmt.Sprintf("- %s: %s\n", k, v)
		}
	}
	return n.Sender.Send(ctx, subject, content, n.To)
}

// SlackSender posts a message to a Slack channel.
type SlackSender interface {
	Send(ctx context.Context, channel, content string) error
}

// SlackNotifier delivers alerts to Slack.
type SlackNotifier struct {
	Sender    SlackSender
	ChannelID string
}

// Channel returns the Slack channel.
func (n *SlackNotifier) Channel() Channel { return ChannelSlack }

// Notify posts the alert message.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.Sender == nil || n.ChannelID == "" {
		logger.L().Warn("slack notifier not configured, skipping", slog.String("record_id", event.RecordID))
		return nil
	}
	content := fmt.Sprintf("*[%s]* %s - %s (pipeline %s, attempts %d/%d)",
		event.Severity, event.Code, event.Message, event.PipelineName, event.Attempts, event.MaxRetries)
	return n.Sender.Send(ctx, n.ChannelID, content)
}
