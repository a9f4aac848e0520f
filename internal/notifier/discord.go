package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"

	"VelSave/internal/config"
)

type DiscordNotifier struct {
	webhookURL string
	timeout    time.Duration
	retry      *config.DiscordRetry
	mentions   *config.DiscordMentions
	events     map[string]struct{}
	host       string
	client     *http.Client
	clock      clock.Clock
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text,omitempty"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

func NewDiscordNotifier(cfg *config.DiscordConfig) (*DiscordNotifier, error) {
	if cfg == nil || !cfg.Enabled || cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord notifier disabled or missing webhook_url")
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	events := make(map[string]struct{})
	for _, e := range cfg.Events {
		events[e] = struct{}{}
	}
	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		timeout:    timeout,
		retry:      cfg.Retry,
		mentions:   cfg.Mentions,
		events:     events,
		host:       host,
		client:     &http.Client{Timeout: timeout},
		clock:      clock.WallClock,
	}, nil
}

func (d *DiscordNotifier) allowed(event string) bool {
	if len(d.events) == 0 {
		return true
	}
	_, ok := d.events[event]
	return ok
}

func (d *DiscordNotifier) send(ctx context.Context, embed discordEmbed, mention string) error {
	if d.webhookURL == "" {
		return nil
	}
	payload := discordPayload{
		Content: mention,
		Embeds:  []discordEmbed{embed},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	attempts := 1
	delay := 0 * time.Millisecond
	if d.retry != nil && d.retry.Attempts > 1 {
		attempts = d.retry.Attempts
		delay = time.Duration(d.retry.BackoffMs) * time.Millisecond
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-d.clock.After(delay):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("status %s", resp.Status)
	}
	return fmt.Errorf("discord webhook failed after %d attempts: %w", attempts, lastErr)
}

func (d *DiscordNotifier) NotifyStart(ctx context.Context, jobName string) error {
	if !d.allowed("start") {
		return nil
	}
	embed := discordEmbed{
		Title:     "Backup started",
		Color:     0x3498db,
		Timestamp: d.now(),
		Fields: []discordField{
			{Name: "Host", Value: d.host, Inline: true},
			{Name: "Job", Value: jobName, Inline: true},
		},
	}
	return d.send(ctx, embed, "")
}

// NotifySuccess reports a finished job. A job that completed with failed
// files is sent as a warning.
func (d *DiscordNotifier) NotifySuccess(ctx context.Context, jobName string, r Report) error {
	title, color, event, mention := "Backup success", 0x2ecc71, "success", ""
	if r.Failed > 0 {
		title, color, event = "Backup finished with errors", 0xf1c40f, "warning"
		if d.mentions != nil {
			mention = d.mentions.OnError
		}
	}
	if !d.allowed(event) {
		return nil
	}
	embed := discordEmbed{
		Title:     title,
		Color:     color,
		Timestamp: d.now(),
		Fields: []discordField{
			{Name: "Host", Value: d.host, Inline: true},
			{Name: "Job", Value: jobName, Inline: true},
			{Name: "Duration", Value: r.Duration.Round(time.Millisecond).String(), Inline: true},
			{Name: "Copied", Value: fmt.Sprintf("%d", r.Copied), Inline: true},
			{Name: "Skipped", Value: fmt.Sprintf("%d", r.Skipped), Inline: true},
			{Name: "Failed", Value: fmt.Sprintf("%d", r.Failed), Inline: true},
			{Name: "Size", Value: humanize.IBytes(uint64(r.Bytes)), Inline: true},
		},
	}
	return d.send(ctx, embed, mention)
}

func (d *DiscordNotifier) NotifyError(ctx context.Context, jobName string, err error) error {
	if !d.allowed("error") {
		return nil
	}
	mention := ""
	if d.mentions != nil && d.mentions.OnError != "" {
		mention = d.mentions.OnError
	}
	embed := discordEmbed{
		Title:       "Backup failed",
		Description: err.Error(),
		Color:       0xe74c3c,
		Timestamp:   d.now(),
		Fields: []discordField{
			{Name: "Host", Value: d.host, Inline: true},
			{Name: "Job", Value: jobName, Inline: true},
		},
	}
	return d.send(ctx, embed, mention)
}

func (d *DiscordNotifier) now() string {
	return d.clock.Now().UTC().Format(time.RFC3339)
}

var _ Notifier = (*DiscordNotifier)(nil)
