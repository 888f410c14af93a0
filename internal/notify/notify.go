package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
)

// Purchase describes a completed checkout for people watching the sales channel.
type Purchase struct {
	Email     string
	Plan      string
	Amount    float64
	Currency  string
	SessionID string
}

type Notifier interface {
	PurchaseCompleted(ctx context.Context, p Purchase) error
}

// NopNotifier is used when no chat integration is configured.
type NopNotifier struct{}

func (NopNotifier) PurchaseCompleted(context.Context, Purchase) error { return nil }

// SlackNotifier posts purchase notices to one channel with a bot token.
type SlackNotifier struct {
	client    *slack.Client
	channelID string
}

func NewSlackNotifier(token, channelID string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{client: slack.New(token, opts...), channelID: channelID}
}

func (s *SlackNotifier) PurchaseCompleted(ctx context.Context, p Purchase) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(FormatPurchase(p), false))
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

func FormatPurchase(p Purchase) string {
	plan := p.Plan
	if plan == "" {
		plan = "pro"
	}
	email := p.Email
	if email == "" {
		email = "unknown payer"
	}
	return fmt.Sprintf("New BrandShot Pro purchase: *%s* plan by %s (%.2f %s, session %s)",
		plan, email, p.Amount, strings.ToUpper(p.Currency), p.SessionID)
}
