package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leemount96/euler-yield-bot/internal/metrics"
	"github.com/leemount96/euler-yield-bot/internal/store"
)

const telegramAPI = "https://api.telegram.org/bot"

const topN = 5

// Pipeline renders the two report messages the bot serves.
type Pipeline interface {
	RenderTopIncentiveMessage(ctx context.Context, n int) (string, error)
	RenderTopVaultMessage(ctx context.Context, n int) (string, error)
}

type Bot struct {
	token    string
	store    *store.Store
	pipeline Pipeline
	logger   *slog.Logger
	client   *http.Client
	offset   int64
}

func NewBot(token string, s *store.Store, p Pipeline, logger *slog.Logger) *Bot {
	return &Bot{
		token:    token,
		store:    s,
		pipeline: p,
		logger:   logger,
		client:   &http.Client{Timeout: 90 * time.Second},
	}
}

// SendMessage sends a text message to a Telegram chat.
func (b *Bot) SendMessage(chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	body, _ := json.Marshal(payload)

	resp, err := b.client.Post(
		telegramAPI+b.token+"/sendMessage",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, errResp.Description)
	}
	return nil
}

func (b *Bot) send(chatID int64, kind, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		metrics.BotMessagesFailed.WithLabelValues(kind).Inc()
		b.logger.Error("send message failed", "chat_id", chatID, "kind", kind, "error", err)
		return
	}
	metrics.BotMessagesSent.WithLabelValues(kind).Inc()
}

// Run starts the long-polling loop for incoming Telegram messages and the
// daily digest scheduler. It blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("telegram bot started")

	go func() {
		timer := b.nextDigestTimer()
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.sendDigest(ctx)
				timer = b.nextDigestTimer()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			b.poll(ctx)
		}
	}
}

func (b *Bot) poll(ctx context.Context) {
	url := fmt.Sprintf("%s%s/getUpdates?offset=%d&timeout=30", telegramAPI, b.token, b.offset)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		b.logger.Error("create poll request", "error", err)
		return
	}

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("poll updates", "error", err)
		time.Sleep(5 * time.Second)
		return
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool `json:"ok"`
		Result []struct {
			UpdateID int64 `json:"update_id"`
			Message  *struct {
				Chat struct {
					ID int64 `json:"id"`
				} `json:"chat"`
				From struct {
					Username string `json:"username"`
				} `json:"from"`
				Text string `json:"text"`
			} `json:"message"`
		} `json:"result"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		b.logger.Error("decode updates", "error", err)
		return
	}

	for _, u := range result.Result {
		b.offset = u.UpdateID + 1
		if u.Message == nil {
			continue
		}
		b.handleCommand(ctx, u.Message.Chat.ID, u.Message.From.Username, strings.TrimSpace(u.Message.Text))
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, username, text string) {
	// Register everyone who talks to us so /subscribe has a row to attach to.
	if err := b.store.UpsertTelegramUser(ctx, chatID, username); err != nil {
		b.logger.Error("upsert telegram user", "error", err)
	}

	switch cmd, _, _ := strings.Cut(text, " "); cmd {
	case "/start":
		b.handleStart(chatID)
	case "/help":
		b.handleHelp(chatID)
	case "/yields":
		b.handleYields(ctx, chatID)
	case "/vaults":
		b.handleVaults(ctx, chatID)
	case "/subscribe":
		b.handleSubscribe(ctx, chatID)
	case "/unsubscribe":
		b.handleUnsubscribe(ctx, chatID)
	default:
		b.send(chatID, "reply", "Unknown command. Send /help for available commands.")
	}
}

func (b *Bot) handleStart(chatID int64) {
	msg := "👋 Welcome to Euler Yield Bot!\n\n" +
		"I track Euler vault yields and Merkl incentive campaigns across " +
		"Ethereum, Base and Swell.\n\n" +
		"Send /help to see what I can do."
	b.send(chatID, "reply", msg)
}

func (b *Bot) handleHelp(chatID int64) {
	msg := "🤖 Euler Yield Bot\n\n" +
		"Commands:\n" +
		"/yields — Top incentive opportunities by APR\n" +
		"/vaults — Top Euler vaults by combined APY\n" +
		"/subscribe — Get the vault digest every day at 08:00 UTC\n" +
		"/unsubscribe — Stop the daily digest\n" +
		"/help — Show this message"
	b.send(chatID, "reply", msg)
}

func (b *Bot) handleYields(ctx context.Context, chatID int64) {
	msg, err := b.pipeline.RenderTopIncentiveMessage(ctx, topN)
	if err != nil {
		b.logger.Error("render incentive message", "error", err)
		b.send(chatID, "yields", "😕 Couldn't fetch opportunities right now. Please try again in a few minutes.")
		return
	}
	b.send(chatID, "yields", msg)
}

func (b *Bot) handleVaults(ctx context.Context, chatID int64) {
	msg, err := b.pipeline.RenderTopVaultMessage(ctx, topN)
	if err != nil {
		b.logger.Error("render vault message", "error", err)
		b.send(chatID, "vaults", "😕 Couldn't fetch vault data right now. Please try again in a few minutes.")
		return
	}
	b.send(chatID, "vaults", msg)
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64) {
	if err := b.store.SubscribeDigest(ctx, chatID); err != nil {
		b.logger.Error("subscribe digest", "chat_id", chatID, "error", err)
		b.send(chatID, "reply", "❌ Couldn't save your subscription. Please try again.")
		return
	}
	b.send(chatID, "reply", "✅ Subscribed! You'll get the vault digest every day at 08:00 UTC.")
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64) {
	if err := b.store.UnsubscribeDigest(ctx, chatID); err != nil {
		b.logger.Error("unsubscribe digest", "chat_id", chatID, "error", err)
		b.send(chatID, "reply", "❌ Couldn't update your subscription. Please try again.")
		return
	}
	b.send(chatID, "reply", "👋 Unsubscribed. Send /subscribe any time to get the digest again.")
}

func (b *Bot) sendDigest(ctx context.Context) {
	chatIDs, err := b.store.DigestChatIDs(ctx)
	if err != nil {
		b.logger.Error("list digest subscribers", "error", err)
		return
	}
	if len(chatIDs) == 0 {
		return
	}

	msg, err := b.pipeline.RenderTopVaultMessage(ctx, topN)
	if err != nil {
		b.logger.Error("render daily digest", "error", err)
		return
	}

	b.logger.Info("sending daily digest", "subscribers", len(chatIDs))
	for _, chatID := range chatIDs {
		b.send(chatID, "digest", msg)
	}
}

func (b *Bot) nextDigestTimer() *time.Timer {
	now := time.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, time.UTC)
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	duration := time.Until(next)
	b.logger.Info("next daily digest", "at", next.Format(time.RFC3339), "in", duration.Round(time.Minute))
	return time.NewTimer(duration)
}
