package bot

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/imagegenie/whatsapp-bot/internal/metrics"
	"github.com/imagegenie/whatsapp-bot/internal/service"
)

const minPromptLength = 3

// Sender delivers outbound messages. Implementations report delivery as a
// boolean and never raise: a lost reply must not fail the command that
// produced it, and a committed debit is kept even when the reply is lost.
type Sender interface {
	SendText(ctx context.Context, to, body string) bool
	SendImage(ctx context.Context, to, imageURL, caption string) bool
}

// Bot dispatches inbound text to the intent handlers. It is stateless between
// messages; every (phone, text) pair is handled on its own.
type Bot struct {
	log        *slog.Logger
	accounts   *service.AccountService
	generation *service.GenerationService
	sender     Sender
}

func New(log *slog.Logger, accounts *service.AccountService, generation *service.GenerationService, sender Sender) *Bot {
	return &Bot{
		log:        log,
		accounts:   accounts,
		generation: generation,
		sender:     sender,
	}
}

// HandleMessage classifies one inbound message and runs the matching handler.
// Nothing propagates to the caller: every failure ends as a logged reply (or
// a lost one), so the webhook can always acknowledge the event.
func (b *Bot) HandleMessage(ctx context.Context, from, text string) {
	intent, prompt := Classify(text)
	metrics.MessagesTotal.WithLabelValues(string(intent)).Inc()
	b.log.Info("inbound message", "from", from, "intent", intent)

	switch intent {
	case IntentStart:
		b.handleStart(ctx, from)
	case IntentGenerate:
		b.handleGenerate(ctx, from, prompt)
	case IntentBalance:
		b.handleBalance(ctx, from)
	case IntentHelp:
		b.send(ctx, from, msgHelp)
	case IntentPricing:
		b.send(ctx, from, msgPricing)
	case IntentRecharge:
		b.send(ctx, from, msgRecharge)
	default:
		b.send(ctx, from, msgUnknown)
	}
}

func (b *Bot) handleStart(ctx context.Context, from string) {
	// First contact provisions the free token the welcome text promises.
	if _, err := b.accounts.Ensure(ctx, from); err != nil {
		b.log.Error("ensure account", "from", from, "err", err)
	}
	b.send(ctx, from, msgWelcome)
}

func (b *Bot) handleGenerate(ctx context.Context, from, prompt string) {
	// Rejected before any account access: a too-short prompt must leave no
	// trace, not even a lazily created account.
	if utf8.RuneCountInString(prompt) < minPromptLength {
		b.send(ctx, from, msgPromptTooShort)
		return
	}

	b.send(ctx, from, msgGenerating)

	result, err := b.generation.Generate(ctx, from, prompt)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientTokens) {
			metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeInsufficient).Inc()
			b.send(ctx, from, msgInsufficientTokens)
			return
		}
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		b.log.Error("generate", "from", from, "err", err)
		b.send(ctx, from, msgGenerationFailed)
		return
	}

	metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()

	// The debit is already committed; a failed delivery below keeps the
	// charge (commit-then-notify).
	if !b.sender.SendImage(ctx, from, result.ImageURL, imageCaption(result.Prompt, result.TokensLeft)) {
		metrics.SendFailuresTotal.Inc()
		b.log.Error("deliver image", "from", from, "url", result.ImageURL)
	}
	if result.TokensLeft == 0 {
		b.send(ctx, from, msgTokensExhausted)
	}
}

func (b *Bot) handleBalance(ctx context.Context, from string) {
	tokens, total, err := b.accounts.Balance(ctx, from)
	if err != nil {
		b.log.Error("read balance", "from", from, "err", err)
		b.send(ctx, from, msgGenerationFailed)
		return
	}
	b.send(ctx, from, balanceMessage(tokens, total))
}

func (b *Bot) send(ctx context.Context, to, body string) {
	if !b.sender.SendText(ctx, to, body) {
		metrics.SendFailuresTotal.Inc()
	}
}
