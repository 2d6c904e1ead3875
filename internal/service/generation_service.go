package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imagegenie/whatsapp-bot/internal/imagegen"
	"github.com/imagegenie/whatsapp-bot/internal/models"
	"github.com/imagegenie/whatsapp-bot/internal/repository"
)

var ErrInsufficientTokens = errors.New("insufficient tokens, recharge required")

// Enhancer turns a raw prompt into a more detailed one. Enhancement is best
// effort: any error means the raw prompt is used unmodified.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string) (string, error)
}

// MediaMirror re-hosts a generated image and returns its public URL.
type MediaMirror interface {
	Mirror(ctx context.Context, imageURL string) (string, error)
}

type GenerationService struct {
	log            *slog.Logger
	accounts       *repository.AccountRepository
	generations    *repository.GenerationRepository
	enhancer       Enhancer
	synth          *imagegen.Synthesizer
	mirror         MediaMirror
	enhanceTimeout time.Duration
}

type GenerationResult struct {
	ImageURL       string
	Prompt         string
	EnhancedPrompt string
	TokensLeft     int
}

// NewGenerationService wires the generation flow. enhancer and mirror may be
// nil, disabling the corresponding step.
func NewGenerationService(log *slog.Logger, accounts *repository.AccountRepository, generations *repository.GenerationRepository, enhancer Enhancer, synth *imagegen.Synthesizer, mirror MediaMirror, enhanceTimeout time.Duration) *GenerationService {
	if enhanceTimeout <= 0 {
		enhanceTimeout = 15 * time.Second
	}
	return &GenerationService{
		log:            log,
		accounts:       accounts,
		generations:    generations,
		enhancer:       enhancer,
		synth:          synth,
		mirror:         mirror,
		enhanceTimeout: enhanceTimeout,
	}
}

// Generate runs one paid generation for the given phone: ensure the account,
// reject on an empty balance before any external call, enhance the prompt,
// synthesize the image URL and commit the debit together with the generation
// record. The debit commits before any reply is sent; a lost reply does not
// refund the charge.
func (s *GenerationService) Generate(ctx context.Context, phone, prompt string) (*GenerationResult, error) {
	account, err := s.accounts.Ensure(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	// Cheap rejection before the enhancement call. The authoritative check is
	// the guard inside DebitAndRecord.
	if account.Tokens < 1 {
		return nil, ErrInsufficientTokens
	}

	enhanced := s.enhance(ctx, prompt)
	imageURL := s.synth.URL(enhanced)

	if s.mirror != nil {
		if mirrored, err := s.mirror.Mirror(ctx, imageURL); err != nil {
			s.log.Error("mirror image", "phone", phone, "err", err)
		} else {
			imageURL = mirrored
		}
	}

	balance, err := s.accounts.DebitAndRecord(ctx, phone, prompt, enhanced, imageURL)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientTokens) {
			return nil, ErrInsufficientTokens
		}
		return nil, fmt.Errorf("debit and record: %w", err)
	}

	return &GenerationResult{
		ImageURL:       imageURL,
		Prompt:         prompt,
		EnhancedPrompt: enhanced,
		TokensLeft:     balance,
	}, nil
}

// History returns the most recent generation records for one account.
func (s *GenerationService) History(ctx context.Context, phone string, limit int) ([]models.Generation, error) {
	records, err := s.generations.ListForPhone(ctx, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("generation history: %w", err)
	}
	return records, nil
}

func (s *GenerationService) enhance(ctx context.Context, prompt string) string {
	if s.enhancer == nil {
		return prompt
	}
	ctx, cancel := context.WithTimeout(ctx, s.enhanceTimeout)
	defer cancel()

	enhanced, err := s.enhancer.Enhance(ctx, prompt)
	if err != nil || enhanced == "" {
		s.log.Warn("prompt enhancement failed, using raw prompt", "err", err)
		return prompt
	}
	return enhanced
}
