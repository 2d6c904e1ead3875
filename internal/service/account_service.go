package service

import (
	"context"
	"fmt"

	"github.com/imagegenie/whatsapp-bot/internal/models"
	"github.com/imagegenie/whatsapp-bot/internal/repository"
)

type AccountService struct {
	accounts *repository.AccountRepository
}

func NewAccountService(accounts *repository.AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// Ensure provisions the account with the default free balance if it does not
// exist yet. Every read path calls this explicitly: a balance query for an
// unknown phone creates the account, which is a documented contract, not an
// accident.
func (s *AccountService) Ensure(ctx context.Context, phone string) (*models.Account, error) {
	account, err := s.accounts.Ensure(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	return account, nil
}

// Balance returns the token balance and generation counter, provisioning the
// account first when needed.
func (s *AccountService) Balance(ctx context.Context, phone string) (tokens, totalGenerated int, err error) {
	account, err := s.Ensure(ctx, phone)
	if err != nil {
		return 0, 0, err
	}
	return account.Tokens, account.TotalGenerated, nil
}

// Credit adds tokens to an account, provisioning it first so an operator can
// recharge a phone that has never messaged the bot.
func (s *AccountService) Credit(ctx context.Context, phone string, amount int) (*models.Account, error) {
	if _, err := s.Ensure(ctx, phone); err != nil {
		return nil, err
	}
	account, err := s.accounts.Credit(ctx, phone, amount)
	if err != nil {
		return nil, fmt.Errorf("credit account: %w", err)
	}
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, phone string) (*models.Account, error) {
	return s.accounts.Get(ctx, phone)
}

func (s *AccountService) ListPhones(ctx context.Context) ([]string, error) {
	phones, err := s.accounts.ListPhones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	return phones, nil
}
