package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/imagegenie/whatsapp-bot/internal/models"
)

// ErrInsufficientTokens is returned by DebitAndRecord when the account cannot
// cover the cost of one generation. The check and the debit run in the same
// guarded statement, so concurrent requests can never drive a balance negative.
var ErrInsufficientTokens = errors.New("insufficient tokens")

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Ensure creates the account with the default balance if it does not exist,
// then returns it. Idempotent: an existing balance is never overwritten.
func (r *AccountRepository) Ensure(ctx context.Context, phone string) (*models.Account, error) {
	const insert = `INSERT OR IGNORE INTO accounts (phone, tokens) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, insert, phone, models.DefaultTokens); err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	account, err := r.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s missing after ensure", phone)
	}
	return account, nil
}

func (r *AccountRepository) Get(ctx context.Context, phone string) (*models.Account, error) {
	const query = `SELECT phone, tokens, total_generated, created_at FROM accounts WHERE phone = ?`
	row := r.db.QueryRowContext(ctx, query, phone)
	var a models.Account
	if err := row.Scan(&a.Phone, &a.Tokens, &a.TotalGenerated, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

// Credit adds tokens to an existing account. Used by the manual recharge path.
func (r *AccountRepository) Credit(ctx context.Context, phone string, amount int) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	const query = `UPDATE accounts SET tokens = tokens + ? WHERE phone = ?`
	res, err := r.db.ExecContext(ctx, query, amount, phone)
	if err != nil {
		return nil, fmt.Errorf("credit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("credit rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("account %s not found", phone)
	}
	return r.Get(ctx, phone)
}

// DebitAndRecord atomically charges one token, bumps the generation counter
// and appends the generation record. Either all three effects commit or none
// do. Returns the balance after the debit.
func (r *AccountRepository) DebitAndRecord(ctx context.Context, phone, prompt, enhanced, imageURL string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin debit tx: %w", err)
	}
	defer tx.Rollback()

	// Balance check and debit in one guarded statement: a concurrent request
	// that already spent the last token leaves zero rows affected here.
	const debit = `
UPDATE accounts SET tokens = tokens - 1, total_generated = total_generated + 1
WHERE phone = ? AND tokens >= 1`
	res, err := tx.ExecContext(ctx, debit, phone)
	if err != nil {
		return 0, fmt.Errorf("debit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("debit rows affected: %w", err)
	}
	if affected == 0 {
		return 0, ErrInsufficientTokens
	}

	const insert = `
INSERT INTO generations (phone, prompt, enhanced_prompt, image_url)
VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, phone, prompt, enhanced, imageURL); err != nil {
		return 0, fmt.Errorf("insert generation: %w", err)
	}

	var balance int
	const remaining = `SELECT tokens FROM accounts WHERE phone = ?`
	if err := tx.QueryRowContext(ctx, remaining, phone).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read new balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit debit tx: %w", err)
	}
	return balance, nil
}

// ListPhones returns every known account phone, for admin broadcasts.
func (r *AccountRepository) ListPhones(ctx context.Context) ([]string, error) {
	const query = `SELECT phone FROM accounts`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		phones = append(phones, phone)
	}
	return phones, rows.Err()
}
