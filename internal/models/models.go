package models

import "time"

// DefaultTokens is the free balance granted when an account is first seen.
const DefaultTokens = 1

// Account is the per-phone-number balance and usage record. Accounts are
// created lazily on first contact and never deleted.
type Account struct {
	Phone          string
	Tokens         int
	TotalGenerated int
	CreatedAt      time.Time
}

// Generation is the durable log entry for one completed image request.
// Rows are insert-only.
type Generation struct {
	ID             int64
	Phone          string
	Prompt         string
	EnhancedPrompt string
	ImageURL       string
	CreatedAt      time.Time
}
