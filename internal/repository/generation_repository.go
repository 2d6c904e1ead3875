package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/imagegenie/whatsapp-bot/internal/models"
)

type GenerationRepository struct {
	db *sql.DB
}

func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// ListForPhone returns the most recent generation records for one account,
// newest first.
func (r *GenerationRepository) ListForPhone(ctx context.Context, phone string, limit int) ([]models.Generation, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT id, phone, prompt, enhanced_prompt, image_url, created_at
FROM generations WHERE phone = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var generations []models.Generation
	for rows.Next() {
		var g models.Generation
		if err := rows.Scan(&g.ID, &g.Phone, &g.Prompt, &g.EnhancedPrompt, &g.ImageURL, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		generations = append(generations, g)
	}
	return generations, rows.Err()
}

// CountForPhone returns how many generation records exist for one account.
func (r *GenerationRepository) CountForPhone(ctx context.Context, phone string) (int, error) {
	const query = `SELECT COUNT(*) FROM generations WHERE phone = ?`
	row := r.db.QueryRowContext(ctx, query, phone)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return count, nil
}
