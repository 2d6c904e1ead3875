package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagegenie/whatsapp-bot/internal/database"
	"github.com/imagegenie/whatsapp-bot/internal/imagegen"
	"github.com/imagegenie/whatsapp-bot/internal/repository"
	"github.com/imagegenie/whatsapp-bot/internal/service"
)

type stubEnhancer struct {
	result string
	err    error
	calls  int
}

func (s *stubEnhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

type stubMirror struct {
	result string
	err    error
}

func (s *stubMirror) Mirror(ctx context.Context, imageURL string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func newService(t *testing.T, db *sql.DB, enhancer service.Enhancer, mirror service.MediaMirror) *service.GenerationService {
	t.Helper()
	return service.NewGenerationService(
		discardLogger(),
		repository.NewAccountRepository(db),
		repository.NewGenerationRepository(db),
		enhancer,
		imagegen.NewSynthesizer("https://picsum.photos"),
		mirror,
		time.Second,
	)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path debits once and records once", func(t *testing.T) {
		db := newTestDB(t)
		enhancer := &stubEnhancer{result: "a majestic red bicycle, golden hour lighting"}
		svc := newService(t, db, enhancer, nil)

		result, err := svc.Generate(ctx, "22990000000", "a red bicycle")
		require.NoError(t, err)

		assert.Equal(t, "a red bicycle", result.Prompt)
		assert.Equal(t, "a majestic red bicycle, golden hour lighting", result.EnhancedPrompt)
		assert.Equal(t, 0, result.TokensLeft)
		assert.Contains(t, result.ImageURL, "https://picsum.photos/seed/")
		assert.Equal(t, 1, enhancer.calls)

		accounts := repository.NewAccountRepository(db)
		account, err := accounts.Get(ctx, "22990000000")
		require.NoError(t, err)
		assert.Equal(t, 0, account.Tokens)
		assert.Equal(t, 1, account.TotalGenerated)

		generations := repository.NewGenerationRepository(db)
		count, err := generations.CountForPhone(ctx, "22990000000")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("enhancement failure falls back to the raw prompt", func(t *testing.T) {
		db := newTestDB(t)
		enhancer := &stubEnhancer{err: errors.New("quota exceeded")}
		svc := newService(t, db, enhancer, nil)

		result, err := svc.Generate(ctx, "22990000001", "a cat on the moon")
		require.NoError(t, err)
		assert.Equal(t, "a cat on the moon", result.EnhancedPrompt)

		// Content addressing follows the prompt actually used.
		synth := imagegen.NewSynthesizer("https://picsum.photos")
		assert.Equal(t, synth.URL("a cat on the moon"), result.ImageURL)
	})

	t.Run("nil enhancer uses the raw prompt", func(t *testing.T) {
		db := newTestDB(t)
		svc := newService(t, db, nil, nil)

		result, err := svc.Generate(ctx, "22990000002", "a cat")
		require.NoError(t, err)
		assert.Equal(t, "a cat", result.EnhancedPrompt)
	})

	t.Run("empty balance rejects before the enhancement call", func(t *testing.T) {
		db := newTestDB(t)
		enhancer := &stubEnhancer{result: "unused"}
		svc := newService(t, db, enhancer, nil)

		// Spend the free token.
		_, err := svc.Generate(ctx, "22990000003", "first image")
		require.NoError(t, err)
		enhancer.calls = 0

		_, err = svc.Generate(ctx, "22990000003", "second image")
		require.ErrorIs(t, err, service.ErrInsufficientTokens)
		assert.Equal(t, 0, enhancer.calls)

		accounts := repository.NewAccountRepository(db)
		account, err := accounts.Get(ctx, "22990000003")
		require.NoError(t, err)
		assert.Equal(t, 0, account.Tokens)
		assert.Equal(t, 1, account.TotalGenerated)

		generations := repository.NewGenerationRepository(db)
		count, err := generations.CountForPhone(ctx, "22990000003")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("mirror replaces the placeholder url", func(t *testing.T) {
		db := newTestDB(t)
		mirror := &stubMirror{result: "https://cdn.example.com/generations/abc.jpg"}
		svc := newService(t, db, nil, mirror)

		result, err := svc.Generate(ctx, "22990000004", "a tree")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/generations/abc.jpg", result.ImageURL)

		records, err := repository.NewGenerationRepository(db).ListForPhone(ctx, "22990000004", 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "https://cdn.example.com/generations/abc.jpg", records[0].ImageURL)
	})

	t.Run("mirror failure keeps the placeholder url", func(t *testing.T) {
		db := newTestDB(t)
		mirror := &stubMirror{err: errors.New("bucket unavailable")}
		svc := newService(t, db, nil, mirror)

		result, err := svc.Generate(ctx, "22990000005", "a tree")
		require.NoError(t, err)
		assert.Contains(t, result.ImageURL, "https://picsum.photos/seed/")
	})

	t.Run("first contact is provisioned lazily", func(t *testing.T) {
		db := newTestDB(t)
		svc := newService(t, db, nil, nil)

		// No prior Ensure call: Generate itself creates the account with the
		// free token and spends it.
		result, err := svc.Generate(ctx, "22990000006", "a boat")
		require.NoError(t, err)
		assert.Equal(t, 0, result.TokensLeft)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := newService(t, db, nil, nil)

	accounts := repository.NewAccountRepository(db)
	_, err := accounts.Ensure(ctx, "22990000007")
	require.NoError(t, err)
	_, err = accounts.Credit(ctx, "22990000007", 2)
	require.NoError(t, err)

	for _, prompt := range []string{"one", "two", "three"} {
		_, err := svc.Generate(ctx, "22990000007", prompt)
		require.NoError(t, err)
	}

	records, err := svc.History(ctx, "22990000007", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "three", records[0].Prompt)
	assert.Equal(t, "two", records[1].Prompt)
}
