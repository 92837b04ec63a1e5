package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnai-backend/internal/models"
)

type FlashcardRepo struct {
	pool *pgxpool.Pool
}

func NewFlashcardRepo(pool *pgxpool.Pool) *FlashcardRepo {
	return &FlashcardRepo{pool: pool}
}

// SaveBatch commits generated cards to a document. Cards already saved under
// the same id are left as they are.
func (r *FlashcardRepo) SaveBatch(ctx context.Context, documentID uuid.UUID, cards []models.Flashcard) (int, error) {
	batch := &pgx.Batch{}
	for _, c := range cards {
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(
			`INSERT INTO flashcards (id, document_id, front, back, is_favorite)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			id, documentID, c.Front, c.Back, c.IsFavorite,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	saved := 0
	for range cards {
		tag, err := results.Exec()
		if err != nil {
			return saved, err
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

func (r *FlashcardRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.SavedFlashcard, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, front, back, is_favorite, created_at
		 FROM flashcards WHERE document_id = $1 ORDER BY created_at ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.SavedFlashcard{}
	for rows.Next() {
		var c models.SavedFlashcard
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Front, &c.Back, &c.IsFavorite, &c.CreatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ToggleFavorite flips the favorite flag of a card whose document belongs to
// userID and returns the new value.
func (r *FlashcardRepo) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	var favorite bool
	err := r.pool.QueryRow(ctx,
		`UPDATE flashcards f SET is_favorite = NOT f.is_favorite
		 FROM documents d
		 WHERE f.id = $1 AND f.document_id = d.id AND d.user_id = $2
		 RETURNING f.is_favorite`, id, userID).Scan(&favorite)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	return favorite, err
}
