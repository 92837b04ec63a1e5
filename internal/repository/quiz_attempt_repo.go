package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnai-backend/internal/models"
)

// QuizAttemptRepo only inserts and reads; attempts are never updated.
type QuizAttemptRepo struct {
	pool *pgxpool.Pool
}

func NewQuizAttemptRepo(pool *pgxpool.Pool) *QuizAttemptRepo {
	return &QuizAttemptRepo{pool: pool}
}

func (r *QuizAttemptRepo) Create(ctx context.Context, a *models.QuizAttempt) error {
	a.ID = uuid.New()

	query := `INSERT INTO quiz_attempts (id, document_id, user_id, score, total_questions)
		VALUES ($1, $2, $3, $4, $5) RETURNING date`

	return r.pool.QueryRow(ctx, query,
		a.ID, a.DocumentID, a.UserID, a.Score, a.TotalQuestions,
	).Scan(&a.Date)
}

func (r *QuizAttemptRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, user_id, score, total_questions, date
		 FROM quiz_attempts WHERE document_id = $1 ORDER BY date DESC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []models.QuizAttempt{}
	for rows.Next() {
		var a models.QuizAttempt
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.UserID, &a.Score, &a.TotalQuestions, &a.Date); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
