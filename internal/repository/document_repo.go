package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnai-backend/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidField = errors.New("field cannot be saved")
)

// Document fields that generated artifacts may be written to.
const (
	FieldSummary = "summary"
	FieldNotes   = "notes"
)

var savableFields = map[string]string{
	FieldSummary: "UPDATE documents SET summary = $1 WHERE id = $2",
	FieldNotes:   "UPDATE documents SET notes = $1 WHERE id = $2",
}

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	d.ID = uuid.New()
	if d.PageCount <= 0 {
		d.PageCount = 1
	}

	query := `INSERT INTO documents (id, user_id, filename, file_size, page_count, text)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING upload_date`

	return r.pool.QueryRow(ctx, query,
		d.ID, d.UserID, d.Filename, d.FileSize, d.PageCount, d.Text,
	).Scan(&d.UploadDate)
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d := &models.Document{}
	query := `SELECT id, user_id, filename, file_size, page_count, text, summary, notes, upload_date
		FROM documents WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.Filename, &d.FileSize, &d.PageCount, &d.Text,
		&d.Summary, &d.Notes, &d.UploadDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListByUser returns document metadata without the text body, newest first.
func (r *DocumentRepo) ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]*models.Document, int, error) {
	args := []interface{}{userID}
	where := "WHERE user_id = $1"
	if search != "" {
		args = append(args, "%"+search+"%")
		where += " AND filename ILIKE $2"
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, user_id, filename, file_size, page_count, summary, notes, upload_date
		FROM documents %s ORDER BY upload_date DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := []*models.Document{}
	for rows.Next() {
		d := &models.Document{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.Filename, &d.FileSize, &d.PageCount,
			&d.Summary, &d.Notes, &d.UploadDate); err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	return docs, total, rows.Err()
}

// Delete removes a document owned by userID together with its flashcards
// and quiz attempts.
func (r *DocumentRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Save writes a generated artifact into one of the document's savable fields.
func (r *DocumentRepo) Save(ctx context.Context, documentID uuid.UUID, field, value string) error {
	query, ok := savableFields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	tag, err := r.pool.Exec(ctx, query, value, documentID)
	if err != nil {
		return fmt.Errorf("save %s: %w", field, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
