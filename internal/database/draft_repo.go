package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinlabel/labelstation/internal/detection"
)

// Draft is an unsaved edit buffer for one image, kept so a crash or
// accidental navigation does not lose in-progress work. Drafts are
// deleted on successful submit.
type Draft struct {
	ImageID   string
	LabeledBy string
	Boxes     []detection.Box
	UpdatedAt time.Time
}

type DraftRepository struct {
	db *DB
}

func NewDraftRepository(db *DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Save(ctx context.Context, imageID, labeledBy string, boxes []detection.Box) error {
	data, err := json.Marshal(boxes)
	if err != nil {
		return fmt.Errorf("failed to marshal draft boxes: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO drafts (image_id, labeled_by, boxes, updated_at)
		VALUES (?, ?, ?, ?)`

	_, err = r.db.conn.ExecContext(ctx, query, imageID, labeledBy, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get returns the draft for an image, or nil when none exists.
func (r *DraftRepository) Get(ctx context.Context, imageID string) (*Draft, error) {
	query := `SELECT image_id, labeled_by, boxes, updated_at FROM drafts WHERE image_id = ?`

	draft := &Draft{}
	var boxesJSON string
	err := r.db.conn.QueryRowContext(ctx, query, imageID).Scan(
		&draft.ImageID,
		&draft.LabeledBy,
		&boxesJSON,
		&draft.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	if err := json.Unmarshal([]byte(boxesJSON), &draft.Boxes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft boxes: %w", err)
	}
	return draft, nil
}

func (r *DraftRepository) Delete(ctx context.Context, imageID string) error {
	_, err := r.db.conn.ExecContext(ctx, `DELETE FROM drafts WHERE image_id = ?`, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
