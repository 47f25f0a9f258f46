package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DesignRecord is a saved design. Payload holds the full design document;
// the other columns exist for listing without decoding it.
type DesignRecord struct {
	ID           string          `json:"design_id"`
	UserID       int             `json:"user_id"`
	CreatedAt    time.Time       `json:"created_at"`
	Requirements string          `json:"user_requirements"`
	Provider     string          `json:"provider"`
	BridgeType   string          `json:"bridge_type"`
	SpanM        float64         `json:"span_m"`
	Valid        bool            `json:"valid"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

type DesignRepository interface {
	SaveDesign(ctx context.Context, rec DesignRecord) error
	GetDesign(ctx context.Context, userID int, id string) (DesignRecord, error)
	// ListDesigns returns the newest designs first, without payloads.
	ListDesigns(ctx context.Context, userID, limit int) ([]DesignRecord, error)
	DeleteDesign(ctx context.Context, userID int, id string) error
}

type PostgresDesignRepository struct {
	db *sql.DB
}

func NewPostgresDesignDB(db *sql.DB) *PostgresDesignRepository {
	return &PostgresDesignRepository{db: db}
}

func (r *PostgresDesignRepository) SaveDesign(ctx context.Context, rec DesignRecord) error {
	query := `INSERT INTO designs (id, user_id, created_at, requirements, provider, bridge_type, span_m, valid, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.CreatedAt, rec.Requirements, rec.Provider,
		rec.BridgeType, rec.SpanM, rec.Valid, []byte(rec.Payload),
	)
	if err != nil {
		return fmt.Errorf("save design %s: %w", rec.ID, err)
	}
	return nil
}

func (r *PostgresDesignRepository) GetDesign(ctx context.Context, userID int, id string) (DesignRecord, error) {
	query := `SELECT id, user_id, created_at, requirements, provider, bridge_type, span_m, valid, payload
		FROM designs WHERE id=$1 AND user_id=$2`
	var rec DesignRecord
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&rec.ID, &rec.UserID, &rec.CreatedAt, &rec.Requirements, &rec.Provider,
		&rec.BridgeType, &rec.SpanM, &rec.Valid, &payload,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DesignRecord{}, fmt.Errorf("design %s: %w", id, ErrNotFound)
		}
		return DesignRecord{}, fmt.Errorf("get design %s: %w", id, err)
	}
	rec.Payload = payload
	return rec, nil
}

func (r *PostgresDesignRepository) ListDesigns(ctx context.Context, userID, limit int) ([]DesignRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, user_id, created_at, requirements, provider, bridge_type, span_m, valid
		FROM designs WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	out := []DesignRecord{}
	for rows.Next() {
		var rec DesignRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.CreatedAt, &rec.Requirements, &rec.Provider,
			&rec.BridgeType, &rec.SpanM, &rec.Valid); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresDesignRepository) DeleteDesign(ctx context.Context, userID int, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM designs WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		return fmt.Errorf("delete design %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("design %s: %w", id, ErrNotFound)
	}
	return nil
}
