package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mirage-sudo183/shark-tank-simulator/internal/model"
	"github.com/mirage-sudo183/shark-tank-simulator/internal/store"
)

// pitchColumns is the column list used for SELECT statements on the pitches
// table.
const pitchColumns = `id, user_id, twitter_handle, company_name, pitch_data,
	result, deal_amount, deal_equity, deal_shark, verified, verification, created_at`

// SavePitch records a finished pitch run.
func (s *PostgresStore) SavePitch(ctx context.Context, rec *model.PitchRecord) error {
	pitchJSON, err := json.Marshal(rec.PitchData)
	if err != nil {
		return fmt.Errorf("marshal pitch data: %w", err)
	}
	var verificationJSON []byte
	verified := false
	if rec.Verification != nil {
		verificationJSON, err = json.Marshal(rec.Verification)
		if err != nil {
			return fmt.Errorf("marshal verification: %w", err)
		}
		verified = rec.Verification.Verified
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pitches (
			id, user_id, twitter_handle, company_name, pitch_data,
			result, deal_amount, deal_equity, deal_shark, verified, verification, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12
		)`,
		rec.ID,
		rec.UserID,
		rec.TwitterHandle,
		rec.PitchData.CompanyName,
		pitchJSON,
		string(rec.Outcome.Result),
		rec.Outcome.DealAmount,
		rec.Outcome.DealEquity,
		rec.Outcome.Shark,
		verified,
		nullBytes(verificationJSON),
		rec.CreatedAt,
	)
	return err
}

// Leaderboard returns deal outcomes ranked by deal amount descending, ties
// broken by save time ascending.
func (s *PostgresStore) Leaderboard(ctx context.Context, q store.LeaderboardQuery) ([]*model.LeaderboardEntry, error) {
	query := `SELECT ` + pitchColumns + ` FROM pitches WHERE result = 'deal'`
	args := []any{}
	if q.VerifiedOnly {
		query += ` AND verified = TRUE`
	}
	query += ` ORDER BY deal_amount DESC, created_at ASC LIMIT $1`
	args = append(args, q.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		rec, err := scanPitch(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &model.LeaderboardEntry{
			Rank:        len(entries) + 1,
			PitchRecord: *rec,
		})
	}
	return entries, rows.Err()
}

// UserBestPitch returns the user's highest deal.
func (s *PostgresStore) UserBestPitch(ctx context.Context, userID string) (*model.PitchRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+pitchColumns+` FROM pitches
		WHERE user_id = $1 AND result = 'deal'
		ORDER BY deal_amount DESC, created_at ASC
		LIMIT 1`, userID)

	rec, err := scanPitch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPitch(row scanner) (*model.PitchRecord, error) {
	var (
		rec              model.PitchRecord
		pitchJSON        []byte
		result           string
		verified         bool
		verificationJSON []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TwitterHandle,
		&rec.PitchData.CompanyName,
		&pitchJSON,
		&result,
		&rec.Outcome.DealAmount,
		&rec.Outcome.DealEquity,
		&rec.Outcome.Shark,
		&verified,
		&verificationJSON,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pitch: %w", err)
	}

	rec.Outcome.Result = model.OutcomeResult(result)
	if len(pitchJSON) > 0 {
		if err := json.Unmarshal(pitchJSON, &rec.PitchData); err != nil {
			return nil, fmt.Errorf("unmarshal pitch data: %w", err)
		}
	}
	if len(verificationJSON) > 0 {
		rec.Verification = &model.Verification{}
		if err := json.Unmarshal(verificationJSON, rec.Verification); err != nil {
			return nil, fmt.Errorf("unmarshal verification: %w", err)
		}
	}
	return &rec, nil
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
