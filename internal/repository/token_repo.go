package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"student-records/internal/model"
)

type TokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

const insertRefreshTokenSQL = `INSERT INTO refresh_tokens
	 (id, token, user_id, device_id, device_name, device_type, expires_at, revoked, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)`

func (r *TokenRepository) Create(ctx context.Context, t model.RefreshToken) error {
	if err := insertRefreshToken(ctx, r.db, t); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// FindByToken loads the token row together with its owner in one round trip.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (model.RefreshToken, model.User, error) {
	var (
		t          model.RefreshToken
		u          model.User
		deviceType string
		role       string
	)

	err := r.db.QueryRow(ctx,
		`SELECT rt.id, rt.token, rt.user_id, rt.device_id, rt.device_name, rt.device_type,
		        rt.expires_at, rt.revoked, rt.replaced_by_token, rt.created_at,
		        u.id, u.email, u.name, u.role, u.created_at, u.updated_at
		 FROM refresh_tokens rt
		 INNER JOIN users u ON u.id = rt.user_id
		 WHERE rt.token = $1`, token).
		Scan(&t.ID, &t.Token, &t.UserID, &t.Device.ID, &t.Device.Name, &deviceType,
			&t.ExpiresAt, &t.Revoked, &t.ReplacedByToken, &t.CreatedAt,
			&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, model.User{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, model.User{}, fmt.Errorf("find refresh token: %w", err)
	}

	t.Device.Type = model.DeviceType(deviceType)
	u.Role = model.Role(role)
	return t, u, nil
}

func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// Rotate revokes oldID, links it to next and inserts next as one unit.
// If oldID was already revoked nothing is written and ErrTokenRevoked is returned.
func (r *TokenRepository) Rotate(ctx context.Context, oldID string, next model.RefreshToken) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE refresh_tokens SET revoked = true, replaced_by_token = $2
			 WHERE id = $1 AND revoked = false`, oldID, next.Token)
		if err != nil {
			return fmt.Errorf("revoke spent token: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrTokenRevoked
		}

		if err := insertRefreshToken(ctx, tx, next); err != nil {
			return fmt.Errorf("insert replacement token: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrTokenRevoked) {
			return err
		}
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) RevokeForDevice(ctx context.Context, userID string, deviceID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true
		 WHERE user_id = $1 AND device_id = $2 AND revoked = false`, userID, deviceID)
	if err != nil {
		return 0, fmt.Errorf("revoke device refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) RevokeAll(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]model.RefreshToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, device_id, device_name, device_type, expires_at, created_at
		 FROM refresh_tokens
		 WHERE user_id = $1 AND revoked = false AND expires_at > $2
		 ORDER BY created_at DESC, id`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list active refresh tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]model.RefreshToken, 0)
	for rows.Next() {
		t := model.RefreshToken{UserID: userID}
		var deviceType string
		if err := rows.Scan(&t.ID, &t.Device.ID, &t.Device.Name, &deviceType, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		t.Device.Type = model.DeviceType(deviceType)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertRefreshToken(ctx context.Context, db execer, t model.RefreshToken) error {
	_, err := db.Exec(ctx, insertRefreshTokenSQL,
		t.ID, t.Token, t.UserID, t.Device.ID, t.Device.Name, string(t.Device.Type), t.ExpiresAt, t.CreatedAt)
	return err
}
