package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"student-records/internal/model"
)

// TokenStore persists refresh tokens. Rotate must apply the revoke of the
// spent token and the insert of its replacement atomically, returning
// model.ErrTokenRevoked when the spent token was already revoked.
type TokenStore interface {
	Create(ctx context.Context, t model.RefreshToken) error
	FindByToken(ctx context.Context, token string) (model.RefreshToken, model.User, error)
	Delete(ctx context.Context, id string) error
	Rotate(ctx context.Context, oldID string, next model.RefreshToken) error
	RevokeForDevice(ctx context.Context, userID string, deviceID string) (int64, error)
	RevokeAll(ctx context.Context, userID string) (int64, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]model.RefreshToken, error)
}

const refreshTokenBytes = 64

type TokenService struct {
	store      TokenStore
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(store TokenStore, secret string, accessTTL time.Duration, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		store:      store,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueTokenPair signs an access token and stores a new refresh token for
// the user on the given device.
func (s *TokenService) IssueTokenPair(ctx context.Context, user model.User, device model.DeviceInfo) (model.TokenPair, error) {
	now := s.now()
	access, err := s.signAccessToken(user, device.ID, now)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, err := s.newRefreshToken(user.ID, device, now)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := s.store.Create(ctx, refresh); err != nil {
		return model.TokenPair{}, err
	}

	return s.pair(access, refresh.Token), nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked and linked to its replacement; an expired token is deleted.
func (s *TokenService) Refresh(ctx context.Context, token string) (model.TokenPair, error) {
	stored, user, err := s.store.FindByToken(ctx, token)
	if err != nil {
		return model.TokenPair{}, err
	}
	now := s.now()
	if !stored.Usable(now) {
		if stored.Revoked {
			return model.TokenPair{}, model.ErrTokenRevoked
		}
		if err := s.store.Delete(ctx, stored.ID); err != nil {
			return model.TokenPair{}, err
		}
		return model.TokenPair{}, model.ErrTokenExpired
	}

	next, err := s.newRefreshToken(user.ID, stored.Device, now)
	if err != nil {
		return model.TokenPair{}, err
	}
	access, err := s.signAccessToken(user, stored.Device.ID, now)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.store.Rotate(ctx, stored.ID, next); err != nil {
		return model.TokenPair{}, err
	}

	return s.pair(access, next.Token), nil
}

func (s *TokenService) RevokeForDevice(ctx context.Context, userID string, deviceID string) (int64, error) {
	return s.store.RevokeForDevice(ctx, userID, deviceID)
}

func (s *TokenService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.store.RevokeAll(ctx, userID)
}

// ActiveSessions lists the user's usable refresh tokens, newest first.
// currentDeviceID marks the sessions opened from the caller's device.
func (s *TokenService) ActiveSessions(ctx context.Context, userID string, currentDeviceID string) ([]model.Session, error) {
	tokens, err := s.store.ListActive(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	sessions := make([]model.Session, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, model.Session{
			ID:        t.ID,
			DeviceID:  t.Device.ID,
			Name:      t.Device.Name,
			Type:      t.Device.Type,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
			Current:   currentDeviceID != "" && t.Device.ID == currentDeviceID,
		})
	}
	return sessions, nil
}

// Authenticate verifies an access token without touching the store.
func (s *TokenService) Authenticate(accessToken string) (model.AuthClaims, error) {
	parsed, err := jwt.Parse(accessToken, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.AuthClaims{}, model.ErrTokenExpired
		}
		return model.AuthClaims{}, model.ErrTokenInvalid
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return model.AuthClaims{}, model.ErrTokenInvalid
	}
	if typ, _ := claimsMap["typ"].(string); typ != "access" {
		return model.AuthClaims{}, model.ErrTokenInvalid
	}

	var claims model.AuthClaims
	claims.UserID, _ = claimsMap["userId"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.DeviceID, _ = claimsMap["deviceId"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	role, _ := claimsMap["role"].(string)
	claims.Role = model.Role(role)

	if claims.UserID == "" {
		return model.AuthClaims{}, model.ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) signAccessToken(user model.User, deviceID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"userId":   user.ID,
		"email":    user.Email,
		"role":     string(user.Role),
		"deviceId": deviceID,
		"typ":      "access",
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) newRefreshToken(userID string, device model.DeviceInfo, now time.Time) (model.RefreshToken, error) {
	value, err := randomToken()
	if err != nil {
		return model.RefreshToken{}, err
	}
	return model.RefreshToken{
		ID:        uuid.NewString(),
		Token:     value,
		UserID:    userID,
		Device:    device,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}, nil
}

func (s *TokenService) pair(access string, refresh string) model.TokenPair {
	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}
}

func randomToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DeriveDeviceFingerprint returns the first 32 hex characters of the
// SHA-256 digest of userAgent. It groups sessions; it is not a credential.
func DeriveDeviceFingerprint(userAgent string) string {
	sum := sha256.Sum256([]byte(userAgent))
	return hex.EncodeToString(sum[:])[:32]
}

// DescribeDevice classifies a user agent into a display name and type.
func DescribeDevice(userAgent string) model.DeviceInfo {
	info := model.DeviceInfo{
		ID:   DeriveDeviceFingerprint(userAgent),
		Name: "Unknown Device",
		Type: model.DeviceDesktop,
	}

	has := func(s string) bool { return strings.Contains(userAgent, s) }
	switch {
	case has("Mobile") || has("Android") || has("iPhone"):
		info.Type = model.DeviceMobile
		switch {
		case has("iPhone"):
			info.Name = "iPhone"
		case has("iPad"):
			info.Name = "iPad"
		case has("Android"):
			info.Name = "Android Device"
		default:
			info.Name = "Mobile Device"
		}
	case has("Mac"):
		info.Name = "Macintosh"
	case has("Windows"):
		info.Name = "Windows PC"
	case has("Linux"):
		info.Name = "Linux PC"
	case has("Tablet"):
		info.Type = model.DeviceTablet
		info.Name = "Tablet"
	}
	return info
}
