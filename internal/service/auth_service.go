package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"student-records/internal/model"
	"student-records/pkg/apierror"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

type AuthService struct {
	users    UserStore
	tokens   *TokenService
	hashCost int
	now      func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenService) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest, userAgent string) (model.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return model.AuthResult{}, apierror.Validation("Email, password, and name are required", "")
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return model.AuthResult{}, apierror.Validation("Invalid role", req.Role)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.AuthResult{}, err
	}
	if exists {
		return model.AuthResult{}, model.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// A concurrent signup with the same email surfaces here as ErrUserAlreadyExists.
	if err := s.users.Create(ctx, user); err != nil {
		return model.AuthResult{}, err
	}

	return s.issue(ctx, user, userAgent)
}

func (s *AuthService) Signin(ctx context.Context, req model.SigninRequest, userAgent string) (model.AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return model.AuthResult{}, apierror.Validation("Email and password are required", "")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.AuthResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.AuthResult{}, model.ErrInvalidCredentials
	}

	return s.issue(ctx, user, userAgent)
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return model.TokenPair{}, apierror.Validation("Refresh token is required", "refreshToken")
	}
	return s.tokens.Refresh(ctx, refreshToken)
}

// Logout revokes the refresh tokens of the device the access token was issued to.
func (s *AuthService) Logout(ctx context.Context, claims model.AuthClaims) (int64, error) {
	return s.tokens.RevokeForDevice(ctx, claims.UserID, claims.DeviceID)
}

func (s *AuthService) LogoutAll(ctx context.Context, claims model.AuthClaims) (int64, error) {
	return s.tokens.RevokeAll(ctx, claims.UserID)
}

func (s *AuthService) Sessions(ctx context.Context, claims model.AuthClaims) ([]model.Session, error) {
	return s.tokens.ActiveSessions(ctx, claims.UserID, claims.DeviceID)
}

func (s *AuthService) Authenticate(accessToken string) (model.AuthClaims, error) {
	return s.tokens.Authenticate(accessToken)
}

func (s *AuthService) issue(ctx context.Context, user model.User, userAgent string) (model.AuthResult, error) {
	pair, err := s.tokens.IssueTokenPair(ctx, user, DescribeDevice(userAgent))
	if err != nil {
		return model.AuthResult{}, err
	}
	return model.AuthResult{User: user.Public(), TokenPair: pair}, nil
}
