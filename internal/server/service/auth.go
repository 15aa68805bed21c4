package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"healthvault/internal/shared/models"
	"healthvault/internal/shared/passhash"
)

// AuthService implements user registration, password verification, JWT
// access token issuance with a role claim, and refresh token rotation.
type AuthService struct {
	repo      Repository
	jwtSecret []byte
}

func (a *AuthService) Register(ctx context.Context, email, password string, role models.Role) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, errors.New("email and password required")
	}
	if role != models.RolePatient && role != models.RoleProvider {
		return models.User{}, errors.New("role must be patient or provider")
	}
	phc, err := passhash.Hash(password)
	if err != nil {
		return models.User{}, err
	}
	return a.repo.CreateUser(ctx, email, []byte(phc), role)
}

func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	id, role, hash, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", errors.New("invalid credentials")
	}
	ok, err := passhash.Verify(string(hash), password)
	if err != nil || !ok {
		return "", errors.New("invalid credentials")
	}
	return a.IssueAccessToken(id, role, 24*time.Hour)
}

// Session is the authenticated identity carried through every request.
// Handlers pass it explicitly; nothing reads it from ambient state.
type Session struct {
	UserID string
	Role   models.Role
}

func (a *AuthService) ParseToken(_ context.Context, token string) (Session, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return Session{}, errors.New("invalid token subject")
	}
	return Session{UserID: sub, Role: models.Role(role)}, nil
}

func (a *AuthService) IssueAccessToken(userID string, role models.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.jwtSecret)
}

func (a *AuthService) IssueRefreshToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := a.repo.CreateRefreshToken(ctx, userID, token, time.Now().Add(ttl)); err != nil {
		return "", err
	}
	return token, nil
}

// Refresh rotates the refresh token: the presented token is consumed and a
// replacement is returned alongside the new access token. The caller must
// store the replacement; the old token is gone.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	userID, exp, err := a.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}
	if time.Now().After(exp) {
		_ = a.repo.DeleteRefreshToken(ctx, refreshToken)
		return "", "", errors.New("refresh token expired")
	}
	user, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}
	if err := a.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return "", "", err
	}
	refresh, err = a.IssueRefreshToken(ctx, userID, 30*24*time.Hour)
	if err != nil {
		return "", "", err
	}
	access, err = a.IssueAccessToken(user.ID, user.Role, 24*time.Hour)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
