package auth

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"pulse/config"
	"pulse/infrastructure"
	"pulse/internal/sessions"
	"pulse/internal/user"
	"pulse/pkg/jwt"
)

const PasswordMinEntropyBits = 30

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type Service struct {
	users      user.Repository
	sessions   sessions.Store
	accessJWT  *jwt.JWT
	refreshJWT *jwt.JWT
	refreshTTL time.Duration
}

func NewService(users user.Repository, store sessions.Store, cfg *config.Config) *Service {
	return &Service{
		users:      users,
		sessions:   store,
		accessJWT:  jwt.NewJWT(cfg.AccessTokenSecret, cfg.AccessTokenTTL),
		refreshJWT: jwt.NewJWT(cfg.RefreshTokenSecret, cfg.RefreshTokenTTL),
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

func checkCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return infrastructure.ErrInvalidInput
	}
	if err := passwordvalidator.Validate(password, PasswordMinEntropyBits); err != nil {
		return infrastructure.ErrInvalidInput
	}
	return nil
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*user.User, *TokenPair, error) {
	if username == "" {
		return nil, nil, infrastructure.ErrInvalidInput
	}
	if err := checkCredentials(email, password); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, infrastructure.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	created, err := s.users.Create(ctx, &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, created.ID)
	if err != nil {
		return nil, nil, err
	}
	return created, tokens, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*user.User, *TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, infrastructure.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, infrastructure.ErrUnauthorized
	}

	tokens, err := s.issueTokens(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	session := &sessions.Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Save(ctx, session, s.refreshTTL); err != nil {
		return nil, err
	}

	accessToken, err := s.accessJWT.GenerateToken(userID, session.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.refreshJWT.GenerateToken(userID, session.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.refreshTTL),
	}, nil
}

// Refresh rotates the token pair; the old session is replaced so a leaked
// refresh token cannot be replayed after use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.refreshJWT.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, infrastructure.ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, infrastructure.ErrInvalidToken
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, infrastructure.ErrUnauthorized
	}
	if session.UserID != userID {
		return nil, infrastructure.ErrUnauthorized
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, userID)
}

func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.accessJWT.ValidateToken(accessToken)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return infrastructure.ErrInvalidToken
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Verify resolves a bearer token to the user it was issued to. Both the REST
// middleware and the realtime channel handshake go through here, so a revoked
// session is rejected on either surface.
func (s *Service) Verify(ctx context.Context, accessToken string) (uuid.UUID, error) {
	if accessToken == "" {
		return uuid.Nil, infrastructure.ErrMissingToken
	}

	claims, err := s.accessJWT.ValidateToken(accessToken)
	if err != nil {
		return uuid.Nil, err
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return uuid.Nil, infrastructure.ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, infrastructure.ErrInvalidToken
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return uuid.Nil, infrastructure.ErrUnauthorized
	}
	if session.UserID != userID {
		return uuid.Nil, infrastructure.ErrUnauthorized
	}
	return userID, nil
}
