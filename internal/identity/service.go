package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/olympia-platform/internal/identity/tokens"
	"github.com/example/olympia-platform/internal/platform/events"
)

// Service implements the credential flows: register, login, refresh, logout.
type Service struct {
	Store  Store
	Tokens tokens.Service
	Hub    *Hub
	Events *events.Publisher
	Log    *zap.Logger
}

// Session is the result of any flow that authenticates the user.
type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (s *Service) Register(ctx context.Context, email, username, password, userAgent string) (Session, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if !isValidEmail(email) {
		return Session{}, &ValidationError{Field: "email", Reason: "invalid"}
	}
	if !isValidUsername(username) {
		return Session{}, &ValidationError{Field: "username", Reason: "3-32 letters, digits or underscore"}
	}
	if len(password) < 8 {
		return Session{}, &ValidationError{Field: "password", Reason: "min length 8"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}

	u, err := s.Store.CreateUser(ctx, CreateUserParams{Email: email, Username: username, PasswordHash: string(hash)})
	if err != nil {
		return Session{}, err
	}

	sess, err := s.issueSession(ctx, u, userAgent)
	if err != nil {
		return Session{}, err
	}
	s.Events.Publish(events.SubjectUserRegistered, "user_registered", u.ID, nil)
	s.announce(u)
	return sess, nil
}

func (s *Service) Login(ctx context.Context, login, password, userAgent string) (Session, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return Session{}, &ValidationError{Field: "login", Reason: "required"}
	}
	if password == "" {
		return Session{}, &ValidationError{Field: "password", Reason: "required"}
	}

	row, err := s.Store.FindUserByLogin(ctx, login)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	sess, err := s.issueSession(ctx, row.User, userAgent)
	if err != nil {
		return Session{}, err
	}
	s.Events.Publish(events.SubjectUserLoggedIn, "user_logged_in", row.User.ID, nil)
	s.announce(row.User)
	return sess, nil
}

// Refresh rotates the refresh token: the presented session is revoked and
// linked to its replacement, so a replayed token is rejected.
func (s *Service) Refresh(ctx context.Context, rawRefresh, userAgent string) (Session, error) {
	raw := strings.TrimSpace(rawRefresh)
	if raw == "" {
		return Session{}, &ValidationError{Field: "refresh_token", Reason: "required"}
	}

	sess, err := s.Store.GetRefreshSessionByHash(ctx, sha256Hex(raw))
	if err != nil {
		return Session{}, ErrInvalidRefresh
	}
	now := time.Now().UTC()
	if sess.RevokedAt != nil || now.After(sess.ExpiresAt) {
		return Session{}, ErrInvalidRefresh
	}

	u, err := s.Store.GetUserByID(ctx, sess.UserID.String())
	if err != nil {
		return Session{}, err
	}

	access, exp, err := s.Tokens.NewAccessToken(u.ID, u.Username, now)
	if err != nil {
		return Session{}, err
	}
	newRaw, newHash, err := tokens.NewRefreshToken()
	if err != nil {
		return Session{}, err
	}
	newID := uuid.New()
	if err := s.Store.ReplaceRefreshSession(ctx, sess.ID, newID, now); err != nil {
		return Session{}, err
	}
	if err := s.Store.CreateRefreshSession(ctx, CreateRefreshSessionParams{
		SessionID: newID,
		UserID:    sess.UserID,
		TokenHash: newHash,
		ExpiresAt: now.Add(s.Tokens.RefreshTokenTTL),
		UserAgent: userAgent,
		Now:       now,
	}); err != nil {
		return Session{}, err
	}

	s.announce(u)
	return Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: newRaw,
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}

// Logout revokes the presented refresh session. An unknown token is not an
// error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	raw := strings.TrimSpace(rawRefresh)
	if raw == "" {
		return &ValidationError{Field: "refresh_token", Reason: "required"}
	}
	sess, err := s.Store.GetRefreshSessionByHash(ctx, sha256Hex(raw))
	if err == nil {
		if err := s.Store.RevokeRefreshSession(ctx, sess.ID, time.Now().UTC()); err != nil {
			return err
		}
	}
	s.announce(User{})
	return nil
}

// Me returns the account for an already-authenticated user id.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	return s.Store.GetUserByID(ctx, userID)
}

func (s *Service) issueSession(ctx context.Context, u User, userAgent string) (Session, error) {
	now := time.Now().UTC()
	access, exp, err := s.Tokens.NewAccessToken(u.ID, u.Username, now)
	if err != nil {
		return Session{}, err
	}
	refreshRaw, refreshHash, err := tokens.NewRefreshToken()
	if err != nil {
		return Session{}, err
	}
	userID, err := uuid.Parse(u.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.Store.CreateRefreshSession(ctx, CreateRefreshSessionParams{
		SessionID: uuid.New(),
		UserID:    userID,
		TokenHash: refreshHash,
		ExpiresAt: now.Add(s.Tokens.RefreshTokenTTL),
		UserAgent: userAgent,
		Now:       now,
	}); err != nil {
		return Session{}, err
	}

	return Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: refreshRaw,
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}

// announce publishes the auth-state change; a zero user means signed out.
func (s *Service) announce(u User) {
	if s.Hub == nil {
		return
	}
	if u.ID == "" {
		s.Hub.Announce(nil)
		return
	}
	s.Hub.Announce(&Principal{UserID: u.ID, DisplayName: u.Username})
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

func isValidUsername(s string) bool {
	return usernameRe.MatchString(strings.TrimSpace(s))
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) > 254 {
		return false
	}
	return emailRe.MatchString(s)
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
