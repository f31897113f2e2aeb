package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/pipecenter/pipecenter-api/internal/config"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/pipecenter/pipecenter-api/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and verifies bearer tokens for the single configured identity
type AuthService struct {
	username     string
	passwordHash []byte
	jwtManager   *utils.JWTManager
}

// NewAuthService creates a new auth service. The configured password may be
// given in plain text or as a bcrypt hash.
func NewAuthService(cfg *config.AuthConfig, jwtManager *utils.JWTManager) (*AuthService, error) {
	s := &AuthService{
		username:   cfg.Username,
		jwtManager: jwtManager,
	}
	if cfg.Username == "" || cfg.Password == "" {
		// No identity configured: every login fails.
		return s, nil
	}

	if _, err := bcrypt.Cost([]byte(cfg.Password)); err == nil {
		s.passwordHash = []byte(cfg.Password)
		return s, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	s.passwordHash = hash
	return s, nil
}

// LoginInput represents the login input
type LoginInput struct {
	Username string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
}

// Login checks the credentials against the configured identity and returns a signed token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	if strings.TrimSpace(input.Username) == "" || input.Password == "" {
		return nil, apperror.NewBadRequestError("Username and password required")
	}

	userOK := s.username != "" &&
		subtle.ConstantTimeCompare([]byte(input.Username), []byte(s.username)) == 1
	passOK := false
	if s.passwordHash != nil {
		passOK = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(input.Password)) == nil
	}
	if !userOK || !passOK {
		return nil, apperror.ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtManager.GenerateToken(s.username)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		Username:  s.username,
	}, nil
}

// Verify returns the username carried by a valid, unexpired token, but only
// when it is the configured identity.
func (s *AuthService) Verify(token string) (string, bool) {
	if token == "" || s.username == "" {
		return "", false
	}
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return "", false
	}
	if claims.Username != s.username {
		return "", false
	}
	return claims.Username, true
}
