package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cryptofolio/trading-service/internal/config"
	"github.com/cryptofolio/trading-service/internal/ledger"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// UserStore keeps registered users. The password is stored as a bcrypt
// hash, never in the clear.
type UserStore interface {
	Create(username string, passwordHash []byte) error
	PasswordHash(username string) ([]byte, bool)
}

type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string][]byte
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string][]byte),
	}
}

func (s *MemoryUserStore) Create(username string, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = passwordHash
	return nil
}

func (s *MemoryUserStore) PasswordHash(username string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.users[username]
	return hash, ok
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service registers users and issues/verifies HS256 bearer tokens
// carrying the username claim.
type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
}

func NewService(store UserStore, cfg config.AuthConfig) *Service {
	return &Service{
		store:  store,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
	}
}

func (s *Service) Register(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: can't hash password", err)
	}

	return s.store.Create(username, hash)
}

// Token verifies the credentials and returns a signed access token.
func (s *Service) Token(username, password string) (string, error) {
	hash, ok := s.store.PasswordHash(strings.TrimSpace(username))
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: strings.TrimSpace(username),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: can't sign token", err)
	}
	return signed, nil
}

// Verify returns the identity a token was issued for, or
// ledger.ErrUnauthenticated for anything expired, forged or malformed.
func (s *Service) Verify(tokenString string) (string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || c.Username == "" {
		return "", ledger.ErrUnauthenticated
	}
	return c.Username, nil
}
