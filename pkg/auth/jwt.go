package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the subject of every admin session token.
const AdminSubject = "quiz-admin"

const sessionIssuer = "fihu-quiz-api"

var (
	// ErrInvalidPassword is returned by Login for a wrong admin password.
	ErrInvalidPassword = errors.New("invalid admin password")
	// ErrInvalidSession is returned for a missing, malformed, expired or forged token.
	ErrInvalidSession = errors.New("invalid admin session")
)

// SessionClaims are the claims of the admin session cookie.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies admin session tokens. The export area
// has a single shared password, so there are no user records behind it.
type SessionService struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewSessionService validates the settings and creates the service.
func NewSessionService(passwordHash, secret string, ttl time.Duration) (*SessionService, error) {
	if passwordHash == "" {
		return nil, fmt.Errorf("admin password hash is required")
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("admin session secret must be at least 32 characters")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("admin password hash is not a bcrypt hash: %w", err)
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionService{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

// TTL is the lifetime of issued tokens.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Login checks the password and returns a signed session token.
func (s *SessionService) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidPassword
		}
		return "", fmt.Errorf("compare admin password: %w", err)
	}
	return s.Issue()
}

// Issue signs a new session token with HS256.
func (s *SessionService) Issue() (string, error) {
	now := s.now()
	claims := SessionClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   AdminSubject,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin session: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns its claims, or ErrInvalidSession.
func (s *SessionService) Verify(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}
	claims := &SessionClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			log.Printf("[AdminSession] token %s expired", claims.ID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || claims.Subject != AdminSubject || claims.Issuer != sessionIssuer {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// HashPassword is used by quizctl to produce ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
