package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Auth methods carried in the token. A recovery token comes from the
// password-reset email and is only good for setting a new password; it must
// never pass as a normal login session.
const (
	MethodPassword = "password"
	MethodRecovery = "recovery"
)

// Claims represents JWT claims
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	AuthMethod string `json:"auth_method"`
	jwt.RegisteredClaims
}

// Identity is the resolved identity of a request: either anonymous or an
// authenticated user plus the method that produced the session.
type Identity struct {
	UserID     string
	Email      string
	Role       string
	AuthMethod string
}

// Anonymous returns the zero identity.
func Anonymous() Identity {
	return Identity{}
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (id Identity) IsAuthenticated() bool {
	return id.UserID != ""
}

// IsRecovery reports whether the session came from a password-reset link.
func (id Identity) IsRecovery() bool {
	return id.AuthMethod == MethodRecovery
}

// Identity converts validated claims to an Identity.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:     c.UserID,
		Email:      c.Email,
		Role:       c.Role,
		AuthMethod: c.AuthMethod,
	}
}

// JWTService handles JWT token operations
type JWTService struct {
	secretKey      []byte
	sessionExpiry  time.Duration
	recoveryExpiry time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string, sessionExpiry, recoveryExpiry time.Duration) *JWTService {
	return &JWTService{
		secretKey:      []byte(secretKey),
		sessionExpiry:  sessionExpiry,
		recoveryExpiry: recoveryExpiry,
	}
}

// GenerateSessionToken creates a token for a password-based login.
func (s *JWTService) GenerateSessionToken(userID, email, role string) (string, time.Time, error) {
	return s.generate(userID, email, role, MethodPassword, s.sessionExpiry)
}

// GenerateRecoveryToken creates a short-lived token embedded in the
// password-reset email link.
func (s *JWTService) GenerateRecoveryToken(userID, email string) (string, time.Time, error) {
	return s.generate(userID, email, "", MethodRecovery, s.recoveryExpiry)
}

func (s *JWTService) generate(userID, email, role, method string, expiry time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(expiry)

	claims := Claims{
		UserID:     userID,
		Email:      email,
		Role:       role,
		AuthMethod: method,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a token of either method and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SessionExpiry returns the session token lifetime.
func (s *JWTService) SessionExpiry() time.Duration {
	return s.sessionExpiry
}
