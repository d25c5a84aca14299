package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// SessionKind selects the lifetime of an issued session.
type SessionKind int

const (
	SessionPassword SessionKind = iota
	SessionFederated
)

type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type SessionTTLs struct {
	User      time.Duration
	Admin     time.Duration
	Federated time.Duration
}

type SessionIssuer struct {
	secret []byte
	issuer string
	ttls   SessionTTLs
	now    func() time.Time
}

func NewSessionIssuer(secret, issuer string, ttls SessionTTLs) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttls:   ttls,
		now:    time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	cp := *s
	cp.now = now
	return &cp
}

func (s *SessionIssuer) Secret() []byte {
	return s.secret
}

func (s *SessionIssuer) Issuer() string {
	return s.issuer
}

// Validate applies the checks Parse makes beyond signature and expiry.
func (s *SessionIssuer) Validate(claims *Claims) error {
	if claims == nil || claims.Issuer != s.issuer || claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return ErrInvalidToken
	}
	return nil
}

// TTL picks the session lifetime: admins 8h, members 2h, federated logins 30d by default.
func (s *SessionIssuer) TTL(role models.Role, kind SessionKind) time.Duration {
	switch {
	case role == models.RoleAdmin:
		return s.ttls.Admin
	case kind == SessionFederated:
		return s.ttls.Federated
	default:
		return s.ttls.User
	}
}

func (s *SessionIssuer) Issue(userID uuid.UUID, role models.Role, kind SessionKind) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.TTL(role, kind))
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *SessionIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.Keyfunc,
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
	)
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
	if err := s.Validate(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Keyfunc only accepts HMAC-signed tokens.
func (s *SessionIssuer) Keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return s.secret, nil
}
