package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/virtlab-edu/virtlab/internal/identity"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	hmac   []byte
	issuer string
	ttl    time.Duration
	db     *sql.DB
}

func NewService(secret, issuer string, ttl time.Duration, dbh *sql.DB) *Service {
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	return &Service{hmac: []byte(secret), issuer: issuer, ttl: ttl, db: dbh}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // student|teacher|admin
	jwt.RegisteredClaims
}

func (s *Service) IssueJWT(sub string, role identity.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// Login checks the username/password against the users table and issues a
// token carrying the DB-authoritative role.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	var id, hash, role string
	var active bool
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, role, active FROM users WHERE username=$1`,
		username).Scan(&id, &hash, &role, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !active {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueJWT(id, identity.Role(role))
}
