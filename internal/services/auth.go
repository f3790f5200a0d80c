package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid session")
)

type AuthService interface {
	Register(ctx context.Context, req RegistrationRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
}

type AuthServiceImpl struct {
	users      repositories.UserRepository
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users repositories.UserRepository, bcryptCost int) *AuthServiceImpl {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthServiceImpl{users: users, bcryptCost: bcryptCost, now: time.Now}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SessionProvider issues and validates the tokens that carry a session.
type SessionProvider interface {
	Issue(user *models.User) (token string, expiresAt time.Time, err error)
	Authenticate(token string) (*models.Session, error)
}

type sessionClaims struct {
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type JWTSessionProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTSessionProvider(secret, issuer string, ttl time.Duration) *JWTSessionProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTSessionProvider{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (p *JWTSessionProvider) Issue(user *models.User) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := sessionClaims{
		Role:  string(user.Role),
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate validates the signature, issuer and expiry of token. A
// missing role claim means user; an unknown role rejects the session.
func (p *JWTSessionProvider) Authenticate(tokenStr string) (*models.Session, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	return &models.Session{
		UserID: claims.Subject,
		Role:   role,
		Name:   claims.Name,
		Email:  claims.Email,
	}, nil
}
