package auth

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"shopverse/internal/domain"
	"shopverse/internal/validation"
)

type userRepo interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Service handles registration, login and token authentication.
type Service struct {
	users  userRepo
	tokens *TokenManager
	hasher Hasher
	logger *log.Logger
	now    func() time.Time
}

func New(users userRepo, tokens *TokenManager, hasher Hasher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{users: users, tokens: tokens, hasher: hasher, logger: logger, now: time.Now}
}

// RegisterInput captures the signup payload.
type RegisterInput struct {
	FirstName string  `json:"firstName" validate:"trimmed_len=2-50"`
	LastName  string  `json:"lastName" validate:"trimmed_len=2-50"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
	Address   *string `json:"address" validate:"omitempty,trimmed_len=10-500"`
}

// Session is the result of a successful register or login.
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u, err := s.users.Create(ctx, domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: hashed,
		Phone:        trimmedOrNil(in.Phone),
		Address:      trimmedOrNil(in.Address),
		Role:         domain.RoleCustomer,
		IsActive:     true,
		LastLogin:    &now,
	})
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// LoginInput captures the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login validates credentials. Unknown emails, wrong passwords and
// deactivated accounts all fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !s.hasher.Compare(u.PasswordHash, in.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Printf("auth: touch last login user_id=%d error=%v", u.ID, err)
	} else {
		u.LastLogin = &now
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.Wrapf(domain.ErrUnauthorized, "Access denied. No token provided.")
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, domain.Wrapf(domain.ErrUnauthorized, "Token expired")
		}
		return nil, domain.Wrapf(domain.ErrUnauthorized, "Invalid token")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Wrapf(domain.ErrUnauthorized, "Invalid token or user is inactive")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, domain.Wrapf(domain.ErrUnauthorized, "Invalid token or user is inactive")
	}
	return u, nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
