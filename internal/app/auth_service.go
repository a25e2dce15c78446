package app

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thungan1909/easy-english-backend/internal/auth"
	"github.com/thungan1909/easy-english-backend/internal/domain"
)

// Mailer delivers verification codes. Implementations are injected so no
// component holds a process-wide credential handle.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LogMailer is the default Mailer: it only logs. Useful for development
// and tests.
type LogMailer struct{}

func (LogMailer) SendVerificationCode(_ context.Context, email, code string) error {
	log.Printf("verification code for %s: %s", email, code)
	return nil
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService owns registration, email verification and login.
type AuthService struct {
	users   UserRepository
	mailer  Mailer
	tokens  *auth.TokenIssuer
	codeTTL time.Duration
	retries int
	now     func() time.Time
}

func NewAuthService(users UserRepository, mailer Mailer, tokens *auth.TokenIssuer) *AuthService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{
		users:   users,
		mailer:  mailer,
		tokens:  tokens,
		codeTTL: 10 * time.Minute,
		retries: defaultRetries,
		now:     time.Now,
	}
}

// Register creates an unverified account and mails the verification code.
// When the mailer fails the issued code is rolled back so a stale code can
// never be redeemed.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Username == "" || input.Email == "" || len(input.Password) < 8 {
		return domain.User{}, fmt.Errorf("username, email and a password of at least 8 characters are required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return domain.User{}, domain.ErrDuplicateUser
	}
	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return domain.User{}, domain.ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	code := verificationCode()
	expires := now.Add(s.codeTTL)
	user := domain.User{
		ID:                  uuid.NewString(),
		Username:            input.Username,
		FullName:            input.FullName,
		Email:               input.Email,
		PasswordHash:        string(hash),
		VerificationCode:    code,
		VerificationExpires: &expires,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return domain.User{}, err
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, code); err != nil {
		rollbackErr := withRetry(s.retries, func() error {
			fresh, getErr := s.users.GetByID(ctx, user.ID)
			if getErr != nil {
				return getErr
			}
			fresh.VerificationCode = ""
			fresh.VerificationExpires = nil
			return s.users.Update(ctx, &fresh)
		})
		if rollbackErr != nil {
			log.Printf("rollback verification code for %s: %v", user.Email, rollbackErr)
		}
		return domain.User{}, fmt.Errorf("send verification code: %w", err)
	}
	return user, nil
}

// Verify redeems a verification code.
func (s *AuthService) Verify(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	return withRetry(s.retries, func() error {
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user.IsVerified {
			return nil
		}
		if user.VerificationCode == "" || user.VerificationCode != code {
			return fmt.Errorf("verification code mismatch: %w", domain.ErrInvalidInput)
		}
		if user.VerificationExpires == nil || s.now().After(*user.VerificationExpires) {
			return domain.ErrVerificationExpired
		}
		user.IsVerified = true
		user.VerificationCode = ""
		user.VerificationExpires = nil
		return s.users.Update(ctx, &user)
	})
}

// Login checks credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	user, err := s.users.GetByEmail(ctx, strings.ToLower(identifier))
	if err != nil {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// verificationCode returns a random six-digit code.
func verificationCode() string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("%06d", binary.BigEndian.Uint32(buf[:])%1000000)
}
