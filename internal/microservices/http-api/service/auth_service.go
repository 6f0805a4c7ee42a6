package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/mail"
	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	codeLength   = 12
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type AuthService interface {
	// Signup registers (or reuses) the username/email pair and emails a fresh confirmation code.
	Signup(ctx context.Context, username, email string) (*models.User, error)
	// Token exchanges a confirmation code for an access token.
	Token(ctx context.Context, username, code string) (string, error)
	// Authenticate resolves a bearer token to its user.
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	users        repository.UserRepository
	sender       mail.Sender
	tokens       TokenIssuer
	singleUse    bool
	emailTimeout time.Duration

	// swapped in tests
	codeGen    func() (string, error)
	bcryptCost int
}

func NewAuthService(
	users repository.UserRepository,
	sender mail.Sender,
	tokens TokenIssuer,
	cfg *config.Config,
) AuthService {
	return &authService{
		users:        users,
		sender:       sender,
		tokens:       tokens,
		singleUse:    cfg.ConfirmationCodeSingleUse,
		emailTimeout: cfg.EmailTimeout,
		codeGen:      generateCode,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

func (s *authService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	if username == validation.ReservedUsername {
		return nil, fieldError("username", fmt.Sprintf("Username %q is not allowed.", username))
	}
	if !validation.ValidUsername(username) {
		return nil, fieldError("username", "Enter a valid username. It may contain only letters, digits and @/./+/-/_ characters.")
	}

	user, err := s.resolveSignupUser(ctx, username, email)
	if err != nil {
		return nil, err
	}

	code, err := s.codeGen()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}
	hashed := string(hash)
	user.ConfirmationCode = &hashed
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("store confirmation code: %w", err)
	}

	sendCtx := ctx
	if s.emailTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.emailTimeout)
		defer cancel()
	}
	err = s.sender.Send(sendCtx, mail.Message{
		To:      user.Email,
		Subject: "Confirmation code",
		Body:    fmt.Sprintf("Confirmation code: %s", code),
	})
	metrics.RecordEmail(err)
	if err != nil {
		logging.Error().Err(err).Str("username", user.Username).Msg("failed to send confirmation code")
		return nil, fmt.Errorf("send confirmation code: %w", err)
	}
	return user, nil
}

// resolveSignupUser returns the existing user for an exact (username, email)
// match, creates one when neither is taken, and rejects mixed pairings.
func (s *authService) resolveSignupUser(ctx context.Context, username, email string) (*models.User, error) {
	byName, err := s.users.FindByUsername(ctx, username)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}
	if byName != nil {
		if byName.Email == email {
			return byName, nil
		}
		return nil, fieldError("username", "A user with this username is registered with a different email.")
	}

	byEmail, err := s.users.FindByEmail(ctx, email)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}
	if byEmail != nil {
		return nil, fieldError("email", "A user with this email is registered with a different username.")
	}

	user := &models.User{Username: username, Email: email, Role: models.RoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("username", "A user with this username or email already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Token(ctx context.Context, username, code string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", notFound(fmt.Sprintf("user %q", username), err)
	}

	if user.ConfirmationCode == nil || *user.ConfirmationCode == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.ConfirmationCode), []byte(code)); err != nil {
		return "", ErrInvalidCredentials
	}

	if s.singleUse {
		user.ConfirmationCode = nil
		if err := s.users.Update(ctx, user); err != nil {
			return "", fmt.Errorf("clear confirmation code: %w", err)
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("user no longer exists: %w", ErrAuthentication)
		}
		return nil, err
	}
	return user, nil
}

// generateCode returns a random alphanumeric confirmation code.
func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
