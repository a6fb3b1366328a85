package service

import (
	"context"
	"fmt"
	"sync"

	"userhandler/internal/auth"
	apperrors "userhandler/internal/errors"
	"userhandler/internal/model"
	"userhandler/internal/repository"
)

// RegistrationInput carries a self-registration request.
type RegistrationInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Birthday string // yyyy-MM-dd
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, input RegistrationInput) (*model.AuthenticationResponse, error)
	Login(ctx context.Context, identifier, password string) (*model.AuthenticationResponse, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   auth.Hasher
	tokens   *auth.TokenCodec
	opts     options

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher auth.Hasher, tokens *auth.TokenCodec, opts ...Option) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		opts:     buildOptions(opts),
	}
}

// Register creates a USER account and returns a token whose subject is the email.
func (s *authService) Register(ctx context.Context, input RegistrationInput) (*model.AuthenticationResponse, error) {
	if err := checkUsername(input.Username); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateEmail
	}

	birthday, err := parseBirthday(input.Birthday, s.opts.now())
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		Birthday:     birthday,
	}

	// the unique index is the authoritative guard against concurrent registrations
	if _, err := s.userRepo.Save(ctx, user); err != nil {
		return nil, duplicateError(ctx, s.userRepo, err, input.Email, "create user")
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return model.NewAuthenticationResponse(token), nil
}

// Login verifies credentials and returns a token whose subject is the username.
// Unknown identifiers and wrong passwords fail identically.
func (s *authService) Login(ctx context.Context, identifier, password string) (*model.AuthenticationResponse, error) {
	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsNotFound(err) {
			// burn the same bcrypt time as a real comparison
			s.hasher.Verify(password, s.placeholderHash())
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return model.NewAuthenticationResponse(token), nil
}

// Authenticate resolves a bearer token to its user. The token must verify,
// its subject must name an existing user (by username or email) and it must
// validate against that user's identity.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.findByIdentifier(ctx, claims.Subject)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.tokens.Validate(token, user.Username) && !s.tokens.Validate(token, user.Email) {
		return nil, apperrors.ErrInvalidToken
	}
	return user, nil
}

// findByIdentifier looks the identifier up as a username first, then as an email.
func (s *authService) findByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}
	return s.userRepo.FindByEmail(ctx, identifier)
}

func (s *authService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("placeholder-password")
	})
	return s.dummyHash
}
