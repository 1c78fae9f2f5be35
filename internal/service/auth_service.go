package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vijaymanda323/motion-video/internal/auth"
	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/lock"
	"github.com/vijaymanda323/motion-video/internal/repository"
)

// Login lock parameters. The lock serializes the read-modify-write of the
// streak counters for a single user.
const (
	loginLockTTL        = 10 * time.Second
	loginLockRetries    = 5
	loginLockRetryDelay = 100 * time.Millisecond
)

// AuthService handles registration, login, and profile management.
type AuthService struct {
	users      repository.UserRepository
	locker     lock.Locker
	tokens     *auth.TokenManager
	bcryptCost int
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, locker lock.Locker, tokens *auth.TokenManager, bcryptCost int, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		locker:     locker,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
}

// RegisterInput contains the data needed to create a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterOutput contains the result of a registration.
type RegisterOutput struct {
	User  *domain.User
	Token string
}

// Register creates a new user account and returns a session token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	input.Email = domain.NormalizeEmail(input.Email)

	if err := s.validateRegisterInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Name, input.Email, string(passwordHash))

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email '%s'", domain.ErrUserAlreadyExists, input.Email)
		}
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Msg("user registered")

	return &RegisterOutput{User: user, Token: token}, nil
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput contains the result of a login.
type LoginOutput struct {
	User  *domain.User
	Token string
}

// Login verifies credentials, applies the daily streak update, and
// returns a session token. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	email := domain.NormalizeEmail(input.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Str("email", email).Msg("user not found during login")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.Debug().Str("email", email).Msg("invalid password during login")
		return nil, domain.ErrInvalidCredentials
	}

	user, err = s.applyLoginStreak(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Int("streak", user.StreakCount).
		Msg("user logged in")

	return &LoginOutput{User: user, Token: token}, nil
}

// applyLoginStreak serializes the streak update under a per-user lock and
// returns the refreshed user.
func (s *AuthService) applyLoginStreak(ctx context.Context, email string) (*domain.User, error) {
	key := lock.Keys.UserLogin(email)

	acquired, err := s.locker.AcquireWithRetry(ctx, key, loginLockTTL, loginLockRetries, loginLockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to acquire login lock")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, repository.ErrLockNotAcquired)
	}
	defer func() {
		if _, err := s.locker.Release(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("failed to release login lock")
		}
	}()

	// Re-read under the lock so concurrent logins see each other's update.
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to reload user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	state := domain.ComputeStreak(time.Now(), user.StreakCount, user.LastLoginDate, user.LoginDates)
	user.StreakCount = state.Count
	user.LastLoginDate = &state.LastLogin
	user.LoginDates = state.LoginDates

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to persist streak update")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return user, nil
}

// GetProfile returns a user's profile by email.
func (s *AuthService) GetProfile(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return user, nil
}

// UpdateProfileInput contains profile fields to change. Nil pointers
// leave the corresponding field untouched.
type UpdateProfileInput struct {
	Email                   string
	Name                    *string
	FirstName               *string
	Surname                 *string
	Gender                  *string
	BirthDate               *time.Time
	Height                  *float64
	Weight                  *float64
	HeartSurgery            *bool
	WithinSixMonths         *bool
	HeartSurgeryComment     *string
	Fractures               *bool
	WithinSixMonthsFracture *bool
	FracturesComment        *string
}

// UpdateProfile updates a user's profile. If no account exists for the
// email yet, one is created with a random placeholder password; the user
// must register to pick a real one. This mirrors the mobile onboarding
// flow, where the About You screen can be submitted before signup.
func (s *AuthService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error().Err(err).Str("email", email).Msg("failed to get user")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		user, err = s.createPlaceholderUser(ctx, email)
		if err != nil {
			return nil, err
		}
	}

	applyProfileUpdate(user, input)

	// Implicitly created users arrive with no display name; the first
	// name from the profile stands in for it.
	if user.Name == "" && user.FirstName != "" {
		user.Name = user.FirstName
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to update profile")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("email", email).Msg("profile updated")

	return user, nil
}

func (s *AuthService) createPlaceholderUser(ctx context.Context, email string) (*domain.User, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(buf)), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser("", email, string(passwordHash))
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to create placeholder user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("email", email).Msg("placeholder user created for profile update")

	return user, nil
}

func applyProfileUpdate(user *domain.User, input UpdateProfileInput) {
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.Surname != nil {
		user.Surname = *input.Surname
	}
	if input.Gender != nil {
		user.Gender = *input.Gender
	}
	if input.BirthDate != nil {
		user.BirthDate = input.BirthDate
	}
	if input.Height != nil {
		user.Height = *input.Height
	}
	if input.Weight != nil {
		user.Weight = *input.Weight
	}
	if input.HeartSurgery != nil {
		user.HeartSurgery = *input.HeartSurgery
	}
	if input.WithinSixMonths != nil {
		user.WithinSixMonths = *input.WithinSixMonths
	}
	if input.HeartSurgeryComment != nil {
		user.HeartSurgeryComment = *input.HeartSurgeryComment
	}
	if input.Fractures != nil {
		user.Fractures = *input.Fractures
	}
	if input.WithinSixMonthsFracture != nil {
		user.WithinSixMonthsFracture = *input.WithinSixMonthsFracture
	}
	if input.FracturesComment != nil {
		user.FracturesComment = *input.FracturesComment
	}
}

// validateRegisterInput checks registration fields.
func (s *AuthService) validateRegisterInput(input RegisterInput) error {
	if input.Name == "" {
		return domain.ErrNameRequired
	}
	if input.Email == "" {
		return domain.ErrEmailRequired
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return domain.ErrInvalidEmail
	}
	if len(input.Password) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	return nil
}
