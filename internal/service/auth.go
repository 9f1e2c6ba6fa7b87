package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"book-network-backend/internal/domain"
	"book-network-backend/internal/logger"
	"book-network-backend/internal/repository"
	"book-network-backend/internal/security"
)

const minPasswordLength = 8

var errBadCredentials = domain.Unauthenticated("login and / or password is incorrect")

type authService struct {
	userRepo      repository.UserRepository
	tokenRepo     repository.TokenRepository
	emailSvc      EmailService
	tokens        security.TokenManager
	codes         security.CodeGenerator
	tokenTTL      time.Duration
	activationURL string
	now           func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	emailSvc EmailService,
	tokens security.TokenManager,
	codes security.CodeGenerator,
	tokenTTL time.Duration,
	activationURL string,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		emailSvc:      emailSvc,
		tokens:        tokens,
		codes:         codes,
		tokenTTL:      tokenTTL,
		activationURL: activationURL,
		now:           time.Now,
	}
}

func validateRegistration(req RegisterRequest, now time.Time) error {
	if strings.TrimSpace(req.FirstName) == "" {
		return domain.InvalidArgument("first name is mandatory")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return domain.InvalidArgument("last name is mandatory")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || !strings.Contains(req.Email, "@") {
		return domain.InvalidArgument("email is not well formatted")
	}
	if len(req.Password) < minPasswordLength {
		return domain.InvalidArgument("password should be %d characters long minimum", minPasswordLength)
	}
	if req.DateOfBirth != nil && req.DateOfBirth.After(now) {
		return domain.InvalidArgument("date of birth cannot be in the future")
	}
	return nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	logger.EnterMethod("authService.Register", "email", req.Email)

	if err := validateRegistration(req, s.now()); err != nil {
		logger.ExitMethodWithError("authService.Register", err)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		DateOfBirth:  req.DateOfBirth,
		Enabled:      false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = domain.OperationNotPermitted("email %s is already registered", user.Email)
		}
		logger.ExitMethodWithError("authService.Register", err)
		return nil, err
	}

	if err := s.sendValidationEmail(ctx, user); err != nil {
		logger.ExitMethodWithError("authService.Register", err, "userID", user.ID)
		return nil, err
	}

	logger.Info("User registered", "userID", user.ID)
	logger.ExitMethod("authService.Register", "userID", user.ID)
	return user, nil
}

// sendValidationEmail issues a fresh activation code and mails it to the user.
func (s *authService) sendValidationEmail(ctx context.Context, user *domain.User) error {
	code, err := s.codes.Generate()
	if err != nil {
		return err
	}
	now := s.now()
	token := &domain.Token{
		Token:     code,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return fmt.Errorf("save activation token: %w", err)
	}
	if err := s.emailSvc.SendActivationEmail(ctx, user.Email, user.FullName(), code, s.activationURL); err != nil {
		return fmt.Errorf("send activation email: %w", err)
	}
	return nil
}

func (s *authService) ActivateAccount(ctx context.Context, code string) error {
	logger.EnterMethod("authService.ActivateAccount")

	token, err := s.tokenRepo.GetByToken(ctx, code)
	if err != nil {
		logger.ExitMethodWithError("authService.ActivateAccount", err)
		return err
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		logger.ExitMethodWithError("authService.ActivateAccount", err)
		return err
	}

	if token.ValidatedAt != nil {
		logger.ExitMethod("authService.ActivateAccount", "userID", user.ID, "alreadyValidated", true)
		return nil
	}

	now := s.now()
	if token.Expired(now) {
		if err := s.sendValidationEmail(ctx, user); err != nil {
			logger.ExitMethodWithError("authService.ActivateAccount", err)
			return err
		}
		err := domain.Unauthenticated("activation token has expired, a new token has been sent to the same email address")
		logger.ExitMethodWithError("authService.ActivateAccount", err, "userID", user.ID)
		return err
	}

	user.Enabled = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("enable user: %w", err)
	}
	token.ValidatedAt = &now
	if err := s.tokenRepo.Update(ctx, token); err != nil {
		return fmt.Errorf("mark token validated: %w", err)
	}

	logger.Info("Account activated", "userID", user.ID)
	logger.ExitMethod("authService.ActivateAccount", "userID", user.ID)
	return nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (string, error) {
	logger.EnterMethod("authService.Authenticate", "email", email)

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = errBadCredentials
		}
		logger.ExitMethodWithError("authService.Authenticate", err)
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.ExitMethodWithError("authService.Authenticate", errBadCredentials, "userID", user.ID)
		return "", errBadCredentials
	}
	if user.AccountLocked {
		err := domain.Unauthenticated("user account is locked")
		logger.ExitMethodWithError("authService.Authenticate", err, "userID", user.ID)
		return "", err
	}
	if !user.Enabled {
		err := domain.Unauthenticated("user account is not activated")
		logger.ExitMethodWithError("authService.Authenticate", err, "userID", user.ID)
		return "", err
	}

	jwt, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.FullName())
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	logger.ExitMethod("authService.Authenticate", "userID", user.ID)
	return jwt, nil
}

func (s *authService) PurgeExpiredTokens(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	n, err := s.tokenRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return n, nil
}
