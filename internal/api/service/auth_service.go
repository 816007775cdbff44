package service

//go:generate mockgen -source=auth_service.go -destination=mocks/mock_auth_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ctchen222/bookshelf/internal/api/apperr"
	"ctchen222/bookshelf/internal/api/models"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/password"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

var (
	tracer = otel.Tracer("api.service")
	meter  = otel.Meter("api.service")
)

// Caller-facing messages. Login failures share one message so a caller
// cannot tell an unknown username from a wrong password.
const (
	msgUsernameBlank = "username can't be blank"
	msgPasswordBlank = "password can't be blank"
	msgPasswordWeak  = "password is not strong enough"
	msgPasswordLong  = "password can't be longer than 72 bytes"
	msgUsernameTaken = "username taken"
	msgInvalidLogin  = "username or password is invalid"
)

// AuthService defines the interface for registration, login and token
// resolution.
type AuthService interface {
	Register(ctx context.Context, req *models.CredentialsRequest) (*models.User, error)
	Login(ctx context.Context, req *models.CredentialsRequest) (*models.User, error)
	// ResolveToken returns the user currently holding token, or (nil, nil)
	// if the token identifies nobody.
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	tokenCache repository.TokenCache
	issuer     *TokenIssuer
	bcryptCost int

	registrations metric.Int64Counter
	logins        metric.Int64Counter
}

// NewAuthService creates a new AuthService. A bcryptCost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func NewAuthService(userRepo repository.UserRepository, tokenCache repository.TokenCache, issuer *TokenIssuer, bcryptCost int) AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	registrations, err := meter.Int64Counter("auth.registrations",
		metric.WithDescription("Number of successful user registrations"))
	if err != nil {
		slog.Error("Failed to create registrations counter", "error", err)
	}
	logins, err := meter.Int64Counter("auth.logins",
		metric.WithDescription("Number of login attempts by outcome"))
	if err != nil {
		slog.Error("Failed to create logins counter", "error", err)
	}

	return &authService{
		userRepo:      userRepo,
		tokenCache:    tokenCache,
		issuer:        issuer,
		bcryptCost:    bcryptCost,
		registrations: registrations,
		logins:        logins,
	}
}

func validateCredentials(req *models.CredentialsRequest) error {
	if req.Username == "" {
		return apperr.Validation(msgUsernameBlank)
	}
	if req.Password == "" {
		return apperr.Validation(msgPasswordBlank)
	}
	return nil
}

// Register creates a new user and issues their first token.
func (s *authService) Register(ctx context.Context, req *models.CredentialsRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if err := validateCredentials(req); err != nil {
		return nil, err
	}
	if len(req.Password) > password.MaxLength {
		return nil, apperr.Validation(msgPasswordLong)
	}
	if !password.IsAllowed(req.Password) {
		return nil, apperr.Validation(msgPasswordWeak)
	}

	// Check if user already exists
	existingUser, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, apperr.Conflict(msgUsernameTaken)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
	}
	if user.Token, err = s.issuer.Issue(user.ID); err != nil {
		return nil, err
	}

	if err := s.userRepo.Insert(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same username.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(msgUsernameTaken).WithCause(err)
		}
		return nil, err
	}

	public := publicUser(user)
	s.cacheToken(ctx, public)
	if s.registrations != nil {
		s.registrations.Add(ctx, 1)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))
	slog.InfoContext(ctx, "User registered", "user.id", user.ID)

	return public, nil
}

// Login verifies the credentials and rotates the user's token. The token
// returned by any earlier login stops working.
func (s *authService) Login(ctx context.Context, req *models.CredentialsRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if err := validateCredentials(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.countLogin(ctx, "unknown_user")
		return nil, apperr.Validation(msgInvalidLogin)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.countLogin(ctx, "bad_password")
		return nil, apperr.Validation(msgInvalidLogin)
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	// The previous token must leave the cache before the new one is stored,
	// or it would keep resolving from the cache after the rotation.
	if err := s.tokenCache.Delete(ctx, user.Token); err != nil {
		return nil, fmt.Errorf("failed to evict previous token: %w", err)
	}
	if err := s.userRepo.UpdateToken(ctx, user.ID, token); err != nil {
		return nil, err
	}

	user.Token = token
	public := publicUser(user)
	s.cacheToken(ctx, public)
	s.countLogin(ctx, "success")
	span.SetAttributes(attribute.String("user.id", user.ID))

	return public, nil
}

// ResolveToken maps a bearer token back to its user.
func (s *authService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "AuthService.ResolveToken")
	defer span.End()

	userID, err := s.issuer.Verify(token)
	if err != nil {
		span.AddEvent("token rejected", trace.WithAttributes(attribute.String("reason", err.Error())))
		return nil, nil
	}

	cached, err := s.tokenCache.Get(ctx, token)
	if err != nil {
		slog.WarnContext(ctx, "Token cache lookup failed, falling back to database", "error", err)
	}
	if cached != nil && cached.ID == userID {
		return cached, nil
	}

	user, err := s.userRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID != userID {
		return nil, nil
	}

	public := publicUser(user)
	s.cacheToken(ctx, public)
	return public, nil
}

func (s *authService) cacheToken(ctx context.Context, user *models.User) {
	if err := s.tokenCache.Set(ctx, user, s.issuer.TTL()); err != nil {
		slog.WarnContext(ctx, "Failed to cache token", "user.id", user.ID, "error", err)
	}
}

func (s *authService) countLogin(ctx context.Context, outcome string) {
	if s.logins != nil {
		s.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// publicUser returns the caller-facing copy of user, without the password hash.
func publicUser(user *models.User) *models.User {
	return &models.User{
		ID:       user.ID,
		Username: user.Username,
		Token:    user.Token,
	}
}
