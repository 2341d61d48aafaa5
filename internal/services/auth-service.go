package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/SundayYogurt/auth_service/internal/clients/identity"
	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/dto"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"github.com/SundayYogurt/auth_service/internal/interfaces"
	"github.com/SundayYogurt/auth_service/internal/repository"
	"github.com/google/uuid"
)

type AuthService interface {
	Signup(ctx context.Context, input dto.SignupRequest) (*dto.LoginResponse, error)
	Signin(ctx context.Context, input dto.UserLogin) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, input dto.RefreshTokenRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, authUser dto.AuthUser) error

	Profile(ctx context.Context, authUser dto.AuthUser) (*dto.UserProfileResponse, error)
	EditProfile(ctx context.Context, authUser dto.AuthUser, input dto.UpdateUserProfile) (*dto.UserProfileResponse, error)
	VerifyEmail(ctx context.Context, authUser dto.AuthUser) error

	ForgotPassword(ctx context.Context, input dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, input dto.ResetPasswordRequest) error
}

// TokenIssuer signs and checks token pairs. helper.Auth implements it.
type TokenIssuer interface {
	GenerateTokenPair(sub dto.TokenSubject) (dto.TokenPair, error)
	VerifyRefreshToken(token string) error
}

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, hashed string) error
}

type authService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository

	idp      interfaces.IdentityProvider
	producer interfaces.ProducerHandler

	tokens TokenIssuer
	hasher PasswordHasher
	policy BruteForcePolicy

	log *slog.Logger
	now func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	idp interfaces.IdentityProvider,
	producer interfaces.ProducerHandler,
	tokens TokenIssuer,
	hasher PasswordHasher,
	policy BruteForcePolicy,
	log *slog.Logger,
) AuthService {
	if log == nil {
		log = slog.Default()
	}
	if idp == nil {
		idp = identity.Disabled{}
	}
	return &authService{
		users:    users,
		profiles: profiles,
		idp:      idp,
		producer: producer,
		tokens:   tokens,
		hasher:   hasher,
		policy:   policy,
		log:      log.With("component", "auth-service"),
		now:      time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, input dto.SignupRequest) (*dto.LoginResponse, error) {
	email := helper.NormalizeEmail(input.Email)
	if email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrEmailExists
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fromStoreError(s.log, "find user by email", err)
	}

	hashed, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, helper.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, internalError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		AccountType:  input.Type,
		FullName:     strings.TrimSpace(input.FullName),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fromStoreError(s.log, "create user", err)
	}

	resp, err := s.signUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, dto.EventSignup, user.ID, user.Email)
	return resp, nil
}

func (s *authService) Signin(ctx context.Context, input dto.UserLogin) (*dto.LoginResponse, error) {
	email := helper.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fromStoreError(s.log, "find user by email", err)
	}

	now := s.now()
	if !s.policy.Allow(user, now) {
		s.log.Warn("login blocked by attempt limit", "user_id", user.ID, "attempts", user.Attempt)
		return nil, ErrTooManyAttempts
	}

	if err := s.hasher.VerifyPassword(input.Password, user.PasswordHash); err != nil {
		s.policy.RecordFailure(user, now)
		if err := s.users.SaveUser(ctx, user); err != nil {
			return nil, fromStoreError(s.log, "record failed attempt", err)
		}
		return nil, ErrIncorrectPassword
	}

	s.policy.Reset(user)
	resp, err := s.signUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, dto.EventLogin, user.ID, user.Email)
	return resp, nil
}

func (s *authService) RefreshToken(ctx context.Context, input dto.RefreshTokenRequest) (*dto.LoginResponse, error) {
	token := strings.TrimSpace(input.RefreshToken)
	if token == "" {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindUserByRefreshToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fromStoreError(s.log, "find user by refresh token", err)
	}
	if !user.IsActive {
		return nil, ErrSessionExpired
	}
	if err := s.tokens.VerifyRefreshToken(token); err != nil {
		s.log.Info("stored refresh token rejected", "user_id", user.ID, "err", err)
		return nil, ErrSessionExpired
	}

	return s.signUser(ctx, user)
}

func (s *authService) Logout(ctx context.Context, authUser dto.AuthUser) error {
	if err := s.users.SetActive(ctx, authUser.UserID, false); err != nil {
		return fromStoreError(s.log, "deactivate user", err)
	}
	s.publish(ctx, dto.EventLogout, authUser.UserID, authUser.Email)
	return nil
}

func (s *authService) Profile(ctx context.Context, authUser dto.AuthUser) (*dto.UserProfileResponse, error) {
	user, err := s.users.FindUserById(ctx, authUser.UserID)
	if err != nil {
		return nil, fromStoreError(s.log, "find user by id", err)
	}

	profile, err := s.profiles.FindProfileByAuthID(ctx, user.Identity())
	if err != nil {
		return nil, fromStoreError(s.log, "find profile", err)
	}
	return toProfileResponse(profile), nil
}

func (s *authService) EditProfile(ctx context.Context, authUser dto.AuthUser, input dto.UpdateUserProfile) (*dto.UserProfileResponse, error) {
	user, err := s.users.FindUserById(ctx, authUser.UserID)
	if err != nil {
		return nil, fromStoreError(s.log, "find user by id", err)
	}

	profile, err := s.profiles.UpsertProfile(ctx, user.Identity(), domain.ProfileUpdate{
		FullName: helper.TrimPtr(input.FullName),
		Phone:    helper.TrimPtr(input.Phone),
	})
	if err != nil {
		return nil, fromStoreError(s.log, "upsert profile", err)
	}

	if user.HasLinkedIdentity() {
		attrs := identityAttributes(profile)
		if len(attrs) > 0 {
			if err := s.idp.UpdateUser(ctx, *user.AuthID, attrs); err != nil {
				s.log.Error("profile saved but identity update failed", "user_id", user.ID, "err", err)
				return nil, identityError(err)
			}
		}
	}

	s.publish(ctx, dto.EventProfileUpdated, user.ID, user.Email)
	return toProfileResponse(profile), nil
}

func (s *authService) VerifyEmail(ctx context.Context, authUser dto.AuthUser) error {
	user, err := s.users.FindUserById(ctx, authUser.UserID)
	if err != nil {
		return fromStoreError(s.log, "find user by id", err)
	}
	if !user.HasLinkedIdentity() {
		return ErrNoLinkedIdentity
	}
	if err := s.idp.SendEmailVerification(ctx, *user.AuthID); err != nil {
		return identityError(err)
	}

	s.publish(ctx, dto.EventVerifyEmail, user.ID, user.Email)
	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, input dto.ForgotPasswordRequest) error {
	s.log.Warn("forgot password is not implemented; request ignored")
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, input dto.ResetPasswordRequest) error {
	s.log.Warn("reset password is not implemented; request ignored")
	return nil
}

// signUser issues a token pair, stores the refresh token and marks the
// account active.
func (s *authService) signUser(ctx context.Context, user *domain.User) (*dto.LoginResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(dto.TokenSubject{
		UserID: user.ID,
		Email:  user.Email,
		Type:   user.AccountType,
		Roles:  user.Roles,
	})
	if err != nil {
		return nil, internalError(err)
	}

	user.RefreshToken = pair.RefreshToken
	user.IsActive = true
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, fromStoreError(s.log, "save session", err)
	}

	return &dto.LoginResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        user.Email,
		Type:         user.AccountType,
		FullName:     user.FullName,
		User:         user.Email,
		ID:           user.ID,
		IsVerified:   user.HasLinkedIdentity(),
		Roles:        user.Roles,
	}, nil
}

// publish is best effort: a broker failure never fails the request.
func (s *authService) publish(ctx context.Context, eventType, userID, email string) {
	if s.producer == nil {
		return
	}
	payload, err := json.Marshal(dto.AccountEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		Email:      email,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.log.Warn("encode account event", "type", eventType, "err", err)
		return
	}
	if err := s.producer.PublishMessage(ctx, []byte(userID), payload); err != nil {
		s.log.Warn("publish account event", "type", eventType, "user_id", userID, "err", err)
	}
}

func identityAttributes(p *domain.Profile) map[string]any {
	attrs := map[string]any{}
	if p.FullName != nil && *p.FullName != "" {
		attrs["given_name"] = *p.FullName
	}
	if p.Phone != nil && *p.Phone != "" {
		attrs["phone_number"] = *p.Phone
	}
	return attrs
}

func toProfileResponse(p *domain.Profile) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		AuthID:    p.AuthID,
		FullName:  p.FullName,
		Phone:     p.Phone,
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
