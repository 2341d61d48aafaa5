package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/SundayYogurt/auth_service/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordCost = 10
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72

	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

var (
	ErrPasswordTooLong = errors.New("password too long")
	ErrInvalidToken    = errors.New("invalid token")
)

type AccessClaims struct {
	Email string   `json:"email"`
	Type  int      `json:"type"`
	ID    string   `json:"id"`
	Roles []string `json:"user/roles,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Email string `json:"email"`
	ID    string `json:"id"`
	jwt.RegisteredClaims
}

type Auth struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func SetupAuth(secret string, accessTTL, refreshTTL time.Duration) Auth {
	return Auth{
		Secret:     secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

func (a Auth) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a Auth) GenerateTokenPair(sub dto.TokenSubject) (dto.TokenPair, error) {
	if sub.UserID == "" || sub.Email == "" {
		return dto.TokenPair{}, errors.New("required inputs are missing to generate token")
	}

	now := a.now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Email: sub.Email,
		Type:  sub.Type,
		ID:    sub.UserID,
		Roles: sub.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audienceAccess},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.AccessTTL)),
		},
	})
	accessStr, err := access.SignedString([]byte(a.Secret))
	if err != nil {
		return dto.TokenPair{}, errors.New("unable to sign the token")
	}

	// jti keeps every rotation distinct even within the same second
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		Email: sub.Email,
		ID:    sub.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{audienceRefresh},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.RefreshTTL)),
		},
	})
	refreshStr, err := refresh.SignedString([]byte(a.Secret))
	if err != nil {
		return dto.TokenPair{}, errors.New("unable to sign the refresh token")
	}

	return dto.TokenPair{AccessToken: accessStr, RefreshToken: refreshStr}, nil
}

// VerifyToken accepts "Bearer <token>" or a bare token.
func (a Auth) VerifyToken(tokenString string) (dto.AuthUser, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return dto.AuthUser{}, errors.New("missing token")
	}

	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		tokenString = strings.TrimSpace(tokenString[len("bearer "):])
		if tokenString == "" {
			return dto.AuthUser{}, errors.New("invalid token format")
		}
	}

	claims := &AccessClaims{}
	if _, err := a.parse(tokenString, claims, audienceAccess); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dto.AuthUser{}, errors.New("token expired")
		}
		return dto.AuthUser{}, ErrInvalidToken
	}
	if claims.ID == "" || claims.Email == "" {
		return dto.AuthUser{}, errors.New("invalid token claims")
	}

	user := dto.AuthUser{
		UserID: claims.ID,
		Email:  claims.Email,
		Type:   claims.Type,
		Roles:  claims.Roles,
	}
	if claims.IssuedAt != nil {
		user.Iat = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		user.Expiry = claims.ExpiresAt.Unix()
	}
	return user, nil
}

func (a Auth) VerifyRefreshToken(tokenString string) error {
	claims := &RefreshClaims{}
	if _, err := a.parse(strings.TrimSpace(tokenString), claims, audienceRefresh); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.New("refresh token expired")
		}
		return errors.New("invalid refresh token")
	}
	return nil
}

func (a Auth) parse(tokenString string, claims jwt.Claims, audience string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
}

func (a Auth) GetCurrentUser(ctx *fiber.Ctx) (dto.AuthUser, error) {
	claims, ok := ctx.Locals("user").(dto.AuthUser)
	if !ok {
		return dto.AuthUser{}, errors.New("missing auth user in context")
	}
	return claims, nil
}

func (a Auth) HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", errors.New("failed to hash password")
	}
	return string(hashed), nil
}

// VerifyPassword never matches a password that HashPassword would refuse.
func (a Auth) VerifyPassword(plain, hashed string) error {
	if len(plain) > MaxPasswordBytes {
		return errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return errors.New("invalid email or password")
	}
	return nil
}
