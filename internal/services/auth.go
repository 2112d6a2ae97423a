package services

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cms-panel/internal/config"
	"cms-panel/internal/models"
)

// Identity is the caller resolved from a verified token.
type Identity struct {
	UserID    uint      `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HasRole reports whether the identity holds one of roles.
func (i *Identity) HasRole(roles ...string) bool {
	return i != nil && slices.Contains(roles, i.Role)
}

// Claims is the JWT payload.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type AuthService struct {
	gw        *models.Gateway
	cfg       *config.Config
	secret    []byte
	dummyHash []byte
	now       func() time.Time
}

// developmentSecret is shared by every AuthService in the process so tokens
// stay valid across services when no secret is configured.
var developmentSecret = sync.OnceValue(func() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	slog.Warn("no JWT secret configured, using a random development secret; tokens will not survive a restart")
	return b
})

func NewAuthService(gw *models.Gateway, cfg *config.Config) *AuthService {
	secret := []byte(cfg.JWT.Secret)
	if len(secret) == 0 {
		secret = developmentSecret()
	}

	s := &AuthService{gw: gw, cfg: cfg, secret: secret, now: time.Now}
	// Compared against when the email is unknown so both paths cost one bcrypt round.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cms-panel-dummy-password"), s.bcryptCost())
	return s
}

func (s *AuthService) bcryptCost() int {
	if c := s.cfg.Security.BcryptCost; c >= bcrypt.MinCost && c <= bcrypt.MaxCost {
		return c
	}
	return bcrypt.DefaultCost
}

// HashPassword hashes a password using bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	return string(bytes), err
}

// VerifyPassword verifies a password against a hash
func (s *AuthService) VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, models.Classify(err)
	}

	if !s.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(&user)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		return nil, models.Classify(err)
	}
	user.LastLogin = &now

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: &user}, nil
}

// IssueToken signs a token for user valid for the configured lifetime
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWT.ExpiresIn)

	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// VerifyToken checks the signature and expiry of a token and returns its identity
func (s *AuthService) VerifyToken(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.JWT.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.JWT.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:    claims.UserID,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// RequireRole fails unless identity holds one of roles
func (s *AuthService) RequireRole(identity *Identity, roles ...string) error {
	if identity == nil {
		return NewError(ErrUnauthorized, "authentication required")
	}
	if !identity.HasRole(roles...) {
		return ErrInsufficientRole
	}
	return nil
}

// CurrentUser loads the account behind identity. A token for a removed account is rejected.
func (s *AuthService) CurrentUser(ctx context.Context, identity *Identity) (*models.User, error) {
	if identity == nil {
		return nil, ErrInvalidToken
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.First(&user, identity.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, models.Classify(err)
	}
	return &user, nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

// ChangePassword replaces the caller's password after re-verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, input ChangePasswordInput) error {
	if err := validateStruct(input); err != nil {
		return err
	}

	db, err := s.gw.DB(ctx)
	if err != nil {
		return err
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return models.Classify(err)
	}

	if !s.VerifyPassword(user.PasswordHash, input.CurrentPassword) {
		return NewValidationError("current_password", "is incorrect")
	}

	return s.setPassword(db, user.ID, input.NewPassword)
}

func (s *AuthService) setPassword(db *gorm.DB, userID uint, password string) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	return models.Classify(db.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash).Error)
}

// createUser inserts a user on db. Used by both the seed hook and UserService.
func (s *AuthService) createUser(db *gorm.DB, name, email, password, role string) (*models.User, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, models.Classify(err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	if err := db.Create(user).Error; err != nil {
		if err = models.Classify(err); errors.Is(err, ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

// CreateDefaultUser creates the default admin user if no user exists.
// It runs as a gateway init hook, on the initialising session.
func (s *AuthService) CreateDefaultUser(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return models.Classify(err)
	}
	if count > 0 {
		return nil
	}

	du := s.cfg.DefaultUser
	role := du.Role
	if role == "" {
		role = models.RoleAdmin
	}
	name := du.Name
	if name == "" {
		name = "Administrator"
	}

	user, err := s.createUser(db, name, normalizeEmail(du.Email), du.Password, role)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "default user created", "email", user.Email, "role", user.Role)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
