package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/civic-report-api/internal/models"
	"github.com/noah-isme/civic-report-api/internal/repository"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	Count(ctx context.Context) (int, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
	CreateFirst(ctx context.Context, admin *models.Admin) error
}

// AuthConfig defines configuration for admin sessions.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	Issuer        string
}

// AuthService authenticates administrators and bootstraps the first account.
type AuthService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo adminRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "civic-report-api"
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: func() time.Time { return time.Now().UTC() }}
}

// Login checks the credentials and issues a signed session. Unknown users,
// wrong passwords and inactive accounts all get the same error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	admin, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("login rejected", zap.String("username", req.Username), zap.String("reason", "unknown user"))
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Info("login rejected", zap.String("username", req.Username), zap.String("reason", "bad password"))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if !admin.Active {
		s.logger.Info("login rejected", zap.String("username", req.Username), zap.String("reason", "inactive"))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	now := s.now()
	token, expiresAt, err := s.issueToken(admin, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	if err := s.repo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("admin_id", admin.ID), zap.Error(err))
	}

	return &models.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Admin:     adminInfo(admin),
	}, nil
}

// ValidateToken parses a session token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	return claims, nil
}

// AdminExists reports whether any administrator has been created.
func (s *AuthService) AdminExists(ctx context.Context) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admins")
	}
	return count > 0, nil
}

// Bootstrap creates the first administrator. It fails with ADMIN_EXISTS once
// any admin is present, whatever the payload, including when a concurrent call
// won the race.
func (s *AuthService) Bootstrap(ctx context.Context, req models.CreateAdminRequest) (*models.Admin, error) {
	exists, err := s.AdminExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, adminExistsError()
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.RoleAdmin
	}

	admin := &models.Admin{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateFirst(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdminsExist) {
			return nil, adminExistsError()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}

	s.logger.Info("admin account created", zap.Int64("admin_id", admin.ID), zap.String("username", admin.Username))
	return admin, nil
}

func adminExistsError() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrAdminExists, "Admin account already exists. Please contact an existing admin.")
}

func (s *AuthService) issueToken(admin *models.Admin, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(s.config.SessionTTL)
	claims := &models.SessionClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(admin.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SessionSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func adminInfo(admin *models.Admin) models.AdminInfo {
	return models.AdminInfo{ID: admin.ID, Username: admin.Username, Email: admin.Email, Role: admin.Role}
}
