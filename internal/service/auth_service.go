package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/repository"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

// MsgInvalidCredentials is the only message shown for a failed login.
const MsgInvalidCredentials = "Credenciales incorrectas"

type adminStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

// AuthService authenticates reviewers and provisions their accounts.
type AuthService struct {
	repo      adminStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
	// dummyHash is compared against when the username is unknown so both
	// rejection paths cost one bcrypt comparison.
	dummyHash []byte
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo adminStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("unknown-admin"), bcrypt.DefaultCost)
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", zap.Error(err))
	}
	return &AuthService{repo: repo, metrics: metrics, validator: validate, logger: logger, cost: bcrypt.DefaultCost, dummyHash: dummy}
}

// Login verifies the credentials and returns the principal to store in the
// session. Unknown users and wrong passwords yield the same error.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*session.Principal, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordLogin(false)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, MsgInvalidCredentials)
	}

	admin, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			s.metrics.RecordLogin(false)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, MsgInvalidCredentials)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLogin(false)
		s.logger.Info("admin login rejected", zap.String("usuario", req.Username))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, MsgInvalidCredentials)
	}

	s.metrics.RecordLogin(true)
	s.logger.Info("admin logged in", zap.Int64("admin_id", admin.ID))
	return &session.Principal{AdminID: admin.ID, Username: admin.Username}, nil
}

// CreateAdmin hashes the password and stores a new account. When reset is
// true an existing account has its password replaced instead.
func (s *AuthService) CreateAdmin(ctx context.Context, req dto.LoginRequest, reset bool) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "usuario y contraseña son obligatorios")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Admin{Username: req.Username, PasswordHash: string(hash)}
	err = s.repo.Create(ctx, admin)
	switch {
	case err == nil:
		return admin, nil
	case errors.Is(err, repository.ErrDuplicateUsername) && reset:
		if err := s.repo.UpdatePassword(ctx, req.Username, admin.PasswordHash); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset password")
		}
		return s.repo.FindByUsername(ctx, req.Username)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return nil, appErrors.Clone(appErrors.ErrConflict, "el usuario ya existe")
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
}
