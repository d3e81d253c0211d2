package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/repository"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
)

type mockAdminRepo struct {
	admins    map[string]*models.Admin
	findErr   error
	createErr error
	nextID    int64
}

func (m *mockAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	admin, ok := m.admins[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return admin, nil
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.admins == nil {
		m.admins = map[string]*models.Admin{}
	}
	if _, ok := m.admins[admin.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	m.nextID++
	admin.ID = m.nextID
	m.admins[admin.Username] = admin
	return nil
}

func (m *mockAdminRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	admin, ok := m.admins[username]
	if !ok {
		return sql.ErrNoRows
	}
	admin.PasswordHash = passwordHash
	return nil
}

func newAuthRepoWith(t *testing.T, username, password string) *mockAdminRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockAdminRepo{admins: map[string]*models.Admin{
		username: {ID: 7, Username: username, PasswordHash: string(hash)},
	}}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newAuthRepoWith(t, "admin", "s3creta")
	svc := NewAuthService(repo, nil, nil, zap.NewNop())

	principal, err := svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "s3creta"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), principal.AdminID)
	assert.Equal(t, "admin", principal.Username)
}

func TestAuthServiceLoginFailuresShareOneError(t *testing.T) {
	repo := newAuthRepoWith(t, "admin", "s3creta")
	svc := NewAuthService(repo, nil, nil, zap.NewNop())

	_, wrongPassword := svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "nope"})
	_, unknownUser := svc.Login(context.Background(), dto.LoginRequest{Username: "ghost", Password: "s3creta"})
	_, empty := svc.Login(context.Background(), dto.LoginRequest{})

	for _, err := range []error{wrongPassword, unknownUser, empty} {
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
		assert.Equal(t, MsgInvalidCredentials, appErrors.FromError(err).Message)
	}
}

func TestAuthServiceLoginRepositoryFailure(t *testing.T) {
	repo := &mockAdminRepo{findErr: errors.New("db down")}
	svc := NewAuthService(repo, nil, nil, zap.NewNop())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestAuthServiceCreateAdmin(t *testing.T) {
	repo := &mockAdminRepo{}
	svc := NewAuthService(repo, nil, nil, zap.NewNop())
	svc.cost = bcrypt.MinCost

	admin, err := svc.CreateAdmin(context.Background(), dto.LoginRequest{Username: "director", Password: "clave"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admin.ID)
	assert.NotEqual(t, "clave", admin.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("clave")))

	_, err = svc.CreateAdmin(context.Background(), dto.LoginRequest{Username: "director", Password: "otra"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	reset, err := svc.CreateAdmin(context.Background(), dto.LoginRequest{Username: "director", Password: "otra"}, true)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(reset.PasswordHash), []byte("otra")))

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "director", Password: "otra"})
	require.NoError(t, err)
}

func TestAuthServiceCreateAdminValidation(t *testing.T) {
	svc := NewAuthService(&mockAdminRepo{}, nil, nil, zap.NewNop())

	_, err := svc.CreateAdmin(context.Background(), dto.LoginRequest{Username: "director"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
