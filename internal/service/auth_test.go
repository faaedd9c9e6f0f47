package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/auth"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, _ repository.DBTX, email string) (*domain.User, error) {
	return r.byEmail[email], nil
}

func (r *fakeUserRepo) LockForUpdate(ctx context.Context, db repository.DBTX, id uuid.UUID) (*domain.User, error) {
	return r.FindByID(ctx, db, id)
}

func (r *fakeUserRepo) Create(_ context.Context, _ repository.DBTX, u *domain.User) error {
	r.byEmail[u.Email] = u
	return nil
}

func (r *fakeUserRepo) ApplyWalletDelta(_ context.Context, _ repository.DBTX, _ uuid.UUID, _ domain.WalletDelta) (*domain.User, error) {
	return nil, nil
}

func newTestService() (*AuthService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	jwtMgr := auth.NewJWTManager("test-secret-key", 24*time.Hour, 8*time.Hour)
	return NewAuthService(nil, repo, jwtMgr), repo
}

func TestRegister(t *testing.T) {
	svc, repo := newTestService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "buyer@example.com",
		Password: "supersecret",
		Mobile:   "919876543210",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "buyer@example.com", result.Email)
	assert.Zero(t, result.Balance)

	stored := repo.byEmail["buyer@example.com"]
	require.NotNil(t, stored)
	assert.Equal(t, "9876543210", stored.Mobile)
	assert.Equal(t, domain.RoleUser, stored.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("supersecret")))
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "supersecret", Mobile: "9876543210"}},
		{"short password", RegisterInput{Email: "a@b.com", Password: "short", Mobile: "9876543210"}},
		{"bad mobile", RegisterInput{Email: "a@b.com", Password: "supersecret", Mobile: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			var ae *domain.AppError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	input := RegisterInput{Email: "dup@example.com", Password: "supersecret", Mobile: "9876543210"}

	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	var ae *domain.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

func TestLogin(t *testing.T) {
	svc, repo := newTestService()
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "buyer@example.com",
		Password: "supersecret",
		Mobile:   "9876543210",
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		result, err := svc.Login(context.Background(), LoginInput{Email: "buyer@example.com", Password: "supersecret"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Email: "buyer@example.com", Password: "wrong"})
		var ae *domain.AppError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "UNAUTHORIZED", ae.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "supersecret"})
		var ae *domain.AppError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "UNAUTHORIZED", ae.Code)
	})

	t.Run("blocked account", func(t *testing.T) {
		repo.byEmail["buyer@example.com"].Blocked = true
		_, err := svc.Login(context.Background(), LoginInput{Email: "buyer@example.com", Password: "supersecret"})
		var ae *domain.AppError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "ACCOUNT_BLOCKED", ae.Code)
	})
}

func TestLogin_AdminRealm(t *testing.T) {
	svc, repo := newTestService()
	jwtMgr := auth.NewJWTManager("test-secret-key", 24*time.Hour, 8*time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.byEmail["admin@example.com"] = &domain.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}

	result, err := svc.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "supersecret"})
	require.NoError(t, err)

	claims, err := jwtMgr.ValidateTokenForRealm(result.Token, auth.RealmAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RealmAdmin, claims.Realm)
}
