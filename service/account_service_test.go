package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"betpool/events"
	"betpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestAccountService(m *serviceMocks) *accountService {
	return &accountService{uowFactory: m.factory, config: m.cfg, now: func() time.Time { return fixedNow }}
}

func validSignup() CreateAccountRequest {
	return CreateAccountRequest{
		DisplayName: "  Ana Souza ",
		Email:       " Ana@Example.com",
		Credential:  "Str0ng!Pass",
		BirthDate:   time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	setupBasicTransactionMocks(m.uow)
	svc := newTestAccountService(m)

	m.repos.Accounts.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, nil)
	m.repos.Wallets.On("Create", mock.Anything).Return(&models.Wallet{ID: 10}, nil)
	m.repos.Accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Account) bool {
		return a.Email == "ana@example.com" && a.DisplayName == "Ana Souza" && a.WalletID == 10 &&
			bcrypt.CompareHashAndPassword([]byte(a.CredentialHash), []byte("Str0ng!Pass")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Account).ID = 7
	}).Return(nil)

	id, err := svc.CreateAccount(ctx, validSignup())

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	created := publishedOfType(m.uow, events.EventTypeAccountCreated)
	require.Len(t, created, 1)
	assert.Equal(t, events.AccountCreatedEvent{AccountID: 7, WalletID: 10, DisplayName: "Ana Souza"}, created[0])

	m.assertExpectations(t)
}

func TestAccountService_CreateAccount_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateAccountRequest)
		field  string
	}{
		{
			name:   "missing display name",
			mutate: func(r *CreateAccountRequest) { r.DisplayName = "   " },
			field:  "displayname",
		},
		{
			name:   "malformed email",
			mutate: func(r *CreateAccountRequest) { r.Email = "not-an-email" },
			field:  "email",
		},
		{
			name:   "weak credential",
			mutate: func(r *CreateAccountRequest) { r.Credential = "password" },
			field:  "credential",
		},
		{
			name:   "credential with disallowed character",
			mutate: func(r *CreateAccountRequest) { r.Credential = "Str0ng!Pass#" },
			field:  "credential",
		},
		{
			name:   "credential longer than bcrypt accepts",
			mutate: func(r *CreateAccountRequest) { r.Credential = "Str0ng!Pass" + strings.Repeat("a", 70) },
			field:  "credential",
		},
		{
			name:   "under minimum age",
			mutate: func(r *CreateAccountRequest) { r.BirthDate = time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC) },
			field:  "birthdate",
		},
		{
			name:   "turns eighteen tomorrow",
			mutate: func(r *CreateAccountRequest) { r.BirthDate = time.Date(2008, 3, 16, 0, 0, 0, 0, time.UTC) },
			field:  "birthdate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newServiceMocks()
			svc := newTestAccountService(m)

			req := validSignup()
			tt.mutate(&req)

			_, err := svc.CreateAccount(context.Background(), req)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			m.factory.AssertNotCalled(t, "Create")
		})
	}
}

func TestAccountService_CreateAccount_EighteenToday(t *testing.T) {
	m := newServiceMocks()
	setupBasicTransactionMocks(m.uow)
	svc := newTestAccountService(m)

	req := validSignup()
	req.BirthDate = time.Date(2008, 3, 15, 0, 0, 0, 0, time.UTC)

	m.repos.Accounts.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, nil)
	m.repos.Wallets.On("Create", mock.Anything).Return(&models.Wallet{ID: 3}, nil)
	m.repos.Accounts.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.CreateAccount(context.Background(), req)
	assert.NoError(t, err)
}

func TestAccountService_CreateAccount_DuplicateEmail(t *testing.T) {
	m := newServiceMocks()
	setupReadOnlyTransactionMocks(m.uow)
	svc := newTestAccountService(m)

	m.repos.Accounts.On("GetByEmail", mock.Anything, "ana@example.com").Return(testAccount(1, 1), nil)

	_, err := svc.CreateAccount(context.Background(), validSignup())

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "already registered")
	m.repos.Wallets.AssertNotCalled(t, "Create", mock.Anything)
	assert.Empty(t, m.uow.Published())
	m.assertExpectations(t)
}

func TestAccountService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ng!Pass"), bcrypt.MinCost)
	require.NoError(t, err)

	account := testAccount(5, 50)
	account.CredentialHash = string(hash)

	tests := []struct {
		name       string
		email      string
		credential string
		found      *models.Account
		wantID     int64
		wantErr    error
	}{
		{name: "match", email: "ANA@example.com ", credential: "Str0ng!Pass", found: account, wantID: 5},
		{name: "wrong credential", email: "ana@example.com", credential: "Wr0ng!Pass", found: account, wantErr: ErrAuthFailure},
		{name: "unknown email", email: "ana@example.com", credential: "Str0ng!Pass", found: nil, wantErr: ErrAuthFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newServiceMocks()
			setupReadOnlyTransactionMocks(m.uow)
			svc := newTestAccountService(m)

			m.repos.Accounts.On("GetByEmail", mock.Anything, "ana@example.com").Return(tt.found, nil)

			id, err := svc.Authenticate(context.Background(), tt.email, tt.credential)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			m.assertExpectations(t)
		})
	}
}

func TestAccountService_GetAccount_NotFound(t *testing.T) {
	m := newServiceMocks()
	setupReadOnlyTransactionMocks(m.uow)
	svc := newTestAccountService(m)

	m.repos.Accounts.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	_, err := svc.GetAccount(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
	m.assertExpectations(t)
}
