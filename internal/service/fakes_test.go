package service

import (
	"context"
	"errors"
	"sync"

	"storefront/api/internal/apperr"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

// memoryAccounts mimics the Postgres store: whole-record reads and last-write-wins saves.
type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	saves    int
	saveErr  error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: map[string]models.Account{}}
}

func cloneAccount(a models.Account) models.Account {
	a.Tokens = append([]string{}, a.Tokens...)
	a.Cart = append([]models.CartLine{}, a.Cart...)
	a.PasswordHash = append([]byte{}, a.PasswordHash...)
	return a
}

func (m *memoryAccounts) Create(_ context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.AccountName == account.AccountName {
			return apperr.Conflict("account", "account already registered", nil)
		}
		if existing.Email == account.Email {
			return apperr.Conflict("email", "email already registered", nil)
		}
	}
	m.accounts[account.ID] = cloneAccount(*account)
	return nil
}

func (m *memoryAccounts) FindByAccountName(_ context.Context, name string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.AccountName == name {
			return cloneAccount(a), nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (m *memoryAccounts) FindByIDAndToken(_ context.Context, id string, token string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.TokenSlot(token) < 0 {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (m *memoryAccounts) Save(_ context.Context, account *models.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if err := account.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return repository.ErrAccountNotFound
	}
	m.saves++
	m.accounts[account.ID] = cloneAccount(*account)
	return nil
}

func (m *memoryAccounts) get(id string) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAccount(m.accounts[id])
}

func (m *memoryAccounts) addToken(id string, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[id]
	a.Tokens = append(a.Tokens, token)
	m.accounts[id] = a
}

type memoryProducts map[string]models.Product

func (p memoryProducts) FindProduct(_ context.Context, id string) (models.Product, error) {
	product, ok := p[id]
	if !ok {
		return models.Product{}, repository.ErrProductNotFound
	}
	return product, nil
}

var errStoreDown = errors.New("store unavailable")

var cheapArgon2 = security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
