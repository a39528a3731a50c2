package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"storefront/api/internal/apperr"
	"storefront/api/internal/ids"
	"storefront/api/internal/metrics"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

// ErrTokenSlotMissing means an operation was handed a token that is not in the account's
// slots. The auth middleware guarantees membership, so this is a programming error.
var ErrTokenSlotMissing = errors.New("presented token has no slot in account")

const (
	minPasswordLength = 4
	maxPasswordLength = 20
)

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByAccountName(ctx context.Context, name string) (models.Account, error)
	FindByIDAndToken(ctx context.Context, id string, token string) (models.Account, error)
	Save(ctx context.Context, account *models.Account) error
}

type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Compare(password string, encodedHash []byte) (bool, error)
}

type TokenCodec interface {
	Issue(accountID string) (string, error)
	Decode(token string) (security.Credential, error)
}

// AuthOptions configures the grace window: GracePaths are the only request paths on
// which an expired token is still accepted, and only while it expired no longer than
// GraceWindow ago. A GraceWindow <= 0 puts no bound on the age.
type AuthOptions struct {
	GracePaths  []string
	GraceWindow time.Duration
}

type AuthService struct {
	accounts    AccountStore
	hasher      PasswordHasher
	tokens      TokenCodec
	gracePaths  map[string]struct{}
	graceWindow time.Duration
	metrics     *metrics.Metrics
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(
	accounts AccountStore,
	hasher PasswordHasher,
	tokens TokenCodec,
	opts AuthOptions,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AuthService {
	paths := make(map[string]struct{}, len(opts.GracePaths))
	for _, p := range opts.GracePaths {
		paths[p] = struct{}{}
	}

	return &AuthService{
		accounts:    accounts,
		hasher:      hasher,
		tokens:      tokens,
		gracePaths:  paths,
		graceWindow: opts.GraceWindow,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// Session is the outcome of a successful authentication: the account record and the exact
// token string that proved it.
type Session struct {
	Account models.Account
	Token   string
}

type RegisterInput struct {
	AccountName string
	Email       string
	Password    string
}

// Register reports the first invalid field in the order account name, email, password.
// Password length counts characters, not bytes.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.Account, error) {
	account := models.Account{
		ID:          ids.New(),
		AccountName: input.AccountName,
		Email:       input.Email,
		Role:        models.RoleUser,
		Tokens:      []string{},
		Cart:        []models.CartLine{},
	}
	if err := account.ValidateIdentity(); err != nil {
		return models.Account{}, err
	}

	switch n := utf8.RuneCountInString(input.Password); {
	case n == 0:
		return models.Account{}, apperr.Validation("password", "password is required")
	case n < minPasswordLength || n > maxPasswordLength:
		return models.Account{}, apperr.Validation("password", "password must be 4 to 20 characters")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = hash
	if err := s.accounts.Create(ctx, &account); err != nil {
		return models.Account{}, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("account registered")
	return account, nil
}

// Login checks the password and appends a freshly issued token as a new slot.
func (s *AuthService) Login(ctx context.Context, accountName string, password string) (Session, error) {
	account, err := s.accounts.FindByAccountName(ctx, accountName)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return Session{}, s.reject(apperr.New(apperr.KindAccountNotFound, "account does not exist"))
		}
		return Session{}, fmt.Errorf("find account: %w", err)
	}

	ok, err := s.hasher.Compare(password, account.PasswordHash)
	if err != nil {
		return Session{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return Session{}, s.reject(apperr.New(apperr.KindBadPassword, "wrong password"))
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	account.Tokens = append(account.Tokens, token)
	if err := s.accounts.Save(ctx, &account); err != nil {
		return Session{}, err
	}

	s.metrics.Login()
	return Session{Account: account, Token: token}, nil
}

// AuthenticateByToken decodes the token, applies the expiry and grace-window policy for
// requestPath, then requires the token to still occupy a slot of its account.
func (s *AuthService) AuthenticateByToken(ctx context.Context, requestPath string, token string) (Session, error) {
	cred, err := s.tokens.Decode(token)
	if err != nil {
		return Session{}, s.reject(apperr.Wrap(apperr.KindInvalidToken, "invalid token", err))
	}

	now := s.now()
	if cred.Expired(now) && !s.withinGrace(requestPath, now.Sub(cred.ExpiresAt)) {
		return Session{}, s.reject(apperr.New(apperr.KindExpired, "token expired"))
	}

	account, err := s.accounts.FindByIDAndToken(ctx, cred.AccountID, token)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return Session{}, s.reject(apperr.New(apperr.KindInvalidToken, "invalid token"))
		}
		return Session{}, fmt.Errorf("find account by token: %w", err)
	}

	return Session{Account: account, Token: token}, nil
}

func (s *AuthService) withinGrace(requestPath string, overdue time.Duration) bool {
	if _, ok := s.gracePaths[requestPath]; !ok {
		return false
	}
	return s.graceWindow <= 0 || overdue <= s.graceWindow
}

// Rotate replaces the presented token with a new one in the same slot. Other slots are
// left untouched.
func (s *AuthService) Rotate(ctx context.Context, account *models.Account, presented string) (string, error) {
	slot := account.TokenSlot(presented)
	if slot < 0 {
		return "", fmt.Errorf("rotate account %s: %w", account.ID, ErrTokenSlotMissing)
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	previous := account.Tokens[slot]
	account.Tokens[slot] = token
	if err := s.accounts.Save(ctx, account); err != nil {
		account.Tokens[slot] = previous
		return "", err
	}

	s.metrics.Rotated()
	return token, nil
}

// Logout removes the slot holding the presented token.
func (s *AuthService) Logout(ctx context.Context, account *models.Account, presented string) error {
	slot := account.TokenSlot(presented)
	if slot < 0 {
		return fmt.Errorf("logout account %s: %w", account.ID, ErrTokenSlotMissing)
	}

	previous := account.Tokens
	tokens := make([]string, 0, len(previous)-1)
	tokens = append(tokens, previous[:slot]...)
	tokens = append(tokens, previous[slot+1:]...)

	account.Tokens = tokens
	if err := s.accounts.Save(ctx, account); err != nil {
		account.Tokens = previous
		return err
	}

	s.metrics.LoggedOut()
	return nil
}

type Profile struct {
	AccountName   string
	Email         string
	Role          models.Role
	CartItemCount int
}

func (s *AuthService) Profile(account *models.Account) Profile {
	return Profile{
		AccountName:   account.AccountName,
		Email:         account.Email,
		Role:          account.Role,
		CartItemCount: account.CartQuantity(),
	}
}

func (s *AuthService) reject(err *apperr.Error) error {
	s.metrics.Rejected(err.Kind.String())
	return err
}
