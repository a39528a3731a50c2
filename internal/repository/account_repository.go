package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storefront/api/internal/apperr"
	"storefront/api/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountRepository is the Postgres session store: one row per account holding the
// password hash, the ordered token slots and the cart lines.
type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, account_name, email, password_hash, role, tokens, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if account.Tokens == nil {
		account.Tokens = []string{}
	}

	const query = `
		INSERT INTO accounts (
			id, account_name, email, password_hash, role, tokens, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		account.ID,
		account.AccountName,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Tokens,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *AccountRepository) FindByAccountName(ctx context.Context, name string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_name = $1`
	return r.findOne(ctx, query, name)
}

// FindByIDAndToken succeeds only while token is an exact member of the account's slots.
func (r *AccountRepository) FindByIDAndToken(ctx context.Context, id string, token string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND $2 = ANY(tokens)`
	return r.findOne(ctx, query, id, token)
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, args ...any) (models.Account, error) {
	var account models.Account
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&account.ID,
		&account.AccountName,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Tokens,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, fmt.Errorf("query account: %w", err)
	}

	cart, err := r.loadCart(ctx, account.ID)
	if err != nil {
		return models.Account{}, err
	}
	account.Cart = cart
	return account, nil
}

func (r *AccountRepository) loadCart(ctx context.Context, accountID string) ([]models.CartLine, error) {
	const query = `
		SELECT product_id, quantity
		FROM account_cart_lines
		WHERE account_id = $1
		ORDER BY position
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	cart := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart = append(cart, line)
	}
	return cart, rows.Err()
}

// Save writes the whole record back: account fields, token slots in order and the cart.
// Concurrent saves of the same account are last-write-wins.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if account.Tokens == nil {
		account.Tokens = []string{}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	if err := r.save(ctx, tx, account); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *AccountRepository) save(ctx context.Context, tx pgx.Tx, account *models.Account) error {
	const update = `
		UPDATE accounts
		SET account_name = $2,
		    email = $3,
		    password_hash = $4,
		    role = $5,
		    tokens = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, update,
		account.ID,
		account.AccountName,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Tokens,
	).Scan(&account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return mapWriteError(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM account_cart_lines WHERE account_id = $1`, account.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	const insert = `
		INSERT INTO account_cart_lines (account_id, position, product_id, quantity)
		VALUES ($1, $2, $3, $4)
	`
	for i, line := range account.Cart {
		if _, err := tx.Exec(ctx, insert, account.ID, i, line.ProductID, line.Quantity); err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

// TokenHolder is the slice of an account the session sweeper needs.
type TokenHolder struct {
	ID     string
	Tokens []string
}

// ListTokenHolders pages through accounts with at least one token, ordered by id.
func (r *AccountRepository) ListTokenHolders(ctx context.Context, afterID string, limit int) ([]TokenHolder, error) {
	const query = `
		SELECT id, tokens
		FROM accounts
		WHERE id > $1 AND cardinality(tokens) > 0
		ORDER BY id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query token holders: %w", err)
	}
	defer rows.Close()

	var holders []TokenHolder
	for rows.Next() {
		var h TokenHolder
		if err := rows.Scan(&h.ID, &h.Tokens); err != nil {
			return nil, fmt.Errorf("scan token holder: %w", err)
		}
		holders = append(holders, h)
	}
	return holders, rows.Err()
}

// RemoveTokens drops the given tokens from an account in one statement, keeping the
// order of the remaining slots.
func (r *AccountRepository) RemoveTokens(ctx context.Context, id string, tokens []string) (int64, error) {
	const query = `
		UPDATE accounts
		SET tokens = ARRAY(
		        SELECT t FROM unnest(tokens) WITH ORDINALITY AS u(t, n)
		        WHERE NOT (t = ANY($2))
		        ORDER BY n
		    ),
		    updated_at = NOW()
		WHERE id = $1 AND tokens && $2
	`
	cmd, err := r.db.Exec(ctx, query, id, tokens)
	if err != nil {
		return 0, fmt.Errorf("remove tokens: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func mapWriteError(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return fmt.Errorf("write account: %w", err)
	}
	switch constraint {
	case "accounts_account_name_key":
		return apperr.Conflict("account", "account already registered", err)
	case "accounts_email_key":
		return apperr.Conflict("email", "email already registered", err)
	case "account_cart_lines_product_key":
		return apperr.Validation("cart", "product appears more than once in cart")
	default:
		return apperr.Conflict("", "duplicate record", err)
	}
}
