package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"storefront/api/internal/apperr"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// CartLine is one product/quantity pair. Lines with a non-positive quantity are removed
// by the cart engine rather than stored.
type CartLine struct {
	ProductID string `validate:"required"`
	Quantity  int
}

// Account is the authoritative per-user record: credentials, the active token slots and
// the cart. Tokens is ordered; a slot is addressed by its index.
type Account struct {
	ID           string
	AccountName  string `validate:"required,min=4,max=20,alphanum"`
	Email        string `validate:"required,email"`
	PasswordHash []byte `validate:"required"`
	Role         Role   `validate:"oneof=user admin"`
	Tokens       []string
	Cart         []CartLine `validate:"dive"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CartQuantity is the aggregate item count shown on the cart badge.
func (a *Account) CartQuantity() int {
	total := 0
	for _, line := range a.Cart {
		total += line.Quantity
	}
	return total
}

// TokenSlot returns the index of the first slot holding token, or -1.
func (a *Account) TokenSlot(token string) int {
	for i, t := range a.Tokens {
		if t == token {
			return i
		}
	}
	return -1
}

// CartLineIndex returns the index of the line for productID, or -1.
func (a *Account) CartLineIndex(productID string) int {
	for i, line := range a.Cart {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var fieldNames = map[string]string{
	"AccountName":  "account",
	"Email":        "email",
	"PasswordHash": "password",
	"Role":         "role",
	"ProductID":    "product",
	"Quantity":     "quantity",
}

var fieldMessages = map[string]map[string]string{
	"account": {
		"required": "account name is required",
		"min":      "account name must be 4 to 20 characters",
		"max":      "account name must be 4 to 20 characters",
		"alphanum": "account name must be alphanumeric",
	},
	"email": {
		"required": "email is required",
		"email":    "email format is invalid",
	},
	"password": {
		"required": "password is required",
	},
	"role": {
		"oneof": "role is invalid",
	},
	"product": {
		"required": "cart line is missing its product",
	},
}

// Validate checks field constraints and cart product uniqueness. It returns an
// apperr Validation error naming the first violated field.
func (a *Account) Validate() error {
	if err := firstFieldError(validate.Struct(a)); err != nil {
		return err
	}
	return a.validateCart()
}

// ValidateIdentity checks the account name and email alone, before a password hash exists.
func (a *Account) ValidateIdentity() error {
	return firstFieldError(validate.StructPartial(a, "AccountName", "Email"))
}

func firstFieldError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(apperr.KindUnknown, "validate account", err)
	}
	fe := fieldErrs[0]
	field := fieldNames[fe.StructField()]
	if field == "" {
		field = fe.Field()
	}
	msg := fieldMessages[field][fe.Tag()]
	if msg == "" {
		msg = field + " is invalid"
	}
	return apperr.Validation(field, msg)
}

func (a *Account) validateCart() error {
	seen := make(map[string]struct{}, len(a.Cart))
	for _, line := range a.Cart {
		if _, ok := seen[line.ProductID]; ok {
			return apperr.Validation("cart", "product appears more than once in cart")
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}
