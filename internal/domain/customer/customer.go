package customer

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("customer: not found")
	ErrAddressNotFound = errors.New("customer: address not found")
	ErrInvalidAddress  = errors.New("customer: invalid address")
	ErrInvalidEmail    = errors.New("customer: invalid email")
)

type Customer struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

func New(id, email string) (*Customer, error) {
	email = NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	return &Customer{ID: id, Email: email, CreatedAt: time.Now().UTC()}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddressFields is the inline form of an address.
type AddressFields struct {
	FullName   string
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
	Phone      string
}

func (f AddressFields) Validate() error {
	switch {
	case strings.TrimSpace(f.FullName) == "":
		return errors.Join(ErrInvalidAddress, errors.New("full name is required"))
	case strings.TrimSpace(f.Line1) == "":
		return errors.Join(ErrInvalidAddress, errors.New("line1 is required"))
	case strings.TrimSpace(f.City) == "":
		return errors.Join(ErrInvalidAddress, errors.New("city is required"))
	case strings.TrimSpace(f.Country) == "":
		return errors.Join(ErrInvalidAddress, errors.New("country is required"))
	}
	return nil
}

// Address rows are never updated once written, so an order referencing one
// keeps the address as it was at checkout.
type Address struct {
	ID         string
	CustomerID string
	AddressFields
	CreatedAt time.Time
}

func NewAddress(id, customerID string, f AddressFields) (*Address, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Address{ID: id, CustomerID: customerID, AddressFields: f, CreatedAt: time.Now().UTC()}, nil
}

type Repository interface {
	Get(ctx context.Context, id string) (*Customer, error)
	// EnsureByEmail stores c unless a customer with the same email exists,
	// and returns the stored customer either way.
	EnsureByEmail(ctx context.Context, c *Customer) (*Customer, error)
}

type AddressRepository interface {
	Insert(ctx context.Context, a *Address) error
	Get(ctx context.Context, id string) (*Address, error)
}
