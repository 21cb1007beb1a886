package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// UUIDGenerator issues random v4 identifiers.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewOrderCode returns a short customer-facing code such as "ORD-7K3QH2MZ".
// It is random rather than sequential; uniqueness is enforced by storage.
func (UUIDGenerator) NewOrderCode() string {
	u := uuid.New()
	return "ORD-" + strings.ToUpper(codeEncoding.EncodeToString(u[:5]))
}

// NewReference returns a payment reference for the provider.
func (UUIDGenerator) NewReference() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
