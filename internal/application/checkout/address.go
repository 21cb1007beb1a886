package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/apperr"
)

func validateAddressInput(role string, in AddressInput) error {
	switch {
	case in.empty():
		return apperr.Validation("%s address is required", role)
	case in.ID != "" && in.Inline != nil:
		return apperr.Validation("%s address must be an id or an inline address, not both", role)
	case in.Inline != nil:
		if err := in.Inline.Validate(); err != nil {
			return apperr.Wrap(apperr.CodeValidation, fmt.Sprintf("%s address is invalid", role), err)
		}
	}
	return nil
}

// resolveAddress returns the id of an existing address owned by customerID,
// or stores the inline address as a new row for that customer.
func resolveAddress(ctx context.Context, repo customer.AddressRepository, ids IDGenerator, customerID, role string, in AddressInput) (string, error) {
	if in.ID != "" {
		a, err := repo.Get(ctx, in.ID)
		if err != nil {
			if errors.Is(err, customer.ErrAddressNotFound) {
				return "", apperr.NotFound(role+" address", err)
			}
			return "", fmt.Errorf("checkout: load %s address: %w", role, err)
		}
		if a.CustomerID != customerID {
			return "", apperr.NotFound(role+" address", customer.ErrAddressNotFound)
		}
		return a.ID, nil
	}

	a, err := customer.NewAddress(ids.NewID(), customerID, *in.Inline)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeValidation, fmt.Sprintf("%s address is invalid", role), err)
	}
	if err := repo.Insert(ctx, a); err != nil {
		return "", fmt.Errorf("checkout: insert %s address: %w", role, err)
	}
	return a.ID, nil
}
