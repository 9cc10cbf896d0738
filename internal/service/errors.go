package service

import (
	"errors"
	"fmt"

	"github.com/rogerio-castellano/stationery-tracker/internal/apperr"
	"github.com/rogerio-castellano/stationery-tracker/internal/repo"
)

var notFoundErrs = []error{
	repo.ErrProductNotFound,
	repo.ErrSupplierNotFound,
	repo.ErrSaleNotFound,
	repo.ErrReceiptNotFound,
	repo.ErrOrderNotFound,
	repo.ErrInvoiceNotFound,
}

// translate turns a repository error into an apperr kind. Errors that already
// carry a kind pass through untouched.
func translate(err error, op string, args ...any) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	for _, nf := range notFoundErrs {
		if errors.Is(err, nf) {
			return &apperr.Error{Kind: apperr.ErrNotFound, Message: nf.Error(), Err: err}
		}
	}
	switch {
	case errors.Is(err, repo.ErrInvalidQuantityChange):
		return &apperr.Error{Kind: apperr.ErrValidation, Message: "insufficient stock", Err: err}
	case errors.Is(err, repo.ErrDuplicatedValueUnique):
		return &apperr.Error{Kind: apperr.ErrValidation, Message: "a record with the same name already exists", Err: err}
	}
	return apperr.Storage(err, "failed to %s", fmt.Sprintf(op, args...))
}
