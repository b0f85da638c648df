// Package storeerr translates MongoDB driver errors into the errs kinds
// services and handlers understand.
package storeerr

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/memberhub/internal/domain/errs"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

// Map classifies err:
//   - mongo.ErrNoDocuments becomes errs.ErrNotFound
//   - duplicate key errors become errs.ErrConflict
//   - network errors and timeouts become errs.ErrTransient
//
// The original error stays in the chain. nil maps to nil.
func Map(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	case wafflemongo.IsDup(err), mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %w", op, errs.ErrConflict, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, errs.ErrTransient, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
