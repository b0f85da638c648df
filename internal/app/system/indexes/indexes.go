// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	applicationstore "github.com/dalemusser/memberhub/internal/app/store/applications"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	delegatestore "github.com/dalemusser/memberhub/internal/app/store/delegates"
	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ensurer creates the indexes of one collection. Implementations must be
// idempotent.
type Ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

// Collection names an Ensurer for error reporting.
type Collection struct {
	Name  string
	Store Ensurer
}

/*
EnsureAll is called at startup. counters and event_forms are keyed by _id
only and need nothing here.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	return Ensure(ctx, []Collection{
		{"identities", userstore.New(db)},
		{"user_roles", rolestore.New(db)},
		{"applications", applicationstore.New(db)},
		{"delegates", delegatestore.New(db)},
		{"audit_events", audit.New(db)},
	})
}

// Ensure runs every collection's EnsureIndexes. Errors are aggregated so
// any problem is visible and startup can fail fast.
func Ensure(ctx context.Context, colls []Collection) error {
	var problems []string
	for _, c := range colls {
		if err := c.Store.EnsureIndexes(ctx); err != nil {
			problems = append(problems, c.Name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
