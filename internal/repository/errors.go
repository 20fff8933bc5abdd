package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"inkwell/internal/model"
)

// Postgres error codes the repositories translate into domain errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

// missingReference translates a foreign key violation into the not-found
// error of the row it points at: user_id / author_id constraints become
// ErrUserNotFound, any other becomes fallback. It returns nil for every
// other error.
func missingReference(err error, fallback error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pqForeignKeyViolation {
		return nil
	}
	if strings.HasSuffix(pqErr.Constraint, "_user_id_fkey") || strings.HasSuffix(pqErr.Constraint, "_author_id_fkey") {
		return model.ErrUserNotFound
	}
	return fallback
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term anywhere, with the
// wildcard characters of term itself escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
