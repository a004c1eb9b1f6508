package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gbd-solar/solartech-api/policy"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", notFound("intervention"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrPermissionDenied))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "intervention not found", err.(interface{ Unwrap() error }).Unwrap().Error())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestDeniedTranslatesPolicyErrors(t *testing.T) {
	err := denied(fmt.Errorf("%w: intervention 4 belongs to another company", policy.ErrDenied))
	assert.Equal(t, KindPermissionDenied, err.Kind)
	assert.Equal(t, "FORBIDDEN", err.Code)
	assert.Equal(t, "intervention 4 belongs to another company", err.Message)
	assert.Equal(t, "permission denied: intervention 4 belongs to another company", err.Error())

	err = denied(errors.New(`role "ADMIN" is not valid`))
	assert.Equal(t, KindInvalidInput, err.Kind)
}

func TestErrorTextIncludesCause(t *testing.T) {
	err := internal("failed to load user", errors.New("connection reset"))
	assert.Equal(t, "failed to load user: connection reset", err.Error())
}

func TestLookupError(t *testing.T) {
	assert.Equal(t, KindNotFound, lookupError("user", gorm.ErrRecordNotFound).Kind)
	assert.Equal(t, KindInternal, lookupError("user", errors.New("connection reset")).Kind)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: users.username")))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}
