package fulfillment

import (
	"errors"
	"testing"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr), "expected a domain error, got %T", err)
	assert.Equal(t, code, derr.Code)
}
