package inventory

import (
	"errors"
	"regexp"
	"testing"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBatch(t *testing.T, total int) *StockBatch {
	t.Helper()
	addedBy := uuid.New()
	batch, err := NewStockBatch(uuid.New(), uuid.New(), &addedBy, "", total)
	require.NoError(t, err)
	return batch
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr), "expected a domain error, got %T", err)
	assert.Equal(t, code, derr.Code)
}

func TestNewStockBatch(t *testing.T) {
	batch := createTestBatch(t, 10)

	assert.Equal(t, 10, batch.BoxesTotal)
	assert.Equal(t, 10, batch.BoxesAvailable)
	assert.Equal(t, 0, batch.BoxesReserved)
	assert.Equal(t, 0, batch.BoxesDispatched)
	assert.True(t, batch.IsActive)
	assert.Regexp(t, regexp.MustCompile(`^BAT-[0-9A-F]{8}$`), batch.BatchRef)
	assert.NoError(t, batch.CheckInvariant())

	events := batch.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeStockAdded, events[0].EventType())
}

func TestNewStockBatch_KeepsExplicitRef(t *testing.T) {
	batch, err := NewStockBatch(uuid.New(), uuid.New(), nil, "LOT-77", 3)
	require.NoError(t, err)
	assert.Equal(t, "LOT-77", batch.BatchRef)
}

func TestNewStockBatch_Validation(t *testing.T) {
	_, err := NewStockBatch(uuid.New(), uuid.Nil, nil, "", 5)
	assert.Error(t, err)

	_, err = NewStockBatch(uuid.New(), uuid.New(), nil, "", 0)
	assert.Error(t, err)

	_, err = NewStockBatch(uuid.New(), uuid.New(), nil, "", -2)
	assert.Error(t, err)
}

func TestStockBatch_Reserve(t *testing.T) {
	batch := createTestBatch(t, 10)

	require.NoError(t, batch.Reserve(6))
	assert.Equal(t, 4, batch.BoxesAvailable)
	assert.Equal(t, 6, batch.BoxesReserved)
	assert.Equal(t, 10, batch.BoxesTotal)
	assert.NoError(t, batch.CheckInvariant())
}

func TestStockBatch_Reserve_Insufficient(t *testing.T) {
	batch := createTestBatch(t, 3)

	assertDomainCode(t, batch.Reserve(4), "INSUFFICIENT_STOCK")
	// counters untouched on failure
	assert.Equal(t, 3, batch.BoxesAvailable)
	assert.Equal(t, 0, batch.BoxesReserved)
}

func TestStockBatch_Reserve_NonPositive(t *testing.T) {
	batch := createTestBatch(t, 3)
	assert.Error(t, batch.Reserve(0))
	assert.Error(t, batch.Reserve(-1))
}

func TestStockBatch_DispatchDeliverFlow(t *testing.T) {
	batch := createTestBatch(t, 10)
	require.NoError(t, batch.Reserve(6))

	require.NoError(t, batch.Dispatch(6))
	assert.Equal(t, 0, batch.BoxesReserved)
	assert.Equal(t, 6, batch.BoxesDispatched)
	assert.Equal(t, 10, batch.BoxesTotal)
	assert.NoError(t, batch.CheckInvariant())

	require.NoError(t, batch.Deliver(6))
	assert.Equal(t, 0, batch.BoxesDispatched)
	assert.Equal(t, 4, batch.BoxesTotal)
	assert.Equal(t, 4, batch.BoxesAvailable)
	assert.NoError(t, batch.CheckInvariant())
}

func TestStockBatch_Dispatch_MoreThanReserved(t *testing.T) {
	batch := createTestBatch(t, 10)
	require.NoError(t, batch.Reserve(2))
	assert.Error(t, batch.Dispatch(3))
}

func TestStockBatch_Deliver_MoreThanDispatched(t *testing.T) {
	batch := createTestBatch(t, 10)
	require.NoError(t, batch.Reserve(2))
	require.NoError(t, batch.Dispatch(2))
	assert.Error(t, batch.Deliver(3))
}

func TestStockBatch_InUse(t *testing.T) {
	batch := createTestBatch(t, 10)
	assert.False(t, batch.InUse())

	require.NoError(t, batch.Reserve(1))
	assert.True(t, batch.InUse())

	require.NoError(t, batch.Dispatch(1))
	assert.True(t, batch.InUse())

	require.NoError(t, batch.Deliver(1))
	assert.False(t, batch.InUse())
}

func TestStockBatch_DeactivateActivate(t *testing.T) {
	batch := createTestBatch(t, 10)
	batch.ClearDomainEvents()

	batch.Deactivate()
	assert.False(t, batch.IsActive)
	assert.False(t, batch.CanAllocate())
	require.Len(t, batch.GetDomainEvents(), 1)

	// idempotent
	batch.Deactivate()
	require.Len(t, batch.GetDomainEvents(), 1)

	batch.Activate()
	assert.True(t, batch.IsActive)
	assert.True(t, batch.CanAllocate())
}

func TestStockBatch_CheckInvariant_Violated(t *testing.T) {
	batch := createTestBatch(t, 5)
	batch.BoxesReserved = 3 // counters now sum past total
	assert.Error(t, batch.CheckInvariant())

	batch = createTestBatch(t, 5)
	batch.BoxesAvailable = -1
	assert.Error(t, batch.CheckInvariant())
}
