package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acollet/vestiaire/internal/domain"
)

func TestLoanStoreBorrow(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	loans := NewLoanStore(d)
	stock := NewStockStore(d)
	ctx := context.Background()

	loan, err := loans.Borrow(ctx, volunteerID, itemID, 3, "alice", "op-1")
	require.NoError(t, err)
	assert.NotZero(t, loan.ID)
	assert.Equal(t, itemID, loan.StockItemID)
	assert.Equal(t, volunteerID, loan.VolunteerID)
	assert.Equal(t, int64(3), loan.Quantity)
	assert.Nil(t, loan.ReturnedAt)
	assert.False(t, loan.Since.IsZero())

	item, err := stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.Quantity)
}

func TestLoanStoreBorrow_InsufficientStock(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 2)
	loans := NewLoanStore(d)
	stock := NewStockStore(d)
	ctx := context.Background()

	_, err := loans.Borrow(ctx, volunteerID, itemID, 3, "alice", "op-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// No loan row and no quantity change.
	item, err := stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.Quantity)

	open, err := loans.ListOpen(ctx, domain.OpenLoanFilter{})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestLoanStoreBorrow_UnknownVolunteer(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 5)
	loans := NewLoanStore(d)

	_, err := loans.Borrow(context.Background(), 99999, itemID, 1, "alice", "op-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoanStoreBorrow_UnknownItem(t *testing.T) {
	d := openTestDB(t)
	_, _, volunteerID := seedCatalog(t, d)
	loans := NewLoanStore(d)

	_, err := loans.Borrow(context.Background(), volunteerID, 99999, 1, "alice", "op-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoanStoreReturn_RoundTrip(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	loans := NewLoanStore(d)
	stock := NewStockStore(d)
	ctx := context.Background()

	loan, err := loans.Borrow(ctx, volunteerID, itemID, 4, "alice", "op-1")
	require.NoError(t, err)

	returned, err := loans.Return(ctx, loan.ID, "alice", "op-2")
	require.NoError(t, err)
	assert.NotNil(t, returned.ReturnedAt)

	// Borrow then return restores the pre-borrow quantity.
	item, err := stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), item.Quantity)
}

func TestLoanStoreReturn_Twice(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	loans := NewLoanStore(d)
	stock := NewStockStore(d)
	ctx := context.Background()

	loan, err := loans.Borrow(ctx, volunteerID, itemID, 4, "alice", "op-1")
	require.NoError(t, err)

	_, err = loans.Return(ctx, loan.ID, "alice", "op-2")
	require.NoError(t, err)

	_, err = loans.Return(ctx, loan.ID, "alice", "op-3")
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)

	// The second return must not have released quantity again.
	item, err := stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), item.Quantity)
}

func TestLoanStoreReturn_UnknownLoan(t *testing.T) {
	d := openTestDB(t)
	seedCatalog(t, d)
	loans := NewLoanStore(d)

	_, err := loans.Return(context.Background(), 99999, "alice", "op-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Two volunteers contend for the last units: the second borrow is rejected
// and the first return makes the stock available again.
func TestLoanStoreBorrow_Contention(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 2)
	catalog := NewCatalogStore(d)
	loans := NewLoanStore(d)
	stock := NewStockStore(d)
	ctx := context.Background()

	other, err := catalog.CreateVolunteer(ctx, "Marc", "Petit", "")
	require.NoError(t, err)

	loan1, err := loans.Borrow(ctx, volunteerID, itemID, 2, "alice", "op-1")
	require.NoError(t, err)

	item, err := stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.Quantity)

	_, err = loans.Borrow(ctx, other.ID, itemID, 1, "alice", "op-2")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = loans.Return(ctx, loan1.ID, "alice", "op-3")
	require.NoError(t, err)

	item, err = stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.Quantity)
}

func TestLoanStoreListOpen(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	catalog := NewCatalogStore(d)
	loans := NewLoanStore(d)
	ctx := context.Background()

	otherAntenna, err := catalog.CreateAntenna(ctx, "Villeurbanne", "", nil)
	require.NoError(t, err)
	otherItem := seedStockItem(t, d, otherAntenna.ID, garmentTypeID, 5)

	loan1, err := loans.Borrow(ctx, volunteerID, itemID, 1, "alice", "op-1")
	require.NoError(t, err)
	_, err = loans.Borrow(ctx, volunteerID, otherItem, 1, "alice", "op-2")
	require.NoError(t, err)
	returned, err := loans.Borrow(ctx, volunteerID, itemID, 1, "alice", "op-3")
	require.NoError(t, err)
	_, err = loans.Return(ctx, returned.ID, "alice", "op-4")
	require.NoError(t, err)

	all, err := loans.ListOpen(ctx, domain.OpenLoanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byAntenna, err := loans.ListOpen(ctx, domain.OpenLoanFilter{AntennaID: &antennaID})
	require.NoError(t, err)
	require.Len(t, byAntenna, 1)
	assert.Equal(t, loan1.ID, byAntenna[0].ID)
	assert.Equal(t, "Durand Ana", byAntenna[0].VolunteerName)
	assert.Equal(t, "Parka", byAntenna[0].GarmentLabel)
	assert.Equal(t, "Lyon Centre", byAntenna[0].AntennaName)

	byVolunteer, err := loans.ListOpen(ctx, domain.OpenLoanFilter{VolunteerID: &volunteerID})
	require.NoError(t, err)
	assert.Len(t, byVolunteer, 2)
}

func TestLoanStoreCountOpen(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	loans := NewLoanStore(d)
	ctx := context.Background()

	_, err := loans.Borrow(ctx, volunteerID, itemID, 1, "alice", "op-1")
	require.NoError(t, err)
	loan, err := loans.Borrow(ctx, volunteerID, itemID, 1, "alice", "op-2")
	require.NoError(t, err)
	_, err = loans.Return(ctx, loan.ID, "alice", "op-3")
	require.NoError(t, err)

	n, err := loans.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
