package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acollet/vestiaire/internal/db"
	"github.com/acollet/vestiaire/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// seedCatalog creates one antenna, one garment type and one volunteer.
func seedCatalog(t *testing.T, d *sql.DB) (antennaID, garmentTypeID, volunteerID int64) {
	t.Helper()
	ctx := context.Background()
	catalog := NewCatalogStore(d)

	antenna, err := catalog.CreateAntenna(ctx, "Lyon Centre", "12 rue de la République", nil)
	require.NoError(t, err)
	garment, err := catalog.CreateGarmentType(ctx, "Parka", true)
	require.NoError(t, err)
	volunteer, err := catalog.CreateVolunteer(ctx, "Ana", "Durand", "")
	require.NoError(t, err)

	return antenna.ID, garment.ID, volunteer.ID
}

func seedStockItem(t *testing.T, d *sql.DB, antennaID, garmentTypeID, qty int64) int64 {
	t.Helper()
	size := "M"
	item, err := NewStockStore(d).CreateOrAdd(context.Background(), antennaID, garmentTypeID, &size, qty, nil, "seed", "op-seed")
	require.NoError(t, err)
	return item.ID
}

func TestStockStoreCreateOrAdd(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	stock := NewStockStore(d)
	ctx := context.Background()

	size := "L"
	item, err := stock.CreateOrAdd(ctx, antennaID, garmentTypeID, &size, 10, []string{"winter"}, "alice", "op-1")
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, int64(10), item.Quantity)
	assert.Equal(t, []string{"winter"}, item.Tags)

	// Same variant again adds to the existing row instead of creating one.
	again, err := stock.CreateOrAdd(ctx, antennaID, garmentTypeID, &size, 5, nil, "alice", "op-2")
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, int64(15), again.Quantity)
}

func TestStockStoreCreateOrAdd_SizelessVariant(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	stock := NewStockStore(d)
	ctx := context.Background()

	first, err := stock.CreateOrAdd(ctx, antennaID, garmentTypeID, nil, 3, nil, "alice", "op-1")
	require.NoError(t, err)
	second, err := stock.CreateOrAdd(ctx, antennaID, garmentTypeID, nil, 2, nil, "alice", "op-2")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(5), second.Quantity)
}

func TestStockStoreReserve(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	stock := NewStockStore(d)
	ctx := context.Background()

	qty, err := stock.Reserve(ctx, itemID, 4, "alice", "op-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), qty)
}

func TestStockStoreReserve_InsufficientStock(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 3)
	stock := NewStockStore(d)
	ctx := context.Background()

	_, err := stock.Reserve(ctx, itemID, 4, "alice", "op-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// The failed reservation must not have touched the row.
	item, err := stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), item.Quantity)
}

func TestStockStoreReserve_UnknownItem(t *testing.T) {
	d := openTestDB(t)
	stock := NewStockStore(d)

	_, err := stock.Reserve(context.Background(), 99999, 1, "alice", "op-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockStoreRelease(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 2)
	stock := NewStockStore(d)
	ctx := context.Background()

	qty, err := stock.Release(ctx, itemID, 3, "alice", "op-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)
}

func TestStockStoreSetAbsolute(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	stock := NewStockStore(d)
	ctx := context.Background()

	qty, err := stock.SetAbsolute(ctx, itemID, 7, "alice", "op-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), qty)

	moves, err := stock.Movements(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, moves, 2) // seed addition + correction

	correction := moves[1]
	assert.Nil(t, correction.Delta)
	assert.Equal(t, int64(10), correction.PreviousQty)
	assert.Equal(t, int64(7), correction.NewQty)
	assert.Equal(t, domain.MovementInventoryClose, correction.Operation)
	assert.Equal(t, "op-1", correction.OperationID)
	assert.Equal(t, "alice", correction.Actor)
}

func TestStockStoreMovements_JournalPerMutation(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 10)
	stock := NewStockStore(d)
	ctx := context.Background()

	_, err := stock.Reserve(ctx, itemID, 2, "alice", "op-borrow")
	require.NoError(t, err)
	_, err = stock.Release(ctx, itemID, 2, "bob", "op-return")
	require.NoError(t, err)

	moves, err := stock.Movements(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, moves, 3)

	assert.Equal(t, domain.MovementAddStock, moves[0].Operation)
	assert.Equal(t, domain.MovementBorrow, moves[1].Operation)
	require.NotNil(t, moves[1].Delta)
	assert.Equal(t, int64(-2), *moves[1].Delta)
	assert.Equal(t, int64(10), moves[1].PreviousQty)
	assert.Equal(t, int64(8), moves[1].NewQty)
	assert.Equal(t, domain.MovementReturn, moves[2].Operation)
	assert.Equal(t, int64(10), moves[2].NewQty)
}

func TestStockStoreMovements_FailedMutationNotJournaled(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 1)
	stock := NewStockStore(d)
	ctx := context.Background()

	_, err := stock.Reserve(ctx, itemID, 5, "alice", "op-fail")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	moves, err := stock.Movements(ctx, itemID)
	require.NoError(t, err)
	assert.Len(t, moves, 1) // only the seed addition
}

func TestStockStoreList(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	seedStockItem(t, d, antennaID, garmentTypeID, 10)

	catalog := NewCatalogStore(d)
	other, err := catalog.CreateAntenna(context.Background(), "Villeurbanne", "", nil)
	require.NoError(t, err)

	stock := NewStockStore(d)
	size := "S"
	_, err = stock.CreateOrAdd(context.Background(), other.ID, garmentTypeID, &size, 4, nil, "seed", "op-2")
	require.NoError(t, err)

	all, err := stock.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := stock.List(context.Background(), &other.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Villeurbanne", scoped[0].AntennaName)
	assert.Equal(t, "Parka", scoped[0].GarmentLabel)
}

func TestStockStoreListInStock(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 2)
	stock := NewStockStore(d)
	ctx := context.Background()

	_, err := stock.Reserve(ctx, itemID, 2, "alice", "op-1")
	require.NoError(t, err)

	inStock, err := stock.ListInStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, inStock)
}

func TestStockStoreDelete(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 5)
	stock := NewStockStore(d)
	ctx := context.Background()

	require.NoError(t, stock.Delete(ctx, itemID))

	item, err := stock.GetByID(ctx, itemID)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestStockStoreDelete_OpenLoanRejected(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, volunteerID := seedCatalog(t, d)
	itemID := seedStockItem(t, d, antennaID, garmentTypeID, 5)
	stock := NewStockStore(d)
	loans := NewLoanStore(d)
	ctx := context.Background()

	loan, err := loans.Borrow(ctx, volunteerID, itemID, 1, "alice", "op-1")
	require.NoError(t, err)

	err = stock.Delete(ctx, itemID)
	assert.ErrorIs(t, err, domain.ErrStockItemInUse)

	// Once the loan is returned the item can go.
	_, err = loans.Return(ctx, loan.ID, "alice", "op-2")
	require.NoError(t, err)
	assert.NoError(t, stock.Delete(ctx, itemID))
}

func TestStockStoreTotalQuantity(t *testing.T) {
	d := openTestDB(t)
	antennaID, garmentTypeID, _ := seedCatalog(t, d)
	seedStockItem(t, d, antennaID, garmentTypeID, 10)

	stock := NewStockStore(d)
	size := "XL"
	_, err := stock.CreateOrAdd(context.Background(), antennaID, garmentTypeID, &size, 7, nil, "seed", "op-2")
	require.NoError(t, err)

	total, err := stock.TotalQuantity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(17), total)
}
