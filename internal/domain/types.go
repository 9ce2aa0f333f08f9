package domain

import "time"

type Antenna struct {
	ID                int64
	Name              string
	Address           string
	LowStockThreshold *int64
}

type GarmentType struct {
	ID      int64
	Label   string
	HasSize bool
}

type Volunteer struct {
	ID        int64
	FirstName string
	LastName  string
	Note      string
}

// StockItem is one (antenna, garment type, size) combination and its
// on-hand quantity. Size is nil for garment types without sizes.
type StockItem struct {
	ID            int64
	AntennaID     int64
	GarmentTypeID int64
	Size          *string
	Quantity      int64
	Tags          []string
}

// StockItemDetail is a StockItem joined with its catalog labels for
// listings and alert views.
type StockItemDetail struct {
	StockItem
	GarmentLabel string
	AntennaName  string
}

type Loan struct {
	ID          int64
	StockItemID int64
	VolunteerID int64
	Quantity    int64
	Since       time.Time
	ReturnedAt  *time.Time
}

// OpenLoan is a Loan joined with display fields for the open-loans view.
type OpenLoan struct {
	Loan
	VolunteerName string
	GarmentLabel  string
	Size          *string
	AntennaID     int64
	AntennaName   string
}

// OpenLoanFilter narrows open-loan listings; nil fields match everything.
type OpenLoanFilter struct {
	AntennaID   *int64
	VolunteerID *int64
}

type InventorySession struct {
	ID        int64
	AntennaID int64
	StartedAt time.Time
	ClosedAt  *time.Time
}

// InventoryCount is one staged counted quantity within a session. Recording
// a count again for the same item overwrites the previous value.
type InventoryCount struct {
	SessionID   int64
	StockItemID int64
	CountedQty  int64
	RecordedAt  time.Time
}

// AppliedDelta describes one stock correction applied at session close.
type AppliedDelta struct {
	StockItemID int64
	PreviousQty int64
	NewQty      int64
}

// Movement kinds recorded in the stock journal.
const (
	MovementAddStock       = "add_stock"
	MovementBorrow         = "borrow"
	MovementReturn         = "return"
	MovementInventoryClose = "inventory_close"
)

// StockMovement is one append-only journal entry. Delta is nil for absolute
// corrections; PreviousQty and NewQty are always recorded.
type StockMovement struct {
	ID          int64
	StockItemID int64
	Delta       *int64
	PreviousQty int64
	NewQty      int64
	Operation   string
	OperationID string
	Actor       string
	CreatedAt   time.Time
}

// ThresholdConfig resolves the low-stock threshold for an antenna, falling
// back to the global default when no per-antenna value is set.
type ThresholdConfig struct {
	PerAntenna map[int64]int64
	Default    int64
}

func (c ThresholdConfig) Resolve(antennaID int64) int64 {
	if t, ok := c.PerAntenna[antennaID]; ok {
		return t
	}
	return c.Default
}
