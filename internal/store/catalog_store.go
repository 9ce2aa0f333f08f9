package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/acollet/vestiaire/internal/domain"
)

// CatalogStore reads the antenna, garment-type and volunteer reference data.
// The ledger never manages this catalog; the Create helpers exist for
// seeding and tests.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) CreateAntenna(ctx context.Context, name, address string, lowStockThreshold *int64) (*domain.Antenna, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO antennas (name, address, low_stock_threshold) VALUES (?, ?, ?)
	`, name, address, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to create antenna: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return s.GetAntenna(ctx, id)
}

func (s *CatalogStore) GetAntenna(ctx context.Context, id int64) (*domain.Antenna, error) {
	a := &domain.Antenna{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, low_stock_threshold FROM antennas WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.Address, &a.LowStockThreshold)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get antenna: %w", err)
	}
	return a, nil
}

func (s *CatalogStore) ListAntennas(ctx context.Context) ([]*domain.Antenna, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, low_stock_threshold FROM antennas ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list antennas: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var antennas []*domain.Antenna
	for rows.Next() {
		a := &domain.Antenna{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Address, &a.LowStockThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan antenna: %w", err)
		}
		antennas = append(antennas, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating antennas: %w", err)
	}
	return antennas, nil
}

func (s *CatalogStore) CreateGarmentType(ctx context.Context, label string, hasSize bool) (*domain.GarmentType, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO garment_types (label, has_size) VALUES (?, ?)
	`, label, hasSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create garment type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return s.GetGarmentType(ctx, id)
}

func (s *CatalogStore) GetGarmentType(ctx context.Context, id int64) (*domain.GarmentType, error) {
	g := &domain.GarmentType{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, has_size FROM garment_types WHERE id = ?
	`, id).Scan(&g.ID, &g.Label, &g.HasSize)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get garment type: %w", err)
	}
	return g, nil
}

func (s *CatalogStore) ListGarmentTypes(ctx context.Context) ([]*domain.GarmentType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, has_size FROM garment_types ORDER BY label ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list garment types: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var types []*domain.GarmentType
	for rows.Next() {
		g := &domain.GarmentType{}
		if err := rows.Scan(&g.ID, &g.Label, &g.HasSize); err != nil {
			return nil, fmt.Errorf("failed to scan garment type: %w", err)
		}
		types = append(types, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating garment types: %w", err)
	}
	return types, nil
}

func (s *CatalogStore) CreateVolunteer(ctx context.Context, firstName, lastName, note string) (*domain.Volunteer, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO volunteers (first_name, last_name, note) VALUES (?, ?, ?)
	`, firstName, lastName, note)
	if err != nil {
		return nil, fmt.Errorf("failed to create volunteer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return s.GetVolunteer(ctx, id)
}

func (s *CatalogStore) GetVolunteer(ctx context.Context, id int64) (*domain.Volunteer, error) {
	v := &domain.Volunteer{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, note FROM volunteers WHERE id = ?
	`, id).Scan(&v.ID, &v.FirstName, &v.LastName, &v.Note)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer: %w", err)
	}
	return v, nil
}

// FindVolunteerByName matches case-insensitively on the (first, last) name
// pair. Names are not unique; the lowest id wins so the lookup stays
// deterministic.
func (s *CatalogStore) FindVolunteerByName(ctx context.Context, firstName, lastName string) (*domain.Volunteer, error) {
	v := &domain.Volunteer{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, note FROM volunteers
		WHERE LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?)
		ORDER BY id ASC LIMIT 1
	`, firstName, lastName).Scan(&v.ID, &v.FirstName, &v.LastName, &v.Note)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find volunteer: %w", err)
	}
	return v, nil
}

// CountVolunteers returns the volunteer directory size, for the stats view.
func (s *CatalogStore) CountVolunteers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM volunteers`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count volunteers: %w", err)
	}
	return n, nil
}

// AntennaThresholds returns the per-antenna low-stock thresholds that are
// explicitly set, keyed by antenna id.
func (s *CatalogStore) AntennaThresholds(ctx context.Context) (map[int64]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, low_stock_threshold FROM antennas WHERE low_stock_threshold IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list thresholds: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	thresholds := make(map[int64]int64)
	for rows.Next() {
		var id, t int64
		if err := rows.Scan(&id, &t); err != nil {
			return nil, fmt.Errorf("failed to scan threshold: %w", err)
		}
		thresholds[id] = t
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thresholds: %w", err)
	}
	return thresholds, nil
}
