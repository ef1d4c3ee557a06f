package database

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ebdapp/ebd/core/inventory"
)

// inventoryRow is the singleton supply-counter row (id pinned to 1).
type inventoryRow struct {
	ID            int          `db:"id"`
	Bibles        int          `db:"bibles"`
	Magazines     int          `db:"magazines"`
	Offerings     int          `db:"offerings"`
	LastResetDate sql.NullTime `db:"last_reset_date"`
}

func (row inventoryRow) toInventory() inventory.Inventory {
	inv := inventory.Inventory{
		Bibles:    row.Bibles,
		Magazines: row.Magazines,
		Offerings: row.Offerings,
	}
	if row.LastResetDate.Valid {
		t := row.LastResetDate.Time
		inv.LastResetDate = &t
	}
	return inv
}

type inventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) inventory.Repository {
	return &inventoryRepository{db: db}
}

func (repo *inventoryRepository) GetInventory() (inventory.Inventory, error) {
	var row inventoryRow
	err := repo.db.Get(&row,
		`SELECT id, bibles, magazines, offerings, last_reset_date FROM inventory WHERE id = 1`)
	if err == sql.ErrNoRows {
		return inventory.Inventory{}, nil // zero-valued on first use
	}
	if err != nil {
		return inventory.Inventory{}, errors.Wrap(err, "getting inventory")
	}
	return row.toInventory(), nil
}

func (repo *inventoryRepository) SaveInventory(inv inventory.Inventory) (inventory.Inventory, error) {
	var lastReset sql.NullTime
	if inv.LastResetDate != nil {
		lastReset = sql.NullTime{Time: *inv.LastResetDate, Valid: true}
	}
	_, err := repo.db.Exec(
		`INSERT INTO inventory (id, bibles, magazines, offerings, last_reset_date)
		 VALUES (1, $1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET bibles = EXCLUDED.bibles, magazines = EXCLUDED.magazines,
		     offerings = EXCLUDED.offerings, last_reset_date = EXCLUDED.last_reset_date`,
		inv.Bibles, inv.Magazines, inv.Offerings, lastReset,
	)
	if err != nil {
		return inventory.Inventory{}, errors.Wrap(err, "saving inventory")
	}
	return inv, nil
}
