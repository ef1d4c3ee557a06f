package inmemdb

import (
	"github.com/ebdapp/ebd/core/inventory"
)

type inventoryRepository struct {
	db *inventoryTable
}

func NewInventoryRepository(db *DB) inventory.Repository {
	return &inventoryRepository{db: db.inventory}
}

func (repo *inventoryRepository) GetInventory() (inventory.Inventory, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.row, nil
}

func (repo *inventoryRepository) SaveInventory(inv inventory.Inventory) (inventory.Inventory, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.row = inv
	return inv, nil
}
