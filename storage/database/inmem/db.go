// Package inmemdb provides map-backed repositories used by tests and by
// the API test suite. Semantics mirror the Postgres repositories.
package inmemdb

import (
	"sync"

	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/inventory"
	"github.com/ebdapp/ebd/core/user"
)

type (
	DB struct {
		user      *userTable
		class     *classTable
		inventory *inventoryTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		table map[string]*class.Class
		order []string // insertion order
	}

	inventoryTable struct {
		sync.RWMutex
		row inventory.Inventory
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		class:     &classTable{table: make(map[string]*class.Class)},
		inventory: &inventoryTable{},
	}
	return db, nil
}
