package inmemdb

import (
	"github.com/ebdapp/ebd/core/class"
)

type classRepository struct {
	db *classTable
}

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.class}
}

func (repo *classRepository) CreateClass(c class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[c.ID] = &c
	repo.db.order = append(repo.db.order, c.ID)
	return c, nil
}

func (repo *classRepository) GetClassByID(id string) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryAllClasses() ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]class.Class, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		if c, ok := repo.db.table[id]; ok {
			classes = append(classes, *c)
		}
	}
	return classes, nil
}

func (repo *classRepository) QueryClassesByID(ids ...string) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]class.Class, 0, len(ids))
	for _, id := range ids {
		if c, ok := repo.db.table[id]; ok {
			classes = append(classes, *c)
		}
	}
	return classes, nil
}

func (repo *classRepository) UpdateClass(c class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return class.Class{}, class.ErrNotFound
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *classRepository) DeleteClassesByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	order := repo.db.order[:0:0]
	for _, id := range repo.db.order {
		if _, ok := repo.db.table[id]; ok {
			order = append(order, id)
		}
	}
	repo.db.order = order
	return nil
}
