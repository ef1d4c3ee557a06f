package inventory

import "time"

// NowFunc is mockable for tests.
var NowFunc = time.Now

type (
	Repository interface {
		// GetInventory returns the singleton inventory row, zero-valued on first use.
		GetInventory() (Inventory, error)
		SaveInventory(inv Inventory) (Inventory, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// checkAndReset applies the weekly reset policy to an inventory value.
// Level-triggered and idempotent: evaluating it any number of times on the
// same day yields the same result. A Sunday on which the app never runs is
// simply skipped; there is no catch-up.
func checkAndReset(inv Inventory, now time.Time) (Inventory, bool) {
	today := startOfDay(now)

	// first use: stamp, no reset
	if inv.LastResetDate == nil {
		inv.LastResetDate = &today
		return inv, true
	}

	last := *inv.LastResetDate
	if today.Weekday() == time.Sunday && !sameDay(last, today) && today.Sub(startOfDay(last)) >= 24*time.Hour {
		return Inventory{LastResetDate: &today}, true
	}
	return inv, false
}

// Get returns the current inventory, applying the reset policy first so
// reads never observe a stale pre-Sunday state.
func (svc *Service) Get() (Inventory, error) {
	inv, err := svc.repo.GetInventory()
	if err != nil {
		return Inventory{}, err
	}
	if next, changed := checkAndReset(inv, NowFunc()); changed {
		return svc.repo.SaveInventory(next)
	}
	return inv, nil
}

// CheckAndReset is the background-job entry point; see Get.
func (svc *Service) CheckAndReset() (Inventory, error) {
	return svc.Get()
}

func (svc *Service) Set(cu CounterUpdate) (Inventory, error) {
	inv, err := svc.Get()
	if err != nil {
		return Inventory{}, err
	}
	return svc.repo.SaveInventory(inv.withCounter(cu.Field, *cu.Value))
}

func (svc *Service) Increment(f Field) (Inventory, error) {
	inv, err := svc.Get()
	if err != nil {
		return Inventory{}, err
	}
	return svc.repo.SaveInventory(inv.withCounter(f, inv.counter(f)+1))
}

func (svc *Service) Decrement(f Field) (Inventory, error) {
	inv, err := svc.Get()
	if err != nil {
		return Inventory{}, err
	}
	return svc.repo.SaveInventory(inv.withCounter(f, inv.counter(f)-1))
}
