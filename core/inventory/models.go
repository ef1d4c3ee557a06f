package inventory

import (
	"time"

	"github.com/ebdapp/ebd/core"
)

// Field names one of the inventory counters. LastResetDate is deliberately
// not addressable: no input path may set it directly.
type Field string

const (
	Bibles    Field = "bibles"
	Magazines Field = "magazines"
	Offerings Field = "offerings"
)

// Inventory holds the shared (non-per-class) supply counters, auto-reset
// weekly on the first evaluation of each Sunday.
type Inventory struct {
	Bibles        int        `json:"bibles"`
	Magazines     int        `json:"magazines"`
	Offerings     int        `json:"offerings"`
	LastResetDate *time.Time `json:"last_reset_date,omitempty"` // start of day
}

func (inv Inventory) counter(f Field) int {
	switch f {
	case Bibles:
		return inv.Bibles
	case Magazines:
		return inv.Magazines
	case Offerings:
		return inv.Offerings
	}
	return 0
}

func (inv Inventory) withCounter(f Field, value int) Inventory {
	if value < 0 { // clamped at a lower bound of 0; no upper bound
		value = 0
	}
	switch f {
	case Bibles:
		inv.Bibles = value
	case Magazines:
		inv.Magazines = value
	case Offerings:
		inv.Offerings = value
	}
	return inv
}

// CounterUpdate sets one inventory counter to an absolute value.
type CounterUpdate struct {
	Field Field `json:"field" validate:"required,oneof=bibles magazines offerings"`
	Value *int  `json:"value" validate:"required"`
}

func (cu *CounterUpdate) Validate() error { return core.Validate.Struct(cu) }

// CounterStep increments or decrements one inventory counter by one.
type CounterStep struct {
	Field Field `json:"field" validate:"required,oneof=bibles magazines offerings"`
}

func (cs *CounterStep) Validate() error { return core.Validate.Struct(cs) }
