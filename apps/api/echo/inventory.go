package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ebdapp/ebd/core/inventory"
)

type inventoryApi struct {
	svc *inventory.Service
}

// Inventory is shared across classes; any authenticated session may read
// and adjust the counters.
func registerInventoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *inventory.Service) {
	api := inventoryApi{svc: svc}

	ig := g.Group("/inventory", jwt)
	ig.GET("", api.retrieve)
	ig.PUT("", api.set)
	ig.POST("/increment", api.increment)
	ig.POST("/decrement", api.decrement)
}

func (api *inventoryApi) retrieve(ctx echo.Context) error {
	inv, err := api.svc.Get()
	if err != nil {
		return errors.Wrap(err, "getting inventory")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *inventoryApi) set(ctx echo.Context) error {
	var data inventory.CounterUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CounterUpdate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inv, err := api.svc.Set(data)
	if err != nil {
		return errors.Wrap(err, "setting inventory counter")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *inventoryApi) increment(ctx echo.Context) error {
	var data inventory.CounterStep
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CounterStep")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inv, err := api.svc.Increment(data.Field)
	if err != nil {
		return errors.Wrap(err, "incrementing inventory counter")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *inventoryApi) decrement(ctx echo.Context) error {
	var data inventory.CounterStep
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CounterStep")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inv, err := api.svc.Decrement(data.Field)
	if err != nil {
		return errors.Wrap(err, "decrementing inventory counter")
	}
	return ctx.JSON(http.StatusOK, inv)
}
