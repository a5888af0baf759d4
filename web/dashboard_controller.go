package web

import (
	"fmt"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DashboardController renders the landing page: occupancy numbers and the
// rooms currently in each housekeeping state.
type DashboardController struct {
	*Controllers
}

func (d *DashboardController) Show(ctx router.Context) error {
	counts, err := d.Repo.Rooms().CountByStatus(ctx.Context())
	if err != nil {
		d.Logger.Error("dashboard room counts: %v", err)
		return d.ErrorHandler(ctx, err)
	}

	active, err := d.Repo.Stays().CountActive(ctx.Context())
	if err != nil {
		d.Logger.Error("dashboard active stays: %v", err)
		return d.ErrorHandler(ctx, err)
	}

	if d.Debug {
		fmt.Println("======= DASHBOARD ======")
		fmt.Println(print.MaybePrettyJSON(counts))
		fmt.Println("========================")
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	return ctx.Render("dashboard", ViewData(ctx, d.Store, router.ViewContext{
		"room_counts":  counts,
		"total_rooms":  total,
		"active_stays": active,
	}))
}
