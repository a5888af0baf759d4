package web

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/hostelhub/go-hostel"
)

// GuestsController lists stays: the currently checked-in guests by default,
// the full history when asked.
type GuestsController struct {
	*Controllers
}

func (g *GuestsController) List(ctx router.Context) error {
	criteria := []repository.SelectCriteria{}

	showAll := ctx.Query("all") == "true"
	if !showAll {
		criteria = append(criteria, hostel.ActiveStays())
	}

	if term := ctx.Query("q"); term != "" {
		criteria = append(criteria, hostel.StaysMatching(term))
	}

	records, err := g.Repo.Stays().ListAll(ctx.Context(), criteria...)
	if err != nil {
		g.Logger.Error("guests list: %v", err)
		return g.ErrorHandler(ctx, err)
	}

	return ctx.Render("guests", ViewData(ctx, g.Store, router.ViewContext{
		"stays":    records,
		"show_all": showAll,
		"q":        ctx.Query("q"),
	}))
}
