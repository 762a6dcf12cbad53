package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core/note"
)

type noteApi struct {
	store    *note.Store
	validate *validator.Validate
}

func registerNoteAPI(g *echo.Group, store *note.Store, validate *validator.Validate) {
	api := noteApi{store: store, validate: validate}

	ng := g.Group("/notes")
	ng.GET("", api.query)
	ng.POST("", api.create)

	dg := ng.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

// query lists all notes, or one subject's notes with ?subject=<id>.
// Notes are presented newest first; the store itself keeps load order.
func (api *noteApi) query(ctx echo.Context) error {
	var notes []note.Note
	if subjectID := ctx.QueryParam("subject"); subjectID != "" {
		notes = api.store.BySubject(subjectID)
	} else {
		notes = api.store.Snapshot()
	}

	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Date > notes[j].Date })
	return ctx.JSON(http.StatusOK, notes)
}

func (api *noteApi) create(ctx echo.Context) error {
	var data note.NewNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.store.Add(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noteApi) retrieve(ctx echo.Context) error {
	n, err := api.store.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) update(ctx echo.Context) error {
	var data note.UpdateNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	id := ctx.Param("id")
	if _, err := api.store.GetByID(id); err != nil {
		return err
	}
	n, err := api.store.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.store.GetByID(id); err != nil {
		return err
	}
	if err := api.store.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
