package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipiapp/kipi/core/subject"
)

type subjectApi struct {
	store    *subject.Store
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, store *subject.Store, validate *validator.Validate) {
	api := subjectApi{store: store, validate: validate}

	sg := g.Group("/subjects")
	sg.GET("", api.query)
	sg.POST("", api.create)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *subjectApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.Snapshot())
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	subj, err := api.store.Add(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	subj, err := api.store.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) update(ctx echo.Context) error {
	var data subject.UpdateSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	id := ctx.Param("id")
	if _, err := api.store.GetByID(id); err != nil {
		return err
	}
	subj, err := api.store.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.store.GetByID(id); err != nil {
		return err
	}
	if err := api.store.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
