package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/session"
)

const contextTokenKey = "sessionToken"

// newJWTConfig builds the JWT auth middleware config for session tokens.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(session.Claims),
	}
}

// sessionMiddleware mirrors the verified token's subject into the session
// provider. A change of subject (login as someone else) is a full identity
// transition and reloads the stores.
func sessionMiddleware(sess *session.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := ctx.Get(contextTokenKey).(*jwt.Token)
			if !ok {
				return session.ErrNoIdentity
			}
			claims, ok := token.Claims.(*session.Claims)
			if !ok || claims.Subject == "" {
				return session.ErrNoIdentity
			}
			sess.Attach(session.Identity(claims.Subject))
			return next(ctx)
		}
	}
}

type sessionApi struct {
	sess *session.Provider
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, sess *session.Provider) {
	api := sessionApi{sess: sess}

	sg := g.Group("/session")
	sg.POST("", api.create)
	sg.DELETE("", api.destroy, jwt)
}

type sessionRequest struct {
	Token string `json:"token" validate:"required"`
}

type sessionResponse struct {
	Identity string `json:"identity"`
}

// create attaches the identity carried by a token the auth collaborator
// already issued; Kipi itself never sees credentials.
func (api *sessionApi) create(ctx echo.Context) error {
	var data sessionRequest
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "binding session request")
	}
	if data.Token == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: "this field is required"})
	}

	id, err := api.sess.Authenticate(data.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sessionResponse{Identity: string(id)})
}

// destroy clears the current identity; the stores empty themselves in
// response.
func (api *sessionApi) destroy(ctx echo.Context) error {
	api.sess.Clear()
	return ctx.NoContent(http.StatusNoContent)
}
