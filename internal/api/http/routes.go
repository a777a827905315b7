package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/twmccart/watchface1/internal/dispatch"
	"github.com/twmccart/watchface1/internal/settings"
)

var validate = validator.New()

// Companion is the part of the dispatch controller exposed over HTTP.
type Companion interface {
	Refresh(ctx context.Context) dispatch.State
	State() dispatch.State
	HandleSettingsClosed(ctx context.Context, raw string) error
}

// PreferenceLoader supplies the value the settings page is pre-filled with.
type PreferenceLoader interface {
	Load(ctx context.Context) settings.Preference
}

// RegisterRoutes wires the settings surface and the control API into the Fiber app.
func RegisterRoutes(app *fiber.App, companion Companion, prefs PreferenceLoader) {
	app.Get("/settings", func(c *fiber.Ctx) error {
		p := prefs.Load(c.UserContext())
		c.Type("html", "utf-8")
		if err := settings.RenderPage(c, p, "/settings/close"); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render settings page")
		}
		return nil
	})

	app.Get("/settings/close", func(c *fiber.Ctx) error {
		q := closeQuery{Response: c.Query("response")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return applyClose(c, companion, q.Response)
	})

	app.Post("/settings/close", func(c *fiber.Ctx) error {
		q := closeQuery{Response: string(c.Body())}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return applyClose(c, companion, q.Response)
	})

	v1 := app.Group("/api/v1")

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		state := companion.Refresh(c.UserContext())
		return c.JSON(fiber.Map{"state": state.String()})
	})

	v1.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"state": companion.State().String()})
	})
}

// closeQuery holds the settings page response.
type closeQuery struct {
	Response string `validate:"required"`
}

func applyClose(c *fiber.Ctx, companion Companion, raw string) error {
	if err := companion.HandleSettingsClosed(c.UserContext(), raw); err != nil {
		if errors.Is(err, settings.ErrDecode) {
			return fiber.NewError(fiber.StatusBadRequest, "malformed settings response")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to apply settings")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
