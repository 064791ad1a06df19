package main

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/gregory-j-wilson/Suplica/internal/database"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

const maxMessageLen = 2000

func getMissionsHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := app.dbm.MissionQuery().Limit(500)

		if c.Query("publico") == "1" {
			q = q.Public()
		}

		return c.JSON(model.Ok(q.Get()))
	}
}

func postMissionHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.MissionPostDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		dto.UserID = actor(c, dto.UserID)

		m, err := app.dbm.AddMission(dto)
		if err != nil {
			return failErr(c, err)
		}

		return c.JSON(&model.Answer[any]{Success: true, ID: m.ID})
	}
}

func postPrayHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.PrayPostDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		dto.UserID = actor(c, dto.UserID)

		if err := app.dbm.AddPrayer(dto); err != nil {
			return failErr(c, err)
		}

		prayersCount.Inc()

		return c.JSON(model.Ok[any](nil))
	}
}

func getCirclesHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := actor(c, queryID(c, "usuario_id"))

		if id == 0 {
			return fail(c, "usuario_id requerido")
		}

		return c.JSON(model.Ok(app.dbm.CircleQuery().Member(id).Get()))
	}
}

func postCircleHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.CirclePostDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		dto.UserID = actor(c, dto.UserID)

		circle, err := app.dbm.CreateCircle(dto)
		if err != nil {
			return failErr(c, err)
		}

		return c.JSON(model.Ok(circle))
	}
}

func postJoinCircleHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.CircleJoinDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		dto.UserID = actor(c, dto.UserID)

		circle, err := app.dbm.JoinCircle(dto)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fail(c, "Código de invitación inválido")
			}

			return failErr(c, err)
		}

		return c.JSON(model.Ok(circle))
	}
}

func getStatsHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := actor(c, queryID(c, "id"))

		if id == 0 {
			return fail(c, "id requerido")
		}

		return c.JSON(model.Ok(app.dbm.Stats(id)))
	}
}

func getUsersHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(model.Ok(app.dbm.UserQuery().Limit(0).Get()))
	}
}

func postUserHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.UserPostDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		u, err := app.dbm.AddUser(dto)
		if err != nil {
			if errors.Is(err, database.ErrEmailExists) {
				return fail(c, "El email ya está registrado")
			}

			return fail(c, err.Error())
		}

		app.logger.Info("new user", slog.String("email", u.Email), slog.Any("id", u.ID))

		return c.JSON(&model.Answer[any]{Success: true, ID: u.ID})
	}
}

func postLoginHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.LoginDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		u := app.dbm.CheckLogin(dto.Email, dto.Password)
		if u == nil {
			loginsCount.WithLabelValues("fail").Inc()
			app.logger.Warn("login failed", slog.String("email", dto.Email))

			return c.Status(fiber.StatusUnauthorized).JSON(model.Fail("Email o contraseña incorrectos"))
		}

		token, err := app.GenerateToken(u)
		if err != nil {
			return err
		}

		loginsCount.WithLabelValues("ok").Inc()

		ans := model.Ok(u)
		ans.Token = token

		return c.JSON(ans)
	}
}

func getMessagesHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := queryID(c, "id")

		if id == 0 {
			return fail(c, "id requerido")
		}

		noCache(c)

		msgs := app.dbm.MessageQuery().Mission(id).After(queryID(c, "desde_id")).Get()

		return c.JSON(model.Ok(msgs))
	}
}

func postMessageHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.PrayerMessagePostDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		noCache(c)

		dto.UserID = actor(c, dto.UserID)

		if len(dto.Message) > maxMessageLen {
			return fail(c, "Mensaje demasiado largo")
		}

		msg, err := app.dbm.AddMessage(dto)
		if err != nil {
			return failErr(c, err)
		}

		messagesCount.Inc()

		return c.JSON(model.Ok(msg))
	}
}

func getMissionariesHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		noCache(c)

		return c.JSON(model.Ok(app.dbm.MissionaryQuery().Get()))
	}
}

func postMissionaryHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dto := new(model.MissionaryPostDTO)

		if err := c.BodyParser(dto); err != nil {
			return fail(c, "Datos inválidos")
		}

		noCache(c)

		if !app.codes.Valid(dto.Code) {
			app.logger.Warn("bad registration code", slog.String("code", dto.Code))

			return fail(c, "Código de registro inválido")
		}

		m := dto.Missionary()

		if !m.HasLocation() {
			return fail(c, "Ubicación requerida")
		}

		if err := app.dbm.AddMissionary(m); err != nil {
			return fail(c, err.Error())
		}

		return c.JSON(&model.Answer[any]{Success: true, ID: m.ID, Message: "Misionero registrado"})
	}
}

func noCache(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderPragma, "no-cache")
}
