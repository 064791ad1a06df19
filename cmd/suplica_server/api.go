package main

import (
	"embed"
	"errors"
	"net/http"
	"runtime/pprof"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gregory-j-wilson/Suplica/internal/database"
	"github.com/gregory-j-wilson/Suplica/pkg/log"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

//go:embed templates
var templates embed.FS

type HTTPAPI struct {
	f    *fiber.App
	addr string
}

type handlers map[string]fiber.Handler

func NewHTTPAPI(app *App, addr string) *HTTPAPI {
	api := &HTTPAPI{addr: addr}

	engine := html.NewFileSystem(http.FS(templates), ".html")

	engine.Delims("[[", "]]")

	api.f = fiber.New(fiber.Config{
		EnablePrintRoutes:     false,
		DisableStartupMessage: true,
		Views:                 engine,
		ErrorHandler:          errorHandler,
	})

	api.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "api", UserGetter: Username, DoMetrics: true, LogErrorsOnly: true}))

	api.f.Get("/", getIndexHandler(app))
	api.f.Get("/stack", getStackHandler())
	api.f.Get("/metrics", getMetricsHandler())

	get := handlers{
		"misiones":     getMissionsHandler(app),
		"circulos":     getCirclesHandler(app),
		"estadisticas": getStatsHandler(app),
		"usuarios":     getUsersHandler(app),
		"prayer_room":  getMessagesHandler(app),
		"misioneros":   getMissionariesHandler(app),
	}

	post := handlers{
		"misiones":        postMissionHandler(app),
		"oraciones":       postPrayHandler(app),
		"circulos":        postCircleHandler(app),
		"circulos_unirse": postJoinCircleHandler(app),
		"usuarios":        postUserHandler(app),
		"login":           postLoginHandler(app),
		"prayer_room":     postMessageHandler(app),
		"misioneros":      postMissionaryHandler(app),
	}

	auth := authMiddleware(app)

	api.f.Get("/api.php", auth, dispatch(get))
	api.f.Post("/api.php", auth, dispatch(post))

	return api
}

func (api *HTTPAPI) Address() string {
	return api.addr
}

func (api *HTTPAPI) Listen() error {
	return api.f.Listen(api.addr)
}

func (api *HTTPAPI) ListenTLS(cert, key string) error {
	return api.f.ListenTLS(api.addr, cert, key)
}

func (api *HTTPAPI) Shutdown(timeout time.Duration) error {
	return api.f.ShutdownWithTimeout(timeout)
}

func dispatch(h handlers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if f, ok := h[c.Query("endpoint")]; ok {
			return f(c)
		}

		return c.Status(fiber.StatusNotFound).JSON(model.Fail("Endpoint no encontrado"))
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(model.Fail(err.Error()))
}

func fail(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(model.Fail(msg))
}

func failErr(c *fiber.Ctx, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(model.Fail(err.Error()))
	}

	return fail(c, err.Error())
}

func queryID(c *fiber.Ctx, name string) model.ID {
	id, err := model.ParseID(c.Query(name))
	if err != nil {
		return 0
	}

	return id
}

func getIndexHandler(app *App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data := map[string]any{
			"version":      gitRevision,
			"users":        app.dbm.UserQuery().Count(),
			"missions":     app.dbm.MissionQuery().Count(),
			"messages":     app.dbm.MessageQuery().Count(),
			"missionaries": app.dbm.MissionaryQuery().Count(),
			"tokens":       app.cfg.RequireToken(),
		}

		return c.Render("templates/index", data)
	}
}

func getStackHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(c.Response().BodyWriter(), 1)
	}
}

func getMetricsHandler() fiber.Handler {
	handler := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})

	return adaptor.HTTPHandler(handler)
}
