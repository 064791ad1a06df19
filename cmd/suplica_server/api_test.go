package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gregory-j-wilson/Suplica/internal/config"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

type TestApp struct {
	*App
	api *HTTPAPI
}

func NewTestApp(t *testing.T, requireToken bool) *TestApp {
	t.Helper()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	cfg := config.NewServerConfig()
	cfg.Set("codes_file", "")
	cfg.Set("registration_code", []string{"MISION2024"})
	cfg.Set("token_key", "111")
	cfg.Set("token_ttl", time.Hour)
	cfg.Set("require_token", requireToken)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Info)})
	require.NoError(t, err)

	app := &TestApp{App: NewApp(cfg, db)}
	require.NoError(t, app.dbm.Migrate())

	app.api = NewHTTPAPI(app.App, "localhost:1234")

	return app
}

func (app *TestApp) Req(method, url, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Add("Authorization", "Bearer "+token)
	}

	return app.api.f.Test(req, 3000)
}

func (app *TestApp) PostJSON(url, token string, obj any) (*http.Response, error) {
	d, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(d))
	if err != nil {
		return nil, err
	}

	req.Header.Add(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Add(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if token != "" {
		req.Header.Add("Authorization", "Bearer "+token)
	}

	return app.api.f.Test(req, 3000)
}

func decode[T any](t *testing.T, resp *http.Response) *model.Answer[T] {
	t.Helper()
	defer resp.Body.Close()

	ans := new(model.Answer[T])
	require.NoError(t, json.NewDecoder(resp.Body).Decode(ans))

	return ans
}

func (app *TestApp) signup(t *testing.T, name, email, password string) model.ID {
	t.Helper()

	resp, err := app.PostJSON("/api.php?endpoint=usuarios", "", fiber.Map{"nombre": name, "email": email, "password": password})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ans := decode[any](t, resp)
	require.True(t, ans.Success)
	require.NotZero(t, ans.ID)

	return ans.ID
}

func (app *TestApp) login(t *testing.T, email, password string) (*model.User, string) {
	t.Helper()

	resp, err := app.PostJSON("/api.php?endpoint=login", "", fiber.Map{"email": email, "password": password})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ans := decode[*model.User](t, resp)
	require.True(t, ans.Success)
	require.NotNil(t, ans.Data)
	require.NotEmpty(t, ans.Token)

	return ans.Data, ans.Token
}

func TestSignupAndLogin(t *testing.T) {
	app := NewTestApp(t, false)

	id := app.signup(t, "Ana", "ana@example.com", "secreto")

	resp, err := app.PostJSON("/api.php?endpoint=usuarios", "", fiber.Map{"nombre": "Ana", "email": "ANA@example.com", "password": "x"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, decode[any](t, resp).Success)

	u, token := app.login(t, "ana@example.com", "secreto")
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Ana", u.Name)

	got, err := app.UserFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	for _, d := range []struct {
		email string
		psw   string
	}{
		{"ana@example.com", "wrong"},
		{"nobody@example.com", "secreto"},
		{"", ""},
	} {
		t.Run("bad_login_"+d.email, func(t *testing.T) {
			resp, err := app.PostJSON("/api.php?endpoint=login", "", fiber.Map{"email": d.email, "password": d.psw})
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

			ans := decode[any](t, resp)
			assert.False(t, ans.Success)
			assert.Equal(t, "Email o contraseña incorrectos", ans.Message)
		})
	}

	resp, err = app.Req("GET", "/api.php?endpoint=usuarios", "", nil)
	require.NoError(t, err)

	users := decode[[]map[string]any](t, resp)
	require.Len(t, users.Data, 1)
	assert.NotContains(t, users.Data[0], "password")
}

func TestRequireToken(t *testing.T) {
	app := NewTestApp(t, true)

	app.signup(t, "Ana", "ana@example.com", "secreto")

	resp, err := app.Req("GET", "/api.php?endpoint=misiones&publico=1", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, token := app.login(t, "ana@example.com", "secreto")

	resp, err = app.Req("GET", "/api.php?endpoint=misiones&publico=1", token, nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api.php?endpoint=misiones", "garbage", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBadTokenWithoutRequire(t *testing.T) {
	app := NewTestApp(t, false)

	resp, err := app.Req("GET", "/api.php?endpoint=misiones", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api.php?endpoint=misiones", "garbage", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUnknownEndpoint(t *testing.T) {
	app := NewTestApp(t, false)

	resp, err := app.Req("GET", "/api.php?endpoint=nada", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, decode[any](t, resp).Success)
}

func TestMissionsPrayersStats(t *testing.T) {
	app := NewTestApp(t, false)

	_, token := func() (model.ID, string) {
		app.signup(t, "Ana", "ana@example.com", "secreto")
		u, tok := app.login(t, "ana@example.com", "secreto")

		return u.ID, tok
	}()

	for _, m := range []fiber.Map{
		{"titulo": "Pozo", "descripcion": "Agua", "categoria": "salud", "nivel_urgencia": "alta", "publico": true},
		{"titulo": "Privada", "descripcion": "Solo yo", "categoria": "otro", "nivel_urgencia": "media", "publico": false},
	} {
		resp, err := app.PostJSON("/api.php?endpoint=misiones", token, m)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.PostJSON("/api.php?endpoint=misiones", token, fiber.Map{"titulo": "", "categoria": "otro", "nivel_urgencia": "media"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("GET", "/api.php?endpoint=misiones&publico=1", token, nil)
	require.NoError(t, err)

	missions := decode[[]*model.Mission](t, resp)
	require.Len(t, missions.Data, 1)

	m := missions.Data[0]
	assert.Equal(t, "Pozo", m.Title)
	assert.Equal(t, "Ana", m.UserName)

	resp, err = app.PostJSON("/api.php?endpoint=oraciones", token, fiber.Map{"mision_id": m.ID, "mensaje": m.PrayerText()})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.PostJSON("/api.php?endpoint=oraciones", token, fiber.Map{"mision_id": 999})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Req("GET", "/api.php?endpoint=misiones", token, nil)
	require.NoError(t, err)
	assert.Len(t, decode[[]*model.Mission](t, resp).Data, 2)

	resp, err = app.Req("GET", "/api.php?endpoint=estadisticas", token, nil)
	require.NoError(t, err)

	stats := decode[*model.Stats](t, resp)
	require.NotNil(t, stats.Data)
	assert.EqualValues(t, 1, stats.Data.Prayers)
	assert.EqualValues(t, 2, stats.Data.Missions)
	assert.EqualValues(t, 0, stats.Data.Answered)
}

func TestCircles(t *testing.T) {
	app := NewTestApp(t, false)

	anaID := app.signup(t, "Ana", "ana@example.com", "1")
	luisID := app.signup(t, "Luis", "luis@example.com", "2")

	resp, err := app.PostJSON("/api.php?endpoint=circulos", "", fiber.Map{"nombre": "Jóvenes", "descripcion": "Viernes", "usuario_id": anaID})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	circle := decode[*model.Circle](t, resp).Data
	require.NotNil(t, circle)
	require.NotEmpty(t, circle.InviteCode)
	assert.EqualValues(t, 1, circle.Members)

	resp, err = app.PostJSON("/api.php?endpoint=circulos_unirse", "", fiber.Map{"codigo_invitacion": "NOPE", "usuario_id": luisID})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Código de invitación inválido", decode[any](t, resp).Message)

	resp, err = app.PostJSON("/api.php?endpoint=circulos_unirse", "", fiber.Map{"codigo_invitacion": circle.InviteCode, "usuario_id": luisID})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api.php?endpoint=circulos&usuario_id="+luisID.String(), "", nil)
	require.NoError(t, err)

	list := decode[[]*model.Circle](t, resp).Data
	require.Len(t, list, 1)
	assert.EqualValues(t, 2, list[0].Members)

	resp, err = app.Req("GET", "/api.php?endpoint=circulos", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPrayerRoom(t *testing.T) {
	app := NewTestApp(t, false)

	app.signup(t, "Ana", "ana@example.com", "1")
	u, token := app.login(t, "ana@example.com", "1")

	m, err := app.dbm.AddMission(&model.MissionPostDTO{
		Title: "Visa", Description: "Visa", Category: model.DefaultCategory, Urgency: model.DefaultUrgency, Public: true, UserID: u.ID,
	})
	require.NoError(t, err)

	room := "/api.php?endpoint=prayer_room&id=" + m.ID.String()

	post := func(text, clientID string) *model.PrayerMessage {
		resp, err := app.PostJSON("/api.php?endpoint=prayer_room", token, fiber.Map{
			"mision_id": m.ID, "mensaje": text, "client_id": clientID,
		})
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))

		ans := decode[*model.PrayerMessage](t, resp)
		require.NotNil(t, ans.Data)

		return ans.Data
	}

	first := post("Amén", "c1")
	assert.Equal(t, "Ana", first.UserName)
	assert.Equal(t, "c1", first.ClientID)

	assert.Equal(t, first.ID, post("Amén", "c1").ID)

	second := post("Gloria", "c2")
	assert.Greater(t, second.ID, first.ID)

	resp, err := app.Req("GET", room, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "no-cache", resp.Header.Get(fiber.HeaderPragma))
	assert.Len(t, decode[[]*model.PrayerMessage](t, resp).Data, 2)

	resp, err = app.Req("GET", room+"&desde_id="+first.ID.String(), "", nil)
	require.NoError(t, err)

	after := decode[[]*model.PrayerMessage](t, resp).Data
	require.Len(t, after, 1)
	assert.Equal(t, "Gloria", after[0].Message)

	resp, err = app.PostJSON("/api.php?endpoint=prayer_room", token, fiber.Map{"mision_id": m.ID, "mensaje": " "})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("GET", "/api.php?endpoint=prayer_room", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMissionaries(t *testing.T) {
	app := NewTestApp(t, false)

	missionary := fiber.Map{
		"code": "mision2024", "nombre": "Pedro", "familia": "Pérez",
		"lat": -12.0464, "lng": -77.0428, "ubicacion_nombre": "Lima, Lima, Perú",
	}

	resp, err := app.PostJSON("/api.php?endpoint=misioneros", "", missionary)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	missionary["code"] = "otro"
	resp, err = app.PostJSON("/api.php?endpoint=misioneros", "", missionary)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Código de registro inválido", decode[any](t, resp).Message)

	resp, err = app.PostJSON("/api.php?endpoint=misioneros", "", fiber.Map{"code": "MISION2024", "nombre": "Sin lugar"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("GET", "/api.php?endpoint=misioneros", "", nil)
	require.NoError(t, err)

	list := decode[[]*model.Missionary](t, resp).Data
	require.Len(t, list, 1)
	assert.Equal(t, "Pedro", list[0].Name)
	assert.InDelta(t, -12.0464, float64(list[0].Lat), 1e-9)
}

func TestIndexAndMetrics(t *testing.T) {
	app := NewTestApp(t, false)

	resp, err := app.Req("GET", "/", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Súplica backend")

	resp, err = app.Req("GET", "/metrics", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
