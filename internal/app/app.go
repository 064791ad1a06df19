package app

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gregory-j-wilson/Suplica/internal/callbacks"
	"github.com/gregory-j-wilson/Suplica/internal/prayerroom"
	"github.com/gregory-j-wilson/Suplica/internal/router"
	"github.com/gregory-j-wilson/Suplica/internal/session"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

const prayedShown = time.Second * 2

// Topics passed to change listeners.
const (
	TopicSession      = "session"
	TopicMissions     = "missions"
	TopicCircles      = "circles"
	TopicStats        = "stats"
	TopicMissionaries = "missionaries"
	TopicRoom         = "room"
	TopicView         = "view"
)

type API interface {
	prayerroom.API

	SetToken(token string)
	OnUnauthorized(name string, fn func(endpoint string))

	Missions(ctx context.Context) ([]*model.Mission, error)
	CreateMission(ctx context.Context, m *model.MissionPostDTO) error
	Pray(ctx context.Context, p *model.PrayPostDTO) error
	Circles(ctx context.Context, userID model.ID) ([]*model.Circle, error)
	CreateCircle(ctx context.Context, c *model.CirclePostDTO) (*model.Circle, error)
	JoinCircle(ctx context.Context, j *model.CircleJoinDTO) error
	Stats(ctx context.Context, userID model.ID) (*model.Stats, error)
	CreateUser(ctx context.Context, u *model.UserPostDTO) (model.ID, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Missionaries(ctx context.Context) ([]*model.Missionary, error)
	RegisterMissionary(ctx context.Context, m *model.MissionaryPostDTO) error
}

type Geocoder interface {
	Lookup(ctx context.Context, address string) (float64, float64, error)
}

type Options struct {
	Room  prayerroom.Config
	MyPos *model.Pos
}

// MissionaryView is a missionary with distance and bearing from the configured position.
type MissionaryView struct {
	*model.Missionary
	Distance float64
	Bearing  float64
}

// App is the client state shared by all views.
type App struct {
	logger   *slog.Logger
	api      API
	geo      Geocoder
	sessions *session.Store
	router   *router.Router
	opts     Options
	ctx      context.Context

	mx           sync.RWMutex
	missions     []*model.Mission
	circles      []*model.Circle
	stats        *model.Stats
	missionaries []*model.Missionary
	filter       string
	prayed       map[model.ID]time.Time
	room         *prayerroom.Room

	changes *callbacks.Callback[string]
}

func New(api API, geo Geocoder, sessions *session.Store, r *router.Router, opts Options) *App {
	a := &App{
		logger:   slog.Default().With("logger", "app"),
		api:      api,
		geo:      geo,
		sessions: sessions,
		router:   r,
		opts:     opts,
		ctx:      context.Background(),
		filter:   model.AllMissionsFilter,
		prayed:   make(map[model.ID]time.Time),
		changes:  callbacks.New[string](),
	}

	sessions.OnChange("app", a.sessionChanged)
	api.OnUnauthorized("app", func(endpoint string) {
		sessions.Invalidate("server rejected " + endpoint)
	})
	r.OnLeaveRoom(a.roomLeft)
	r.OnChange("app", func(router.View) {
		a.notify(TopicView)
	})

	return a
}

// OnChange registers a listener for state changes, called with one of the Topic constants.
func (a *App) OnChange(name string, fn func(topic string)) {
	a.changes.Add(name, fn)
}

func (a *App) notify(topic string) {
	a.changes.Notify(topic)
}

func (a *App) Router() *router.Router {
	return a.router
}

func (a *App) User() *model.User {
	return a.sessions.User()
}

// Start restores a saved session and loads data for it.
func (a *App) Start(ctx context.Context) error {
	a.ctx = ctx

	sess, err := a.sessions.Restore()
	if err != nil {
		return err
	}

	if sess == nil {
		a.router.SetAuthenticated(false)
		return nil
	}

	a.api.SetToken(sess.Token)
	a.router.SetAuthenticated(true)
	a.LoadAll(ctx)

	return nil
}

func (a *App) sessionChanged(sess *session.Session) {
	if sess == nil {
		a.api.SetToken("")
		a.closeRoom()
		a.reset()
		a.router.SetAuthenticated(false)
	} else {
		a.api.SetToken(sess.Token)
		a.router.SetAuthenticated(true)
	}

	a.notify(TopicSession)
}

func (a *App) reset() {
	a.mx.Lock()
	a.missions = nil
	a.circles = nil
	a.stats = nil
	a.missionaries = nil
	a.filter = model.AllMissionsFilter
	a.prayed = make(map[model.ID]time.Time)
	a.mx.Unlock()
}

// Login verifies credentials and starts a session.
func (a *App) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	user, token, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.logger.Info("login failed", slog.String("email", email), slog.Any("error", err))
		return loginError(err)
	}

	if _, err := a.sessions.Login(user, token); err != nil {
		return err
	}

	a.LoadAll(ctx)

	return nil
}

// Signup creates the account and logs in with it.
func (a *App) Signup(ctx context.Context, dto *model.UserPostDTO) error {
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Name = strings.TrimSpace(dto.Name)

	id, err := a.api.CreateUser(ctx, dto)
	if err != nil {
		a.logger.Info("signup failed", slog.String("email", dto.Email), slog.Any("error", err))

		if m := UserMessage(err); m != "" && m != err.Error() {
			return userError(m, err)
		}

		return userError(MsgSignupFailed, err)
	}

	token := ""

	if _, t, err := a.api.Login(ctx, dto.Email, dto.Password); err == nil {
		token = t
	} else {
		a.logger.Warn("no token after signup", slog.Any("error", err))
	}

	if _, err := a.sessions.Login(&model.User{ID: id, Name: dto.Name, Email: dto.Email}, token); err != nil {
		return err
	}

	a.LoadAll(ctx)

	return nil
}

func (a *App) Logout() error {
	return a.sessions.Logout()
}

func (a *App) requireUser() (*model.User, error) {
	u := a.sessions.User()
	if u == nil {
		return nil, userError(MsgNotLoggedIn, errors.New("not logged in"))
	}

	return u, nil
}

// LoadAll refreshes every list. Failures keep previous data.
func (a *App) LoadAll(ctx context.Context) {
	_ = a.LoadMissions(ctx)
	_ = a.LoadCircles(ctx)
	_ = a.LoadStats(ctx)
	_ = a.LoadMissionaries(ctx)
}

func (a *App) LoadMissions(ctx context.Context) error {
	missions, err := a.api.Missions(ctx)
	if err != nil {
		a.logger.Error("error loading missions", slog.Any("error", err))
		return err
	}

	a.mx.Lock()
	a.missions = missions
	a.mx.Unlock()

	a.notify(TopicMissions)

	return nil
}

func (a *App) SetFilter(filter string) {
	a.mx.Lock()
	a.filter = filter
	a.mx.Unlock()

	a.notify(TopicMissions)
}

func (a *App) Filter() string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.filter
}

// Missions returns the missions passing the current filter.
func (a *App) Missions() []*model.Mission {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return model.FilterMissions(a.missions, a.filter, a.sessions.User().GetID())
}

// Pray records a prayer for the mission and reloads the list.
func (a *App) Pray(ctx context.Context, m *model.Mission) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	if err := a.api.Pray(ctx, &model.PrayPostDTO{MissionID: m.ID, UserID: u.ID, Text: m.PrayerText()}); err != nil {
		a.logger.Error("error praying", slog.Any("error", err))
		return err
	}

	a.mx.Lock()
	a.prayed[m.ID] = time.Now()
	a.mx.Unlock()

	return a.LoadMissions(ctx)
}

// Prayed reports whether a prayer for the mission was sent in the last two seconds.
func (a *App) Prayed(id model.ID) bool {
	a.mx.RLock()
	defer a.mx.RUnlock()

	t, ok := a.prayed[id]

	return ok && time.Since(t) < prayedShown
}

func (a *App) NewMissionDraft() *model.MissionPostDTO {
	return model.NewMissionDraft()
}

// CreateMission posts the mission, reloads the list and goes Home.
func (a *App) CreateMission(ctx context.Context, dto *model.MissionPostDTO) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	if err := dto.Validate(); err != nil {
		return userError(err.Error(), err)
	}

	dto.UserID = u.ID

	if err := a.api.CreateMission(ctx, dto); err != nil {
		a.logger.Error("error creating mission", slog.Any("error", err))
		return err
	}

	_ = a.LoadMissions(ctx)
	a.router.Go(router.Home)

	return nil
}

func (a *App) LoadCircles(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	circles, err := a.api.Circles(ctx, u.ID)
	if err != nil {
		a.logger.Error("error loading circles", slog.Any("error", err))
		return err
	}

	a.mx.Lock()
	a.circles = circles
	a.mx.Unlock()

	a.notify(TopicCircles)

	return nil
}

func (a *App) Circles() []*model.Circle {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.circles
}

func (a *App) CreateCircle(ctx context.Context, name, description string) (*model.Circle, error) {
	u, err := a.requireUser()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		return nil, userError("El nombre es obligatorio", errors.New("empty circle name"))
	}

	c, err := a.api.CreateCircle(ctx, &model.CirclePostDTO{Name: strings.TrimSpace(name), Description: description, UserID: u.ID})
	if err != nil {
		return nil, err
	}

	_ = a.LoadCircles(ctx)

	return c, nil
}

func (a *App) JoinCircle(ctx context.Context, code string) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return userError("Ingresa un código de invitación", errors.New("empty invite code"))
	}

	if err := a.api.JoinCircle(ctx, &model.CircleJoinDTO{InviteCode: code, UserID: u.ID}); err != nil {
		return err
	}

	return a.LoadCircles(ctx)
}

func (a *App) LoadStats(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	st, err := a.api.Stats(ctx, u.ID)
	if err != nil {
		a.logger.Error("error loading stats", slog.Any("error", err))
		return err
	}

	a.mx.Lock()
	a.stats = st
	a.mx.Unlock()

	a.notify(TopicStats)

	return nil
}

// Stats returns the last loaded counters, zero ones before the first load.
func (a *App) Stats() *model.Stats {
	a.mx.RLock()
	defer a.mx.RUnlock()

	if a.stats == nil {
		return &model.Stats{}
	}

	return a.stats
}

func (a *App) LoadMissionaries(ctx context.Context) error {
	list, err := a.api.Missionaries(ctx)
	if err != nil {
		a.logger.Error("error loading missionaries", slog.Any("error", err))
		return err
	}

	a.mx.Lock()
	a.missionaries = list
	a.mx.Unlock()

	a.notify(TopicMissionaries)

	return nil
}

// Missionaries returns missionaries nearest first. Ones without a location go last.
func (a *App) Missionaries() []*MissionaryView {
	a.mx.RLock()
	defer a.mx.RUnlock()

	res := make([]*MissionaryView, 0, len(a.missionaries))

	for _, m := range a.missionaries {
		v := &MissionaryView{Missionary: m, Distance: -1}

		if m.HasLocation() && !a.opts.MyPos.IsZero() {
			v.Distance, v.Bearing = model.DistBea(a.opts.MyPos.Lat, a.opts.MyPos.Lon, float64(m.Lat), float64(m.Lon))
		}

		res = append(res, v)
	}

	sort.SliceStable(res, func(i, j int) bool {
		di, dj := res[i].Distance, res[j].Distance

		switch {
		case di < 0:
			return false
		case dj < 0:
			return true
		default:
			return di < dj
		}
	})

	return res
}

// RegisterMissionary geocodes the form location when no coordinates were given and posts it.
func (a *App) RegisterMissionary(ctx context.Context, form *model.MissionaryForm) error {
	if err := form.Validate(); err != nil {
		return userError(err.Error(), err)
	}

	if form.Lat == 0 && form.Lon == 0 {
		lat, lon, err := a.geo.Lookup(ctx, form.LocationName())
		if err != nil {
			a.logger.Warn("geocoding failed", slog.String("location", form.LocationName()), slog.Any("error", err))
			return userError(MsgMissionarySave, err)
		}

		form.Lat, form.Lon = lat, lon
	}

	if err := a.api.RegisterMissionary(ctx, form.DTO()); err != nil {
		a.logger.Error("error registering missionary", slog.Any("error", err))

		if m := UserMessage(err); m != MsgConnection && m != err.Error() {
			return userError(m, err)
		}

		return userError(MsgMissionarySave, err)
	}

	return a.LoadMissionaries(ctx)
}

// OpenRoom switches to the prayer room of the mission and starts syncing it.
func (a *App) OpenRoom(m *model.Mission) (*prayerroom.Room, error) {
	u, err := a.requireUser()
	if err != nil {
		return nil, err
	}

	a.closeRoom()

	if !a.router.EnterRoom(m) {
		return nil, userError(MsgNotLoggedIn, errors.New("can't enter room"))
	}

	room := prayerroom.New(a.api, m, u, a.opts.Room)
	room.OnChange("app", func(*prayerroom.State) {
		a.notify(TopicRoom)
	})

	a.mx.Lock()
	a.room = room
	a.mx.Unlock()

	go func() {
		if err := room.Open(a.ctx); err != nil {
			a.logger.Warn("initial room load failed", slog.Any("error", err))
		}
	}()

	return room, nil
}

func (a *App) Room() *prayerroom.Room {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.room
}

func (a *App) LeaveRoom() {
	a.router.LeaveRoom()
}

func (a *App) roomLeft() {
	a.closeRoom()

	go func() {
		_ = a.LoadMissions(a.ctx)
	}()
}

func (a *App) closeRoom() {
	a.mx.Lock()
	room := a.room
	a.room = nil
	a.mx.Unlock()

	if room != nil {
		room.Close()
	}
}
