package router

import (
	"log/slog"
	"sync"

	"github.com/gregory-j-wilson/Suplica/internal/callbacks"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

type View int

const (
	Auth View = iota
	Home
	NewMission
	Circles
	Stats
	Missionaries
	PrayerRoom
)

var viewNames = map[View]string{
	Auth:         "auth",
	Home:         "home",
	NewMission:   "nueva-mision",
	Circles:      "circulos",
	Stats:        "estadisticas",
	Missionaries: "misioneros",
	PrayerRoom:   "prayer-room",
}

func (v View) String() string {
	if s, ok := viewNames[v]; ok {
		return s
	}

	return "unknown"
}

// Router holds the single current view. There is no history.
type Router struct {
	logger *slog.Logger

	mx      sync.RWMutex
	view    View
	mission *model.Mission
	authed  bool

	changes *callbacks.Callback[View]
	onLeave func()
}

func New() *Router {
	return &Router{
		logger:  slog.Default().With("logger", "router"),
		view:    Auth,
		changes: callbacks.New[View](),
	}
}

// OnLeaveRoom sets the function run after the prayer room is left, normally a mission reload.
func (r *Router) OnLeaveRoom(fn func()) {
	r.onLeave = fn
}

func (r *Router) OnChange(name string, fn func(View)) {
	r.changes.Add(name, fn)
}

func (r *Router) Current() View {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.view
}

// Mission is the mission of the open prayer room, nil outside of it.
func (r *Router) Mission() *model.Mission {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.mission
}

// SetAuthenticated switches between the Auth branch and Home.
func (r *Router) SetAuthenticated(authed bool) {
	r.mx.Lock()
	r.authed = authed
	r.mission = nil

	if authed {
		r.view = Home
	} else {
		r.view = Auth
	}

	v := r.view
	r.mx.Unlock()

	r.changes.Notify(v)
}

// Go switches to a top level view. Unauthenticated routers stay on Auth.
func (r *Router) Go(v View) bool {
	if v == PrayerRoom {
		return false
	}

	r.mx.Lock()

	if !r.authed && v != Auth {
		r.mx.Unlock()
		r.logger.Debug("not authenticated", slog.String("view", v.String()))

		return false
	}

	leaving := r.view == PrayerRoom
	r.view = v
	r.mission = nil
	r.mx.Unlock()

	r.changes.Notify(v)

	if leaving && r.onLeave != nil {
		r.onLeave()
	}

	return true
}

// EnterRoom opens the prayer room of the mission.
func (r *Router) EnterRoom(m *model.Mission) bool {
	if m == nil {
		return false
	}

	r.mx.Lock()

	if !r.authed {
		r.mx.Unlock()
		return false
	}

	r.view = PrayerRoom
	r.mission = m
	r.mx.Unlock()

	r.changes.Notify(PrayerRoom)

	return true
}

// LeaveRoom goes back Home and triggers the leave hook.
func (r *Router) LeaveRoom() {
	if r.Current() != PrayerRoom {
		return
	}

	r.Go(Home)
}
