package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jroimartin/gocui"

	"github.com/gregory-j-wilson/Suplica/internal/app"
	"github.com/gregory-j-wilson/Suplica/internal/router"
)

const (
	menuView   = "menu"
	mainView   = "main"
	statusView = "status"
	inputView  = "input"

	statusShown = time.Second * 5
)

type binding struct {
	view string
	key  any
	mod  gocui.Modifier
	f    func(_ *gocui.Gui, _ *gocui.View) error
}

// field is one question of a form typed into the input line.
type field struct {
	label string
	def   string
	mask  bool
}

type form struct {
	fields []field
	values []string
	done   func(values []string)
}

func (f *form) current() field {
	return f.fields[len(f.values)]
}

type UI struct {
	logger *slog.Logger
	app    *app.App
	g      *gocui.Gui
	ctx    context.Context

	mx         sync.Mutex
	form       *form
	selected   int
	status     string
	statusErr  bool
	statusTime time.Time
	busy       bool
}

func NewUI(a *app.App) *UI {
	return &UI{
		logger: slog.Default().With("logger", "ui"),
		app:    a,
	}
}

func (u *UI) Run(ctx context.Context) error {
	var err error

	u.ctx = ctx

	u.g, err = gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}

	defer u.g.Close()

	u.g.Cursor = true
	u.g.InputEsc = true
	u.g.SetManagerFunc(u.layout)

	if err := u.setBindings(); err != nil {
		return err
	}

	u.app.OnChange("ui", func(string) {
		u.redraw()
	})

	go func() {
		if err := u.app.Start(ctx); err != nil {
			u.setStatus(err)
		}
	}()

	go u.ticker(ctx)

	if err := u.g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}

	if r := u.app.Room(); r != nil {
		r.Close()
	}

	return nil
}

func (u *UI) ticker(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			u.g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
			return
		case <-t.C:
			u.redraw()
		}
	}
}

func (u *UI) redraw() {
	if u.g == nil {
		return
	}

	u.g.Update(func(*gocui.Gui) error { return nil })
}

func (u *UI) setStatus(err error) {
	u.mx.Lock()
	u.status = app.UserMessage(err)
	u.statusErr = true
	u.statusTime = time.Now()
	u.mx.Unlock()

	u.logger.Debug("status", slog.Any("error", err))
	u.redraw()
}

func (u *UI) info(msg string) {
	u.mx.Lock()
	u.status = msg
	u.statusErr = false
	u.statusTime = time.Now()
	u.mx.Unlock()

	u.redraw()
}

// async runs a backend call off the gui goroutine and shows its error.
func (u *UI) async(f func(ctx context.Context) error, ok string) {
	u.mx.Lock()
	u.busy = true
	u.mx.Unlock()

	u.redraw()

	go func() {
		err := f(u.ctx)

		u.mx.Lock()
		u.busy = false
		u.mx.Unlock()

		if err != nil {
			u.setStatus(err)
			return
		}

		if ok != "" {
			u.info(ok)
		} else {
			u.redraw()
		}
	}()
}

func (u *UI) ask(fields []field, done func(values []string)) {
	u.mx.Lock()
	u.form = &form{fields: fields, done: done}
	u.mx.Unlock()
}

func (u *UI) activeForm() *form {
	u.mx.Lock()
	defer u.mx.Unlock()

	return u.form
}

func (u *UI) setBindings() error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, gocui.ModNone, u.quit},
		{mainView, 'q', gocui.ModNone, u.quit},
		{mainView, gocui.KeyArrowUp, gocui.ModNone, u.cursorUp},
		{mainView, gocui.KeyArrowDown, gocui.ModNone, u.cursorDown},
		{mainView, gocui.KeyEnter, gocui.ModNone, u.enter},
		{mainView, gocui.KeyCtrlL, gocui.ModNone, u.logout},
		{mainView, '1', gocui.ModNone, u.goTo(router.Home)},
		{mainView, '2', gocui.ModNone, u.goTo(router.Circles)},
		{mainView, '3', gocui.ModNone, u.goTo(router.Stats)},
		{mainView, '4', gocui.ModNone, u.goTo(router.Missionaries)},
		{mainView, '5', gocui.ModNone, u.goTo(router.NewMission)},
		{mainView, 'r', gocui.ModNone, u.reload},
		{mainView, 'p', gocui.ModNone, u.pray},
		{mainView, 'f', gocui.ModNone, u.nextFilter},
		{mainView, 's', gocui.ModNone, u.signup},
		{mainView, 'c', gocui.ModNone, u.createCircle},
		{mainView, 'j', gocui.ModNone, u.joinCircle},
		{mainView, 'a', gocui.ModNone, u.registerMissionary},
		{inputView, gocui.KeyEnter, gocui.ModNone, u.submit},
		{inputView, gocui.KeyEsc, gocui.ModNone, u.escape},
		{mainView, gocui.KeyEsc, gocui.ModNone, u.escape},
	}

	for _, b := range bindings {
		if err := u.g.SetKeybinding(b.view, b.key, b.mod, b.f); err != nil {
			return err
		}
	}

	return nil
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func (u *UI) goTo(v router.View) func(_ *gocui.Gui, _ *gocui.View) error {
	return func(_ *gocui.Gui, _ *gocui.View) error {
		if u.app.Router().Go(v) {
			u.mx.Lock()
			u.selected = 0
			u.mx.Unlock()
		}

		return nil
	}
}

func (u *UI) cursorUp(_ *gocui.Gui, _ *gocui.View) error {
	u.mx.Lock()
	if u.selected > 0 {
		u.selected--
	}
	u.mx.Unlock()

	return nil
}

func (u *UI) cursorDown(_ *gocui.Gui, _ *gocui.View) error {
	n := u.listLen()

	u.mx.Lock()
	if u.selected < n-1 {
		u.selected++
	}
	u.mx.Unlock()

	return nil
}

func (u *UI) listLen() int {
	switch u.app.Router().Current() {
	case router.Home:
		return len(u.app.Missions())
	case router.Circles:
		return len(u.app.Circles())
	case router.Missionaries:
		return len(u.app.Missionaries())
	default:
		return 0
	}
}

func (u *UI) selectedIndex(n int) int {
	u.mx.Lock()
	defer u.mx.Unlock()

	if u.selected >= n {
		u.selected = n - 1
	}

	if u.selected < 0 {
		u.selected = 0
	}

	return u.selected
}

func (u *UI) escape(_ *gocui.Gui, _ *gocui.View) error {
	if u.activeForm() != nil {
		u.mx.Lock()
		u.form = nil
		u.mx.Unlock()

		return nil
	}

	if u.app.Router().Current() == router.PrayerRoom {
		u.app.LeaveRoom()
	}

	return nil
}

// submit handles Enter on the input line: the next form answer, or a
// prayer room message.
func (u *UI) submit(_ *gocui.Gui, v *gocui.View) error {
	if f := u.activeForm(); f != nil {
		val := strings.TrimSpace(v.Buffer())
		if val == "" {
			val = f.current().def
		}

		v.Clear()
		_ = v.SetCursor(0, 0)

		u.mx.Lock()
		f.values = append(f.values, val)
		finished := len(f.values) == len(f.fields)

		if finished {
			u.form = nil
		}
		u.mx.Unlock()

		if finished {
			f.done(f.values)
		}

		return nil
	}

	if room := u.app.Room(); room != nil {
		room.SetDraft(strings.TrimRight(v.Buffer(), "\n"))

		// the draft is taken here so a second Enter can't send it again
		out, err := room.Prepare()
		if err != nil {
			u.setStatus(err)
			return nil
		}

		if out == nil {
			return nil
		}

		v.Clear()
		_ = v.SetCursor(0, 0)

		go func() {
			if err := out.Post(u.ctx); err != nil {
				u.setStatus(err)
			}
		}()
	}

	return nil
}

// roomEditor keeps the room draft in step with the input line.
func (u *UI) roomEditor(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	gocui.DefaultEditor.Edit(v, key, ch, mod)

	if u.activeForm() != nil {
		return
	}

	if room := u.app.Room(); room != nil {
		room.SetDraft(strings.TrimRight(v.Buffer(), "\n"))
	}
}
