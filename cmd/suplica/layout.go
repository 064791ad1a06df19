package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jroimartin/gocui"

	"github.com/gregory-j-wilson/Suplica/internal/app"
	"github.com/gregory-j-wilson/Suplica/internal/router"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

var menu = []struct {
	key  string
	view router.View
	name string
}{
	{"1", router.Home, "Inicio"},
	{"2", router.Circles, "Círculos"},
	{"3", router.Stats, "Estadísticas"},
	{"4", router.Missionaries, "Misioneros"},
	{"5", router.NewMission, "Nueva misión"},
}

var help = map[router.View]string{
	router.Auth:         "Enter iniciar sesión · s crear cuenta · q salir",
	router.Home:         "↑↓ elegir · Enter sala de oración · p orar · f filtro · r recargar · ^L salir de la cuenta",
	router.NewMission:   "Enter completar el formulario · 1 volver",
	router.Circles:      "c crear círculo · j unirse con código · r recargar",
	router.Stats:        "r recargar",
	router.Missionaries: "a registrarme como misionero · r recargar",
	router.PrayerRoom:   "Enter enviar · Esc volver",
}

func setView(g *gocui.Gui, name string, x0, y0, x1, y1 int, init func(v *gocui.View)) (*gocui.View, error) {
	v, err := g.SetView(name, x0, y0, x1, y1)
	if err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return nil, err
		}

		init(v)
	}

	return v, nil
}

func (u *UI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	current := u.app.Router().Current()
	f := u.activeForm()
	withInput := f != nil || current == router.PrayerRoom

	bottom := maxY - 4
	if withInput {
		bottom = maxY - 7
	}

	menuV, err := setView(g, menuView, 0, 0, maxX-1, 2, func(v *gocui.View) {
		v.Frame = true
		v.Title = "Súplica"
	})
	if err != nil {
		return err
	}

	mainV, err := setView(g, mainView, 0, 3, maxX-1, bottom, func(v *gocui.View) {
		v.Frame = true
		v.Wrap = true
		v.SelBgColor = gocui.ColorWhite
		v.SelFgColor = gocui.ColorBlack
	})
	if err != nil {
		return err
	}

	statusV, err := setView(g, statusView, 0, maxY-3, maxX-1, maxY-1, func(v *gocui.View) {
		v.Frame = true
	})
	if err != nil {
		return err
	}

	u.drawMenu(menuV, current)
	u.drawStatus(statusV, current)

	mainV.Title = viewTitle(current)
	mainV.Highlight = false
	mainV.Autoscroll = current == router.PrayerRoom
	mainV.Clear()

	width, _ := mainV.Size()

	switch current {
	case router.Auth:
		u.drawAuth(mainV)
	case router.Home:
		u.drawHome(mainV, width)
	case router.NewMission:
		u.drawNewMission(mainV)
	case router.Circles:
		u.drawCircles(mainV, width)
	case router.Stats:
		u.drawStats(mainV)
	case router.Missionaries:
		u.drawMissionaries(mainV, width)
	case router.PrayerRoom:
		u.drawRoom(mainV, width)
	}

	if !withInput {
		if err := g.DeleteView(inputView); err != nil && !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}

		_, err := g.SetCurrentView(mainView)

		return err
	}

	inputV, err := setView(g, inputView, 0, maxY-6, maxX-1, maxY-4, func(v *gocui.View) {
		v.Frame = true
		v.Editable = true
		v.Editor = gocui.EditorFunc(u.roomEditor)
	})
	if err != nil {
		return err
	}

	if f != nil {
		fl := f.current()
		inputV.Title = fmt.Sprintf("%s (%d/%d)", fl.label, len(f.values)+1, len(f.fields))

		if fl.def != "" {
			inputV.Title += " [" + fl.def + "]"
		}

		inputV.Mask = 0
		if fl.mask {
			inputV.Mask = '*'
		}
	} else if room := u.app.Room(); room != nil {
		inputV.Title = "Tu oración"
		inputV.Mask = 0
		syncInput(inputV, room.Draft())
	}

	_, err = g.SetCurrentView(inputView)

	return err
}

// syncInput rewrites the input line when the draft was changed outside the
// editor, like a cleared draft after send or a restored one after a failure.
func syncInput(v *gocui.View, draft string) {
	if strings.TrimRight(v.Buffer(), "\n") == draft {
		return
	}

	v.Clear()
	fmt.Fprint(v, draft)
	_ = v.SetCursor(len([]rune(draft)), 0)
}

func viewTitle(v router.View) string {
	switch v {
	case router.Auth:
		return "Bienvenido"
	case router.Home:
		return "Misiones"
	case router.NewMission:
		return "Nueva misión"
	case router.Circles:
		return "Círculos de oración"
	case router.Stats:
		return "Estadísticas"
	case router.Missionaries:
		return "Misioneros"
	case router.PrayerRoom:
		return "Sala de oración"
	}

	return v.String()
}

func (u *UI) drawMenu(v *gocui.View, current router.View) {
	v.Clear()

	if current == router.Auth {
		fmt.Fprint(v, " Súplica · oración por las misiones")
		return
	}

	for _, m := range menu {
		if m.view == current {
			fmt.Fprintf(v, " \x1b[7m %s %s \x1b[0m", m.key, m.name)
		} else {
			fmt.Fprintf(v, "  %s %s ", m.key, m.name)
		}
	}

	if usr := u.app.User(); usr != nil {
		fmt.Fprintf(v, "   (%s) %s", usr.Initial(), usr.GetName())
	}
}

func (u *UI) drawStatus(v *gocui.View, current router.View) {
	v.Clear()

	u.mx.Lock()
	status, isErr, busy := u.status, u.statusErr, u.busy
	if time.Since(u.statusTime) > statusShown {
		status = ""
	}
	u.mx.Unlock()

	switch {
	case busy:
		fmt.Fprint(v, " Cargando…")
	case status != "" && isErr:
		fmt.Fprintf(v, " \x1b[31m%s\x1b[0m", status)
	case status != "":
		fmt.Fprintf(v, " \x1b[32m%s\x1b[0m", status)
	default:
		fmt.Fprint(v, " "+help[current])
	}
}

func (u *UI) drawAuth(v *gocui.View) {
	fmt.Fprintln(v)
	fmt.Fprintln(v, "  Una comunidad que ora por las misiones.")
	fmt.Fprintln(v)
	fmt.Fprintln(v, "  Enter  iniciar sesión")
	fmt.Fprintln(v, "  s      crear una cuenta")
}

func (u *UI) drawList(v *gocui.View, lines []string) {
	if len(lines) == 0 {
		return
	}

	sel := u.selectedIndex(len(lines))

	for _, l := range lines {
		fmt.Fprintln(v, l)
	}

	v.Highlight = true
	_ = v.SetOrigin(0, 0)
	_ = v.SetCursor(0, sel)
}

func (u *UI) drawHome(v *gocui.View, width int) {
	missions := u.app.Missions()

	fmt.Fprintf(v, " filtro: %s\n", filterLabel(u.app.Filter()))

	if len(missions) == 0 {
		fmt.Fprintln(v, "\n  No hay misiones")
		return
	}

	lines := make([]string, len(missions))

	for i, m := range missions {
		mark := "  "
		if u.app.Prayed(m.ID) {
			mark = "✓ "
		}

		lines[i] = cut(fmt.Sprintf("%s%s  · %s · %s", mark, m.String(), m.UserName, m.Description), width)
	}

	// header line shifts list rows by one
	sel := u.selectedIndex(len(lines))

	for _, l := range lines {
		fmt.Fprintln(v, l)
	}

	v.Highlight = true
	_ = v.SetOrigin(0, 0)
	_ = v.SetCursor(0, sel+1)
}

func filterLabel(f string) string {
	switch f {
	case "", model.AllMissionsFilter:
		return "todas"
	case model.OwnMissionsFilter:
		return "mis misiones"
	default:
		c := model.Category(f)

		return c.Icon() + " " + c.Label()
	}
}

func (u *UI) drawNewMission(v *gocui.View) {
	d := u.app.NewMissionDraft()

	fmt.Fprintln(v)
	fmt.Fprintln(v, "  Comparte una necesidad de oración.")
	fmt.Fprintln(v)
	fmt.Fprintf(v, "  categoría por defecto: %s %s\n", d.Category.Icon(), d.Category.Label())
	fmt.Fprintf(v, "  urgencia por defecto:  %s\n", d.Urgency)
	fmt.Fprintf(v, "  fecha de inicio:       %s\n", d.StartDate)
	fmt.Fprintln(v)
	fmt.Fprintln(v, "  Enter para empezar")
}

func (u *UI) drawCircles(v *gocui.View, width int) {
	circles := u.app.Circles()

	if len(circles) == 0 {
		fmt.Fprintln(v, "\n  Aún no perteneces a ningún círculo")
		return
	}

	lines := make([]string, len(circles))

	for i, c := range circles {
		lines[i] = cut(fmt.Sprintf(" %-24s %3d miembros  código %s  %s", cut(c.Name, 24), c.Members, c.InviteCode, c.Description), width)
	}

	u.drawList(v, lines)
}

func (u *UI) drawStats(v *gocui.View) {
	st := u.app.Stats()

	fmt.Fprintln(v)
	fmt.Fprintf(v, "  Oraciones            %s\n", number(st.Prayers))
	fmt.Fprintf(v, "  Misiones             %s\n", number(st.Missions))
	fmt.Fprintf(v, "  Misiones respondidas %s\n", number(st.Answered))
	fmt.Fprintln(v)
	fmt.Fprintf(v, "  Meta mensual (%d)   %s\n", model.MonthlyGoal, bar(st.MonthlyProgress()))
	fmt.Fprintf(v, "  Meta anual (%d)     %s\n", model.YearlyGoal, bar(st.YearlyProgress()))
}

func (u *UI) drawMissionaries(v *gocui.View, width int) {
	list := u.app.Missionaries()

	if len(list) == 0 {
		fmt.Fprintln(v, "\n  No hay misioneros registrados")
		return
	}

	lines := make([]string, len(list))

	for i, m := range list {
		lines[i] = cut(fmt.Sprintf(" %-28s %-14s %-28s %s", cut(m.DisplayName(), 28), distance(m), cut(m.Location, 28), m.Church), width)
	}

	u.drawList(v, lines)
}

func (u *UI) drawRoom(v *gocui.View, width int) {
	room := u.app.Room()
	if room == nil {
		return
	}

	st := room.State()
	me := u.app.User().GetID()

	if st.Mission != nil {
		v.Title = "Sala de oración · " + cut(st.Mission.Title, width-20)
		fmt.Fprintf(v, " %s\n\n", cut(st.Mission.Description, width))
	}

	if st.Loading && len(st.Messages) == 0 {
		fmt.Fprintln(v, "  Cargando…")
	}

	for _, m := range st.Messages {
		name := m.UserName
		if name == "" {
			name = "Anónimo"
		}

		if m.UserID == me {
			name = "Tú"
		}

		pending := ""
		if m.ID == 0 {
			pending = " …"
		}

		fmt.Fprintf(v, " %s %s: %s%s\n", msgTime(m.CreatedAt), name, m.Text(), pending)
	}

	switch {
	case st.Sending:
		fmt.Fprintln(v, "\n  Enviando…")
	case st.Err != nil:
		fmt.Fprintf(v, "\n  \x1b[31m%s\x1b[0m\n", app.UserMessage(st.Err))
	}
}
