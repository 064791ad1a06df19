package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"

	"github.com/gregory-j-wilson/Suplica/internal/router"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

// filters is the order f cycles through on Home.
func filters() []string {
	res := []string{model.AllMissionsFilter, model.OwnMissionsFilter}

	for _, c := range model.Categories {
		res = append(res, string(c))
	}

	return res
}

func nextFilter(current string) string {
	all := filters()

	for i, f := range all {
		if f == current {
			return all[(i+1)%len(all)]
		}
	}

	return all[0]
}

func yes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "si", "sí", "y", "yes", "1", "true":
		return true
	}

	return false
}

func (u *UI) enter(_ *gocui.Gui, _ *gocui.View) error {
	switch u.app.Router().Current() {
	case router.Auth:
		u.login()
	case router.Home:
		u.openRoom()
	case router.NewMission:
		u.newMission()
	}

	return nil
}

func (u *UI) login() {
	u.ask([]field{{label: "Email"}, {label: "Contraseña", mask: true}}, func(v []string) {
		u.async(func(ctx context.Context) error {
			return u.app.Login(ctx, v[0], v[1])
		}, "")
	})
}

func (u *UI) signup(_ *gocui.Gui, _ *gocui.View) error {
	if u.app.Router().Current() != router.Auth {
		return nil
	}

	u.ask([]field{
		{label: "Nombre"},
		{label: "Email"},
		{label: "Contraseña", mask: true},
		{label: "Biografía"},
	}, func(v []string) {
		u.async(func(ctx context.Context) error {
			return u.app.Signup(ctx, &model.UserPostDTO{Name: v[0], Email: v[1], Password: v[2], Bio: v[3]})
		}, "Cuenta creada")
	})

	return nil
}

func (u *UI) logout(_ *gocui.Gui, _ *gocui.View) error {
	if err := u.app.Logout(); err != nil {
		u.setStatus(err)
	}

	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.app.User() == nil {
		return nil
	}

	var f func(ctx context.Context) error

	switch u.app.Router().Current() {
	case router.Home:
		f = u.app.LoadMissions
	case router.Circles:
		f = u.app.LoadCircles
	case router.Stats:
		f = u.app.LoadStats
	case router.Missionaries:
		f = u.app.LoadMissionaries
	default:
		return nil
	}

	u.async(f, "")

	return nil
}

func (u *UI) selectedMission() *model.Mission {
	missions := u.app.Missions()
	if len(missions) == 0 {
		return nil
	}

	return missions[u.selectedIndex(len(missions))]
}

func (u *UI) pray(_ *gocui.Gui, _ *gocui.View) error {
	if u.app.Router().Current() != router.Home {
		return nil
	}

	if m := u.selectedMission(); m != nil {
		u.async(func(ctx context.Context) error {
			return u.app.Pray(ctx, m)
		}, "Oración enviada 🙏")
	}

	return nil
}

func (u *UI) nextFilter(_ *gocui.Gui, _ *gocui.View) error {
	if u.app.Router().Current() == router.Home {
		u.app.SetFilter(nextFilter(u.app.Filter()))

		u.mx.Lock()
		u.selected = 0
		u.mx.Unlock()
	}

	return nil
}

func (u *UI) openRoom() {
	m := u.selectedMission()
	if m == nil {
		return
	}

	if _, err := u.app.OpenRoom(m); err != nil {
		u.setStatus(err)
	}
}

func (u *UI) newMission() {
	d := u.app.NewMissionDraft()

	cats := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		cats[i] = string(c)
	}

	urgs := make([]string, len(model.Urgencies))
	for i, c := range model.Urgencies {
		urgs[i] = string(c)
	}

	u.ask([]field{
		{label: "Título"},
		{label: "Descripción"},
		{label: "Categoría: " + strings.Join(cats, ", "), def: string(d.Category)},
		{label: "Urgencia: " + strings.Join(urgs, ", "), def: string(d.Urgency)},
		{label: "¿Pública? s/n", def: "s"},
		{label: "Fecha de inicio", def: d.StartDate},
	}, func(v []string) {
		d.Title = v[0]
		d.Description = v[1]
		d.Category = model.Category(strings.ToLower(v[2]))
		d.Urgency = model.Urgency(strings.ToLower(v[3]))
		d.Public = yes(v[4])
		d.StartDate = v[5]

		u.async(func(ctx context.Context) error {
			return u.app.CreateMission(ctx, d)
		}, "Misión creada")
	})
}

func (u *UI) createCircle(_ *gocui.Gui, _ *gocui.View) error {
	if u.app.Router().Current() != router.Circles {
		return nil
	}

	u.ask([]field{{label: "Nombre del círculo"}, {label: "Descripción"}}, func(v []string) {
		u.async(func(ctx context.Context) error {
			c, err := u.app.CreateCircle(ctx, v[0], v[1])
			if err != nil {
				return err
			}

			u.info(fmt.Sprintf("Círculo creado, código %s", c.InviteCode))

			return nil
		}, "")
	})

	return nil
}

func (u *UI) joinCircle(_ *gocui.Gui, _ *gocui.View) error {
	if u.app.Router().Current() != router.Circles {
		return nil
	}

	u.ask([]field{{label: "Código de invitación"}}, func(v []string) {
		u.async(func(ctx context.Context) error {
			return u.app.JoinCircle(ctx, v[0])
		}, "Te uniste al círculo")
	})

	return nil
}

func (u *UI) registerMissionary(_ *gocui.Gui, _ *gocui.View) error {
	if u.app.Router().Current() != router.Missionaries {
		return nil
	}

	u.ask([]field{
		{label: "Código de registro"},
		{label: "Nombre"},
		{label: "Familia"},
		{label: "Descripción"},
		{label: "Iglesia"},
		{label: "Teléfono"},
		{label: "Email"},
		{label: "Ciudad"},
		{label: "Estado"},
		{label: "País"},
		{label: "Coordenadas (opcional)"},
	}, func(v []string) {
		form := &model.MissionaryForm{
			Code:        v[0],
			Name:        v[1],
			Family:      v[2],
			Description: v[3],
			Church:      v[4],
			Phone:       v[5],
			Email:       v[6],
			City:        v[7],
			State:       v[8],
			Country:     v[9],
		}

		if err := setCoords(form, v[10]); err != nil {
			u.setStatus(err)
			return
		}

		u.async(func(ctx context.Context) error {
			return u.app.RegisterMissionary(ctx, form)
		}, "Registro guardado")
	})

	return nil
}
