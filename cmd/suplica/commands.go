package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gregory-j-wilson/Suplica/internal/app"
	"github.com/gregory-j-wilson/Suplica/pkg/coord"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

const msgBadCoords = "Coordenadas inválidas, usa por ejemplo -12.05, -77.04"

// setCoords fills the form position from typed coordinates. Empty input
// leaves it for the geocoder.
func setCoords(form *model.MissionaryForm, s string) error {
	lat, lon, ok, err := coord.StringToLatLon(s)
	if err != nil {
		return &app.Error{Msg: msgBadCoords, Err: err}
	}

	if !ok {
		if strings.TrimSpace(s) != "" {
			return &app.Error{Msg: msgBadCoords, Err: fmt.Errorf("no coordinates in %q", s)}
		}

		return nil
	}

	form.Lat, form.Lon = lat, lon

	return nil
}

func cmdLogin(ctx context.Context, a *app.App, p *prompter) error {
	email, err := p.Required("Email")
	if err != nil {
		return err
	}

	password, err := p.Password("Contraseña")
	if err != nil {
		return err
	}

	if err := a.Login(ctx, email, password); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Hola, %s\n", a.User().GetName())

	return nil
}

func cmdSignup(ctx context.Context, a *app.App, p *prompter) error {
	dto := new(model.UserPostDTO)

	var err error

	if dto.Name, err = p.Required("Nombre"); err != nil {
		return err
	}

	if dto.Email, err = p.Required("Email"); err != nil {
		return err
	}

	for {
		if dto.Password, err = p.Password("Contraseña"); err != nil {
			return err
		}

		again, err := p.Password("Repite la contraseña")
		if err != nil {
			return err
		}

		if dto.Password != "" && dto.Password == again {
			break
		}

		fmt.Fprintln(p.out, "Las contraseñas no coinciden")
	}

	if dto.Bio, err = p.Line("Biografía", ""); err != nil {
		return err
	}

	if err := a.Signup(ctx, dto); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Bienvenido, %s\n", a.User().GetName())

	return nil
}

func cmdLogout(ctx context.Context, a *app.App, out io.Writer) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	if a.User() == nil {
		fmt.Fprintln(out, "No hay sesión")
		return nil
	}

	if err := a.Logout(); err != nil {
		return err
	}

	fmt.Fprintln(out, "Sesión cerrada")

	return nil
}

func cmdWhoami(ctx context.Context, a *app.App, out io.Writer) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	u := a.User()
	if u == nil {
		fmt.Fprintln(out, app.MsgNotLoggedIn)
		return nil
	}

	fmt.Fprintf(out, "%s <%s> #%s\n", u.GetName(), u.Email, u.ID)

	st := a.Stats()
	fmt.Fprintf(out, "oraciones %s, misiones %s, respondidas %s\n", number(st.Prayers), number(st.Missions), number(st.Answered))

	return nil
}

func cmdRegisterMissionary(ctx context.Context, a *app.App, p *prompter) error {
	form := new(model.MissionaryForm)

	var coords string

	fields := []struct {
		label    string
		dst      *string
		required bool
	}{
		{"Código de registro", &form.Code, true},
		{"Nombre", &form.Name, true},
		{"Familia", &form.Family, false},
		{"Descripción", &form.Description, false},
		{"Iglesia", &form.Church, false},
		{"Teléfono", &form.Phone, false},
		{"Email", &form.Email, false},
		{"Ciudad", &form.City, true},
		{"Estado", &form.State, false},
		{"País", &form.Country, true},
		{"Coordenadas (opcional)", &coords, false},
	}

	for _, f := range fields {
		var err error

		if f.required {
			*f.dst, err = p.Required(f.label)
		} else {
			*f.dst, err = p.Line(f.label, "")
		}

		if err != nil {
			return err
		}
	}

	if err := setCoords(form, coords); err != nil {
		return err
	}

	if err := a.RegisterMissionary(ctx, form); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Registrado en %s\n", form.LocationName())

	return nil
}
