package app

import (
	"errors"

	"github.com/gregory-j-wilson/Suplica/internal/api"
	"github.com/gregory-j-wilson/Suplica/internal/geocode"
)

const (
	MsgBadLogin       = "Email o contraseña incorrectos"
	MsgConnection     = "Error de conexión. Verifica que el backend esté funcionando."
	MsgSignupFailed   = "Error al crear cuenta"
	MsgMissionarySave = "Error al guardar. Verifica la ubicación."
	MsgNotLoggedIn    = "Inicia sesión para continuar"
)

// Error carries a message that can be shown to the user.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func userError(msg string, err error) *Error {
	return &Error{Msg: msg, Err: err}
}

// UserMessage turns any error into text for the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}

	switch {
	case errors.Is(err, api.ErrTransport), errors.Is(err, api.ErrMalformed):
		return MsgConnection
	case errors.Is(err, geocode.ErrNotFound):
		return MsgMissionarySave
	}

	if m := api.Message(err); m != "" {
		return m
	}

	return err.Error()
}

func loginError(err error) error {
	switch {
	case errors.Is(err, api.ErrBadCredentials):
		return userError(MsgBadLogin, err)
	case errors.Is(err, api.ErrUnauthorized):
		return userError(MsgBadLogin, err)
	default:
		return userError(MsgConnection, err)
	}
}
