package model

// Answer is the envelope every backend endpoint replies with:
// {"success": true, "data": ...} or {"success": false, "message": "..."}.
type Answer[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	ID      ID     `json:"id,omitempty"`
	Token   string `json:"token,omitempty"`
}

func Ok[T any](data T) *Answer[T] {
	return &Answer[T]{Success: true, Data: data}
}

func Fail(message string) *Answer[any] {
	return &Answer[any]{Success: false, Message: message}
}
