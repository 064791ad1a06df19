package repository

// CodeRepository validates missionary registration codes.
type CodeRepository interface {
	Start() error
	Stop()
	Valid(code string) bool
}
