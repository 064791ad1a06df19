package repository

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

var _ CodeRepository = &CodesFileRepository{}

// Code is one entry of the registration codes file.
type Code struct {
	Code     string `yaml:"code"`
	Church   string `yaml:"iglesia,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// CodesFileRepository keeps registration codes from a yaml file, reloaded on
// every write, plus a fixed set given at start.
type CodesFileRepository struct {
	codesFile string
	logger    *slog.Logger
	static    map[string]bool
	codes     map[string]*Code

	watcher *fsnotify.Watcher

	mx sync.RWMutex
}

func NewFileCodesRepo(codesFile string, static []string) *CodesFileRepository {
	r := &CodesFileRepository{
		logger:    slog.Default().With("logger", "codes"),
		codesFile: codesFile,
		static:    make(map[string]bool),
		codes:     make(map[string]*Code),
	}

	for _, c := range static {
		if c = normalize(c); c != "" {
			r.static[c] = true
		}
	}

	if codesFile != "" {
		if err := r.loadCodesFile(); err != nil {
			r.logger.Error("error loading codes file", slog.Any("error", err))
		}
	}

	return r
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *CodesFileRepository) loadCodesFile() error {
	r.mx.Lock()
	defer r.mx.Unlock()

	if _, err := os.Lstat(r.codesFile); os.IsNotExist(err) {
		f, err := os.Create(r.codesFile)
		if err != nil {
			return err
		}

		return f.Close()
	}

	dat, err := os.ReadFile(r.codesFile)
	if err != nil {
		return err
	}

	codes := make([]*Code, 0)

	if err := yaml.Unmarshal(dat, &codes); err != nil {
		return err
	}

	r.codes = make(map[string]*Code)

	for _, c := range codes {
		if c == nil {
			continue
		}

		if k := normalize(c.Code); k != "" {
			r.codes[k] = c
		}
	}

	r.logger.Info(fmt.Sprintf("loaded %d codes", len(r.codes)))

	return nil
}

func (r *CodesFileRepository) Start() error {
	if r.codesFile == "" {
		return nil
	}

	var err error
	r.watcher, err = fsnotify.NewWatcher()

	if err != nil {
		return err
	}

	if err := r.watcher.Add(r.codesFile); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-r.watcher.Events:
				if !ok {
					return
				}

				r.logger.Debug(fmt.Sprintf("event: %v", event))

				if event.Has(fsnotify.Write) && event.Name == r.codesFile {
					r.logger.Info("codes file is modified, reloading")

					if err := r.loadCodesFile(); err != nil {
						r.logger.Error("error", slog.Any("error", err))
					}
				}
			case err, ok := <-r.watcher.Errors:
				if !ok {
					return
				}

				r.logger.Error("error", slog.Any("error", err))
			}
		}
	}()

	return nil
}

func (r *CodesFileRepository) Stop() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

func (r *CodesFileRepository) Valid(code string) bool {
	code = normalize(code)
	if code == "" {
		return false
	}

	r.mx.RLock()
	defer r.mx.RUnlock()

	if r.static[code] {
		return true
	}

	c, ok := r.codes[code]

	return ok && !c.Disabled
}

// Len returns the number of usable codes.
func (r *CodesFileRepository) Len() int {
	r.mx.RLock()
	defer r.mx.RUnlock()

	n := len(r.static)

	for k, c := range r.codes {
		if !c.Disabled && !r.static[k] {
			n++
		}
	}

	return n
}
