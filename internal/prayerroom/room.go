package prayerroom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gregory-j-wilson/Suplica/internal/callbacks"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

// Defaults used when Config leaves a duration at zero.
const (
	DefaultPollInterval   = time.Second * 2
	DefaultReconcileDelay = time.Second
)

// ErrClosed is returned by operations on a room after Close.
var ErrClosed = errors.New("room is closed")

// API is the part of the remote API the room talks to.
type API interface {
	PrayerMessages(ctx context.Context, missionID, sinceID model.ID) ([]*model.PrayerMessage, error)
	PostPrayerMessage(ctx context.Context, m *model.PrayerMessagePostDTO) (*model.PrayerMessage, error)
}

// Config sets the poll period and the delay between a successful send and
// its reconciliation fetch.
type Config struct {
	PollInterval   time.Duration
	ReconcileDelay time.Duration
}

// State is a copy of the room state for rendering.
type State struct {
	Mission  *model.Mission
	Messages []*model.PrayerMessage
	Loading  bool
	Sending  bool
	Draft    string
	// Err is the last fetch or send failure, nil after a success.
	Err error
}

// Room keeps the message list of one mission in sync with the backend.
//
// Polling is skipped while any send is in flight or waiting for its
// reconciliation fetch. Merges are idempotent, so a poll that raced with a
// send can never drop the optimistic entry.
type Room struct {
	logger  *slog.Logger
	api     API
	mission *model.Mission
	user    *model.User
	conf    Config

	mx       sync.RWMutex
	messages []*model.PrayerMessage
	cursor   model.ID
	loading  bool
	sending  int
	inflight int
	draft    string
	lastErr  error
	closed   bool
	quit     chan struct{}
	timers   map[*time.Timer]struct{}
	lastSend chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	changes *callbacks.Callback[*State]
}

func New(api API, mission *model.Mission, user *model.User, conf Config) *Room {
	if conf.PollInterval <= 0 {
		conf.PollInterval = DefaultPollInterval
	}

	if conf.ReconcileDelay <= 0 {
		conf.ReconcileDelay = DefaultReconcileDelay
	}

	return &Room{
		logger:  slog.Default().With("logger", "prayer_room", "mission", mission.ID.String()),
		api:     api,
		mission: mission,
		user:    user,
		conf:    conf,
		quit:    make(chan struct{}),
		timers:  make(map[*time.Timer]struct{}),
		changes: callbacks.New[*State](),
	}
}

// OnChange registers a listener called after every state change.
func (r *Room) OnChange(name string, fn func(*State)) {
	r.changes.Add(name, fn)
}

func (r *Room) notify() {
	r.changes.Notify(r.State())
}

func (r *Room) Mission() *model.Mission {
	return r.mission
}

// Open loads the full message list and starts polling. The poll keeps running
// when the initial load fails. A closed room can't be opened.
func (r *Room) Open(ctx context.Context) error {
	r.mx.Lock()
	if r.closed {
		r.mx.Unlock()
		return ErrClosed
	}

	if r.ctx != nil {
		r.mx.Unlock()
		return fmt.Errorf("room already opened")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.loading = true
	r.mx.Unlock()

	r.notify()

	err := r.fetch(r.ctx, 0)

	r.mx.Lock()
	r.loading = false
	r.mx.Unlock()

	r.notify()

	go r.pollLoop(r.ctx)

	return err
}

// Close stops polling and pending reconciliations. Results arriving later are dropped.
func (r *Room) Close() {
	r.mx.Lock()

	if r.closed {
		r.mx.Unlock()
		return
	}

	r.closed = true
	close(r.quit)

	if r.cancel != nil {
		r.cancel()
	}

	for t := range r.timers {
		t.Stop()
	}

	r.timers = make(map[*time.Timer]struct{})
	r.mx.Unlock()

	r.logger.Debug("closed")
}

func (r *Room) isClosed() bool {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.closed
}

func (r *Room) State() *State {
	r.mx.RLock()
	defer r.mx.RUnlock()

	msgs := make([]*model.PrayerMessage, len(r.messages))
	copy(msgs, r.messages)

	return &State{
		Mission:  r.mission,
		Messages: msgs,
		Loading:  r.loading,
		Sending:  r.sending > 0,
		Draft:    r.draft,
		Err:      r.lastErr,
	}
}

func (r *Room) Messages() []*model.PrayerMessage {
	return r.State().Messages
}

func (r *Room) Draft() string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.draft
}

func (r *Room) SetDraft(s string) {
	r.mx.Lock()
	r.draft = s
	r.mx.Unlock()
}

func (r *Room) Sending() bool {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.sending > 0
}

func (r *Room) Loading() bool {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.loading
}

// Suppressed reports whether polling is paused by an outstanding send.
func (r *Room) Suppressed() bool {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.inflight > 0
}

func (r *Room) Cursor() model.ID {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.cursor
}

func (r *Room) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(r.conf.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.Suppressed() {
				pollCounter.WithLabelValues("skipped").Inc()
				continue
			}

			_ = r.fetch(ctx, r.Cursor())
		}
	}
}

// fetch gets messages after since and merges them in. A failure leaves the list unchanged.
func (r *Room) fetch(ctx context.Context, since model.ID) error {
	msgs, err := r.api.PrayerMessages(ctx, r.mission.ID, since)

	if r.isClosed() {
		return ErrClosed
	}

	if err != nil {
		pollCounter.WithLabelValues("error").Inc()
		r.logger.Warn("fetch failed", slog.Any("error", err))

		r.mx.Lock()
		r.lastErr = err
		r.mx.Unlock()

		r.notify()

		return err
	}

	pollCounter.WithLabelValues("ok").Inc()

	r.mx.Lock()
	changed := r.merge(msgs, true)
	r.lastErr = nil
	r.mx.Unlock()

	if changed {
		r.notify()
	}

	return nil
}

// Send posts the draft. An empty draft is a no-op. The draft is cleared before
// the request and restored when it fails.
func (r *Room) Send(ctx context.Context) error {
	o, err := r.Prepare()
	if err != nil || o == nil {
		return err
	}

	return o.Post(ctx)
}

// Outgoing is a captured draft waiting for its turn to be posted.
type Outgoing struct {
	room     *Room
	captured string
	text     string
	prev     chan struct{}
	done     chan struct{}
}

// Prepare captures and clears the draft and takes the next place in the send
// queue. It returns nil for an empty draft. A non-nil Outgoing must be posted,
// later sends wait for it.
func (r *Room) Prepare() (*Outgoing, error) {
	r.mx.Lock()

	if r.closed {
		r.mx.Unlock()
		return nil, ErrClosed
	}

	captured := r.draft
	text := strings.TrimSpace(captured)

	if text == "" {
		r.mx.Unlock()
		return nil, nil
	}

	r.draft = ""
	r.sending++
	r.inflight++

	o := &Outgoing{
		room:     r,
		captured: captured,
		text:     text,
		prev:     r.lastSend,
		done:     make(chan struct{}),
	}

	r.lastSend = o.done
	r.mx.Unlock()

	r.notify()

	return o, nil
}

// Post waits for earlier sends, so POST order is submission order, then posts.
func (o *Outgoing) Post(ctx context.Context) error {
	r := o.room

	defer close(o.done)

	if err := o.wait(ctx); err != nil {
		r.mx.Lock()
		r.sending--
		r.inflight--
		r.restoreDraft(o.captured)

		if !r.closed {
			r.lastErr = err
		}
		r.mx.Unlock()

		r.notify()

		return err
	}

	dto := &model.PrayerMessagePostDTO{
		MissionID: r.mission.ID,
		UserID:    r.user.GetID(),
		Message:   o.text,
		ClientID:  uuid.NewString(),
	}

	m, err := r.api.PostPrayerMessage(ctx, dto)

	r.mx.Lock()

	r.sending--

	if r.closed {
		r.inflight--
		r.mx.Unlock()

		return ErrClosed
	}

	if err != nil {
		r.inflight--
		r.restoreDraft(o.captured)
		r.lastErr = err
		r.mx.Unlock()

		sendCounter.WithLabelValues("error").Inc()
		r.logger.Warn("send failed", slog.Any("error", err))
		r.notify()

		return err
	}

	if m.MissionID == 0 {
		m.MissionID = r.mission.ID
	}

	if m.UserID == 0 {
		m.UserID = dto.UserID
		m.UserName = r.user.GetName()
	}

	r.merge([]*model.PrayerMessage{m}, false)
	r.lastErr = nil
	r.scheduleReconcile()
	r.mx.Unlock()

	sendCounter.WithLabelValues("ok").Inc()
	r.notify()

	return nil
}

// wait blocks until the previous send settles. It fails when ctx is done or
// the room is closed meanwhile.
func (o *Outgoing) wait(ctx context.Context) error {
	r := o.room

	if o.prev != nil {
		select {
		case <-o.prev:
		case <-ctx.Done():
			return ctx.Err()
		case <-r.quit:
			return ErrClosed
		}
	}

	if r.isClosed() {
		return ErrClosed
	}

	return ctx.Err()
}

// restoreDraft puts failed text back. Text typed meanwhile is kept after it.
func (r *Room) restoreDraft(captured string) {
	if r.draft == "" {
		r.draft = captured
		return
	}

	r.draft = captured + " " + r.draft
}

// scheduleReconcile releases this send's guard slot after the delay and forces one fetch.
func (r *Room) scheduleReconcile() {
	var t *time.Timer

	t = time.AfterFunc(r.conf.ReconcileDelay, func() {
		r.mx.Lock()

		if r.closed {
			r.mx.Unlock()
			return
		}

		delete(r.timers, t)
		r.inflight--
		ctx := r.ctx
		cursor := r.cursor
		r.mx.Unlock()

		if ctx == nil {
			ctx = context.Background()
		}

		_ = r.fetch(ctx, cursor)
	})

	r.timers[t] = struct{}{}
}

// merge adds new messages and updates known ones. Nothing is ever removed.
// Only list fetches move the cursor: a sent message's id says nothing about
// messages of other users committed before it.
func (r *Room) merge(msgs []*model.PrayerMessage, fromList bool) bool {
	changed := false

	for _, m := range msgs {
		if m == nil {
			continue
		}

		if fromList && m.ID > r.cursor {
			r.cursor = m.ID
		}

		if i := r.find(m); i >= 0 {
			old := r.messages[i]

			if (old.ID == 0 && m.ID != 0) || old.Message != m.Message {
				if m.ClientID == "" {
					m.ClientID = old.ClientID
				}

				r.messages[i] = m
				changed = true
			}

			continue
		}

		r.messages = append(r.messages, m)
		changed = true
	}

	if changed {
		sortMessages(r.messages)
	}

	return changed
}

func (r *Room) find(m *model.PrayerMessage) int {
	if m.ID != 0 {
		for i, x := range r.messages {
			if x.ID == m.ID {
				return i
			}
		}
	}

	if m.ClientID != "" {
		for i, x := range r.messages {
			if x.ClientID == m.ClientID && (x.ID == 0 || m.ID == 0) {
				return i
			}
		}
	}

	for i, x := range r.messages {
		if (x.ID == 0 || m.ID == 0) && (x.ClientID == "" || m.ClientID == "") && x.Same(m) {
			return i
		}
	}

	return -1
}

// sortMessages orders by id, entries without an id go last in arrival order.
func sortMessages(msgs []*model.PrayerMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i].ID, msgs[j].ID

		switch {
		case a == 0:
			return false
		case b == 0:
			return true
		default:
			return a < b
		}
	})
}
