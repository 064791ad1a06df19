package prayerroom

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregory-j-wilson/Suplica/pkg/model"
)

var errDown = errors.New("backend down")

// fakeAPI is an in-memory prayer_room backend.
type fakeAPI struct {
	mx       sync.Mutex
	msgs     []*model.PrayerMessage
	nextID   model.ID
	fetches  int
	since    []model.ID
	posted   []string
	noCursor bool
	noReply  bool
	fetchErr error
	postErr  error
	// block, when set, holds every POST until closed
	block   chan struct{}
	posting chan string
}

func newFake(msgs ...*model.PrayerMessage) *fakeAPI {
	f := &fakeAPI{nextID: 1, posting: make(chan string, 10)}

	for _, m := range msgs {
		f.msgs = append(f.msgs, m)

		if m.ID >= f.nextID {
			f.nextID = m.ID + 1
		}
	}

	return f
}

func (f *fakeAPI) PrayerMessages(_ context.Context, missionID, sinceID model.ID) ([]*model.PrayerMessage, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	f.fetches++
	f.since = append(f.since, sinceID)

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	res := make([]*model.PrayerMessage, 0)

	for _, m := range f.msgs {
		if m.MissionID != missionID {
			continue
		}

		if !f.noCursor && m.ID <= sinceID {
			continue
		}

		c := *m
		c.ClientID = ""
		res = append(res, &c)
	}

	return res, nil
}

func (f *fakeAPI) PostPrayerMessage(_ context.Context, dto *model.PrayerMessagePostDTO) (*model.PrayerMessage, error) {
	f.posting <- dto.Message

	f.mx.Lock()
	block := f.block
	f.mx.Unlock()

	if block != nil {
		<-block
	}

	f.mx.Lock()
	defer f.mx.Unlock()

	f.posted = append(f.posted, dto.Message)

	if f.postErr != nil {
		return nil, f.postErr
	}

	m := &model.PrayerMessage{
		ID:        f.nextID,
		MissionID: dto.MissionID,
		UserID:    dto.UserID,
		UserName:  "Ana",
		Message:   dto.Message,
		ClientID:  dto.ClientID,
		CreatedAt: model.Now(),
	}

	f.nextID++
	f.msgs = append(f.msgs, m)

	if f.noReply {
		return nil, errors.New("no message in reply")
	}

	c := *m

	return &c, nil
}

func (f *fakeAPI) fetchCount() int {
	f.mx.Lock()
	defer f.mx.Unlock()

	return f.fetches
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mx.Lock()
	defer f.mx.Unlock()

	fn(f)
}

var (
	visa = &model.Mission{ID: 5, Title: "Renovación de visa"}
	ana  = &model.User{ID: 1, Name: "Ana", Email: "ana@x.org"}
)

func fastConf() Config {
	return Config{PollInterval: time.Millisecond * 20, ReconcileDelay: time.Millisecond * 60}
}

func openRoom(t *testing.T, api API, conf Config) *Room {
	t.Helper()

	r := New(api, visa, ana, conf)
	require.NoError(t, r.Open(context.Background()))
	t.Cleanup(r.Close)

	return r
}

func texts(msgs []*model.PrayerMessage) []string {
	res := make([]string, len(msgs))

	for i, m := range msgs {
		res[i] = m.Message
	}

	return res
}

func TestInitialLoad(t *testing.T) {
	api := newFake(
		&model.PrayerMessage{ID: 2, MissionID: 5, Message: "b"},
		&model.PrayerMessage{ID: 1, MissionID: 5, Message: "a"},
		&model.PrayerMessage{ID: 3, MissionID: 6, Message: "other"},
	)

	r := openRoom(t, api, Config{PollInterval: time.Hour})

	assert.False(t, r.Loading())
	assert.Equal(t, []string{"a", "b"}, texts(r.Messages()))
	assert.Equal(t, model.ID(2), r.Cursor())
}

func TestVisaScenario(t *testing.T) {
	api := newFake()
	api.block = make(chan struct{})

	r := openRoom(t, api, fastConf())
	require.Empty(t, r.Messages())

	r.SetDraft("Señor, abre las puertas")

	errCh := make(chan error, 1)

	go func() {
		errCh <- r.Send(context.Background())
	}()

	<-api.posting

	// the request is pending
	assert.Equal(t, "", r.Draft())
	assert.True(t, r.Sending())
	assert.True(t, r.Suppressed())

	close(api.block)
	require.NoError(t, <-errCh)

	assert.False(t, r.Sending())
	msgs := r.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Señor, abre las puertas", msgs[0].Message)

	// reconciliation and a few polls later there is still exactly one
	require.Eventually(t, func() bool { return !r.Suppressed() }, time.Second, time.Millisecond*10)
	time.Sleep(time.Millisecond * 100)

	msgs = r.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.ID(1), msgs[0].ID)
}

func TestEmptySendIsNoop(t *testing.T) {
	api := newFake()
	r := openRoom(t, api, Config{PollInterval: time.Hour})

	for _, s := range []string{"", "   ", "\n\t"} {
		r.SetDraft(s)
		require.NoError(t, r.Send(context.Background()))
		assert.False(t, r.Sending())
		assert.False(t, r.Suppressed())
		assert.Equal(t, s, r.Draft())
	}

	assert.Empty(t, api.posted)
}

func TestNoPollWhileSending(t *testing.T) {
	api := newFake()
	api.block = make(chan struct{})

	r := openRoom(t, api, fastConf())

	r.SetDraft("hola")

	errCh := make(chan error, 1)

	go func() {
		errCh <- r.Send(context.Background())
	}()

	<-api.posting
	// let a tick that started before the send finish
	time.Sleep(time.Millisecond * 30)

	before := api.fetchCount()
	time.Sleep(time.Millisecond * 100)
	assert.Equal(t, before, api.fetchCount())

	close(api.block)
	require.NoError(t, <-errCh)

	// still suppressed until the reconciliation fetch
	assert.True(t, r.Suppressed())

	require.Eventually(t, func() bool { return api.fetchCount() > before }, time.Second, time.Millisecond*5)
	require.Len(t, r.Messages(), 1)
}

func TestSendFailureRestoresDraft(t *testing.T) {
	api := newFake(&model.PrayerMessage{ID: 1, MissionID: 5, Message: "a"})
	api.postErr = errDown

	r := openRoom(t, api, fastConf())

	r.SetDraft("  Por la familia  ")
	err := r.Send(context.Background())
	require.ErrorIs(t, err, errDown)
	assert.ErrorIs(t, r.State().Err, errDown)

	assert.Equal(t, "  Por la familia  ", r.Draft())
	assert.False(t, r.Sending())
	assert.False(t, r.Suppressed())
	assert.Equal(t, []string{"a"}, texts(r.Messages()))

	// polling resumed
	before := api.fetchCount()
	require.Eventually(t, func() bool { return api.fetchCount() > before }, time.Second, time.Millisecond*5)
}

func TestSendWithoutPayload(t *testing.T) {
	api := newFake()
	api.noReply = true

	r := openRoom(t, api, Config{PollInterval: time.Hour})

	r.SetDraft("x")
	require.Error(t, r.Send(context.Background()))
	assert.Equal(t, "x", r.Draft())
	assert.False(t, r.Suppressed())
}

func TestRestoreKeepsNewText(t *testing.T) {
	api := newFake()
	api.postErr = errDown
	api.block = make(chan struct{})

	r := openRoom(t, api, Config{PollInterval: time.Hour})

	r.SetDraft("first")

	errCh := make(chan error, 1)

	go func() {
		errCh <- r.Send(context.Background())
	}()

	<-api.posting
	r.SetDraft("second")
	close(api.block)

	require.Error(t, <-errCh)
	assert.Equal(t, "first second", r.Draft())
}

func TestTwoRapidSends(t *testing.T) {
	api := newFake()
	api.block = make(chan struct{})

	r := openRoom(t, api, fastConf())

	errs := make(chan error, 2)

	r.SetDraft("A")

	go func() {
		errs <- r.Send(context.Background())
	}()

	<-api.posting

	r.SetDraft("B")

	go func() {
		errs <- r.Send(context.Background())
	}()

	require.Eventually(t, func() bool { return r.Draft() == "" }, time.Second, time.Millisecond)

	close(api.block)

	<-api.posting
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	assert.Equal(t, []string{"A", "B"}, api.posted)
	assert.Equal(t, []string{"A", "B"}, texts(r.Messages()))

	require.Eventually(t, func() bool { return !r.Suppressed() }, time.Second, time.Millisecond*10)
	time.Sleep(time.Millisecond * 60)

	assert.Equal(t, []string{"A", "B"}, texts(r.Messages()))
}

func TestOtherUsersMessagesArrive(t *testing.T) {
	api := newFake(&model.PrayerMessage{ID: 1, MissionID: 5, UserID: 2, Message: "a"})
	r := openRoom(t, api, fastConf())

	api.set(func(f *fakeAPI) {
		f.msgs = append(f.msgs, &model.PrayerMessage{ID: 2, MissionID: 5, UserID: 3, Message: "b"})
	})

	require.Eventually(t, func() bool { return len(r.Messages()) == 2 }, time.Second, time.Millisecond*5)
	assert.Equal(t, model.ID(2), r.Cursor())

	api.mx.Lock()
	assert.Contains(t, api.since, model.ID(1))
	api.mx.Unlock()
}

func TestBackendIgnoresCursor(t *testing.T) {
	api := newFake(
		&model.PrayerMessage{ID: 1, MissionID: 5, Message: "a"},
		&model.PrayerMessage{ID: 2, MissionID: 5, Message: "b"},
	)
	api.noCursor = true

	r := openRoom(t, api, fastConf())

	r.SetDraft("c")
	require.NoError(t, r.Send(context.Background()))

	require.Eventually(t, func() bool { return api.fetchCount() > 3 }, time.Second, time.Millisecond*5)
	assert.Equal(t, []string{"a", "b", "c"}, texts(r.Messages()))
}

func TestFailedPollKeepsMessages(t *testing.T) {
	api := newFake(&model.PrayerMessage{ID: 1, MissionID: 5, Message: "a"})
	r := openRoom(t, api, fastConf())

	api.set(func(f *fakeAPI) { f.fetchErr = errDown })

	before := api.fetchCount()
	require.Eventually(t, func() bool { return api.fetchCount() > before+1 }, time.Second, time.Millisecond*5)

	assert.Equal(t, []string{"a"}, texts(r.Messages()))
	assert.ErrorIs(t, r.State().Err, errDown)
}

func TestClose(t *testing.T) {
	api := newFake()
	api.block = make(chan struct{})

	r := New(api, visa, ana, fastConf())
	require.NoError(t, r.Open(context.Background()))

	r.SetDraft("late")

	errCh := make(chan error, 1)

	go func() {
		errCh <- r.Send(context.Background())
	}()

	<-api.posting
	r.Close()
	close(api.block)

	require.ErrorIs(t, <-errCh, ErrClosed)
	assert.Empty(t, r.Messages())

	n := api.fetchCount()
	time.Sleep(time.Millisecond * 100)
	assert.Equal(t, n, api.fetchCount())

	require.ErrorIs(t, r.Send(context.Background()), ErrClosed)
}

func TestOpenAfterClose(t *testing.T) {
	api := newFake()
	r := New(api, visa, ana, fastConf())

	r.Close()
	require.ErrorIs(t, r.Open(context.Background()), ErrClosed)

	time.Sleep(time.Millisecond * 100)
	assert.Equal(t, 0, api.fetchCount())
}

func TestQueuedSendAfterClose(t *testing.T) {
	api := newFake()
	api.block = make(chan struct{})

	r := New(api, visa, ana, fastConf())
	require.NoError(t, r.Open(context.Background()))

	errs := make(chan error, 2)

	r.SetDraft("A")

	go func() {
		errs <- r.Send(context.Background())
	}()

	<-api.posting

	r.SetDraft("B")

	go func() {
		errs <- r.Send(context.Background())
	}()

	require.Eventually(t, func() bool { return r.Draft() == "" }, time.Second, time.Millisecond)

	r.Close()

	// the queued send gives up without waiting for the first one
	require.ErrorIs(t, <-errs, ErrClosed)

	close(api.block)
	require.ErrorIs(t, <-errs, ErrClosed)

	api.mx.Lock()
	assert.Equal(t, []string{"A"}, api.posted)
	api.mx.Unlock()

	assert.Equal(t, "B", r.Draft())
	assert.False(t, r.Sending())
}

func TestQueuedSendCanceled(t *testing.T) {
	api := newFake()
	api.block = make(chan struct{})

	r := openRoom(t, api, Config{PollInterval: time.Hour})

	r.SetDraft("A")

	first := make(chan error, 1)

	go func() {
		first <- r.Send(context.Background())
	}()

	<-api.posting

	ctx, cancel := context.WithCancel(context.Background())

	r.SetDraft("B")

	o, err := r.Prepare()
	require.NoError(t, err)
	require.NotNil(t, o)

	cancel()
	require.ErrorIs(t, o.Post(ctx), context.Canceled)
	assert.Equal(t, "B", r.Draft())

	close(api.block)
	require.NoError(t, <-first)

	api.mx.Lock()
	assert.Equal(t, []string{"A"}, api.posted)
	api.mx.Unlock()
}

func TestPrepareClearsDraft(t *testing.T) {
	api := newFake()
	r := openRoom(t, api, Config{PollInterval: time.Hour, ReconcileDelay: time.Millisecond * 10})

	o, err := r.Prepare()
	require.NoError(t, err)
	assert.Nil(t, o)

	r.SetDraft(" amén ")

	o, err = r.Prepare()
	require.NoError(t, err)
	require.NotNil(t, o)

	assert.Equal(t, "", r.Draft())
	assert.True(t, r.Sending())

	// a second Enter before the post finds nothing to send
	again, err := r.Prepare()
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, o.Post(context.Background()))
	assert.Equal(t, []string{"amén"}, texts(r.Messages()))
	assert.False(t, r.Sending())
}

func TestMergeDedup(t *testing.T) {
	r := New(newFake(), visa, ana, Config{})

	r.merge([]*model.PrayerMessage{{UserID: 1, Message: "sin id", ClientID: "c1"}}, false)
	r.merge([]*model.PrayerMessage{{ID: 4, UserID: 1, Message: "sin id"}}, true)
	require.Len(t, r.messages, 1)
	assert.Equal(t, model.ID(4), r.messages[0].ID)
	assert.Equal(t, "c1", r.messages[0].ClientID)

	r.merge([]*model.PrayerMessage{{ID: 3, Message: "x"}, {ID: 4, UserID: 1, Message: "sin id"}}, true)
	assert.Equal(t, []string{"x", "sin id"}, texts(r.messages))
	assert.Equal(t, model.ID(4), r.cursor)

	r.merge([]*model.PrayerMessage{{ID: 9, Message: "optimistic"}}, false)
	assert.Equal(t, model.ID(4), r.cursor)
}

func TestListeners(t *testing.T) {
	api := newFake()
	r := New(api, visa, ana, Config{PollInterval: time.Hour})

	var mx sync.Mutex

	var states []*State

	r.OnChange("test", func(s *State) {
		mx.Lock()
		states = append(states, s)
		mx.Unlock()
	})

	require.NoError(t, r.Open(context.Background()))
	defer r.Close()

	mx.Lock()
	defer mx.Unlock()

	require.GreaterOrEqual(t, len(states), 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[len(states)-1].Loading)
}
