package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gregory-j-wilson/Suplica/internal/callbacks"
	"github.com/gregory-j-wilson/Suplica/pkg/model"
	"github.com/gregory-j-wilson/Suplica/pkg/request"
)

const (
	EndpointMissions     = "misiones"
	EndpointPray         = "oraciones"
	EndpointCircles      = "circulos"
	EndpointJoinCircle   = "circulos_unirse"
	EndpointStats        = "estadisticas"
	EndpointUsers        = "usuarios"
	EndpointLogin        = "login"
	EndpointPrayerRoom   = "prayer_room"
	EndpointMissionaries = "misioneros"

	defaultTimeout = time.Second * 10
	maxBody        = 4 << 20
)

// RemoteAPI talks to the backend: one url, endpoint chosen by the "endpoint"
// query parameter, every reply wrapped in a {success, data|message} envelope.
type RemoteAPI struct {
	logger  *slog.Logger
	url     string
	client  *http.Client
	timeout time.Duration
	legacy  bool

	mx    sync.RWMutex
	token string

	unauthorized *callbacks.Callback[string]
}

func New(url string, timeout time.Duration) *RemoteAPI {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &RemoteAPI{
		logger:       slog.Default().With("logger", "remote_api"),
		url:          url,
		timeout:      timeout,
		client:       &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: timeout}},
		unauthorized: callbacks.New[string](),
	}
}

func (r *RemoteAPI) SetTLS(config *tls.Config) {
	r.client.Transport = &http.Transport{TLSClientConfig: config, ResponseHeaderTimeout: r.timeout}
}

// SetLegacyLogin switches Login to the email-only lookup over the user list.
func (r *RemoteAPI) SetLegacyLogin(legacy bool) {
	r.legacy = legacy
}

func (r *RemoteAPI) SetToken(token string) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.token = token
}

func (r *RemoteAPI) getToken() string {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.token
}

// OnUnauthorized registers fn to be called with the endpoint name when the backend answers 401.
func (r *RemoteAPI) OnUnauthorized(name string, fn func(endpoint string)) {
	r.unauthorized.Add(name, fn)
}

type call struct {
	endpoint string
	post     bool
	noCache  bool
	args     map[string]string
	body     any
}

func (r *RemoteAPI) request(c *call) *request.Request {
	req := request.New(r.client, r.logger).
		URL(r.url).
		Arg("endpoint", c.endpoint).
		Args(c.args).
		Token(r.getToken())

	if c.post {
		req.Post()

		if c.body != nil {
			req.JSON(c.body)
		}
	}

	if c.noCache {
		req.NoCache()
	}

	return req
}

func do[T any](ctx context.Context, r *RemoteAPI, c *call) (*model.Answer[T], error) {
	ctx1, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.request(c).DoRes(ctx1)

	var statusErr *request.StatusError

	switch {
	case err == nil:
	case errors.As(err, &statusErr):
		if statusErr.Code == http.StatusUnauthorized {
			closeBody(res)
			r.unauthorized.Notify(c.endpoint)

			return nil, fmt.Errorf("%s: %w", c.endpoint, ErrUnauthorized)
		}
	default:
		closeBody(res)

		return nil, fmt.Errorf("%s: %w: %w", c.endpoint, ErrTransport, err)
	}

	if res == nil || res.Body == nil {
		return nil, fmt.Errorf("%s: %w: empty body", c.endpoint, ErrMalformed)
	}

	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", c.endpoint, ErrTransport, err)
	}

	ans := new(model.Answer[T])

	if err := json.Unmarshal(b, ans); err != nil {
		if statusErr != nil {
			return nil, fmt.Errorf("%s: %w: %w", c.endpoint, ErrTransport, statusErr)
		}

		return nil, fmt.Errorf("%s: %w: %w", c.endpoint, ErrMalformed, err)
	}

	if !ans.Success {
		return ans, &Error{Endpoint: c.endpoint, Message: ans.Message}
	}

	if statusErr != nil {
		return nil, fmt.Errorf("%s: %w: %w", c.endpoint, ErrTransport, statusErr)
	}

	return ans, nil
}

func closeBody(res *http.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}

func (r *RemoteAPI) Missions(ctx context.Context) ([]*model.Mission, error) {
	ans, err := do[[]*model.Mission](ctx, r, &call{
		endpoint: EndpointMissions,
		args:     map[string]string{"publico": "1"},
	})
	if err != nil {
		return nil, err
	}

	return ans.Data, nil
}

func (r *RemoteAPI) CreateMission(ctx context.Context, m *model.MissionPostDTO) error {
	_, err := do[any](ctx, r, &call{endpoint: EndpointMissions, post: true, body: m})

	return err
}

func (r *RemoteAPI) Pray(ctx context.Context, p *model.PrayPostDTO) error {
	_, err := do[any](ctx, r, &call{endpoint: EndpointPray, post: true, body: p})

	return err
}

func (r *RemoteAPI) Circles(ctx context.Context, userID model.ID) ([]*model.Circle, error) {
	ans, err := do[[]*model.Circle](ctx, r, &call{
		endpoint: EndpointCircles,
		args:     map[string]string{"usuario_id": userID.String()},
	})
	if err != nil {
		return nil, err
	}

	return ans.Data, nil
}

func (r *RemoteAPI) CreateCircle(ctx context.Context, c *model.CirclePostDTO) (*model.Circle, error) {
	ans, err := do[*model.Circle](ctx, r, &call{endpoint: EndpointCircles, post: true, body: c})
	if err != nil {
		return nil, err
	}

	return ans.Data, nil
}

func (r *RemoteAPI) JoinCircle(ctx context.Context, j *model.CircleJoinDTO) error {
	_, err := do[any](ctx, r, &call{endpoint: EndpointJoinCircle, post: true, body: j})

	return err
}

func (r *RemoteAPI) Stats(ctx context.Context, userID model.ID) (*model.Stats, error) {
	ans, err := do[*model.Stats](ctx, r, &call{
		endpoint: EndpointStats,
		args:     map[string]string{"id": userID.String()},
	})
	if err != nil {
		return nil, err
	}

	if ans.Data == nil {
		return nil, fmt.Errorf("%s: %w: no data", EndpointStats, ErrMalformed)
	}

	return ans.Data, nil
}

func (r *RemoteAPI) Users(ctx context.Context) ([]*model.User, error) {
	ans, err := do[[]*model.User](ctx, r, &call{endpoint: EndpointUsers})
	if err != nil {
		return nil, err
	}

	return ans.Data, nil
}

// CreateUser registers a user and returns the new id.
func (r *RemoteAPI) CreateUser(ctx context.Context, u *model.UserPostDTO) (model.ID, error) {
	ans, err := do[any](ctx, r, &call{endpoint: EndpointUsers, post: true, body: u})
	if err != nil {
		return 0, err
	}

	if ans.ID == 0 {
		return 0, fmt.Errorf("%s: %w: no id", EndpointUsers, ErrMalformed)
	}

	return ans.ID, nil
}

// Login checks credentials and returns the user with an optional session token.
func (r *RemoteAPI) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if r.legacy {
		u, err := r.legacyLogin(ctx, email)

		return u, "", err
	}

	ans, err := do[*model.User](ctx, r, &call{
		endpoint: EndpointLogin,
		post:     true,
		body:     &model.LoginDTO{Email: email, Password: password},
	})
	if err != nil {
		if IsApplication(err) {
			return nil, "", fmt.Errorf("%w: %w", ErrBadCredentials, err)
		}

		return nil, "", err
	}

	if ans.Data == nil || ans.Data.ID == 0 {
		return nil, "", fmt.Errorf("%s: %w: no user", EndpointLogin, ErrMalformed)
	}

	return ans.Data, ans.Token, nil
}

// legacyLogin finds the user by email in the full user list. The password is not checked.
func (r *RemoteAPI) legacyLogin(ctx context.Context, email string) (*model.User, error) {
	r.logger.Warn("legacy login: password is not verified", slog.String("email", email))

	users, err := r.Users(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.SameEmail(email) {
			return u, nil
		}
	}

	return nil, ErrBadCredentials
}

// PrayerMessages returns messages of the mission with id greater than sinceID.
// Backends without cursor support return the whole list.
func (r *RemoteAPI) PrayerMessages(ctx context.Context, missionID, sinceID model.ID) ([]*model.PrayerMessage, error) {
	args := map[string]string{"id": missionID.String()}

	if sinceID > 0 {
		args["desde_id"] = sinceID.String()
	}

	ans, err := do[[]*model.PrayerMessage](ctx, r, &call{endpoint: EndpointPrayerRoom, noCache: true, args: args})
	if err != nil {
		return nil, err
	}

	return ans.Data, nil
}

// PostPrayerMessage sends a message and returns the stored copy.
func (r *RemoteAPI) PostPrayerMessage(ctx context.Context, m *model.PrayerMessagePostDTO) (*model.PrayerMessage, error) {
	ans, err := do[*model.PrayerMessage](ctx, r, &call{endpoint: EndpointPrayerRoom, post: true, noCache: true, body: m})
	if err != nil {
		return nil, err
	}

	if ans.Data == nil || (ans.Data.ID == 0 && ans.Data.Message == "") {
		return nil, fmt.Errorf("%s: %w: no message in reply", EndpointPrayerRoom, ErrMalformed)
	}

	if ans.Data.ClientID == "" {
		ans.Data.ClientID = m.ClientID
	}

	return ans.Data, nil
}

func (r *RemoteAPI) Missionaries(ctx context.Context) ([]*model.Missionary, error) {
	ans, err := do[[]*model.Missionary](ctx, r, &call{endpoint: EndpointMissionaries, noCache: true})
	if err != nil {
		return nil, err
	}

	return ans.Data, nil
}

func (r *RemoteAPI) RegisterMissionary(ctx context.Context, m *model.MissionaryPostDTO) error {
	_, err := do[any](ctx, r, &call{endpoint: EndpointMissionaries, post: true, noCache: true, body: m})

	return err
}
