package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "status is " + e.Status
}

type Request struct {
	client  *http.Client
	url     string
	method  string
	token   string
	noCache bool
	body    io.Reader
	headers map[string]string
	args    map[string]string
	logger  *slog.Logger
}

func New(c *http.Client, logger *slog.Logger) *Request {
	return &Request{client: c, method: http.MethodGet, logger: logger, args: make(map[string]string)}
}

func (r *Request) URL(url string) *Request {
	r.url = url

	return r
}

func (r *Request) Post() *Request {
	r.method = http.MethodPost

	return r
}

func (r *Request) Token(token string) *Request {
	r.token = token

	return r
}

func (r *Request) Headers(headers map[string]string) *Request {
	r.headers = headers

	return r
}

// Args adds query parameters, keeping ones set before.
func (r *Request) Args(args map[string]string) *Request {
	for k, v := range args {
		r.args[k] = v
	}

	return r
}

func (r *Request) Arg(k, v string) *Request {
	r.args[k] = v

	return r
}

// NoCache sets no-cache headers and a _t millisecond timestamp argument.
func (r *Request) NoCache() *Request {
	r.noCache = true

	return r
}

func (r *Request) Body(body io.Reader) *Request {
	r.body = body

	return r
}

func (r *Request) JSON(obj any) *Request {
	b, err := json.Marshal(obj)
	if err != nil {
		// marshal errors surface when the request is sent
		r.body = &errReader{err: err}
		return r
	}

	r.body = bytes.NewReader(b)

	if r.headers == nil {
		r.headers = make(map[string]string)
	}

	r.headers["Content-Type"] = "application/json"

	return r
}

func (r *Request) DoRes(ctx context.Context) (*http.Response, error) {
	if er, ok := r.body.(*errReader); ok {
		return nil, fmt.Errorf("encode body: %w", er.err)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, err
	}

	req.Header.Del("User-Agent")
	req.Header.Set("Accept", "application/json")

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	if r.noCache {
		req.Header.Set("Cache-Control", "no-store")
		req.Header.Set("Pragma", "no-cache")
		r.args["_t"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	if len(r.args) > 0 {
		q := req.URL.Query()

		for k, v := range r.args {
			q.Set(k, v)
		}

		req.URL.RawQuery = q.Encode()
	}

	res, err := r.client.Do(req)
	if err != nil {
		r.log(slog.LevelInfo, fmt.Sprintf("%s %s - error %s", r.method, req.URL, err.Error()))

		return res, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		r.log(slog.LevelWarn, fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))

		return res, &StatusError{Code: res.StatusCode, Status: res.Status}
	}

	r.log(slog.LevelDebug, fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))

	return res, nil
}

func (r *Request) Do(ctx context.Context) (io.ReadCloser, error) {
	res, err := r.DoRes(ctx)

	if err != nil {
		if res != nil && res.Body != nil {
			_ = res.Body.Close()
		}

		return nil, err
	}

	if res.Body == nil {
		return nil, fmt.Errorf("null body")
	}

	return res.Body, nil
}

func (r *Request) GetJSON(ctx context.Context, obj any) error {
	b, err := r.Do(ctx)

	if err != nil {
		return err
	}

	defer b.Close()

	dec := json.NewDecoder(b)

	return dec.Decode(obj)
}

func (r *Request) log(level slog.Level, msg string) {
	if r.logger != nil {
		r.logger.Log(context.Background(), level, msg)
	}
}

type errReader struct {
	err error
}

func (e *errReader) Read([]byte) (int, error) {
	return 0, e.err
}
