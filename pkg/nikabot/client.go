package nikabot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/ajzo90/go-requests"
	"github.com/ajzo90/tap-nikabot"
	"github.com/valyala/fastjson"
)

const (
	BaseURL         = "https://api.nikabot.com"
	DefaultPageSize = 1000
)

// ServerError is an application level failure reported by the API in a
// successful HTTP response ({"ok": false, ...}). It is never retried.
type ServerError struct {
	Path string
	Body string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error on '%s': %s", e.Path, e.Body)
}

type Options struct {
	BaseURL     string
	AccessToken tap.MaskedString
	PageSize    int
	// Doer defaults to tap.DefaultRetryer.
	Doer requests.Doer
	Log  *slog.Logger
}

// Client reads the API's list resources. Records handed to callbacks alias
// the response buffer of their request.
type Client struct {
	pageSize int
	log      *slog.Logger
	reqB     func() *requests.Request
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Doer == nil {
		opts.Doer = tap.DefaultRetryer(opts.Log)
	}
	base := strings.TrimSuffix(opts.BaseURL, "/") + "/"

	return &Client{
		pageSize: opts.PageSize,
		log:      opts.Log,
		reqB: requests.New(base).
			Header("Authorization", "Bearer "+opts.AccessToken.String()).
			Header("Accept", "application/json").
			Extended().Doer(opts.Doer).Clone,
	}
}

func (c *Client) PageSize() int { return c.pageSize }

// WithPageSize returns a copy of c requesting n records per page.
func (c *Client) WithPageSize(n int) *Client {
	o := *c
	o.pageSize = n
	return &o
}

func (c *Client) request(path string, params map[string]string) *requests.Request {
	req := c.reqB().Path(strings.TrimPrefix(path, "/"))
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req = req.Query(k, params[k])
	}
	return req
}

func (c *Client) exec(ctx context.Context, req *requests.Request, resp *requests.JSONResponse, path string) ([]*fastjson.Value, error) {
	if err := req.Extended().ExecJSONPreAlloc(resp, ctx); err != nil {
		return nil, fmt.Errorf("fetch '%s': %w", path, err)
	}
	body := resp.Body()
	if body == nil {
		return nil, fmt.Errorf("fetch '%s': empty response", path)
	}
	if ok := body.Get("ok"); ok != nil && ok.Type() == fastjson.TypeFalse {
		return nil, &ServerError{Path: path, Body: string(body.MarshalTo(nil))}
	}
	return body.GetArray("result"), nil
}

// FetchPage requests one page, {path}?limit={page size}&page={page}&{params},
// and calls fn with its records.
func (c *Client) FetchPage(ctx context.Context, path string, page int, params map[string]string, fn func([]*fastjson.Value) error) error {
	records, err := c.fetchPage(ctx, new(requests.JSONResponse), path, page, params)
	if err != nil {
		return err
	}
	return fn(records)
}

func (c *Client) fetchPage(ctx context.Context, resp *requests.JSONResponse, path string, page int, params map[string]string) ([]*fastjson.Value, error) {
	req := c.request(path, params).
		Query("limit", strconv.Itoa(c.pageSize)).
		Query("page", strconv.Itoa(page))
	c.log.Debug("Fetching page", "path", path, "page", page)
	return c.exec(ctx, req, resp, path)
}

// FetchAllPages calls fn with every non-empty page in order, starting at page
// 0 and stopping at the first empty page. Records are only valid during fn.
func (c *Client) FetchAllPages(ctx context.Context, path string, params map[string]string, fn func([]*fastjson.Value) error) error {
	for page, resp := 0, new(requests.JSONResponse); ; page++ {
		records, err := c.fetchPage(ctx, resp, path, page, params)
		if err != nil {
			return err
		} else if len(records) == 0 {
			return nil
		} else if err := fn(records); err != nil {
			return err
		}
	}
}

// Get performs one unpaginated request and calls fn with its records.
func (c *Client) Get(ctx context.Context, path string, fn func([]*fastjson.Value) error) error {
	c.log.Debug("Fetching", "path", path)
	records, err := c.exec(ctx, c.request(path, nil), new(requests.JSONResponse), path)
	if err != nil {
		return err
	}
	return fn(records)
}

const swaggerPath = "v2/api-docs"

// Swagger fetches the public API description and returns its definitions.
func (c *Client) Swagger(ctx context.Context) (tap.Definitions, error) {
	resp := new(requests.JSONResponse)
	req := c.request(swaggerPath, map[string]string{"group": "public"})
	if err := req.Extended().ExecJSONPreAlloc(resp, ctx); err != nil {
		return nil, fmt.Errorf("fetch swagger: %w", err)
	}
	defs := resp.Body().Get("definitions")
	if defs == nil {
		return nil, fmt.Errorf("swagger document has no definitions")
	}
	var out tap.Definitions
	if err := json.Unmarshal(defs.MarshalTo(nil), &out); err != nil {
		return nil, fmt.Errorf("invalid swagger definitions: %w", err)
	}
	return out, nil
}
