package nikabot

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ajzo90/go-requests"
	"github.com/ajzo90/tap-nikabot"
	api "github.com/ajzo90/tap-nikabot/pkg/nikabot"
	"github.com/valyala/fastjson"
	"golang.org/x/sync/errgroup"
)

// Tap is the Nikabot source: its streams, discovery and connection check.
type Tap struct {
	config  Config
	client  *api.Client
	log     *slog.Logger
	streams tap.Streams
}

// New builds the tap. A nil doer uses the rate limited retrying default.
func New(config Config, doer requests.Doer, log *slog.Logger) *Tap {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client := api.New(api.Options{
		BaseURL:     config.BaseURL,
		AccessToken: config.AccessToken,
		PageSize:    config.PageSize,
		Doer:        doer,
		Log:         log,
	})
	return &Tap{
		config: config,
		client: client,
		log:    log,
		streams: tap.Streams{
			&pagedStream{id: "users", path: "api/v1/users", definition: "UserDTO", client: client},
			&pagedStream{id: "roles", path: "api/v1/roles", definition: "RoleDTO", client: client},
			&pagedStream{id: "groups", path: "api/v1/groups", definition: "Group", client: client},
			&teamsStream{client: client},
			&pagedStream{id: "projects", path: "api/v1/projects", definition: "ProjectDTO", client: client},
			&recordsStream{config: config, client: client, log: log},
		},
	}
}

func (t *Tap) Streams() tap.Streams { return t.streams }

type definer interface {
	Definition() string
}

// Discover builds the catalog from the API's swagger definitions. Every
// property except the key properties is nullable.
func (t *Tap) Discover(ctx context.Context) (tap.Catalog, error) {
	defs, err := t.client.Swagger(ctx)
	if err != nil {
		return tap.Catalog{}, err
	}
	var catalog tap.Catalog
	for _, s := range t.streams {
		desc := s.Descriptor()
		name := s.(definer).Definition()
		schema, err := defs.Resolve(name)
		if err != nil {
			return tap.Catalog{}, fmt.Errorf("stream '%s': %w", desc.ID, err)
		}
		catalog.Streams = append(catalog.Streams, tap.BuildCatalogEntry(
			desc.ID, schema.Nullable(desc.KeyProperties...), desc.KeyProperties, desc.ReplicationKey, desc.DefaultMethod,
		))
	}
	return catalog, nil
}

type throttler chan struct{}

func (t throttler) Wrap(f func() error) func() error {
	return func() error {
		t <- struct{}{}
		err := f()
		<-t
		return err
	}
}

// Check verifies credentials and connectivity by reading one record from
// each paginated collection.
func (t *Tap) Check(ctx context.Context) error {
	wg, ctx := errgroup.WithContext(ctx)
	probe := t.client.WithPageSize(1)
	th := make(throttler, 2)

	for _, s := range t.streams {
		s, ok := s.(*pagedStream)
		if !ok {
			continue
		}
		wg.Go(th.Wrap(func() error {
			err := probe.FetchPage(ctx, s.path, 0, nil, func([]*fastjson.Value) error { return nil })
			if err != nil {
				return fmt.Errorf("check '%s': %w", s.id, err)
			}
			t.log.Debug("Check passed", "stream", s.id)
			return nil
		}))
	}
	return wg.Wait()
}
