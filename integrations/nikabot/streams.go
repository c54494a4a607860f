package nikabot

import (
	"context"

	"github.com/ajzo90/tap-nikabot"
	api "github.com/ajzo90/tap-nikabot/pkg/nikabot"
	"github.com/valyala/fastjson"
)

var (
	idKey         = []string{"id"}
	fullTableOnly = tap.ReplicationMethods{tap.FullTable}
)

// pagedStream is a full table stream over a paginated collection.
type pagedStream struct {
	id         string
	path       string
	definition string
	client     *api.Client
}

func (s *pagedStream) Descriptor() tap.Descriptor {
	return tap.Descriptor{ID: s.id, KeyProperties: idKey, Methods: fullTableOnly, DefaultMethod: tap.FullTable}
}

func (s *pagedStream) Definition() string { return s.definition }

func (s *pagedStream) Extract(ctx context.Context, _ tap.Query, emit func([]*fastjson.Value) error) error {
	return s.client.FetchAllPages(ctx, s.path, nil, emit)
}

// teamsStream reads the unpaginated teams resource as a single page.
type teamsStream struct {
	client *api.Client
}

func (s *teamsStream) Descriptor() tap.Descriptor {
	return tap.Descriptor{ID: "teams", KeyProperties: idKey, Methods: fullTableOnly, DefaultMethod: tap.FullTable}
}

func (s *teamsStream) Definition() string { return "TeamDTO" }

func (s *teamsStream) Extract(ctx context.Context, _ tap.Query, emit func([]*fastjson.Value) error) error {
	return s.client.Get(ctx, "api/v1/teams", emit)
}
