package airbyte

import (
	"github.com/ajzo90/go-jsonschema-generator"
	"github.com/ajzo90/tap-nikabot"
)

// SyncMode defines the modes that your source is able to sync in
type SyncMode string

const (
	// SyncModeFullRefresh means the data will be wiped and fully synced on each run
	SyncModeFullRefresh SyncMode = "full_refresh"
	// SyncModeIncremental is used for incremental syncs
	SyncModeIncremental SyncMode = "incremental"
)

// DestinationSyncMode represents how the destination should interpret your data
type DestinationSyncMode string

const (
	DestinationSyncModeAppend    DestinationSyncMode = "append"
	DestinationSyncModeOverwrite DestinationSyncMode = "overwrite"
)

// Catalog defines the complete available schema you can sync with a source
type Catalog struct {
	Streams []Stream `json:"streams"`
}

type Stream struct {
	Name                    string          `json:"name"`
	JSONSchema              *tap.JSONSchema `json:"json_schema"`
	SupportedSyncModes      []SyncMode      `json:"supported_sync_modes,omitempty"`
	SourceDefinedCursor     bool            `json:"source_defined_cursor,omitempty"`
	DefaultCursorField      []string        `json:"default_cursor_field,omitempty"`
	SourceDefinedPrimaryKey [][]string      `json:"source_defined_primary_key,omitempty"`
	Namespace               string          `json:"namespace,omitempty"`
}

// ConfiguredCatalog is the "selected" schema you want to sync
type ConfiguredCatalog struct {
	Streams []ConfiguredStream `json:"streams"`
}

type ConfiguredStream struct {
	Stream              Stream              `json:"stream"`
	SyncMode            SyncMode            `json:"sync_mode"`
	CursorField         []string            `json:"cursor_field,omitempty"`
	DestinationSyncMode DestinationSyncMode `json:"destination_sync_mode,omitempty"`
	PrimaryKey          [][]string          `json:"primary_key,omitempty"`
}

type ConnectorSpecification struct {
	DocumentationURL        string               `json:"documentationUrl,omitempty"`
	SupportsIncremental     bool                 `json:"supportsIncremental"`
	ConnectionSpecification *jsonschema.Document `json:"connectionSpecification"`
}

// NewCatalog describes the streams of a discovered catalog. Streams with a
// replication key support incremental syncs on it.
func NewCatalog(c tap.Catalog) Catalog {
	o := Catalog{Streams: make([]Stream, 0, len(c.Streams))}
	for _, e := range c.Streams {
		s := Stream{
			Name:               e.ID(),
			JSONSchema:         e.Schema,
			SupportedSyncModes: []SyncMode{SyncModeFullRefresh},
		}
		if key := e.SelectedReplicationKey(); key != "" {
			s.SupportedSyncModes = append(s.SupportedSyncModes, SyncModeIncremental)
			s.SourceDefinedCursor = true
			s.DefaultCursorField = []string{key}
		}
		for _, k := range e.KeyProperties {
			s.SourceDefinedPrimaryKey = append(s.SourceDefinedPrimaryKey, []string{k})
		}
		o.Streams = append(o.Streams, s)
	}
	return o
}

// Catalog translates the configured catalog into a catalog where every
// configured stream is selected. Unknown sync modes are passed on verbatim
// and rejected by the runner.
func (c ConfiguredCatalog) Catalog() tap.Catalog {
	o := tap.Catalog{Streams: make([]tap.CatalogEntry, 0, len(c.Streams))}
	for _, cs := range c.Streams {
		var method tap.ReplicationMethod
		switch cs.SyncMode {
		case SyncModeFullRefresh:
			method = tap.FullTable
		case SyncModeIncremental:
			method = tap.Incremental
		default:
			method = tap.ReplicationMethod(cs.SyncMode)
		}

		keys := cs.PrimaryKey
		if len(keys) == 0 {
			keys = cs.Stream.SourceDefinedPrimaryKey
		}
		keyProperties := []string{}
		for _, k := range keys {
			if len(k) > 0 {
				keyProperties = append(keyProperties, k[0])
			}
		}

		var replicationKey string
		if len(cs.CursorField) > 0 {
			replicationKey = cs.CursorField[0]
		}

		o.Streams = append(o.Streams, tap.CatalogEntry{
			TapStreamID:   cs.Stream.Name,
			Stream:        cs.Stream.Name,
			Schema:        cs.Stream.JSONSchema,
			KeyProperties: keyProperties,
			Metadata: []tap.Metadata{{
				Breadcrumb: []string{},
				Metadata:   map[string]any{"selected": true},
			}},
			ReplicationKey:    replicationKey,
			ReplicationMethod: method,
		})
	}
	return o
}
