package tap

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is the Singer catalog: every stream the tap can emit, with
// selection and replication metadata.
type Catalog struct {
	Streams []CatalogEntry `json:"streams"`
}

type CatalogEntry struct {
	TapStreamID       string            `json:"tap_stream_id"`
	Stream            string            `json:"stream"`
	Schema            *JSONSchema       `json:"schema"`
	KeyProperties     []string          `json:"key_properties"`
	Metadata          []Metadata        `json:"metadata"`
	ReplicationKey    string            `json:"replication_key,omitempty"`
	ReplicationMethod ReplicationMethod `json:"replication_method,omitempty"`
}

// Metadata is one breadcrumb entry; the empty breadcrumb addresses the stream.
type Metadata struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

// BuildCatalogEntry constructs a selected catalog entry with Singer standard
// metadata.
func BuildCatalogEntry(stream string, schema *JSONSchema, keyProperties []string, replicationKey string, method ReplicationMethod) CatalogEntry {
	if schema == nil {
		schema = &JSONSchema{}
	}
	keyProperties = append([]string{}, keyProperties...)

	root := map[string]any{
		"table-key-properties": keyProperties,
		"selected":             true,
	}
	automatic := map[string]bool{}
	for _, k := range keyProperties {
		automatic[k] = true
	}
	if replicationKey != "" {
		root["valid-replication-keys"] = []string{replicationKey}
		automatic[replicationKey] = true
	}
	if method != "" {
		root["forced-replication-method"] = string(method)
	}

	md := []Metadata{{Breadcrumb: []string{}, Metadata: root}}
	for _, name := range schema.PropertyNames() {
		inclusion := "available"
		if automatic[name] {
			inclusion = "automatic"
		}
		md = append(md, Metadata{
			Breadcrumb: []string{"properties", name},
			Metadata:   map[string]any{"inclusion": inclusion},
		})
	}

	return CatalogEntry{
		TapStreamID:       stream,
		Stream:            stream,
		Schema:            schema,
		KeyProperties:     keyProperties,
		Metadata:          md,
		ReplicationKey:    replicationKey,
		ReplicationMethod: method,
	}
}

func (e CatalogEntry) ID() string {
	if e.TapStreamID != "" {
		return e.TapStreamID
	}
	return e.Stream
}

// RootMetadata returns the stream level metadata, or nil.
func (e CatalogEntry) RootMetadata() map[string]any {
	for _, m := range e.Metadata {
		if len(m.Breadcrumb) == 0 {
			return m.Metadata
		}
	}
	return nil
}

func (e CatalogEntry) Selected() bool {
	v, _ := e.RootMetadata()["selected"].(bool)
	return v
}

// SelectedMethod returns the replication method requested for the stream,
// or "" when the catalog leaves it to the stream.
func (e CatalogEntry) SelectedMethod() (ReplicationMethod, error) {
	if s := e.rawMethod(); s != "" {
		return ParseReplicationMethod(s)
	}
	return "", nil
}

func (e CatalogEntry) rawMethod() string {
	if e.ReplicationMethod != "" {
		return string(e.ReplicationMethod)
	}
	md := e.RootMetadata()
	for _, key := range []string{"replication-method", "forced-replication-method"} {
		if s, ok := md[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (e CatalogEntry) SelectedReplicationKey() string {
	if e.ReplicationKey != "" {
		return e.ReplicationKey
	}
	s, _ := e.RootMetadata()["replication-key"].(string)
	return s
}

func (c Catalog) Get(stream string) (CatalogEntry, bool) {
	for _, e := range c.Streams {
		if e.ID() == stream {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

func ReadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("invalid catalog '%s': %w", path, err)
	}
	return &c, nil
}
