package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Presentation defaults for optional fields absent from a response.
const (
	DefaultStatusName = "Unknown"
	NotAvailable      = "N/A"
	UnassignedName    = "Unassigned"
)

// Link is a HAL link object.
type Link struct {
	Href  string `json:"href,omitempty"`
	Title string `json:"title,omitempty"`
}

// ID parses the trailing numeric path segment of the href.
// It returns 0 when the link is empty or not id-terminated.
func (l Link) ID() int {
	href := strings.TrimRight(l.Href, "/")
	idx := strings.LastIndex(href, "/")
	if idx == -1 {
		return 0
	}
	id, err := strconv.Atoi(href[idx+1:])
	if err != nil {
		return 0
	}
	return id
}

// Links maps relation names to links. Some relations (roles) are arrays,
// so values are kept raw until asked for.
type Links map[string]json.RawMessage

// Get returns the single link for rel, or an empty link.
func (l Links) Get(rel string) Link {
	raw, ok := l[rel]
	if !ok {
		return Link{}
	}
	var link Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return Link{}
	}
	return link
}

// List returns the links stored as an array under rel.
func (l Links) List(rel string) []Link {
	raw, ok := l[rel]
	if !ok {
		return nil
	}
	var links []Link
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil
	}
	return links
}

// RefLink builds a payload link to an API resource path.
func RefLink(resource string, id int) Link {
	return Link{Href: fmt.Sprintf("%s/%s/%d", APIBasePath, resource, id)}
}

// Formattable is OpenProject's rich text object.
type Formattable struct {
	Format string `json:"format,omitempty"`
	Raw    string `json:"raw"`
	HTML   string `json:"html,omitempty"`
}

// PlainText wraps raw markdown for a request body.
func PlainText(raw string) Formattable {
	return Formattable{Format: "markdown", Raw: raw}
}

// Envelope is a HAL response: an optional collection header, the
// _embedded map and the _links map. Every accessor tolerates missing keys.
type Envelope struct {
	Type     string                     `json:"_type,omitempty"`
	TotalRaw *int                       `json:"total,omitempty"`
	Count    int                        `json:"count,omitempty"`
	PageSize int                        `json:"pageSize,omitempty"`
	Offset   int                        `json:"offset,omitempty"`
	Emb      map[string]json.RawMessage `json:"_embedded,omitempty"`
	Links    Links                      `json:"_links,omitempty"`
}

// DecodeEnvelope parses a HAL response body.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode HAL envelope: %w", err)
	}
	return &env, nil
}

// Elements returns _embedded.elements, or an empty slice.
func (e *Envelope) Elements() []json.RawMessage {
	if e == nil {
		return []json.RawMessage{}
	}
	raw, ok := e.Emb["elements"]
	if !ok {
		return []json.RawMessage{}
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil || elements == nil {
		return []json.RawMessage{}
	}
	return elements
}

// Embedded returns _embedded.<relation> as a generic object, or an empty map.
func (e *Envelope) Embedded(relation string) map[string]any {
	if e == nil {
		return map[string]any{}
	}
	raw, ok := e.Emb[relation]
	if !ok {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

// EmbeddedInto decodes _embedded.<relation> into target.
// It reports false when the relation is absent or does not decode.
func (e *Envelope) EmbeddedInto(relation string, target any) bool {
	if e == nil {
		return false
	}
	raw, ok := e.Emb[relation]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

// Total is the size of the whole remote collection, which can exceed the
// number of elements on this page. It falls back to len(Elements()).
func (e *Envelope) Total() int {
	if e != nil && e.TotalRaw != nil {
		return *e.TotalRaw
	}
	return len(e.Elements())
}

// StringField reads a string subfield of a generic object, falling back
// to def when it is missing or not a string.
func StringField(obj map[string]any, field, def string) string {
	if v, ok := obj[field].(string); ok && v != "" {
		return v
	}
	return def
}

// Identified is implemented by resources whose id is required.
type Identified interface {
	ResourceID() int
}

// Collection is a typed page of a HAL collection.
type Collection[T any] struct {
	Total    int `json:"total"`
	Count    int `json:"count"`
	PageSize int `json:"pageSize,omitempty"`
	Offset   int `json:"offset,omitempty"`
	Elements []T `json:"elements"`
}

// DecodeCollection decodes every element of env into T. An element without
// an id fails the whole decode with a ResponseShapeError.
func DecodeCollection[T Identified](env *Envelope, resource string) (*Collection[T], error) {
	raw := env.Elements()
	elements := make([]T, 0, len(raw))
	for _, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", resource, err)
		}
		if item.ResourceID() == 0 {
			return nil, &ResponseShapeError{Resource: resource, Field: "id"}
		}
		elements = append(elements, item)
	}

	return &Collection[T]{
		Total:    env.Total(),
		Count:    len(elements),
		PageSize: env.PageSize,
		Offset:   env.Offset,
		Elements: elements,
	}, nil
}

// DecodeResource decodes a single resource body and checks its id.
func DecodeResource[T Identified](data []byte, resource string) (*T, error) {
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", resource, err)
	}
	if item.ResourceID() == 0 {
		return nil, &ResponseShapeError{Resource: resource, Field: "id"}
	}
	return &item, nil
}
