package backend

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Credentials is the opaque token bundle returned by the credentials call.
// Unknown fields are kept so the bundle can be handed back to the backend
// unchanged.
type Credentials map[string]any

// AccessToken returns the access_token field, or "" when absent.
func (c Credentials) AccessToken() string {
	return c.stringField("access_token")
}

// Valid reports whether the bundle carries a non-empty access token.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.AccessToken()) != ""
}

// Clone returns a shallow copy of the bundle.
func (c Credentials) Clone() Credentials {
	if c == nil {
		return nil
	}
	dup := make(Credentials, len(c))
	for k, v := range c {
		dup[k] = v
	}
	return dup
}

// Token returns an oauth2 view of the bundle. Expiry is derived from
// expires_in relative to retrieved_at and is zero when either is missing.
func (c Credentials) Token() *oauth2.Token {
	if c == nil {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken(),
		TokenType:    c.stringField("token_type"),
		RefreshToken: c.stringField("refresh_token"),
	}
	if tok.TokenType == "" {
		tok.TokenType = "bearer"
	}
	retrieved := parseTime(c.stringField("retrieved_at"))
	if secs, ok := c.numberField("expires_in"); ok && !retrieved.IsZero() {
		tok.Expiry = retrieved.Add(time.Duration(secs * float64(time.Second)))
	}
	return tok
}

func (c Credentials) stringField(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func (c Credentials) numberField(key string) (float64, bool) {
	switch v := c[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// scalarField renders a string, number or bool field as text.
func (c Credentials) scalarField(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (c Credentials) boolField(key string) *bool {
	var b bool
	switch v := c[key].(type) {
	case bool:
		b = v
	case float64:
		b = v != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}

// Item mirrors one integration item returned by the item fetch. The payload
// is loosely typed: scalar fields of any JSON type are accepted and every
// field, known or not, is kept in Fields.
type Item struct {
	ID               string         `json:"id"`
	Type             string         `json:"type"`
	Name             string         `json:"name,omitempty"`
	CreationTime     string         `json:"creation_time,omitempty"`
	LastModifiedTime string         `json:"last_modified_time,omitempty"`
	URL              string         `json:"url,omitempty"`
	ParentPathOrName string         `json:"parent_path_or_name,omitempty"`
	Visibility       *bool          `json:"visibility,omitempty"`
	Fields           map[string]any `json:"-"`
}

// UnmarshalJSON decodes an item without failing on unexpected field types.
// Elements that are not JSON objects decode to an empty item.
func (i *Item) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		*i = Item{}
		return nil
	}
	raw := Credentials(fields)
	*i = Item{
		ID:               raw.scalarField("id"),
		Type:             raw.scalarField("type"),
		Name:             raw.scalarField("name"),
		CreationTime:     raw.scalarField("creation_time"),
		LastModifiedTime: raw.scalarField("last_modified_time"),
		URL:              raw.scalarField("url"),
		ParentPathOrName: raw.scalarField("parent_path_or_name"),
		Visibility:       raw.boolField("visibility"),
		Fields:           fields,
	}
	return nil
}

// ParsedCreationTime returns the parsed creation timestamp.
func (i Item) ParsedCreationTime() time.Time {
	return parseTime(i.CreationTime)
}

// ParsedLastModifiedTime returns the parsed last-modified timestamp.
func (i Item) ParsedLastModifiedTime() time.Time {
	return parseTime(i.LastModifiedTime)
}

// TypeCount is the number of items of one type.
type TypeCount struct {
	Type  string
	Count int
}

// Summarize counts items per type, ordered by type name. Items without a type
// are grouped under "unknown".
func Summarize(items []Item) []TypeCount {
	if len(items) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, item := range items {
		t := strings.TrimSpace(item.Type)
		if t == "" {
			t = "unknown"
		}
		counts[t]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Naive timestamps (no offset) are the backend's utcnow().isoformat() output.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
