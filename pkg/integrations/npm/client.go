package npm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/releasehub/pkg/integrations"
)

// DefaultRegistryURL is the public npm registry.
const DefaultRegistryURL = "https://registry.npmjs.org"

// Deprecation is the deprecation state of the latest published version.
type Deprecation struct {
	Deprecated bool   `json:"deprecated"`
	Message    string `json:"message,omitempty"`
}

// Client reads package metadata from an npm-compatible registry.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a registry client. An empty baseURL uses the public
// registry.
func NewClient(baseURL string, opts ...integrations.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultRegistryURL
	}
	return &Client{
		Client:  integrations.NewClient(map[string]string{"Accept": "application/json"}, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// GetDeprecation reports whether the latest version of pkg is deprecated.
func (c *Client) GetDeprecation(ctx context.Context, pkg string) (*Deprecation, error) {
	pkg = integrations.NormalizePkgName(pkg)

	var data latestResponse
	if err := c.Get(ctx, c.baseURL+"/"+integrations.PathEscape(pkg)+"/latest", &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return nil, err
	}
	return &Deprecation{Deprecated: data.Deprecated.set, Message: data.Deprecated.message}, nil
}

type latestResponse struct {
	Name       string          `json:"name"`
	Version    string          `json:"version"`
	Deprecated deprecatedField `json:"deprecated"`
}

// deprecatedField accepts both forms the registry emits: a boolean or the
// deprecation message. An empty message or false means not deprecated.
type deprecatedField struct {
	set     bool
	message string
}

func (d *deprecatedField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*d = deprecatedField{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var msg string
		if err := json.Unmarshal(b, &msg); err != nil {
			return err
		}
		*d = deprecatedField{set: msg != "", message: msg}
		return nil
	default:
		var flag bool
		if err := json.Unmarshal(b, &flag); err != nil {
			return fmt.Errorf("deprecated: %w", err)
		}
		*d = deprecatedField{set: flag}
		return nil
	}
}
