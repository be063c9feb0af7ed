package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/openbeta/climb-harvester/internal/harvest"
)

// Countries queries the source for all root-level partitions. Transport
// failures and non-success statuses wrap ErrSourceUnavailable; an unexpected
// payload shape or GraphQL error list wraps ErrSourceProtocol.
func (c *Client) Countries(ctx context.Context) ([]harvest.CountryKey, error) {
	status, env, err := c.post(ctx, countriesQuery, nil, c.cfg.ListTimeout)
	if err != nil {
		return nil, fmt.Errorf("countries query: %w: %v", ErrSourceUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("countries query returned status %d: %w", status, ErrSourceUnavailable)
	}
	if len(env.Errors) > 0 {
		return nil, fmt.Errorf("countries query: %w: %s", ErrSourceProtocol, env.Errors[0].Message)
	}

	var data struct {
		Countries []struct {
			AreaName string `json:"areaName"`
			UUID     string `json:"uuid"`
		} `json:"countries"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("countries payload: %w: %v", ErrSourceProtocol, err)
	}
	if data.Countries == nil {
		return nil, fmt.Errorf("countries payload missing: %w", ErrSourceProtocol)
	}

	keys := make([]harvest.CountryKey, 0, len(data.Countries))
	for _, country := range data.Countries {
		keys = append(keys, harvest.CountryKey{Name: country.AreaName, ID: country.UUID})
	}
	return keys, nil
}

// Children queries the direct children of a node by identifier rather than
// by path-prefix filter, so the subtree is not re-scanned. An empty result
// is valid: the node is a leaf with no further subdivision.
func (c *Client) Children(ctx context.Context, parentID string) ([]harvest.ChildKey, error) {
	vars := map[string]any{"uuid": parentID}
	status, env, err := c.post(ctx, childrenQuery, vars, c.cfg.ListTimeout)
	if err != nil {
		return nil, fmt.Errorf("children query: %w: %v", ErrSourceUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("children query returned status %d: %w", status, ErrSourceUnavailable)
	}
	if len(env.Errors) > 0 {
		return nil, fmt.Errorf("children query: %w: %s", ErrSourceProtocol, env.Errors[0].Message)
	}

	var data struct {
		Area *struct {
			Children []struct {
				UUID     string `json:"uuid"`
				AreaName string `json:"areaName"`
			} `json:"children"`
		} `json:"area"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("children payload: %w: %v", ErrSourceProtocol, err)
	}
	if data.Area == nil {
		return nil, nil
	}

	keys := make([]harvest.ChildKey, 0, len(data.Area.Children))
	for _, child := range data.Area.Children {
		keys = append(keys, harvest.ChildKey{Name: child.AreaName, ID: child.UUID})
	}
	return keys, nil
}
