package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/openbeta/climb-harvester/internal/harvest"
)

// wireArea mirrors the nested area/climb payload of the bounded query.
type wireArea struct {
	UUID       string               `json:"uuid"`
	AreaName   string               `json:"area_name"`
	PathTokens harvest.PartitionKey `json:"pathTokens"`
	Metadata   harvest.Coords       `json:"metadata"`
	Climbs     []harvest.Climb      `json:"climbs"`
}

// FetchRegion issues one bounded-partition query for all leaf areas nested
// under key, with the long fetch deadline. Classification:
//
//   - transport timeout, 502 or 504         -> Oversize (split trigger)
//   - any other transport or status failure -> HardFailure
//   - GraphQL error payload on a 200        -> HardFailure
//   - 200 with data                         -> Success
//
// Successful records keep their parent area's metadata attached for the
// normalizer; no inheritance happens here.
func (c *Client) FetchRegion(ctx context.Context, key harvest.PartitionKey) harvest.Outcome {
	vars := map[string]any{"tokens": []string(key)}
	status, env, err := c.post(ctx, areasQuery, vars, c.cfg.FetchTimeout)
	if err != nil {
		if isTimeout(err) {
			return harvest.Oversize()
		}
		return harvest.HardFailure(fmt.Errorf("region query %q: %w: %v", key.String(), ErrSourceUnavailable, err))
	}
	switch status {
	case http.StatusOK:
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return harvest.Oversize()
	default:
		return harvest.HardFailure(fmt.Errorf("region query %q returned status %d: %w", key.String(), status, ErrSourceUnavailable))
	}
	if len(env.Errors) > 0 {
		return harvest.HardFailure(fmt.Errorf("region query %q: %w: %s", key.String(), ErrSourceProtocol, env.Errors[0].Message))
	}

	var data struct {
		Areas []wireArea `json:"areas"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return harvest.HardFailure(fmt.Errorf("region payload %q: %w: %v", key.String(), ErrSourceProtocol, err))
	}

	var records []harvest.Record
	for _, area := range data.Areas {
		meta := harvest.AreaMeta{
			UUID:       area.UUID,
			Name:       area.AreaName,
			PathTokens: area.PathTokens,
			Metadata:   area.Metadata,
		}
		for _, climb := range area.Climbs {
			records = append(records, harvest.Record{Climb: climb, Area: meta})
		}
	}
	return harvest.Success(records)
}
