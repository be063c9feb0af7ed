package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openbeta/climb-harvester/internal/harvest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIURL:       server.URL,
		UserAgent:    "climb-harvester-test",
		FetchTimeout: 5 * time.Second,
		ListTimeout:  5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(payload))
	require.NoError(t, err)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	require.Error(t, err)
}

func TestCountries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Contains(t, req.Query, "countries")
		writeJSON(t, w, `{"data":{"countries":[
			{"areaName":"USA","uuid":"usa-id"},
			{"areaName":"France","uuid":"fr-id"}
		]}}`)
	})

	keys, err := client.Countries(context.Background())
	require.NoError(t, err)
	require.Equal(t, []harvest.CountryKey{
		{Name: "USA", ID: "usa-id"},
		{Name: "France", ID: "fr-id"},
	}, keys)
}

func TestCountriesServerErrorWrapsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Countries(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestCountriesGraphQLErrorWrapsProtocol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, `{"data":null,"errors":[{"message":"schema drift"}]}`)
	})

	_, err := client.Countries(context.Background())
	require.ErrorIs(t, err, ErrSourceProtocol)
	require.Contains(t, err.Error(), "schema drift")
}

func TestCountriesMissingPayloadWrapsProtocol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, `{"data":{}}`)
	})

	_, err := client.Countries(context.Background())
	require.ErrorIs(t, err, ErrSourceProtocol)
}

func TestChildren(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "usa-id", req.Variables["uuid"])
		writeJSON(t, w, `{"data":{"area":{"children":[
			{"uuid":"ca-id","areaName":"California"},
			{"uuid":"nv-id","areaName":"Nevada"}
		]}}}`)
	})

	keys, err := client.Children(context.Background(), "usa-id")
	require.NoError(t, err)
	require.Equal(t, []harvest.ChildKey{
		{Name: "California", ID: "ca-id"},
		{Name: "Nevada", ID: "nv-id"},
	}, keys)
}

func TestChildrenUnknownAreaIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, `{"data":{"area":null}}`)
	})

	keys, err := client.Children(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestFetchRegionSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []any{"France"}, req.Variables["tokens"])
		writeJSON(t, w, `{"data":{"areas":[{
			"uuid":"font-id",
			"area_name":"Fontainebleau",
			"pathTokens":["France","Fontainebleau"],
			"metadata":{"lat":48.4,"lng":2.6},
			"climbs":[
				{"uuid":"c1","name":"Marie Rose","grades":{"french":"6a"},
				 "type":{"bouldering":true},"metadata":{"lat":null,"lng":null},
				 "pathTokens":[]},
				{"uuid":"c2","name":"La Joker","grades":{"french":"7a"},
				 "type":{"bouldering":true},"metadata":{"lat":48.45,"lng":2.61},
				 "pathTokens":["France","Fontainebleau","Cuvier"]}
			]
		}]}}`)
	})

	out := client.FetchRegion(context.Background(), harvest.PartitionKey{"France"})
	require.Equal(t, harvest.OutcomeSuccess, out.Kind)
	require.Len(t, out.Records, 2)

	first := out.Records[0]
	require.Equal(t, "c1", first.Climb.UUID)
	require.Nil(t, first.Climb.Metadata.Lat)
	require.Equal(t, "Fontainebleau", first.Area.Name)
	require.Equal(t, harvest.PartitionKey{"France", "Fontainebleau"}, first.Area.PathTokens)
	require.NotNil(t, first.Area.Metadata.Lat)

	second := out.Records[1]
	require.True(t, second.Climb.Type.Bouldering)
	require.Equal(t, "7a", *second.Climb.Grades.French)
}

func TestFetchRegionGatewayStatusesAreOversize(t *testing.T) {
	for _, status := range []int{http.StatusBadGateway, http.StatusGatewayTimeout} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		out := client.FetchRegion(context.Background(), harvest.PartitionKey{"USA"})
		require.Equal(t, harvest.OutcomeOversize, out.Kind, "status %d", status)
		require.Empty(t, out.Records)
	}
}

func TestFetchRegionTimeoutIsOversize(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	// Cleanups run LIFO: release the handler before server.Close waits on it.
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewClient(Config{
		APIURL:       server.URL,
		FetchTimeout: 50 * time.Millisecond,
		ListTimeout:  50 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	out := client.FetchRegion(context.Background(), harvest.PartitionKey{"USA"})
	require.Equal(t, harvest.OutcomeOversize, out.Kind)
}

func TestFetchRegionServerErrorIsHardFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	out := client.FetchRegion(context.Background(), harvest.PartitionKey{"USA"})
	require.Equal(t, harvest.OutcomeHardFailure, out.Kind)
	require.ErrorIs(t, out.Err, ErrSourceUnavailable)
}

func TestFetchRegionGraphQLErrorIsHardFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, `{"data":null,"errors":[{"message":"query too deep"}]}`)
	})

	out := client.FetchRegion(context.Background(), harvest.PartitionKey{"USA"})
	require.Equal(t, harvest.OutcomeHardFailure, out.Kind)
	require.ErrorIs(t, out.Err, ErrSourceProtocol)
}

func TestFetchRegionConnectFailureIsHardFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(Config{APIURL: url}, zap.NewNop())
	require.NoError(t, err)

	out := client.FetchRegion(context.Background(), harvest.PartitionKey{"USA"})
	require.Equal(t, harvest.OutcomeHardFailure, out.Kind)
	require.ErrorIs(t, out.Err, ErrSourceUnavailable)
}
