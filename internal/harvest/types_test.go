package harvest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionKeyExtendDoesNotAliasParent(t *testing.T) {
	parent := make(PartitionKey, 1, 4)
	parent[0] = "USA"

	a := parent.Extend("California")
	b := parent.Extend("Nevada")

	require.Equal(t, PartitionKey{"USA", "California"}, a)
	require.Equal(t, PartitionKey{"USA", "Nevada"}, b)
	require.Equal(t, PartitionKey{"USA"}, parent)
}

func TestPartitionKeyCountry(t *testing.T) {
	require.Equal(t, "USA", PartitionKey{"USA", "California"}.Country())
	require.Equal(t, "", PartitionKey{}.Country())
}

func TestPartitionKeyString(t *testing.T) {
	require.Equal(t, "USA / California", PartitionKey{"USA", "California"}.String())
}

func TestOutcomeConstructors(t *testing.T) {
	recs := []Record{{Climb: Climb{UUID: "x"}}}

	ok := Success(recs)
	require.Equal(t, OutcomeSuccess, ok.Kind)
	require.Len(t, ok.Records, 1)
	require.NoError(t, ok.Err)

	over := Oversize()
	require.Equal(t, OutcomeOversize, over.Kind)
	require.Empty(t, over.Records)

	boom := errors.New("boom")
	hard := HardFailure(boom)
	require.Equal(t, OutcomeHardFailure, hard.Kind)
	require.ErrorIs(t, hard.Err, boom)
}

func TestOutcomeKindString(t *testing.T) {
	require.Equal(t, "success", OutcomeSuccess.String())
	require.Equal(t, "oversize", OutcomeOversize.String())
	require.Equal(t, "hard_failure", OutcomeHardFailure.String())
}
