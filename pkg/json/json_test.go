package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rankedReferrer struct {
	CustomerID    string `json:"customer_id"`
	ReferralCount int    `json:"referral_count"`
	Rank          int    `json:"rank"`
}

func TestMarshalMatchesStandardLibraryLayout(t *testing.T) {
	data, err := Marshal([]rankedReferrer{{CustomerID: "r1", ReferralCount: 2, Rank: 1}})
	require.NoError(t, err)
	assert.Equal(t, `[{"customer_id":"r1","referral_count":2,"rank":1}]`, string(data))
}

func TestDecode(t *testing.T) {
	entries, err := Decode[[]rankedReferrer]([]byte(`[{"customer_id":"r2","referral_count":1,"rank":2}]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, rankedReferrer{CustomerID: "r2", ReferralCount: 1, Rank: 2}, entries[0])

	_, err = Decode[[]rankedReferrer]([]byte(`{"invalid`))
	assert.Error(t, err)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(map[string]string{"action": "get_leaderboard"}))

	var decoded map[string]string
	require.NoError(t, NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&decoded))
	assert.Equal(t, "get_leaderboard", decoded["action"])
}

func TestEmptySliceIsNotNull(t *testing.T) {
	data, err := Marshal([]rankedReferrer{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
