package cursor

import (
	"testing"

	"github.com/daedal00/muse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorBijective(t *testing.T) {
	uris := []model.URI{
		"local://track/a.mp3",
		"prov://artist/42",
		"internal://playlist/favorites",
	}
	for _, u := range uris {
		c := ToCursor(u)
		got, err := FromCursor(c)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	}
}

func TestCursorDeterministic(t *testing.T) {
	u := model.URI("p1://artist/A")
	assert.Equal(t, ToCursor(u), ToCursor(u))
}

func TestAggregatedCursorRoundTrip(t *testing.T) {
	c1 := ToCursor("p1://artist/A")
	c2 := ToCursor("p2://artist/A")

	agg := Aggregate(c1, c2)
	assert.True(t, IsAggregated(agg))
	assert.Equal(t, "a:"+string(c1)+":"+string(c2), string(agg))

	parts, err := Split(agg)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, c1, parts[0])
	assert.Equal(t, c2, parts[1])
}

func TestSplitRejectsNonAggregated(t *testing.T) {
	_, err := Split(ToCursor("local://track/a.mp3"))
	assert.Error(t, err)
}

func TestFromCursorRejectsAggregated(t *testing.T) {
	agg := Aggregate(ToCursor("p1://artist/A"), ToCursor("p2://artist/A"))
	_, err := FromCursor(agg)
	assert.Error(t, err)
}
