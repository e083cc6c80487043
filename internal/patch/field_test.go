package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTriState(t *testing.T) {
	type body struct {
		Description Field[string] `json:"description"`
		ProjectID   Field[uint]   `json:"project_id"`
	}

	t.Run("absent field stays untouched", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{}`), &b))
		assert.False(t, b.Description.Present)
		assert.False(t, b.Description.Set())
		assert.False(t, b.Description.Clear())
	})

	t.Run("explicit null clears", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"project_id": null}`), &b))
		assert.True(t, b.ProjectID.Present)
		assert.True(t, b.ProjectID.Clear())
		assert.False(t, b.ProjectID.Set())
	})

	t.Run("value sets", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"description": "standup", "project_id": 7}`), &b))
		assert.True(t, b.Description.Set())
		assert.Equal(t, "standup", b.Description.Value)
		assert.True(t, b.ProjectID.Set())
		assert.Equal(t, uint(7), b.ProjectID.Value)
	})

	t.Run("empty string is a value, not a clear", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"description": ""}`), &b))
		assert.True(t, b.Description.Set())
		assert.Equal(t, "", b.Description.Value)
	})

	t.Run("type mismatch errors", func(t *testing.T) {
		var b body
		assert.Error(t, json.Unmarshal([]byte(`{"project_id": "seven"}`), &b))
	})
}

func TestFieldSlice(t *testing.T) {
	type body struct {
		Tags Field[[]string] `json:"tags"`
	}

	var b body
	require.NoError(t, json.Unmarshal([]byte(`{"tags": ["deep-work", "billing"]}`), &b))
	assert.True(t, b.Tags.Set())
	assert.Equal(t, []string{"deep-work", "billing"}, b.Tags.Value)

	var cleared body
	require.NoError(t, json.Unmarshal([]byte(`{"tags": null}`), &cleared))
	assert.True(t, cleared.Tags.Clear())
}
