package ids

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortableAndUnique(t *testing.T) {
	seen := map[string]struct{}{}
	prev := ""
	for i := 0; i < 1000; i++ {
		id := New()
		_, err := ulid.ParseStrict(id)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
		prev = id
	}
}

func TestWithPrefix(t *testing.T) {
	id := WithPrefix("dlv")
	assert.True(t, strings.HasPrefix(id, "dlv_"))
	assert.Len(t, id, len("dlv_")+26)
}
