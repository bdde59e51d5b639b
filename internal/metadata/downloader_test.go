package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	latest, err := latestVersion([]string{"10.0.1", "63.0.31-preview", "9.9.9", "63.0.31"})
	require.NoError(t, err)
	assert.Equal(t, "63.0.31", latest)

	_, err = latestVersion(nil)
	assert.Error(t, err)

	_, err = latestVersion([]string{"not-a-version"})
	assert.Error(t, err)
}
