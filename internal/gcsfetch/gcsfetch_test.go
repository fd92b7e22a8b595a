package gcsfetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGCSURI(t *testing.T) {
	assert.True(t, IsGCSURI("gs://bucket/statements/may.csv"))
	assert.False(t, IsGCSURI("/tmp/statements/may.csv"))
	assert.False(t, IsGCSURI("https://bucket/statements/may.csv"))
}

func TestSplitURI(t *testing.T) {
	bucket, object, err := SplitURI("gs://exports/2024/may.csv")
	require.NoError(t, err)
	assert.Equal(t, "exports", bucket)
	assert.Equal(t, "2024/may.csv", object)

	for _, bad := range []string{"gs://", "gs://bucket", "gs://bucket/", "gs:///object"} {
		_, _, err := SplitURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "may.csv", Filename("gs://exports/2024/may.csv"))
	assert.Equal(t, "statement.pdf", Filename("gs://exports/statement.pdf"))
}
