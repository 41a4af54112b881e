package passphrase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceReadsEnvironmentOnce(t *testing.T) {
	t.Setenv("RWA_TEST_PASS", "s3cret")
	src := NewSource("RWA_TEST_PASS", "")
	got, err := src.Get()
	require.NoError(t, err)
	require.Equal(t, "s3cret", got)

	t.Setenv("RWA_TEST_PASS", "changed")
	got, err = src.Get()
	require.NoError(t, err)
	require.Equal(t, "s3cret", got)
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	t.Setenv("RWA_TEST_PASS", "   ")
	_, err := NewSource("RWA_TEST_PASS", "").Get()
	require.Error(t, err)
}
