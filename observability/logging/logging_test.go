package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "rwad", "test")
	logger.Info("ledger ready", MaskField("token", "secret-bearer"), MaskField("op", "invest"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "ledger ready", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "rwad", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, RedactedValue, line["token"])
	require.Equal(t, "invest", line["op"])
	require.Contains(t, line, "timestamp")
}

func TestRedactionAllowlistSorted(t *testing.T) {
	keys := RedactionAllowlist()
	require.Contains(t, keys, "caller")
	for i := 1; i < len(keys); i++ {
		require.Less(t, keys[i-1], keys[i])
	}
}

func TestFingerprintIsStableAndOpaque(t *testing.T) {
	a := Fingerprint("tokenFingerprint", "secret-bearer")
	b := Fingerprint("tokenFingerprint", "secret-bearer")
	require.Equal(t, a.Value.String(), b.Value.String())
	require.NotContains(t, a.Value.String(), "secret")
	require.Len(t, a.Value.String(), len("sha256:")+12)
	require.NotEqual(t, a.Value.String(), Fingerprint("tokenFingerprint", "other").Value.String())
}
