package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "rwad"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = Init(context.Background(), Config{Traces: true})
	require.Error(t, err)
}

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" authorization=Bearer abc , x-tenant=ledger,broken,=skip")
	require.Equal(t, map[string]string{
		"authorization": "Bearer abc",
		"x-tenant":      "ledger",
	}, headers)
}

func TestSamplerRatio(t *testing.T) {
	require.Contains(t, sampler(0).Description(), "AlwaysOn")
	require.Contains(t, sampler(1.5).Description(), "AlwaysOn")
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
