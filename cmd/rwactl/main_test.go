package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rwaledger/config"
	"rwaledger/crypto"
	"rwaledger/gateway/middleware"
)

func TestKeygenThenAddress(t *testing.T) {
	t.Setenv(defaultPassEnv, "operator-pass")
	path := filepath.Join(t.TempDir(), "op.keystore")

	var out bytes.Buffer
	require.NoError(t, runKeygen([]string{"-out", path}, &out))
	require.Contains(t, out.String(), "address: rwa1")

	var addr bytes.Buffer
	require.NoError(t, runAddress([]string{"-keystore", path}, &addr))
	require.Contains(t, out.String(), strings.TrimSpace(addr.String()))

	require.Error(t, runKeygen([]string{"-out", path}, &out))
}

func TestTokenVerifiesAgainstConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "rwad.toml")
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	_, err = os.Stat(cfgPath)
	require.NoError(t, err)

	var subject [20]byte
	subject[0] = 7
	var out bytes.Buffer
	require.NoError(t, runToken([]string{"-config", cfgPath, "-account", crypto.FromRaw(subject).String()}, &out))

	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    true,
		HMACSecret: cfg.Auth.HMACSecret,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
	}, nil)
	caller, err := auth.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, subject, caller)
}

func TestTokenRequiresSubject(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "rwad.toml")
	_, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.Error(t, runToken([]string{"-config", cfgPath}, &bytes.Buffer{}))
}
