package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"rwaledger/cmd/internal/passphrase"
	"rwaledger/config"
	"rwaledger/crypto"
	"rwaledger/gateway/middleware"
)

const (
	defaultPassEnv = "RWA_KEYSTORE_PASS"
	defaultConfig  = "./rwad.toml"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "keygen":
		err = runKeygen(os.Args[2:], os.Stdout)
	case "address":
		err = runAddress(os.Args[2:], os.Stdout)
	case "token":
		err = runToken(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: rwactl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  keygen   generate a key and write an encrypted keystore")
	fmt.Fprintln(w, "  address  print the account address held in a keystore")
	fmt.Fprintln(w, "  token    issue a gateway bearer token for an account")
}

func runKeygen(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	path := fs.String("out", "operator.keystore", "output path for the keystore file")
	passEnv := fs.String("pass-env", defaultPassEnv, "environment variable holding the keystore passphrase")
	force := fs.Bool("force", false, "overwrite an existing keystore")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pass, err := passphrase.NewSource(*passEnv, "New keystore passphrase: ").Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	if err := crypto.WriteKeystore(*path, key, pass, *force); err != nil {
		if errors.Is(err, crypto.ErrKeystoreExists) {
			return fmt.Errorf("%w (use -force to overwrite)", err)
		}
		return err
	}
	fmt.Fprintf(out, "address: %s\nkeystore: %s\n", key.PubKey().Address(), *path)
	return nil
}

func runAddress(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	path := fs.String("keystore", "operator.keystore", "keystore file to read")
	passEnv := fs.String("pass-env", defaultPassEnv, "environment variable holding the keystore passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := keystoreAddress(*path, *passEnv)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, crypto.FromRaw(addr).String())
	return nil
}

func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	cfgPath := fs.String("config", defaultConfig, "rwad configuration holding the auth secret")
	account := fs.String("account", "", "bech32 account to bind; defaults to the keystore address")
	path := fs.String("keystore", "", "keystore whose address is bound when -account is empty")
	passEnv := fs.String("pass-env", defaultPassEnv, "environment variable holding the keystore passphrase")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	if _, err := os.Stat(*cfgPath); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	var subject [20]byte
	switch {
	case strings.TrimSpace(*account) != "":
		subject, err = crypto.ParseRaw(strings.TrimSpace(*account))
	case strings.TrimSpace(*path) != "":
		subject, err = keystoreAddress(*path, *passEnv)
	default:
		err = errors.New("one of -account or -keystore is required")
	}
	if err != nil {
		return err
	}

	token, err := middleware.IssueToken([]byte(strings.TrimSpace(cfg.Auth.HMACSecret)), subject, cfg.Auth.Issuer, cfg.Auth.Audience, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func keystoreAddress(path, passEnv string) ([20]byte, error) {
	pass, err := passphrase.NewSource(passEnv, "").Get()
	if err != nil {
		return [20]byte{}, err
	}
	key, err := crypto.ReadKeystore(path, pass)
	if err != nil {
		return [20]byte{}, err
	}
	return key.PubKey().Address().Raw(), nil
}
