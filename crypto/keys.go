package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix is the bech32 human-readable part of ledger accounts.
const AddressPrefix = "rwa"

// Address is a 20-byte ledger account rendered as bech32.
type Address struct {
	raw [20]byte
}

// FromRaw wraps a raw account identifier.
func FromRaw(raw [20]byte) Address {
	return Address{raw: raw}
}

// Raw returns the identifier used as the state key.
func (a Address) Raw() [20]byte {
	return a.raw
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.raw[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(AddressPrefix, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// DecodeAddress parses a bech32 account and checks its prefix and length.
func DecodeAddress(s string) (Address, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if hrp != AddressPrefix {
		return Address{}, fmt.Errorf("unexpected address prefix %q", hrp)
	}
	conv, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != 20 {
		return Address{}, fmt.Errorf("invalid address length %d", len(conv))
	}
	var raw [20]byte
	copy(raw[:], conv)
	return Address{raw: raw}, nil
}

// ParseRaw decodes a bech32 account string into its raw identifier.
func ParseRaw(s string) ([20]byte, error) {
	addr, err := DecodeAddress(s)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// DeriveModuleAddress returns a deterministic account owned by a ledger module.
// No private key exists for it.
func DeriveModuleAddress(seed string) [20]byte {
	var out [20]byte
	copy(out[:], ethcrypto.Keccak256([]byte(seed))[12:])
	return out
}

// PrivateKey is a secp256k1 signing key.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey is the public half of a PrivateKey.
type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(ethcrypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the account controlled by the key, keccak256 of the
// uncompressed point truncated to 20 bytes.
func (k *PublicKey) Address() Address {
	return Address{raw: ethcrypto.PubkeyToAddress(*k.PublicKey)}
}
