// core/genesis/spec.go
package genesis

import (
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"rwaledger/crypto"
	"rwaledger/native/rwa"
)

// GenesisSpec seeds an empty ledger. YAML and JSON documents are both accepted.
type GenesisSpec struct {
	Admin     string                       `yaml:"admin" json:"admin"`
	Countries []string                     `yaml:"countries" json:"countries"`
	Blacklist []string                     `yaml:"blacklist" json:"blacklist"`
	Alloc     map[string]map[string]string `yaml:"alloc" json:"alloc"` // addr -> token -> amount
	Assets    []AssetSpec                  `yaml:"assets" json:"assets"`
	Investors []InvestorSpec               `yaml:"investors" json:"investors"`

	admin     [20]byte
	blacklist [][20]byte
	allocs    []allocation
}

type AssetSpec struct {
	Name            string `yaml:"name" json:"name"`
	Symbol          string `yaml:"symbol" json:"symbol"`
	Class           string `yaml:"class" json:"class"`
	TotalSupply     string `yaml:"totalSupply" json:"totalSupply"`
	Valuation       string `yaml:"valuation" json:"valuation"`
	Custodian       string `yaml:"custodian" json:"custodian"`
	SettlementToken string `yaml:"settlementToken" json:"settlementToken"`
	MinInvestment   string `yaml:"minInvestment" json:"minInvestment"`
	AccreditedOnly  bool   `yaml:"accreditedOnly" json:"accreditedOnly"`

	params rwa.AssetParams
}

type InvestorSpec struct {
	Address    string `yaml:"address" json:"address"`
	Country    string `yaml:"country" json:"country"`
	Accredited bool   `yaml:"accredited" json:"accredited"`
	KYCExpiry  int64  `yaml:"kycExpiry" json:"kycExpiry"`

	addr [20]byte
}

type allocation struct {
	addr   [20]byte
	token  string
	amount *big.Int
}

// LoadGenesisSpec reads and validates the seed file at path.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a seed document.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

// AdminAccount returns the decoded admin account.
func (s *GenesisSpec) AdminAccount() [20]byte { return s.admin }

func (s *GenesisSpec) validate() error {
	admin, err := crypto.ParseRaw(strings.TrimSpace(s.Admin))
	if err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	s.admin = admin

	for i, code := range s.Countries {
		if rwa.NormalizeCountry(code) == "" {
			return fmt.Errorf("countries[%d]: empty code", i)
		}
	}

	s.blacklist = s.blacklist[:0]
	for i, entry := range s.Blacklist {
		addr, err := crypto.ParseRaw(strings.TrimSpace(entry))
		if err != nil {
			return fmt.Errorf("blacklist[%d]: %w", i, err)
		}
		s.blacklist = append(s.blacklist, addr)
	}

	// Sorted so identical documents always produce identical state.
	accounts := make([]string, 0, len(s.Alloc))
	for account := range s.Alloc {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	s.allocs = s.allocs[:0]
	for _, account := range accounts {
		addr, err := crypto.ParseRaw(strings.TrimSpace(account))
		if err != nil {
			return fmt.Errorf("alloc %q: %w", account, err)
		}
		tokens := make([]string, 0, len(s.Alloc[account]))
		for token := range s.Alloc[account] {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)
		for _, token := range tokens {
			amount, err := parseAmount(s.Alloc[account][token])
			if err != nil {
				return fmt.Errorf("alloc %q %s: %w", account, token, err)
			}
			if amount.Sign() == 0 {
				continue
			}
			s.allocs = append(s.allocs, allocation{addr: addr, token: rwa.NormalizeToken(token), amount: amount})
		}
	}

	for i := range s.Assets {
		if err := s.Assets[i].validate(); err != nil {
			return fmt.Errorf("assets[%d]: %w", i, err)
		}
	}
	for i := range s.Investors {
		inv := &s.Investors[i]
		addr, err := crypto.ParseRaw(strings.TrimSpace(inv.Address))
		if err != nil {
			return fmt.Errorf("investors[%d]: %w", i, err)
		}
		inv.addr = addr
	}
	return nil
}

func (a *AssetSpec) validate() error {
	class, err := rwa.ParseAssetClass(a.Class)
	if err != nil {
		return err
	}
	supply, err := parseAmount(a.TotalSupply)
	if err != nil {
		return fmt.Errorf("totalSupply: %w", err)
	}
	valuation, err := parseAmount(a.Valuation)
	if err != nil {
		return fmt.Errorf("valuation: %w", err)
	}
	minimum, err := parseAmount(a.MinInvestment)
	if err != nil {
		return fmt.Errorf("minInvestment: %w", err)
	}
	custodian, err := crypto.ParseRaw(strings.TrimSpace(a.Custodian))
	if err != nil {
		return fmt.Errorf("custodian: %w", err)
	}
	a.params = rwa.AssetParams{
		Name:            a.Name,
		Symbol:          a.Symbol,
		Class:           class,
		TotalSupply:     supply,
		Valuation:       valuation,
		Custodian:       custodian,
		SettlementToken: a.SettlementToken,
		MinInvestment:   minimum,
		AccreditedOnly:  a.AccreditedOnly,
	}
	return nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", raw)
	}
	return value, nil
}
