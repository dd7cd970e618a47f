package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	TreasuryVault      = "TreasuryVault"
	RiskController     = "RiskController"
	DexStrategyCompact = "DexStrategyCompact"
)

// Contract pairs a deployed address with its interface description.
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// Spec is the configured form of a contract before its ABI is resolved.
// An empty ABIPath selects the built-in description for Name.
type Spec struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	ABIPath string `mapstructure:"abi"`
}

// DefaultSpecs returns the protocol deployments indexed when none are configured.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: TreasuryVault, Address: "0x599967eDC2dc6F692CA37c09693eDD7DDfe8c66D"},
		{Name: RiskController, Address: "0xa5bec93b07b70e91074A24fB79C5EA8aF639a639"},
		{Name: DexStrategyCompact, Address: "0x2f0b1a0c816377f569533385a30d2afe2cb4899e"},
	}
}

var builtinJSON = map[string]string{
	TreasuryVault:      treasuryVaultABIJSON,
	RiskController:     riskControllerABIJSON,
	DexStrategyCompact: dexStrategyABIJSON,
}

var (
	builtinMu     sync.Mutex
	builtinParsed = make(map[string]abi.ABI)
)

// BuiltinABI returns the parsed built-in description for a contract name.
func BuiltinABI(name string) (abi.ABI, error) {
	raw, ok := builtinJSON[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("no built-in abi for contract %q", name)
	}

	builtinMu.Lock()
	defer builtinMu.Unlock()
	if parsed, ok := builtinParsed[name]; ok {
		return parsed, nil
	}
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse built-in abi %s: %w", name, err)
	}
	builtinParsed[name] = parsed
	return parsed, nil
}

// LoadArtifact reads an ABI from a build artifact ({"abi": [...]}) or a bare ABI array.
func LoadArtifact(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read artifact: %w", err)
	}
	return ParseArtifact(data)
}

// ParseArtifact parses artifact bytes as accepted by LoadArtifact.
func ParseArtifact(data []byte) (abi.ABI, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return abi.ABI{}, fmt.Errorf("empty artifact")
	}

	raw := data
	if data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return abi.ABI{}, fmt.Errorf("parse artifact: %w", err)
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, fmt.Errorf("artifact has no abi field")
		}
		raw = artifact.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi: %w", err)
	}
	return parsed, nil
}

// Resolve turns configured specs into contracts, loading each ABI.
func Resolve(specs []Spec) ([]Contract, error) {
	out := make([]Contract, 0, len(specs))
	seen := make(map[common.Address]string, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("contract name is required")
		}
		if !common.IsHexAddress(spec.Address) {
			return nil, fmt.Errorf("contract %s: invalid address: %s", name, spec.Address)
		}
		address := common.HexToAddress(spec.Address)
		if prev, ok := seen[address]; ok {
			return nil, fmt.Errorf("contract %s: address %s already configured for %s", name, address.Hex(), prev)
		}
		seen[address] = name

		var (
			parsed abi.ABI
			err    error
		)
		if spec.ABIPath != "" {
			parsed, err = LoadArtifact(spec.ABIPath)
		} else {
			parsed, err = BuiltinABI(name)
		}
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", name, err)
		}

		out = append(out, Contract{Name: name, Address: address, ABI: parsed})
	}
	return out, nil
}
