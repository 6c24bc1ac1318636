package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ChainFamily classifies a ledger by its data model.
type ChainFamily string

const (
	FamilyEvm    ChainFamily = "evm"
	FamilyAptos  ChainFamily = "aptos"
	FamilySui    ChainFamily = "sui"
	FamilySolana ChainFamily = "solana"

	// FamilyCustom is the escape hatch for unrecognized families. Values
	// deserialized with an unknown family tag land here instead of failing.
	FamilyCustom ChainFamily = "custom"
)

// Named EVM network variants. Any other variant string is treated as a
// custom chain and must be the numeric chain id in decimal form.
const (
	EvmEthereum  = "ethereum"
	EvmPolygon   = "polygon"
	EvmBSC       = "bsc"
	EvmArbitrum  = "arbitrum"
	EvmOptimism  = "optimism"
	EvmAvalanche = "avalanche"
	EvmBase      = "base"
)

// Network variants shared by the Aptos, Sui and Solana families.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkDevnet  = "devnet"
)

// ChainType identifies a ledger: a family plus a network variant within that
// family. It is the key type for verifier registration and session chains,
// so the ChainID mapping below must stay stable.
type ChainType struct {
	Family  ChainFamily `json:"family"`
	Network string      `json:"network"`
}

func EvmChain(network string) ChainType {
	return ChainType{Family: FamilyEvm, Network: network}
}

func AptosChain(network string) ChainType {
	return ChainType{Family: FamilyAptos, Network: network}
}

func SuiChain(network string) ChainType {
	return ChainType{Family: FamilySui, Network: network}
}

func SolanaChain(network string) ChainType {
	return ChainType{Family: FamilySolana, Network: network}
}

func CustomChain(name string) ChainType {
	return ChainType{Family: FamilyCustom, Network: name}
}

var evmChainIDs = map[string]uint64{
	EvmEthereum:  1,
	EvmPolygon:   137,
	EvmBSC:       56,
	EvmArbitrum:  42161,
	EvmOptimism:  10,
	EvmAvalanche: 43114,
	EvmBase:      8453,
}

// ChainID maps a chain type to its canonical chain-id string. The mapping is
// a pure function of the value: EVM variants map to their numeric chain id,
// other families to "<family>-<network>", and the custom escape carries its
// name through unchanged.
func (c ChainType) ChainID() string {
	switch c.Family {
	case FamilyEvm:
		if id, ok := evmChainIDs[c.Network]; ok {
			return strconv.FormatUint(id, 10)
		}
		return c.Network
	case FamilyCustom:
		return c.Network
	default:
		return fmt.Sprintf("%s-%s", c.Family, c.Network)
	}
}

// EvmNumericChainID returns the chain id expected from an EVM endpoint.
// Custom EVM variants carry the id as their network string.
func (c ChainType) EvmNumericChainID() (uint64, error) {
	if c.Family != FamilyEvm {
		return 0, fmt.Errorf("chain %s is not an EVM chain", c)
	}
	if id, ok := evmChainIDs[c.Network]; ok {
		return id, nil
	}
	id, err := strconv.ParseUint(c.Network, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid custom EVM chain id %q: %w", c.Network, err)
	}
	return id, nil
}

var evmDisplayNames = map[string]string{
	EvmEthereum:  "Ethereum",
	EvmPolygon:   "Polygon",
	EvmBSC:       "BNB Smart Chain",
	EvmArbitrum:  "Arbitrum One",
	EvmOptimism:  "Optimism",
	EvmAvalanche: "Avalanche",
	EvmBase:      "Base",
}

var familyDisplayNames = map[ChainFamily]string{
	FamilyAptos:  "Aptos",
	FamilySui:    "Sui",
	FamilySolana: "Solana",
}

// DisplayName returns a human-readable name for the chain.
func (c ChainType) DisplayName() string {
	switch c.Family {
	case FamilyEvm:
		if name, ok := evmDisplayNames[c.Network]; ok {
			return name
		}
		return fmt.Sprintf("EVM Chain %s", c.Network)
	case FamilyCustom:
		return c.Network
	default:
		family := familyDisplayNames[c.Family]
		switch c.Network {
		case NetworkMainnet:
			return family + " Mainnet"
		case NetworkTestnet:
			return family + " Testnet"
		case NetworkDevnet:
			return family + " Devnet"
		}
		return fmt.Sprintf("%s %s", family, c.Network)
	}
}

func (c ChainType) String() string {
	return c.ChainID()
}

// UnmarshalJSON accepts any family tag: recognized families deserialize as
// themselves, everything else rounds-trips through the custom escape.
func (c *ChainType) UnmarshalJSON(data []byte) error {
	var raw struct {
		Family  string `json:"family"`
		Network string `json:"network"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch ChainFamily(raw.Family) {
	case FamilyEvm, FamilyAptos, FamilySui, FamilySolana, FamilyCustom:
		c.Family = ChainFamily(raw.Family)
		c.Network = raw.Network
	default:
		c.Family = FamilyCustom
		c.Network = raw.Family
		if raw.Network != "" {
			c.Network = raw.Family + ":" + raw.Network
		}
	}
	return nil
}

// ChainConfig describes a configured chain: its type, the canonical chain id
// derived from it, and an optional RPC endpoint.
type ChainConfig struct {
	Type    ChainType `json:"chain_type"`
	ChainID string    `json:"chain_id"`
	RPCURL  string    `json:"rpc_url,omitempty"`
}

// NewChainConfig builds a ChainConfig with the chain id derived from the
// chain type. The id is never configured independently for built-in chains.
func NewChainConfig(chain ChainType, rpcURL string) ChainConfig {
	return ChainConfig{
		Type:    chain,
		ChainID: chain.ChainID(),
		RPCURL:  rpcURL,
	}
}
