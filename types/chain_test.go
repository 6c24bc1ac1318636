package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainID_Mapping(t *testing.T) {
	tests := []struct {
		chain ChainType
		want  string
	}{
		{EvmChain(EvmEthereum), "1"},
		{EvmChain(EvmPolygon), "137"},
		{EvmChain(EvmBSC), "56"},
		{EvmChain(EvmArbitrum), "42161"},
		{EvmChain(EvmOptimism), "10"},
		{EvmChain(EvmAvalanche), "43114"},
		{EvmChain(EvmBase), "8453"},
		{EvmChain("59144"), "59144"},
		{AptosChain(NetworkMainnet), "aptos-mainnet"},
		{SuiChain(NetworkTestnet), "sui-testnet"},
		{SolanaChain(NetworkDevnet), "solana-devnet"},
		{CustomChain("mychain-1"), "mychain-1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.chain.ChainID(), "chain %+v", tt.chain)
	}
}

func TestChainID_IsDeterministic(t *testing.T) {
	chain := SolanaChain(NetworkMainnet)
	first := chain.ChainID()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, chain.ChainID())
	}
}

func TestEvmNumericChainID(t *testing.T) {
	id, err := EvmChain(EvmBase).EvmNumericChainID()
	require.NoError(t, err)
	assert.Equal(t, uint64(8453), id)

	id, err = EvmChain("59144").EvmNumericChainID()
	require.NoError(t, err)
	assert.Equal(t, uint64(59144), id)

	_, err = EvmChain("not-a-number").EvmNumericChainID()
	assert.Error(t, err)

	_, err = SolanaChain(NetworkMainnet).EvmNumericChainID()
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ethereum", EvmChain(EvmEthereum).DisplayName())
	assert.Equal(t, "BNB Smart Chain", EvmChain(EvmBSC).DisplayName())
	assert.Equal(t, "EVM Chain 59144", EvmChain("59144").DisplayName())
	assert.Equal(t, "Solana Mainnet", SolanaChain(NetworkMainnet).DisplayName())
	assert.Equal(t, "Aptos Devnet", AptosChain(NetworkDevnet).DisplayName())
	assert.Equal(t, "Sui Testnet", SuiChain(NetworkTestnet).DisplayName())
	assert.Equal(t, "mychain-1", CustomChain("mychain-1").DisplayName())
}

func TestChainType_UnmarshalKnownFamily(t *testing.T) {
	var chain ChainType
	require.NoError(t, json.Unmarshal([]byte(`{"family":"evm","network":"polygon"}`), &chain))
	assert.Equal(t, EvmChain(EvmPolygon), chain)
}

func TestChainType_UnmarshalUnknownFamilyFallsBackToCustom(t *testing.T) {
	var chain ChainType
	require.NoError(t, json.Unmarshal([]byte(`{"family":"cosmos","network":"osmosis-1"}`), &chain))
	assert.Equal(t, FamilyCustom, chain.Family)
	assert.Equal(t, "cosmos:osmosis-1", chain.Network)

	// And the escape survives a round trip.
	data, err := json.Marshal(chain)
	require.NoError(t, err)
	var again ChainType
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, chain, again)
}

func TestNewChainConfig_DerivesChainID(t *testing.T) {
	cfg := NewChainConfig(EvmChain(EvmArbitrum), "https://arb1.arbitrum.io/rpc")
	assert.Equal(t, "42161", cfg.ChainID)
	assert.Equal(t, "https://arb1.arbitrum.io/rpc", cfg.RPCURL)
}
