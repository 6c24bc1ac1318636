// Package config supplies the engine's settings: the default chain, per-chain
// endpoints, payment defaults, the payout address, and cache tuning. Cache
// TTL and capacity are accepted here but not enforced by the engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/vitwit/x402-gate/types"
)

var validate = validator.New()

// Error codes for configuration failures.
const (
	CodeFileNotFound  = "file_not_found"
	CodeInvalidConfig = "invalid_config"
	CodeChainMissing  = "chain_missing"
	CodeSerialization = "serialization_error"
)

// Error is the typed configuration failure.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CurrencyType names the currency variants a service can charge in.
type CurrencyType string

const (
	CurrencyTypeNative CurrencyType = "native"
	CurrencyTypeErc20  CurrencyType = "erc20"
	CurrencyTypeErc721 CurrencyType = "erc721"
	CurrencyTypeCoin   CurrencyType = "coin"
)

// CurrencyConfig declares a currency the service accepts.
type CurrencyConfig struct {
	Type     CurrencyType `json:"currency_type" validate:"required"`
	Address  string       `json:"address,omitempty"`
	Decimals uint8        `json:"decimals"`
}

// ServiceConfig identifies the protected service.
type ServiceConfig struct {
	Name                string         `json:"name" validate:"required"`
	Description         string         `json:"description"`
	BaseVerificationURL string         `json:"base_verification_url" validate:"required"`
	DefaultCurrency     CurrencyConfig `json:"default_currency"`
}

// PaymentConfig holds payment defaults.
type PaymentConfig struct {
	DefaultAmount      string           `json:"default_amount" validate:"required"`
	ExpirationSecs     int64            `json:"expiration_time_secs" validate:"gt=0"`
	AllowedCurrencies  []CurrencyConfig `json:"allowed_currencies"`
	FeeRecoveryPercent float64          `json:"fee_recovery_percent"`
}

// CacheConfig declares session-cache tuning. The engine carries these
// settings but does not evict sessions; they are a hook for a future
// eviction policy, not a guarantee.
type CacheConfig struct {
	Enabled    bool  `json:"enabled"`
	TTLSecs    int64 `json:"ttl_secs"`
	MaxEntries int   `json:"max_entries"`
}

// Config is the full engine configuration.
type Config struct {
	Service      ServiceConfig       `json:"service"`
	Chains       []types.ChainConfig `json:"chains"`
	Payments     PaymentConfig       `json:"payments"`
	Cache        CacheConfig         `json:"cache"`
	DefaultChain types.ChainType     `json:"default_chain"`
}

// Manager owns a Config together with the ingested environment. Chain
// entries are indexed by canonical chain id.
type Manager struct {
	config      Config
	chainIndex  map[string]types.ChainConfig
	environment map[string]string
}

// New builds a manager around the default configuration.
func New() *Manager {
	return FromConfig(DefaultConfig())
}

// FromConfig wraps an explicit configuration.
func FromConfig(cfg Config) *Manager {
	m := &Manager{
		config:      cfg,
		environment: loadEnvironment(),
	}
	m.reindex()
	return m
}

// FromFile loads a JSON configuration file.
func FromFile(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: CodeFileNotFound, Message: "configuration file not found: " + path, Err: err}
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{Code: CodeSerialization, Message: err.Error(), Err: err}
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, &Error{Code: CodeInvalidConfig, Message: err.Error(), Err: err}
	}
	return FromConfig(cfg), nil
}

func (m *Manager) reindex() {
	m.chainIndex = make(map[string]types.ChainConfig, len(m.config.Chains))
	for _, chain := range m.config.Chains {
		m.chainIndex[chain.Type.ChainID()] = chain
	}
}

// Config returns the current configuration.
func (m *Manager) Config() *Config {
	return &m.config
}

// ChainConfig looks up the configured entry for a chain type.
func (m *Manager) ChainConfig(chain types.ChainType) (types.ChainConfig, bool) {
	cfg, ok := m.chainIndex[chain.ChainID()]
	return cfg, ok
}

// DefaultChainConfig returns the entry for the configured default chain.
func (m *Manager) DefaultChainConfig() (types.ChainConfig, error) {
	cfg, ok := m.ChainConfig(m.config.DefaultChain)
	if !ok {
		return types.ChainConfig{}, &Error{
			Code:    CodeChainMissing,
			Message: "chain configuration missing: " + m.config.DefaultChain.DisplayName(),
		}
	}
	return cfg, nil
}

// ServiceAddress returns the payout address, taken from the
// X402_SERVICE_ADDRESS environment variable.
func (m *Manager) ServiceAddress() string {
	if addr, ok := m.environment["X402_SERVICE_ADDRESS"]; ok {
		return addr
	}
	return "0x0000000000000000000000000000000000000000"
}

// Environment returns the value of an ingested environment variable.
func (m *Manager) Environment(key string) (string, bool) {
	v, ok := m.environment[key]
	return v, ok
}

// Update applies an in-place mutation to the configuration.
func (m *Manager) Update(fn func(*Config)) {
	fn(&m.config)
	m.reindex()
}

// loadEnvironment captures X402_* and RPC_* variables, reading a local .env
// file first when one exists.
func loadEnvironment() map[string]string {
	_ = godotenv.Load()
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if strings.HasPrefix(key, "X402_") || strings.HasPrefix(key, "RPC_") {
			env[key] = value
		}
	}
	return env
}

// DefaultConfig returns the built-in configuration: Ethereum and Polygon
// chain entries with Ethereum as default, a native-asset default currency,
// and a one-hour challenge expiry.
func DefaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			Name:                "X402 Payment Service",
			Description:         "A service protected by x402 payment protocol",
			BaseVerificationURL: "https://api.example.com/verify",
			DefaultCurrency: CurrencyConfig{
				Type:     CurrencyTypeNative,
				Decimals: 18,
			},
		},
		Chains: []types.ChainConfig{
			types.NewChainConfig(types.EvmChain(types.EvmEthereum), "https://eth.llamarpc.com"),
			types.NewChainConfig(types.EvmChain(types.EvmPolygon), "https://polygon-rpc.com"),
		},
		Payments: PaymentConfig{
			DefaultAmount:  "1000000000000000",
			ExpirationSecs: 3600,
			AllowedCurrencies: []CurrencyConfig{
				{Type: CurrencyTypeNative, Decimals: 18},
			},
			FeeRecoveryPercent: 0.1,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSecs:    300,
			MaxEntries: 1000,
		},
		DefaultChain: types.EvmChain(types.EvmEthereum),
	}
}
