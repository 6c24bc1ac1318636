package config

import "github.com/vitwit/x402-gate/types"

// Builder assembles a Config fluently, starting from the defaults.
type Builder struct {
	config Config
}

func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithServiceName(name string) *Builder {
	b.config.Service.Name = name
	return b
}

func (b *Builder) WithBaseVerificationURL(url string) *Builder {
	b.config.Service.BaseVerificationURL = url
	return b
}

func (b *Builder) WithDefaultCurrency(currency CurrencyConfig) *Builder {
	b.config.Service.DefaultCurrency = currency
	return b
}

func (b *Builder) WithDefaultChain(chain types.ChainType) *Builder {
	b.config.DefaultChain = chain
	return b
}

// WithChain adds or replaces a chain entry.
func (b *Builder) WithChain(chain types.ChainType, rpcURL string) *Builder {
	entry := types.NewChainConfig(chain, rpcURL)
	for i, existing := range b.config.Chains {
		if existing.ChainID == entry.ChainID {
			b.config.Chains[i] = entry
			return b
		}
	}
	b.config.Chains = append(b.config.Chains, entry)
	return b
}

func (b *Builder) WithPaymentAmount(amount string) *Builder {
	b.config.Payments.DefaultAmount = amount
	return b
}

func (b *Builder) WithExpirationTime(seconds int64) *Builder {
	b.config.Payments.ExpirationSecs = seconds
	return b
}

func (b *Builder) Build() Config {
	return b.config
}
