package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// Config holds all configuration for the aggregator.
type Config struct {
	// API keys; a provider without a key is not queried
	EtherscanAPIKey string `mapstructure:"etherscan_api_key"`
	MoralisAPIKey   string `mapstructure:"moralis_api_key"`
	AlchemyAPIKey   string `mapstructure:"alchemy_api_key"`
	ZeroExAPIKey    string `mapstructure:"zeroex_api_key"`
	OneInchAPIKey   string `mapstructure:"oneinch_api_key"`

	// Base URLs for API endpoints (configurable for testing)
	EtherscanBaseURL string `mapstructure:"etherscan_base_url"`
	MoralisBaseURL   string `mapstructure:"moralis_base_url"`
	AlchemyBaseURL   string `mapstructure:"alchemy_base_url"`
	ZeroExBaseURL    string `mapstructure:"zeroex_base_url"`
	OneInchBaseURL   string `mapstructure:"oneinch_base_url"`

	// Chain is the chain queried when a command does not name one
	Chain string `mapstructure:"chain"`

	// Wallets are the addresses whose balances and NFTs are aggregated
	Wallets []string `mapstructure:"wallets"`

	// SourceTimeout bounds each provider call; zero means no bound
	SourceTimeout time.Duration `mapstructure:"source_timeout"`

	// HTTPRetryCount is how many times adapters retry a failed HTTP call
	HTTPRetryCount int `mapstructure:"http_retry_count"`

	// RateLimits overrides per-provider request rates (requests per second)
	RateLimits map[string]float64 `mapstructure:"rate_limits"`
}

// Provider names as used in configuration and outcomes
const (
	ProviderEtherscan = "etherscan"
	ProviderMoralis   = "moralis"
	ProviderAlchemy   = "alchemy"
	ProviderZeroEx    = "0x"
	ProviderOneInch   = "1inch"
)

// Load reads configuration from environment variables, an optional config
// file and, when flags is non-nil, command line flags.
// Flags take precedence over environment variables, which take precedence
// over config file values.
//
// Expected environment variables:
//   - ETHERSCAN_API_KEY, MORALIS_API_KEY, ALCHEMY_API_KEY, ZEROEX_API_KEY, ONEINCH_API_KEY
//   - *_BASE_URL for each of the above (optional, defaults to production)
//   - CHAIN (optional, defaults to ethereum)
//   - WALLETS (optional, comma separated)
//   - SOURCE_TIMEOUT (optional, e.g. 15s)
//   - HTTP_RETRY_COUNT (optional, defaults to 2)
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Set defaults for base URLs
	v.SetDefault("etherscan_base_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("moralis_base_url", "https://deep-index.moralis.io/api/v2.2")
	v.SetDefault("alchemy_base_url", "")
	v.SetDefault("zeroex_base_url", "https://api.0x.org")
	v.SetDefault("oneinch_base_url", "https://api.1inch.dev")
	v.SetDefault("chain", "ethereum")
	v.SetDefault("source_timeout", "0s")
	v.SetDefault("http_retry_count", fetcher.DefaultRetryCount)

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.yldfi")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	for _, key := range []string{
		"etherscan_api_key", "moralis_api_key", "alchemy_api_key", "zeroex_api_key", "oneinch_api_key",
		"etherscan_base_url", "moralis_base_url", "alchemy_base_url", "zeroex_base_url", "oneinch_base_url",
		"chain", "wallets", "source_timeout", "http_retry_count",
	} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	if flags != nil {
		for key, name := range map[string]string{
			"chain":          "chain",
			"wallets":        "wallet",
			"source_timeout": "source-timeout",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if len(c.Providers()) == 0 {
		return fmt.Errorf("no providers configured: set at least one of ETHERSCAN_API_KEY, MORALIS_API_KEY, ALCHEMY_API_KEY, ZEROEX_API_KEY, ONEINCH_API_KEY")
	}

	c.Chain = records.NormalizeChain(c.Chain)
	if _, ok := records.ChainID(c.Chain); !ok {
		return fmt.Errorf("unknown chain: %s", c.Chain)
	}

	var invalid []string
	wallets := c.Wallets[:0]
	for _, w := range c.Wallets {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if !common.IsHexAddress(w) {
			invalid = append(invalid, w)
			continue
		}
		wallets = append(wallets, w)
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid wallet address: %s", strings.Join(invalid, ", "))
	}
	c.Wallets = wallets

	if c.SourceTimeout < 0 {
		return fmt.Errorf("source_timeout must not be negative: %s", c.SourceTimeout)
	}
	if c.HTTPRetryCount < 0 {
		c.HTTPRetryCount = 0
	}

	return nil
}

// Providers lists the providers that have an API key, in a fixed order.
func (c *Config) Providers() []string {
	var out []string
	if c.EtherscanAPIKey != "" {
		out = append(out, ProviderEtherscan)
	}
	if c.MoralisAPIKey != "" {
		out = append(out, ProviderMoralis)
	}
	if c.AlchemyAPIKey != "" {
		out = append(out, ProviderAlchemy)
	}
	if c.ZeroExAPIKey != "" {
		out = append(out, ProviderZeroEx)
	}
	if c.OneInchAPIKey != "" {
		out = append(out, ProviderOneInch)
	}
	return out
}
