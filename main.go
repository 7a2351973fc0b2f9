package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/yldfi/yldfi-rs-sub001/internal/aggregate"
	"github.com/yldfi/yldfi-rs-sub001/internal/alchemy"
	"github.com/yldfi/yldfi-rs-sub001/internal/config"
	"github.com/yldfi/yldfi-rs-sub001/internal/coordinator"
	"github.com/yldfi/yldfi-rs-sub001/internal/etherscan"
	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/moralis"
	"github.com/yldfi/yldfi-rs-sub001/internal/oneinch"
	"github.com/yldfi/yldfi-rs-sub001/internal/ratelimit"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
	"github.com/yldfi/yldfi-rs-sub001/internal/zeroex"
)

const (
	modeBalances = "balances"
	modeNFTs     = "nfts"
	modeQuote    = "quote"

	// overallTimeout keeps a hanging provider from blocking the command forever
	overallTimeout = 60 * time.Second
)

// request is what the command line asks for, beyond the loaded configuration
type request struct {
	Mode      string
	SellToken string
	BuyToken  string
	Amount    string
	Taker     string
}

type balancesReport struct {
	Wallets  map[string]aggregate.BalanceEnvelope `json:"wallets"`
	Combined aggregate.Portfolio                  `json:"combined"`
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("yldfi", pflag.ContinueOnError)
	flags.String("mode", modeBalances, "what to aggregate: balances, nfts or quote")
	flags.String("chain", "", "chain to query (default from config, ethereum)")
	flags.StringSlice("wallet", nil, "wallet address; repeat or comma separate for several")
	flags.Duration("source-timeout", 0, "bound on each provider call, 0 for none")
	flags.String("sell-token", records.NativeAsset, "token sold in a quote")
	flags.String("buy-token", "", "token bought in a quote")
	flags.String("amount", "", "sell amount in the sell token's smallest unit")
	flags.String("taker", "", "address that would execute the swap")
	flags.Bool("verbose", false, "log per-source diagnostics")
	return flags
}

func main() {
	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(flags)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	req := request{}
	req.Mode, _ = flags.GetString("mode")
	req.SellToken, _ = flags.GetString("sell-token")
	req.BuyToken, _ = flags.GetString("buy-token")
	req.Amount, _ = flags.GetString("amount")
	req.Taker, _ = flags.GetString("taker")

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received interrupt signal, shutting down")
		cancel()
	}()

	ctx, timeoutCancel := context.WithTimeout(ctx, overallTimeout)
	defer timeoutCancel()

	if err := run(ctx, cfg, req, os.Stdout, logger); err != nil {
		logger.Error("aggregation failed", "error", err)
		os.Exit(1)
	}
}

// run executes one aggregation and writes its result as indented JSON.
// Provider failures are part of the result; only invalid requests return an error.
func run(ctx context.Context, cfg *config.Config, req request, out io.Writer, logger *slog.Logger) error {
	applyRateLimits(cfg, logger)

	opts := []coordinator.Option{coordinator.WithLogger(logger)}
	if cfg.SourceTimeout > 0 {
		opts = append(opts, coordinator.WithSourceTimeout(cfg.SourceTimeout))
	}

	var result any
	switch req.Mode {
	case modeBalances:
		sources := balanceSources(cfg)
		if len(sources) == 0 {
			return fmt.Errorf("no balance provider configured: set ETHERSCAN_API_KEY or MORALIS_API_KEY")
		}
		if len(cfg.Wallets) == 0 {
			return fmt.Errorf("at least one --wallet is required")
		}
		result = aggregateBalances(ctx, cfg, sources, opts, logger)

	case modeNFTs:
		sources := nftSources(cfg)
		if len(sources) == 0 {
			return fmt.Errorf("no NFT provider configured: set MORALIS_API_KEY or ALCHEMY_API_KEY")
		}
		if len(cfg.Wallets) == 0 {
			return fmt.Errorf("at least one --wallet is required")
		}
		envelopes := make(map[string]aggregate.NftEnvelope, len(cfg.Wallets))
		for _, wallet := range cfg.Wallets {
			envelopes[wallet] = aggregate.NFTs(ctx, sources, records.NftQuery{Chain: cfg.Chain, Owner: wallet}, opts...)
		}
		result = envelopes

	case modeQuote:
		sources := quoteSources(cfg)
		if len(sources) == 0 {
			return fmt.Errorf("no quote provider configured: set ZEROEX_API_KEY or ONEINCH_API_KEY")
		}
		if req.BuyToken == "" {
			return fmt.Errorf("--buy-token is required")
		}
		if _, err := records.ParseAmount(req.Amount); err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		result = aggregate.Quotes(ctx, sources, records.QuoteQuery{
			Chain:      cfg.Chain,
			SellToken:  req.SellToken,
			BuyToken:   req.BuyToken,
			SellAmount: req.Amount,
			Taker:      req.Taker,
		}, opts...)

	default:
		return fmt.Errorf("unknown mode %q: want %s, %s or %s", req.Mode, modeBalances, modeNFTs, modeQuote)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// aggregateBalances returns a single envelope for one wallet, and per-wallet
// envelopes plus their combined portfolio for several.
func aggregateBalances(ctx context.Context, cfg *config.Config, sources []fetcher.Source[records.BalanceQuery, records.TokenBalance], opts []coordinator.Option, logger *slog.Logger) any {
	if len(cfg.Wallets) == 1 {
		env := aggregate.Balances(ctx, sources, records.BalanceQuery{Chain: cfg.Chain, Address: cfg.Wallets[0]}, opts...)
		logPortfolio(logger, cfg.Wallets[0], env.Aggregated)
		return env
	}

	report := balancesReport{Wallets: make(map[string]aggregate.BalanceEnvelope, len(cfg.Wallets))}
	portfolios := make([]aggregate.Portfolio, 0, len(cfg.Wallets))
	for _, wallet := range cfg.Wallets {
		env := aggregate.Balances(ctx, sources, records.BalanceQuery{Chain: cfg.Chain, Address: wallet}, opts...)
		report.Wallets[wallet] = env
		portfolios = append(portfolios, env.Aggregated)
		logPortfolio(logger, wallet, env.Aggregated)
	}
	report.Combined = aggregate.CombineWallets(portfolios...)
	return report
}

func logPortfolio(logger *slog.Logger, wallet string, p aggregate.Portfolio) {
	for _, t := range p.Tokens {
		units, err := records.FormatUnits(t.Balance)
		if err != nil {
			units = t.Balance.Raw
		}
		logger.Debug("holding",
			"wallet", wallet,
			"symbol", t.Symbol,
			"amount", units,
			"found_in", t.FoundIn)
	}
	logger.Debug("portfolio total", "wallet", wallet, "usd", p.TotalUSD.String())
}

func applyRateLimits(cfg *config.Config, logger *slog.Logger) {
	limiter := ratelimit.GetLimiter()
	for api, perSecond := range cfg.RateLimits {
		logger.Debug("overriding rate limit", "api", api, "per_second", perSecond)
		limiter.Set(ratelimit.API(api), perSecond)
	}
}

func balanceSources(cfg *config.Config) []fetcher.Source[records.BalanceQuery, records.TokenBalance] {
	var sources []fetcher.Source[records.BalanceQuery, records.TokenBalance]
	if cfg.EtherscanAPIKey != "" {
		sources = append(sources, etherscan.NewBalanceSource(cfg.EtherscanAPIKey, cfg.EtherscanBaseURL, cfg.HTTPRetryCount))
	}
	if cfg.MoralisAPIKey != "" {
		sources = append(sources, moralis.NewClient(cfg.MoralisAPIKey, cfg.MoralisBaseURL, cfg.HTTPRetryCount).Balances())
	}
	return sources
}

func nftSources(cfg *config.Config) []fetcher.Source[records.NftQuery, records.NftEntry] {
	var sources []fetcher.Source[records.NftQuery, records.NftEntry]
	if cfg.MoralisAPIKey != "" {
		sources = append(sources, moralis.NewClient(cfg.MoralisAPIKey, cfg.MoralisBaseURL, cfg.HTTPRetryCount).NFTs())
	}
	if cfg.AlchemyAPIKey != "" {
		sources = append(sources, alchemy.NewNftSource(cfg.AlchemyAPIKey, cfg.AlchemyBaseURL, cfg.HTTPRetryCount))
	}
	return sources
}

func quoteSources(cfg *config.Config) []fetcher.Source[records.QuoteQuery, records.SwapQuote] {
	var sources []fetcher.Source[records.QuoteQuery, records.SwapQuote]
	if cfg.ZeroExAPIKey != "" {
		sources = append(sources, zeroex.NewQuoteSource(cfg.ZeroExAPIKey, cfg.ZeroExBaseURL, cfg.HTTPRetryCount))
	}
	if cfg.OneInchAPIKey != "" {
		sources = append(sources, oneinch.NewQuoteSource(cfg.OneInchAPIKey, cfg.OneInchBaseURL, cfg.HTTPRetryCount))
	}
	return sources
}
