package ratelimit

import (
	"context"
	"os"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different provider APIs the adapters talk to
type API string

const (
	// APIEtherscan represents the Etherscan API
	APIEtherscan API = "etherscan"
	// APIMoralis represents the Moralis Web3 Data API
	APIMoralis API = "moralis"
	// APIAlchemy represents the Alchemy NFT API
	APIAlchemy API = "alchemy"
	// APIZeroEx represents the 0x swap API
	APIZeroEx API = "0x"
	// APIOneInch represents the 1inch swap API
	APIOneInch API = "1inch"
)

// defaultLimits are conservative free-tier request rates per second
var defaultLimits = map[API]rate.Limit{
	// Etherscan: 5 calls per second on the free plan
	APIEtherscan: rate.Limit(4),
	// Moralis: compute-unit based, roughly 25 simple calls per second
	APIMoralis: rate.Limit(20),
	// Alchemy: 330 CU/s, getNFTsForOwner costs 480 CU
	APIAlchemy: rate.Limit(0.5),
	// 0x: 10 requests per second on the standard key
	APIZeroEx: rate.Limit(5),
	// 1inch dev portal free tier: 1 request per second
	APIOneInch: rate.Limit(1),
}

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

var (
	instance *Limiter
	once     sync.Once
)

// GetLimiter returns the singleton rate limiter instance
func GetLimiter() *Limiter {
	once.Do(func() {
		instance = New(nil)
	})
	return instance
}

// New creates a limiter. Entries in overrides replace the default rate for
// that API; a non-positive override disables limiting for it. Under go test
// the defaults are unlimited, but overrides still apply.
func New(overrides map[API]float64) *Limiter {
	l := &Limiter{
		limiters: make(map[API]*rate.Limiter),
	}

	testMode := os.Getenv("GO_TESTING") == "1" || isTestMode()
	for api, limit := range defaultLimits {
		if testMode {
			limit = rate.Inf
		}
		l.limiters[api] = rate.NewLimiter(limit, 1)
	}
	for api, perSecond := range overrides {
		l.Set(api, perSecond)
	}

	return l
}

// isTestMode checks if we're running in test mode
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return false
}

// Set replaces the rate for api. A non-positive rate removes the limit.
func (l *Limiter) Set(api API, perSecond float64) {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[api] = rate.NewLimiter(limit, 1)
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return true
	}

	return limiter.Allow()
}
