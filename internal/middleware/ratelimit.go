package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/login-demo/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const rateLimitPrefix = "login-demo:ratelimit"

// NewRedisClient connects to Redis and verifies the connection with a PING
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RateLimit returns ulule/limiter middleware keyed on the client IP. rateSpec
// uses the limiter format ("100-M", "5-S"); an empty rate disables limiting.
// Counters are kept in Redis when redisClient is non-nil, else in memory.
// Clients are keyed by forwarding headers only when trustProxy is set,
// otherwise by the connection address.
func RateLimit(rateSpec string, redisClient *redis.Client, trustProxy bool, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rateSpec == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	rate, err := limiter.NewRateFromFormatted(rateSpec)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rateSpec, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	keyGetter := request.RemoteIP
	if trustProxy {
		keyGetter = request.ClientIP
	}

	instance := limiter.New(store, rate)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(keyGetter),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limit_store_error", zap.Error(err))
			WriteError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), msgInternal, logger)
		}),
	)
	return mw.Handler, nil
}
