package authclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/curadesk/support-platform/internal/config"
	"github.com/curadesk/support-platform/internal/domain"
	"github.com/curadesk/support-platform/internal/observability"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

// Resolver turns a presented key into a verdict. The ticket middleware depends
// on this interface so tests can inject a deterministic fake.
type Resolver interface {
	Resolve(ctx context.Context, apiKey string) (domain.Verdict, error)
}

// Client calls the identity service's /validate endpoint behind a verdict
// cache with single-flight coalescing. On identity unreachability it fails
// closed: the caller gets UpstreamUnavailable, never a stale cache entry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	cache      *VerdictCache
	group      singleflight.Group
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient constructs the client from config.
func NewClient(cfg config.IdentityClientConfig, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout(),
		cache:      NewVerdictCache(cfg.CacheCapacity, cfg.PositiveTTL(), cfg.NegativeTTL()),
		metrics:    metrics,
		logger:     logger,
	}
}

type validateRequest struct {
	APIKey string `json:"api_key"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
	User  *struct {
		ID                 int64  `json:"id"`
		Email              string `json:"email"`
		Role               string `json:"role"`
		SubscriptionStatus string `json:"subscription_status"`
	} `json:"user"`
}

// Resolve returns the verdict for the presented key, from cache when fresh.
// Concurrent lookups for the same uncached key collapse into one upstream
// call whose result fans out to every waiter.
func (c *Client) Resolve(ctx context.Context, apiKey string) (domain.Verdict, error) {
	keyHash := hashPresentedKey(apiKey)

	if verdict, ok := c.cache.Get(keyHash); ok {
		c.metrics.RecordCacheHit()
		c.metrics.RecordVerdict(verdict.Valid)
		return verdict, nil
	}
	c.metrics.RecordCacheMiss()

	result, err, _ := c.group.Do(keyHash, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have populated
		// the cache while this one waited for the group slot.
		if verdict, ok := c.cache.Get(keyHash); ok {
			return verdict, nil
		}
		// The flight outlives any single waiter: if the leader's request is
		// canceled, the coalesced callers still deserve a verdict. Detach from
		// the leader's context and bound the flight on its own timeout.
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*c.timeout)
		defer cancel()
		verdict, err := c.validateRemote(flightCtx, apiKey)
		if err != nil {
			return domain.Verdict{}, err
		}
		c.cache.Put(keyHash, verdict)
		return verdict, nil
	})
	if err != nil {
		return domain.Verdict{}, err
	}

	verdict := result.(domain.Verdict)
	c.metrics.RecordVerdict(verdict.Valid)
	return verdict, nil
}

// validateRemote performs the network call with a single retry on transient
// failure before declaring the upstream unavailable.
func (c *Client) validateRemote(ctx context.Context, apiKey string) (domain.Verdict, error) {
	verdict, err := c.doValidate(ctx, apiKey)
	if err == nil {
		return verdict, nil
	}
	if ctx.Err() != nil {
		return domain.Verdict{}, errorutil.NewUpstreamUnavailable(err)
	}

	c.logger.Warn("identity call failed, retrying once", zap.Error(err))
	verdict, retryErr := c.doValidate(ctx, apiKey)
	if retryErr == nil {
		return verdict, nil
	}
	c.logger.Error("identity service unreachable", zap.Error(retryErr))
	return domain.Verdict{}, errorutil.NewUpstreamUnavailable(retryErr)
}

func (c *Client) doValidate(ctx context.Context, apiKey string) (domain.Verdict, error) {
	body, err := json.Marshal(validateRequest{APIKey: apiKey})
	if err != nil {
		return domain.Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return domain.Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	c.metrics.RecordUpstreamCall(err != nil)
	if err != nil {
		return domain.Verdict{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return domain.Verdict{}, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var parsed validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Verdict{}, err
	}

	if !parsed.Valid || parsed.User == nil {
		// The wire carries no reason; record it generically.
		return domain.Invalid(domain.ReasonNotFound), nil
	}

	return domain.Verdict{
		Valid:              true,
		UserID:             parsed.User.ID,
		Email:              parsed.User.Email,
		Role:               domain.Role(parsed.User.Role),
		SubscriptionStatus: domain.SubscriptionStatus(parsed.User.SubscriptionStatus),
	}, nil
}

func hashPresentedKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
