package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"token_screener/internal/entity"
	"token_screener/internal/pkg/metrics"
	"token_screener/internal/pkg/retry"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const birdeyeSource = "birdeye"

// BirdeyeClient defines the interface for paging through the Birdeye token list.
type BirdeyeClient interface {
	// GetTokenList fetches one page sorted by 24h volume, records as received. It retries
	// transient and rate-limited failures and returns an error only once the retry policy gives up.
	GetTokenList(ctx context.Context, offset, limit int) ([]entity.BirdeyeToken, error)
	// BudgetWait returns how long the caller should wait before the next request to stay
	// within the per-minute request budget. The client itself never blocks on the budget.
	BudgetWait() time.Duration
}

// BirdeyeClientConfig holds the settings of the Birdeye client.
type BirdeyeClientConfig struct {
	BaseURL            string
	APIKey             string
	Timeout            time.Duration
	RateLimitPerMinute int
	MaxAttempts        int
	RateLimitBackoff   time.Duration
	TransientBackoff   time.Duration
}

type birdeyeClientImpl struct {
	client  *fasthttp.Client
	cfg     BirdeyeClientConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	budget  *rate.Limiter
	policy  retry.Policy
	now     func() time.Time
}

// NewBirdeyeClient creates a new instance of birdeyeClientImpl.
func NewBirdeyeClient(cfg BirdeyeClientConfig, logger *zap.Logger, m *metrics.Metrics) BirdeyeClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	budget := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimitPerMinute > 0 {
		budget = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimitPerMinute)), cfg.RateLimitPerMinute)
	}

	c := &birdeyeClientImpl{
		client:  &fasthttp.Client{},
		cfg:     cfg,
		logger:  logger.Named("BirdeyeClient"),
		metrics: m,
		budget:  budget,
		now:     time.Now,
	}
	c.policy = c.retryPolicy()
	return c
}

func (c *birdeyeClientImpl) retryPolicy() retry.Policy {
	rateLimited := retry.Exponential(c.cfg.RateLimitBackoff)
	transient := retry.Exponential(c.cfg.TransientBackoff)

	return retry.Policy{
		MaxAttempts: c.cfg.MaxAttempts,
		Retryable:   IsRetryable,
		Delay: func(attempt int, err error) time.Duration {
			var re *RequestError
			if errors.As(err, &re) && re.Kind == KindRateLimited {
				if re.RetryAfter > 0 {
					return re.RetryAfter
				}
				return rateLimited(attempt)
			}
			return transient(attempt)
		},
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.logger.Warn("Birdeye request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("maxAttempts", c.cfg.MaxAttempts),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	}
}

// BudgetWait implements BirdeyeClient.
func (c *birdeyeClientImpl) BudgetWait() time.Duration {
	if c.budget.Limit() == rate.Inf {
		return 0
	}
	tokens := c.budget.TokensAt(c.now())
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) / float64(c.budget.Limit()) * float64(time.Second))
}

// GetTokenList implements BirdeyeClient.
func (c *birdeyeClientImpl) GetTokenList(ctx context.Context, offset, limit int) ([]entity.BirdeyeToken, error) {
	// Every request counts against the budget, even one made over it.
	if r := c.budget.ReserveN(c.now(), 1); r.OK() {
		if wait := r.DelayFrom(c.now()); wait > 0 {
			c.logger.Warn("Birdeye request budget exceeded", zap.Duration("waitTime", wait))
		}
	}

	requestURL := fmt.Sprintf("%s/defi/tokenlist?sort_by=v24hUSD&sort_type=desc&offset=%d&limit=%d", c.cfg.BaseURL, offset, limit)

	var tokens []entity.BirdeyeToken
	err := retry.Do(ctx, c.policy, func(ctx context.Context, _ int) error {
		var err error
		tokens, err = c.fetchTokenList(ctx, requestURL)
		c.metrics.ObserveUpstream(birdeyeSource, outcomeOf(err))
		return err
	})
	if err != nil {
		c.logger.Warn("Birdeye request failed", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("birdeye token list offset=%d limit=%d: %w", offset, limit, err)
	}
	return tokens, nil
}

func (c *birdeyeClientImpl) fetchTokenList(ctx context.Context, requestURL string) ([]entity.BirdeyeToken, error) {
	c.logger.Debug("Requesting token list from Birdeye", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.cfg.APIKey)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.client.DoDeadline(req, resp, requestDeadline(ctx, c.now(), c.cfg.Timeout)); err != nil {
		return nil, &RequestError{Kind: KindTransient, Err: err}
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK {
		reqErr := &RequestError{
			Kind:       classifyStatus(status),
			StatusCode: status,
			Err:        fmt.Errorf("unexpected status: %s", truncateBody(resp.Body())),
		}
		if reqErr.Kind == KindRateLimited {
			reqErr.RetryAfter = parseRetryAfter(string(resp.Header.Peek("Retry-After")), c.now())
		}
		return nil, reqErr
	}

	var payload entity.BirdeyeTokenListResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &RequestError{Kind: KindTerminal, StatusCode: status, Err: fmt.Errorf("decode token list: %w", err)}
	}
	if !payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = payload.Message
		}
		if msg == "" {
			msg = "success=false"
		}
		return nil, &RequestError{Kind: KindTerminal, StatusCode: status, Err: errors.New(msg)}
	}
	if payload.Data == nil || payload.Data.Tokens == nil {
		return []entity.BirdeyeToken{}, nil
	}
	return payload.Data.Tokens, nil
}
