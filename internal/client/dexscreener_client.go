package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"token_screener/internal/entity"
	"token_screener/internal/pkg/metrics"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const dexScreenerSource = "dexscreener"

// DEXScreenerClient defines the interface for interacting with the DEX Screener API.
type DEXScreenerClient interface {
	GetTokenPairsByAddresses(ctx context.Context, tokenAddresses []string) ([]entity.PairData, error)
}

// DEXScreenerClientConfig holds the settings of the DEX Screener client.
type DEXScreenerClientConfig struct {
	BaseURL             string
	ChainID             string
	Timeout             time.Duration
	MaxTokensPerRequest int
}

// dexScreenerClientImpl is the implementation of DEXScreenerClient.
type dexScreenerClientImpl struct {
	client  *fasthttp.Client
	cfg     DEXScreenerClientConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewDEXScreenerClient creates a new instance of dexScreenerClientImpl.
func NewDEXScreenerClient(cfg DEXScreenerClientConfig, logger *zap.Logger, m *metrics.Metrics) DEXScreenerClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &dexScreenerClientImpl{
		client:  &fasthttp.Client{},
		cfg:     cfg,
		logger:  logger.Named("DEXScreenerClient"),
		metrics: m,
		now:     time.Now,
	}
}

// GetTokenPairsByAddresses implements the DEXScreenerClient interface.
// The request is made once; callers treat any error as an empty result.
func (c *dexScreenerClientImpl) GetTokenPairsByAddresses(ctx context.Context, tokenAddresses []string) ([]entity.PairData, error) {
	if len(tokenAddresses) == 0 {
		return nil, fmt.Errorf("tokenAddresses cannot be empty")
	}
	if c.cfg.MaxTokensPerRequest > 0 && len(tokenAddresses) > c.cfg.MaxTokensPerRequest {
		c.logger.Warn("Number of token addresses exceeds maxTokensPerRequest",
			zap.Int("requestedCount", len(tokenAddresses)),
			zap.Int("maxAllowed", c.cfg.MaxTokensPerRequest))
		return nil, fmt.Errorf("number of token addresses (%d) exceeds max tokens per request (%d)", len(tokenAddresses), c.cfg.MaxTokensPerRequest)
	}

	pairs, err := c.fetchPairs(ctx, tokenAddresses)
	c.metrics.ObserveUpstream(dexScreenerSource, outcomeOf(err))
	return pairs, err
}

func (c *dexScreenerClientImpl) fetchPairs(ctx context.Context, tokenAddresses []string) ([]entity.PairData, error) {
	addresses := strings.Join(tokenAddresses, ",")
	requestURL := fmt.Sprintf("%s/tokens/v1/%s/%s", c.cfg.BaseURL, c.cfg.ChainID, addresses)

	c.logger.Debug("Requesting token pairs from DEX Screener", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := c.client.DoDeadline(req, resp, requestDeadline(ctx, c.now(), c.cfg.Timeout)); err != nil {
		c.logger.Warn("Failed to execute request to DEX Screener", zap.String("url", requestURL), zap.Error(err))
		return nil, &RequestError{Kind: KindTransient, Err: fmt.Errorf("request to %s: %w", requestURL, err)}
	}

	rawBody := resp.Body()

	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		c.logger.Warn("DEX Screener API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.String("responseBody", truncateBody(rawBody)),
		)
		return nil, &RequestError{Kind: classifyStatus(status), StatusCode: status, Err: fmt.Errorf("unexpected status: %s", truncateBody(rawBody))}
	}

	var wrapped entity.DEXTokenPair
	if err := json.Unmarshal(rawBody, &wrapped); err == nil && wrapped.Pairs != nil {
		c.logger.Debug("Decoded DEX Screener response (wrapped object)", zap.Int("pairCount", len(wrapped.Pairs)))
		return wrapped.Pairs, nil
	}

	var directPairs []entity.PairData
	if err := json.Unmarshal(rawBody, &directPairs); err != nil {
		c.logger.Warn("Failed to decode DEX Screener response",
			zap.String("url", requestURL),
			zap.String("responseBody", truncateBody(rawBody)),
			zap.Error(err),
		)
		return nil, &RequestError{Kind: KindTerminal, StatusCode: fasthttp.StatusOK, Err: fmt.Errorf("decode pairs: %w", err)}
	}

	c.logger.Debug("Decoded DEX Screener response (direct array)", zap.Int("pairCount", len(directPairs)))
	return directPairs, nil
}
