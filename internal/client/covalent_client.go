package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/InNinoWeTrust/covalent/internal/domain/entity"
	"github.com/InNinoWeTrust/covalent/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxErrorBodyExcerpt = 512

// CovalentClient defines the interface for interacting with the Covalent
// indexing API.
type CovalentClient interface {
	GetTokenBalances(ctx context.Context, chainID int64, address string) ([]entity.TokenBalance, error)
}

// balancesResponse is the wire envelope of the balances_v2 endpoint.
type balancesResponse struct {
	Data struct {
		Address string                `json:"address"`
		ChainID int64                 `json:"chain_id"`
		Items   []entity.TokenBalance `json:"items"`
	} `json:"data"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    int    `json:"error_code"`
}

// covalentClientImpl is the implementation of CovalentClient.
type covalentClientImpl struct {
	client     *fasthttp.Client
	baseURL    string
	authHeader string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewCovalentClient creates a new instance of covalentClientImpl. The API
// key is folded into the Authorization header once and is never logged.
func NewCovalentClient(baseURL, apiKey string, timeout time.Duration, rateLimit, burstLimit int, logger *zap.Logger) CovalentClient {
	return &covalentClientImpl{
		client:     &fasthttp.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey+":")),
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), burstLimit),
		logger:     logger.Named("CovalentClient"),
	}
}

// GetTokenBalances implements the CovalentClient interface.
func (c *covalentClientImpl) GetTokenBalances(ctx context.Context, chainID int64, address string) ([]entity.TokenBalance, error) {
	if address == "" {
		return nil, fmt.Errorf("address cannot be empty")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	requestURL := fmt.Sprintf("%s/v1/%d/address/%s/balances_v2/?nft=true&no-nft-fetch=true", c.baseURL, chainID, address)
	c.logger.Debug("Requesting token balances from Covalent", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAuthorization, c.authHeader)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			metrics.UpstreamRequestsTotal.WithLabelValues(metrics.OutcomeNetworkError).Inc()
			c.logger.Error("Failed to execute request to Covalent", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("%w: request to %s: %v", entity.ErrNetwork, requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			metrics.UpstreamRequestsTotal.WithLabelValues(metrics.OutcomeNetworkError).Inc()
			c.logger.Error("Failed to execute request to Covalent (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("%w: request to %s with default timeout: %v", entity.ErrNetwork, requestURL, err)
		}
	}

	rawBody := resp.Body()

	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.OutcomeRemoteError).Inc()
		c.logger.Error("Covalent API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", excerpt(rawBody)),
		)
		return nil, &entity.RemoteServiceError{StatusCode: resp.StatusCode(), Message: string(excerpt(rawBody))}
	}

	var envelope balancesResponse
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.OutcomeRemoteError).Inc()
		c.logger.Error("Failed to unmarshal Covalent balances response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", excerpt(rawBody)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to unmarshal Covalent response from %s: %w", requestURL, err)
	}

	if envelope.Error {
		metrics.UpstreamRequestsTotal.WithLabelValues(metrics.OutcomeRemoteError).Inc()
		c.logger.Error("Covalent API returned an in-band error",
			zap.String("url", requestURL),
			zap.Int("errorCode", envelope.ErrorCode),
			zap.String("errorMessage", envelope.ErrorMessage),
		)
		return nil, &entity.RemoteServiceError{StatusCode: envelope.ErrorCode, Message: envelope.ErrorMessage}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	c.logger.Debug("Successfully unmarshalled Covalent balances response",
		zap.String("address", address),
		zap.Int("itemCount", len(envelope.Data.Items)))
	return envelope.Data.Items, nil
}

func excerpt(body []byte) []byte {
	if len(body) > maxErrorBodyExcerpt {
		return body[:maxErrorBodyExcerpt]
	}
	return body
}
