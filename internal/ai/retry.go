package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"qadamsafe/internal/interfaces"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// RetryPolicy: MaxRetries повторов после первой попытки, пауза удваивается.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

type retryingClient struct {
	next   interfaces.AIClient
	policy RetryPolicy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry повторяет запросы, упавшие с 429/500/503 или по таймауту.
func WithRetry(next interfaces.AIClient, policy RetryPolicy, logger *zap.Logger) interfaces.AIClient {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &retryingClient{
		next:   next,
		policy: policy,
		logger: logger.Named("AIRetry"),
		sleep:  sleepContext,
	}
}

func (c *retryingClient) Model() string { return c.next.Model() }

func (c *retryingClient) GenerateText(ctx context.Context, systemPrompt, userInput string, params interfaces.GenerationParams) (string, interfaces.UsageInfo, error) {
	delay := c.policy.InitialBackoff
	for attempt := 0; ; attempt++ {
		text, usage, err := c.next.GenerateText(ctx, systemPrompt, userInput, params)
		if err == nil {
			return text, usage, nil
		}
		if attempt >= c.policy.MaxRetries || ctx.Err() != nil || !IsRetryable(err) {
			return "", usage, err
		}
		c.logger.Warn("Retrying AI request",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return "", usage, err
		}
		delay *= 2
	}
}

// IsRetryable reports whether err is a rate limit, a 500/503 or a timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return isRetryableStatus(reqErr.HTTPStatusCode)
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
