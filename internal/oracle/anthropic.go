package oracle

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Model constants. Sonnet is the default for reflection work; Haiku is a
// cheaper option for rule-of-thumb critiques.
const (
	ModelSonnet = "claude-sonnet-4-5-20250929"
	ModelHaiku  = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the default model, checking RUMINATE_MODEL env var first
func GetDefaultModel() string {
	if model := os.Getenv("RUMINATE_MODEL"); model != "" {
		return model
	}
	return ModelSonnet
}

// AnthropicConfig holds configuration for the Anthropic-backed oracle
type AnthropicConfig struct {
	APIKey    string      // If empty, reads from ANTHROPIC_API_KEY env var
	Model     string      // Model to use (default: GetDefaultModel())
	MaxTokens int         // Response token cap (default: 4096)
	Retry     RetryConfig // Retry configuration (uses defaults if not specified)
}

// Anthropic is an Oracle backed by the Anthropic Messages API, with bounded
// retries, a circuit breaker, a concurrency cap, and optional rate limiting.
// Safe for use by multiple concurrent sessions.
type Anthropic struct {
	client         *anthropic.Client
	model          string
	maxTokens      int
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted
	limiter        *rate.Limiter
}

var _ Oracle = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic-backed oracle
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	// Only a fully zero retry config means "use defaults"; a custom config
	// with MaxRetries 0 is a legitimate single-attempt setup.
	retry := cfg.Retry
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	var cb *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		cb = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}

	var sem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		sem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	var limiter *rate.Limiter
	if retry.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(retry.RequestsPerSecond), 1)
	}

	return &Anthropic{
		client:         &client,
		model:          model,
		maxTokens:      maxTokens,
		retry:          retry,
		circuitBreaker: cb,
		concurrencySem: sem,
		limiter:        limiter,
	}, nil
}

// Generate implements Oracle
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	if a.concurrencySem != nil {
		if err := a.concurrencySem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("failed to acquire concurrency slot: %w", err)
		}
		defer a.concurrencySem.Release(1)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait canceled: %w", err)
		}
	}

	var response *anthropic.Message
	err := retryWithBackoff(ctx, a.retry, a.circuitBreaker, "generate", func(attemptCtx context.Context) error {
		resp, apiErr := a.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: int64(a.maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
