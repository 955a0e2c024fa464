package smartping

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/smartping-sync/internal/platform/id"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"github.com/riskibarqy/smartping-sync/internal/platform/resilience"
	"github.com/riskibarqy/smartping-sync/internal/usecase"
	"golang.org/x/text/encoding/charmap"
)

const defaultBaseURL = "https://www.fftt.com/mobile/pxml"

var (
	errSmartPingTransient = crerr.New("smartping transient failure")
	signatureParamRegex   = regexp.MustCompile(`(tmc|serie)=[^&\s"']+`)
)

type ClientConfig struct {
	Transport      Transport
	BaseURL        string
	AppID          string
	Password       string
	Serial         string
	Timeout        time.Duration
	MaxRetries     int
	Serials        id.Generator
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client issues signed calls against the SmartPing XML endpoints and returns
// raw payloads. Only network failures surface as errors; upstream refusals are
// carried in the body.
type Client struct {
	transport      Transport
	baseURL        string
	signer         *Signer
	fallbackSerial string
	timeout        time.Duration
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	flight         resilience.SingleFlight[string]
	backoff        func(attempt int) time.Duration

	serialMu sync.Mutex
	serial   string
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = NewTransport(TransportNetHTTP, timeout)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger = logger.With("component", "smartping_client")
	breaker := resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker).
		OnStateChange(func(from, to resilience.CircuitState) {
			logger.Warn("smartping circuit breaker state changed", "from", from, "to", to)
		})
	return &Client{
		transport:      transport,
		baseURL:        baseURL,
		signer:         NewSigner(cfg.AppID, cfg.Password, cfg.Serials),
		fallbackSerial: strings.TrimSpace(cfg.Serial),
		timeout:        timeout,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        breaker,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * 500 * time.Millisecond
		},
	}
}

func (c *Client) Available() bool {
	return c != nil && c.signer.Available()
}

// Initialize opens a session with a freshly generated serial. When upstream
// refuses it, the configured known-good serial takes over; without one the
// fresh serial is kept.
func (c *Client) Initialize(ctx context.Context) (bool, error) {
	fresh, err := c.signer.NewSerial()
	if err != nil {
		return false, err
	}

	payload, err := c.callWithSerial(ctx, "xml_initialisation.php", url.Values{}, fresh)
	if err != nil {
		c.useSerial(c.fallbackOr(fresh))
		return false, err
	}

	msg, rejected := UpstreamError(payload)
	if rejected || strings.TrimSpace(payload) == "" {
		chosen := c.fallbackOr(fresh)
		c.useSerial(chosen)
		c.logger.WarnContext(ctx, "smartping initialization rejected, using fallback serial",
			"upstream_error", msg,
			"fallback_configured", c.fallbackSerial != "",
		)
		return false, nil
	}

	c.useSerial(fresh)
	c.logger.DebugContext(ctx, "smartping session initialized")
	return true, nil
}

func (c *Client) Serial() string {
	c.serialMu.Lock()
	defer c.serialMu.Unlock()
	return c.serial
}

func (c *Client) fallbackOr(fresh string) string {
	if c.fallbackSerial != "" {
		return c.fallbackSerial
	}
	return fresh
}

func (c *Client) useSerial(serial string) {
	c.serialMu.Lock()
	c.serial = serial
	c.serialMu.Unlock()
}

func (c *Client) sessionSerial() (string, error) {
	c.serialMu.Lock()
	defer c.serialMu.Unlock()

	if c.serial != "" {
		return c.serial, nil
	}
	if c.fallbackSerial != "" {
		c.serial = c.fallbackSerial
		return c.serial, nil
	}
	fresh, err := c.signer.NewSerial()
	if err != nil {
		return "", err
	}
	c.serial = fresh
	return c.serial, nil
}

func (c *Client) call(ctx context.Context, endpoint string, params url.Values) (string, error) {
	serial, err := c.sessionSerial()
	if err != nil {
		return "", err
	}
	return c.callWithSerial(ctx, endpoint, params, serial)
}

func (c *Client) callWithSerial(ctx context.Context, endpoint string, params url.Values, serial string) (string, error) {
	if !c.Available() {
		return "", ErrCredentialsMissing
	}

	// Joined callers share one request, so it must outlive whichever caller
	// started it. execute bounds every attempt with the client timeout.
	sharedCtx := context.WithoutCancel(ctx)
	key := endpoint + "?" + params.Encode()
	payload, _, err := c.flight.Do(key, func() (string, error) {
		var payload string
		execErr := c.breaker.Execute(func() error {
			var reqErr error
			payload, reqErr = c.execute(sharedCtx, endpoint, params, serial)
			return reqErr
		}, isTransient)
		return payload, execErr
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "smartping circuit breaker rejected request", "endpoint", endpoint, "state", c.breaker.State())
		return "", fmt.Errorf("%w: federation service is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	return payload, err
}

func (c *Client) execute(ctx context.Context, endpoint string, params url.Values, serial string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		signed, err := c.signer.Sign(serial)
		if err != nil {
			return "", err
		}
		fullURL := c.buildURL(endpoint, params, signed)

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.transport.Get(callCtx, fullURL, map[string]string{
			"Cache-Control": "no-cache",
			"Accept":        "application/xml, text/xml",
		})
		cancel()
		if err == nil {
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				c.logger.WarnContext(ctx, "smartping non-2xx response",
					"endpoint", endpoint,
					"status", resp.StatusCode,
					"body", abbreviateBody(resp.Body),
				)
			}
			return decodeBody(resp.Body), nil
		}

		lastErr = crerr.Mark(crerr.Newf("call %s: %s", endpoint, sanitizeSignature(err.Error())), errSmartPingTransient)
		if ctx.Err() != nil || attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", lastErr
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "smartping request failed", "endpoint", endpoint, "error", lastErr)
	return "", lastErr
}

func (c *Client) buildURL(endpoint string, params url.Values, signed SignedRequest) string {
	values := url.Values{}
	for key, vals := range params {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	values.Set("serie", signed.Serial)
	values.Set("tm", signed.Timestamp)
	values.Set("tmc", signed.Token)
	values.Set("id", c.signer.AppID())
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/") + "?" + values.Encode()
}

func isTransient(err error) bool {
	return crerr.Is(err, errSmartPingTransient)
}

// decodeBody converts Latin-1 documents to UTF-8; the federation still serves
// most endpoints in ISO-8859-1.
func decodeBody(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func sanitizeSignature(value string) string {
	return signatureParamRegex.ReplaceAllString(value, "$1=REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
