package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
	"github.com/riskibarqy/predict-league/internal/platform/resilience"
)

const defaultBaseURL = "https://api.telegram.org"

// Severity selects the prefix rendered ahead of the message text.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityAlert Severity = "alert"
)

type Config struct {
	BaseURL        string
	BotToken       string
	ChatID         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Notifier delivers operational messages to a Telegram chat. Sends are
// queued and flushed by a background worker so a slow or failing Telegram
// API never blocks the settlement path. Delivery is best effort: when the
// queue is full the message is dropped and counted.
type Notifier struct {
	baseURL        string
	botToken       string
	chatID         string
	client         *fasthttp.Client
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool

	queue     chan []byte
	queueMu   sync.RWMutex
	closeOnce sync.Once
	closed    atomic.Bool
	wg        sync.WaitGroup
	dropped   atomic.Uint64
}

func NewNotifier(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	n := &Notifier{
		baseURL:  baseURL,
		botToken: strings.TrimSpace(cfg.BotToken),
		chatID:   strings.TrimSpace(cfg.ChatID),
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		queue:          make(chan []byte, 256),
	}
	n.wg.Add(1)
	go n.run()

	return n
}

// Enabled reports whether the notifier has credentials to deliver anything.
func (n *Notifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// Notify queues an informational message.
func (n *Notifier) Notify(ctx context.Context, text string) {
	n.enqueue(ctx, SeverityInfo, text)
}

// Alert queues a high-priority message.
func (n *Notifier) Alert(ctx context.Context, text string) {
	n.enqueue(ctx, SeverityAlert, text)
}

func (n *Notifier) enqueue(ctx context.Context, severity Severity, text string) {
	if !n.Enabled() {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	switch severity {
	case SeverityAlert:
		_, _ = buf.WriteString("\U0001F6A8 <b>ALERT</b>\n")
	case SeverityWarn:
		_, _ = buf.WriteString("⚠️ <b>WARNING</b>\n")
	}
	_, _ = buf.WriteString(text)

	payload, err := sonic.Marshal(map[string]string{
		"chat_id":    n.chatID,
		"text":       buf.String(),
		"parse_mode": "HTML",
	})
	if err != nil {
		n.logger.WarnContext(ctx, "telegram marshal message failed", "error", err)
		return
	}

	n.queueMu.RLock()
	defer n.queueMu.RUnlock()
	if n.closed.Load() {
		return
	}

	select {
	case n.queue <- payload:
	default:
		dropped := n.dropped.Add(1)
		if dropped == 1 || dropped%50 == 0 {
			n.logger.WarnContext(ctx, "telegram queue full, dropping message", "dropped_total", dropped)
		}
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()

	for payload := range n.queue {
		n.send(payload)
	}
}

func (n *Notifier) send(payload []byte) {
	if n.circuitEnabled {
		if err := n.breaker.Allow(); err != nil {
			n.logger.Warn("telegram circuit breaker rejected message", "state", n.breaker.State())
			return
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	err := n.client.DoTimeout(req, resp, n.timeout)
	if err == nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		if n.circuitEnabled {
			n.breaker.RecordSuccess()
		}
		return
	}

	if n.circuitEnabled {
		n.breaker.RecordFailure()
	}
	if err != nil {
		n.logger.Warn("telegram send message failed", "error", err)
		return
	}
	n.logger.Warn("telegram send message got non-2xx", "status", resp.StatusCode())
}

// Close stops accepting messages and waits for the queue to drain.
func (n *Notifier) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	n.closeOnce.Do(func() {
		n.queueMu.Lock()
		n.closed.Store(true)
		close(n.queue)
		n.queueMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
