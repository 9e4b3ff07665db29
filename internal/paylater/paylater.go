// Package paylater probes the PayPal messages SDK and renders the pay later
// financing message, degrading to static text when the SDK is unavailable.
package paylater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/internal/types"
)

const (
	installments = 3

	// FallbackText is shown when the SDK is unavailable.
	FallbackText = "Flexible Zahlung mit PayPal Pay Later."
	// Disclaimer is always shown below the message.
	Disclaimer  = "Zahlen Sie später mit PayPal Pay Later - keine Zinsen bei pünktlicher Zahlung."
	loadingText = "Lade PayPal..."
)

// Opts for the widget.
type Opts struct {
	ClientID string
	SDKURL   string
	// Fixed interval between two probes.
	Interval time.Duration
	// Probes before the SDK is declared unavailable.
	Attempts int
}

// Widget is the pay later message of the premium modal.
type Widget struct {
	opts       *Opts
	httpClient *http.Client
}

// New instantiates and returns a new widget.
func New(opts *Opts, httpClient *http.Client) *Widget {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Widget{opts: opts, httpClient: httpClient}
}

// ScriptURL returns the SDK URL including the client id and the messages component.
func (w *Widget) ScriptURL() string {
	u, err := url.Parse(w.opts.SDKURL)
	if err != nil {
		return w.opts.SDKURL
	}
	query := u.Query()
	query.Set("client-id", w.opts.ClientID)
	query.Set("components", "messages")
	query.Set("currency", "EUR")
	u.RawQuery = query.Encode()
	return u.String()
}

// Probe polls the SDK at a fixed interval until it loads or the attempts are exhausted.
func (w *Widget) Probe(ctx context.Context) types.Capability {
	attempts := max(w.opts.Attempts, 1)
	limiter := rate.NewLimiter(rate.Every(w.opts.Interval), 1)
	for range attempts {
		if err := limiter.Wait(ctx); err != nil {
			return types.CapabilityUnavailable
		}
		if w.probeOnce(ctx) {
			return types.CapabilityPresent
		}
	}
	debug.GetLogger().Warn("paypal sdk unavailable", "url", w.opts.SDKURL, "attempts", attempts)
	return types.CapabilityUnavailable
}

func (w *Widget) probeOnce(ctx context.Context) bool {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, w.ScriptURL(), nil)
	if err != nil {
		return false
	}
	response, err := w.httpClient.Do(request)
	if err != nil {
		debug.GetLogger().Debug("probing paypal sdk", "err", err)
		return false
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return false
	}
	n, _ := io.Copy(io.Discard, io.LimitReader(response.Body, 1))
	return n > 0
}

// Message returns the financing message for the amount given the SDK capability.
func Message(amount decimal.Decimal, capability types.Capability) string {
	switch capability {
	case types.CapabilityPresent:
		rate := amount.DivRound(decimal.NewFromInt(installments), 2)
		return fmt.Sprintf("Bezahlen Sie in %d Raten à €%s oder in 30 Tagen mit PayPal.", installments, rate.StringFixed(2))
	case types.CapabilityUnavailable:
		return FallbackText
	default:
		return loadingText
	}
}

// Attributes returns the data-pp-* attributes of the web message element.
func Attributes(amount decimal.Decimal) map[string]string {
	return map[string]string{
		"data-pp-message":          "",
		"data-pp-style-layout":     "text",
		"data-pp-style-logo-type":  "inline",
		"data-pp-style-text-color": "black",
		"data-pp-amount":           amount.StringFixed(2),
	}
}
