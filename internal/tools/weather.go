package tools

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultWeatherURL = "http://wttr.in"

	// WeatherFailure is returned as the output for every failed lookup.
	WeatherFailure = "Something went wrong"

	// wttr.in one-line format: condition and temperature.
	weatherFormat = "%C %t"
)

type Weather struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     *log.Logger
}

type WeatherOption func(*Weather)

func WithWeatherURL(u string) WeatherOption {
	return func(w *Weather) {
		w.baseURL = strings.TrimRight(u, "/")
	}
}

func WithWeatherClient(c *http.Client) WeatherOption {
	return func(w *Weather) {
		w.client = c
	}
}

func WithWeatherTimeout(d time.Duration) WeatherOption {
	return func(w *Weather) {
		w.timeout = d
	}
}

func NewWeather(opts ...WeatherOption) *Weather {
	w := &Weather{
		baseURL: DefaultWeatherURL,
		client:  http.DefaultClient,
		timeout: 10 * time.Second,
		log:     log.Default().With("component", "tools.weather"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.client == nil {
		w.client = http.DefaultClient
	}
	return w
}

func (w *Weather) Tool() Tool {
	return Tool{
		ID:          GetWeather,
		Usage:       "get_weather(city: str)",
		Description: "Takes a city name as an input string and returns the current weather in that city.",
		Handler:     w.Lookup,
	}
}

// Lookup fetches the current conditions for city. Every failure collapses
// into WeatherFailure as the output; the cause is kept in Detail.
func (w *Weather) Lookup(ctx context.Context, city string) (Result, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return failed(map[string]any{"error": "empty city"}), nil
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	q := url.Values{"format": {weatherFormat}}
	target := fmt.Sprintf("%s/%s?%s", w.baseURL, url.PathEscape(strings.ToLower(city)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return failed(map[string]any{"error": err.Error()}), nil
	}

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Warn("Weather request failed", "city", city, "err", err)
		return failed(map[string]any{"error": err.Error()}), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(map[string]any{"status": resp.StatusCode, "error": err.Error()}), nil
	}

	if resp.StatusCode != http.StatusOK {
		w.log.Warn("Weather request rejected", "city", city, "status", resp.StatusCode)
		return failed(map[string]any{"status": resp.StatusCode}), nil
	}

	report := strings.TrimSpace(string(body))
	return Result{
		Output: fmt.Sprintf("The Weather in %s is %s", city, report),
		Detail: map[string]any{"status": resp.StatusCode, "report": report},
	}, nil
}

func failed(detail map[string]any) Result {
	return Result{Output: WeatherFailure, Detail: detail}
}
