package tools

import (
	"net/http"

	"voxagent/internal/config"
)

// FromConfig builds the registry described by cfg. Outbound requests of
// get_weather go through client; nil means http.DefaultClient. A nil confirm
// prompts on the process terminal.
func FromConfig(cfg config.Tools, client *http.Client, confirm *Confirm) (*Registry, error) {
	block := DefaultBlockList().With(cfg.Command.Block...)
	gate, err := NewGate(cfg.Command.Mode, cfg.Command.Allow, block, confirm)
	if err != nil {
		return nil, err
	}

	weather := NewWeather(
		WithWeatherURL(cfg.Weather.URL),
		WithWeatherTimeout(cfg.Weather.Timeout),
		WithWeatherClient(client),
	)
	command := NewCommand(gate,
		WithShell(cfg.Command.Shell),
		WithCommandTimeout(cfg.Command.Timeout),
		WithMaxOutput(cfg.Command.MaxOutput),
	)

	return NewRegistry(weather.Tool(), command.Tool())
}
