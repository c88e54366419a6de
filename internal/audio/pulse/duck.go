// Package pulse lowers the volume of other PulseAudio streams while the
// assistant speaks, using pactl.
package pulse

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id   int
	from int
	to   int
}

// Runner executes pactl with args and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func pactl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "pactl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Ducker fades every sink input except its own (matched by application.name)
// down to a fraction of its volume and back.
type Ducker struct {
	mu       sync.Mutex
	run      Runner
	self     []string
	factor   float64
	floor    int
	duration time.Duration
	sleep    func(time.Duration)

	active   bool
	original map[int]int
}

type Option func(*Ducker)

func WithRunner(r Runner) Option {
	return func(d *Ducker) { d.run = r }
}

func WithFade(d time.Duration) Option {
	return func(dk *Ducker) { dk.duration = d }
}

// WithFloor sets the volume percentage ducked streams never go below.
func WithFloor(percent int) Option {
	return func(d *Ducker) { d.floor = clampVolume(percent) }
}

func NewDucker(self []string, factor float64, opts ...Option) *Ducker {
	d := &Ducker{
		run:      pactl,
		self:     append([]string(nil), self...),
		factor:   factor,
		duration: 300 * time.Millisecond,
		sleep:    time.Sleep,
		original: make(map[int]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Duck lowers the other streams. Calling it while already ducked is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.original = make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		to := int(math.Round(float64(in.Volume) * d.factor))
		if to < d.floor {
			to = d.floor
		}
		to = clampVolume(to)

		d.original[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: to})
	}

	d.active = true
	return d.apply(ctx, fades)
}

// Restore fades ducked streams back to their volume before Duck. Streams
// that appeared in between are left alone.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		orig, ok := d.original[in.ID]
		if !ok {
			continue
		}
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
	}

	d.original = make(map[int]int)
	d.active = false
	return d.apply(ctx, fades)
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.run(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, err
	}

	var res []sinkInput
	for _, in := range parseSinkInputs(string(out)) {
		if !d.isSelf(in) {
			res = append(res, in)
		}
	}
	return res, nil
}

func (d *Ducker) isSelf(in sinkInput) bool {
	for _, name := range d.self {
		if in.AppName == name {
			return true
		}
	}
	return false
}

// apply steps every fade from its start to its target volume over the fade
// duration, 10ms per step at most.
func (d *Ducker) apply(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	steps := int(d.duration / (10 * time.Millisecond))
	if steps < 1 {
		steps = 1
	}
	pause := d.duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}

		if i < steps && pause > 0 {
			d.sleep(pause)
		}
	}
	return nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	if _, err := d.run(ctx, "set-sink-input-volume", strconv.Itoa(id), arg); err != nil {
		return fmt.Errorf("set volume of sink input %d: %w", id, err)
	}
	return nil
}

// parseSinkInputs reads the output of "pactl list sink-inputs".
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	if len(blocks) <= 1 {
		return nil
	}

	var res []sinkInput
	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id, Volume: -1}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume < 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					if v, err := strconv.Atoi(m[1]); err == nil {
						in.Volume = v
					}
				}
			}

			if name, ok := strings.CutPrefix(line, "application.name = "); ok && in.AppName == "" {
				in.AppName = strings.Trim(name, `"`)
			}
		}

		if in.Volume < 0 {
			continue
		}
		res = append(res, in)
	}
	return res
}

func clampVolume(v int) int {
	return max(0, min(maxVolume, v))
}
