package pulse

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sinkInputs = `Sink Input #42
	Driver: protocol-native.c
	Owner Module: 9
	Sample Specification: s16le 2ch 44100Hz
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	        balance 0.00
	Properties:
		application.name = "Firefox"
		media.name = "Playback"

Sink Input #43
	Driver: protocol-native.c
	Volume: mono: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "voxagent"

Sink Input #44
	Driver: protocol-native.c
	Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: 32768 /  50% / -18.06 dB
	Properties:
		application.name = "spotify"
`

type fakePactl struct {
	listing string
	calls   []string
	volumes map[string]string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, strings.Join(args, " "))
	switch args[0] {
	case "list":
		return []byte(f.listing), nil
	case "set-sink-input-volume":
		if f.volumes == nil {
			f.volumes = make(map[string]string)
		}
		f.volumes[args[1]] = args[2]
		return nil, nil
	}
	return nil, errors.New("unexpected pactl call")
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	want := []sinkInput{
		{ID: 42, Volume: 80, AppName: "Firefox"},
		{ID: 43, Volume: 100, AppName: "voxagent"},
		{ID: 44, Volume: 50, AppName: "spotify"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseSinkInputs = %+v, want %+v", got, want)
	}

	if got := parseSinkInputs(""); got != nil {
		t.Fatalf("empty listing = %+v", got)
	}
}

func TestDuckAndRestore(t *testing.T) {
	fake := &fakePactl{listing: sinkInputs}
	d := NewDucker([]string{"voxagent"}, 0.5, WithRunner(fake.run), WithFade(0), WithFloor(30))

	if err := d.Duck(context.Background()); err != nil {
		t.Fatalf("Duck: %v", err)
	}
	// 80% -> 40%, 50% -> 25% raised to the 30% floor, own stream untouched.
	want := map[string]string{"42": "40%", "44": "30%"}
	if !reflect.DeepEqual(fake.volumes, want) {
		t.Fatalf("ducked volumes = %v, want %v", fake.volumes, want)
	}

	// Ducking twice does nothing.
	calls := len(fake.calls)
	if err := d.Duck(context.Background()); err != nil {
		t.Fatalf("second Duck: %v", err)
	}
	if len(fake.calls) != calls {
		t.Fatal("second Duck touched pactl")
	}

	fake.listing = strings.NewReplacer("80%", "40%", "50%", "30%").Replace(sinkInputs)
	fake.volumes = nil
	if err := d.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	want = map[string]string{"42": "80%", "44": "50%"}
	if !reflect.DeepEqual(fake.volumes, want) {
		t.Fatalf("restored volumes = %v, want %v", fake.volumes, want)
	}
}

func TestFadeSteps(t *testing.T) {
	fake := &fakePactl{listing: "Sink Input #7\n\tVolume: mono: 1 / 100% / 0 dB\n"}
	var slept time.Duration
	d := NewDucker(nil, 0, WithRunner(fake.run), WithFade(40*time.Millisecond))
	d.sleep = func(p time.Duration) { slept += p }

	if err := d.Duck(context.Background()); err != nil {
		t.Fatalf("Duck: %v", err)
	}

	var sets []string
	for _, c := range fake.calls {
		if strings.HasPrefix(c, "set-sink-input-volume") {
			sets = append(sets, c)
		}
	}
	want := []string{
		"set-sink-input-volume 7 75%",
		"set-sink-input-volume 7 50%",
		"set-sink-input-volume 7 25%",
		"set-sink-input-volume 7 0%",
	}
	if !reflect.DeepEqual(sets, want) {
		t.Fatalf("fade = %v, want %v", sets, want)
	}
	if slept != 30*time.Millisecond {
		t.Fatalf("slept %v, want 30ms", slept)
	}
}

func TestRestoreWithoutDuck(t *testing.T) {
	fake := &fakePactl{listing: sinkInputs}
	d := NewDucker(nil, 0.5, WithRunner(fake.run))
	if err := d.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("pactl called: %v", fake.calls)
	}
}
