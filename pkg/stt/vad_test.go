package stt

import (
	"math"
	"testing"
	"time"
)

func frame(n int, amp float32) []float32 {
	f := make([]float32, n)
	for i := range f {
		if i%2 == 0 {
			f[i] = amp
		} else {
			f[i] = -amp
		}
	}
	return f
}

func TestRMS(t *testing.T) {
	if got := RMS(frame(320, 0.5)); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("RMS = %f, want 0.5", got)
	}
	if RMS(nil) != 0 {
		t.Fatal("RMS of empty frame is not zero")
	}
}

func TestEndpointerStopsAfterSilence(t *testing.T) {
	// 20ms frames, 100ms of silence ends the utterance: 5 quiet frames.
	e := NewEndpointer(EndpointConfig{
		SampleRate: 16000,
		FrameSize:  320,
		Threshold:  0.1,
		Silence:    100 * time.Millisecond,
		MaxLength:  10 * time.Second,
	})

	quiet := frame(320, 0.01)
	loud := frame(320, 0.5)

	for i := 0; i < 10; i++ {
		if e.Push(quiet) {
			t.Fatal("leading silence ended the utterance")
		}
	}
	if e.Heard() || len(e.Samples()) != 0 {
		t.Fatal("leading silence was recorded")
	}

	for i := 0; i < 3; i++ {
		if e.Push(loud) {
			t.Fatal("speech ended the utterance")
		}
	}

	done := 0
	for i := 1; i <= 10; i++ {
		if e.Push(quiet) {
			done = i
			break
		}
	}
	if done != 5 {
		t.Fatalf("utterance ended after %d quiet frames, want 5", done)
	}
	// Three loud frames plus four trailing quiet frames.
	if got := len(e.Samples()); got != 7*320 {
		t.Fatalf("samples = %d, want %d", got, 7*320)
	}
}

func TestEndpointerMaxLength(t *testing.T) {
	e := NewEndpointer(EndpointConfig{
		SampleRate: 16000,
		FrameSize:  1600, // 100ms
		Threshold:  0.1,
		Silence:    time.Second,
		MaxLength:  500 * time.Millisecond,
	})

	loud := frame(1600, 0.5)
	for i := 1; i <= 5; i++ {
		done := e.Push(loud)
		if done != (i == 5) {
			t.Fatalf("frame %d: done = %v", i, done)
		}
	}
}

func TestEndpointerDefaults(t *testing.T) {
	e := NewEndpointer(EndpointConfig{})
	// 600ms at 20ms frames.
	if e.hangover != 30 {
		t.Fatalf("hangover = %d, want 30", e.hangover)
	}
	if e.maxFrames != 500 {
		t.Fatalf("maxFrames = %d, want 500", e.maxFrames)
	}
}
