// Package agent drives a conversation between the user, the model and the
// tools using a step protocol: the model answers every call with exactly
// one START, PLAN, TOOL or OUTPUT step, and only OUTPUT ends a session.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"voxagent/internal/tools"
)

const DefaultMaxSteps = 32

// Model returns the raw JSON of the next step for a transcript.
type Model interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Listener blocks until the next utterance. io.EOF means no more input.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Tools interface {
	Invoke(ctx context.Context, name, input string) (tools.Result, error)
}

// Observer is told about every transition, step and observation of a
// session. Calls happen on the controller's goroutine.
type Observer interface {
	OnState(session string, s State)
	OnStep(session string, s Step)
	OnObservation(session string, o Observation)
}

type nopObserver struct{}

func (nopObserver) OnState(string, State)             {}
func (nopObserver) OnStep(string, Step)               {}
func (nopObserver) OnObservation(string, Observation) {}

type Config struct {
	// MaxSteps caps model calls per session. Zero uses DefaultMaxSteps.
	MaxSteps int

	// RepeatLimit is how many identical consecutive steps trigger a steering
	// turn. Zero or less disables it.
	RepeatLimit int

	// ModelTimeout bounds each model call. Zero means no timeout.
	ModelTimeout time.Duration

	// GiveUp is spoken by Run when a session fails. Empty stays silent.
	GiveUp string

	// ObserveDetail includes tool result details in observations.
	ObserveDetail bool

	Observer Observer
	Logger   *log.Logger
}

func (c *Config) applyDefaults() {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Outcome summarizes one session.
type Outcome struct {
	SessionID string
	Answer    string
	Steps     int
	ToolCalls int
}

type Controller struct {
	model      Model
	tools      Tools
	speaker    Speaker
	transcript *Transcript
	cfg        Config
	log        *log.Logger
}

func NewController(model Model, registry Tools, speaker Speaker, transcript *Transcript, cfg Config) (*Controller, error) {
	switch {
	case model == nil:
		return nil, errors.New("agent: nil model")
	case registry == nil:
		return nil, errors.New("agent: nil tools")
	case speaker == nil:
		return nil, errors.New("agent: nil speaker")
	case transcript == nil:
		return nil, errors.New("agent: nil transcript")
	}

	cfg.applyDefaults()

	return &Controller{
		model:      model,
		tools:      registry,
		speaker:    speaker,
		transcript: transcript,
		cfg:        cfg,
		log:        cfg.Logger.With("component", "agent"),
	}, nil
}

// Run handles utterances from l until it returns io.EOF or ctx is done.
// A failed session is logged and answered with the give-up phrase; it does
// not stop the loop.
func (c *Controller) Run(ctx context.Context, l Listener) error {
	c.setState("", AwaitingUtterance)

	for {
		text, err := l.Listen(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.log.Info("Listener exhausted, stopping")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("listen: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			c.log.Debug("Skipping blank utterance")
			continue
		}

		out, err := c.Handle(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Session failed", "session", out.SessionID, "steps", out.Steps, "err", err)
			if c.cfg.GiveUp != "" {
				if err := c.speaker.Speak(ctx, c.cfg.GiveUp); err != nil {
					c.log.Warn("Failed to speak give-up phrase", "err", err)
				}
			}
			continue
		}

		c.log.Info("Session done", "session", out.SessionID, "steps", out.Steps, "tools", out.ToolCalls)
	}
}

// Handle runs one session for utterance: it exchanges steps with the model
// until an OUTPUT step has been spoken.
func (c *Controller) Handle(ctx context.Context, utterance string) (Outcome, error) {
	out := Outcome{SessionID: ulid.Make().String()}
	logger := c.log.With("session", out.SessionID)

	if n := c.transcript.Begin(utterance); n > 0 {
		logger.Debug("Evicted old turns", "count", n)
	}
	logger.Info("Session started", "utterance", utterance)

	var (
		lastPrint string
		repeats   int
	)

	for {
		if out.Steps >= c.cfg.MaxSteps {
			c.giveUp(out.SessionID)
			return out, fmt.Errorf("%w (max_steps=%d)", ErrStepLimit, c.cfg.MaxSteps)
		}

		c.setState(out.SessionID, AwaitingModel)

		raw, err := c.complete(ctx)
		out.Steps++
		if err != nil {
			c.giveUp(out.SessionID)
			return out, fmt.Errorf("model: %w", err)
		}

		step, err := ParseStep(raw)
		if err != nil {
			logger.Debug("Rejected model reply", "raw", raw)
			c.giveUp(out.SessionID)
			return out, err
		}

		c.transcript.Append(RoleAssistant, raw)
		c.cfg.Observer.OnStep(out.SessionID, step)
		logger.Debug("Step", "kind", step.Kind, "content", step.Content, "tool", step.Tool, "input", step.Input)

		switch step.Kind {
		case KindStart, KindPlan:
			c.setState(out.SessionID, DisplayPlan)

		case KindTool:
			c.setState(out.SessionID, DispatchTool)
			out.ToolCalls++
			if err := c.dispatch(ctx, out.SessionID, step); err != nil {
				c.giveUp(out.SessionID)
				return out, err
			}

		case KindOutput:
			c.setState(out.SessionID, EmitOutput)
			out.Answer = step.Content
			if err := c.speaker.Speak(ctx, step.Content); err != nil {
				c.giveUp(out.SessionID)
				return out, fmt.Errorf("speak: %w", err)
			}
			c.setState(out.SessionID, AwaitingUtterance)
			return out, nil
		}

		fp := step.Fingerprint()
		if fp == lastPrint {
			repeats++
		} else {
			lastPrint, repeats = fp, 1
		}
		if c.cfg.RepeatLimit > 0 && repeats == c.cfg.RepeatLimit {
			logger.Warn("Model is repeating itself", "kind", step.Kind, "repeats", repeats)
			c.transcript.Append(RoleDeveloper, repeatSteering)
		}
	}
}

// Reset forgets every previous session.
func (c *Controller) Reset() {
	c.transcript.Reset()
	c.log.Info("Transcript reset")
}

func (c *Controller) complete(ctx context.Context) (string, error) {
	if c.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ModelTimeout)
		defer cancel()
	}
	return c.model.Complete(ctx, c.transcript.Turns())
}

// dispatch invokes the tool named by step and records the observation. Only
// an unknown tool is returned as an error; tool failures become part of the
// observation so the model can explain them.
func (c *Controller) dispatch(ctx context.Context, session string, step Step) error {
	res, err := c.tools.Invoke(ctx, step.Tool, step.Input)
	if errors.Is(err, tools.ErrToolNotFound) {
		return fmt.Errorf("dispatch: %w", err)
	}

	obs := Observation{
		Step:   KindObserve,
		Tool:   step.Tool,
		Input:  step.Input,
		Output: res.Output,
	}
	if err != nil {
		c.log.Warn("Tool failed", "session", session, "tool", step.Tool, "err", err)
		obs.Error = err.Error()
	}
	if c.cfg.ObserveDetail && len(res.Detail) > 0 {
		obs.Detail = res.Detail
	}

	payload, err := obs.JSON()
	if err != nil {
		return err
	}
	c.transcript.Append(RoleDeveloper, payload)
	c.cfg.Observer.OnObservation(session, obs)
	return nil
}

func (c *Controller) setState(session string, s State) {
	c.cfg.Observer.OnState(session, s)
}

func (c *Controller) giveUp(session string) {
	c.setState(session, GiveUp)
	c.setState(session, AwaitingUtterance)
}
