package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/sinew"
	"github.com/aretw0/sinew/internal/dto"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/graph"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	EngineOptions

	// Asset is the graph to evaluate. Empty picks an entry point.
	Asset  string
	Frames int
	Delta  float64
	// Inputs is a JSON object of graph input values applied before the first frame.
	Inputs string
	// Events are FRAME:NAME pairs delivered through EventsPin.
	Events    []string
	EventsPin string
	JSON      bool
	Watch     bool
}

// Execute handles the 'run' command: it evaluates the asset for the requested
// frames and prints one line per frame. In watch mode the run repeats every
// time an asset changes, until ctx is cancelled.
func Execute(ctx context.Context, opts RunOptions, w io.Writer, logger *slog.Logger) error {
	if opts.Frames <= 0 {
		return fmt.Errorf("--frames must be positive, got %d", opts.Frames)
	}
	if opts.Delta < 0 {
		return fmt.Errorf("--delta must not be negative, got %g", opts.Delta)
	}
	if opts.EventsPin == "" {
		opts.EventsPin = "events"
	}

	var inputs map[string]any
	if opts.Inputs != "" {
		if err := json.Unmarshal([]byte(opts.Inputs), &inputs); err != nil {
			return fmt.Errorf("error parsing --inputs JSON: %w", err)
		}
	}
	events, err := parseEvents(opts.Events)
	if err != nil {
		return err
	}
	if last := events.last(); last >= opts.Frames {
		logger.Warn("events scheduled after the last frame are ignored", "frame", last, "frames", opts.Frames)
	}

	engine, closeEngine, err := CreateEngine(opts.EngineOptions, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	if opts.Asset == "" {
		assets, err := engine.Assets(ctx)
		if err != nil {
			return err
		}
		opts.Asset = determineEntryPoint(assets, opts.Dir)
		logger.Debug("entry point selected", "asset", opts.Asset)
	}

	sim := &simulation{engine: engine, opts: opts, inputs: inputs, events: events, out: w}
	if !opts.Watch {
		return sim.run(ctx)
	}
	return runWatch(ctx, engine, sim, logger)
}

type simulation struct {
	engine *sinew.Engine
	opts   RunOptions
	inputs map[string]any
	events schedule
	out    io.Writer
}

func (s *simulation) run(ctx context.Context) error {
	g, err := s.engine.Graph(ctx, s.opts.Asset)
	if err != nil {
		return err
	}
	values, err := dto.DecodeInputs(g, s.inputs)
	if err != nil {
		return err
	}
	eventsPin := domain.PinID(s.opts.EventsPin)
	_, hasEvents := g.InputData().Get(eventsPin)
	if len(s.events) > 0 && !hasEvents {
		return fmt.Errorf("graph %q has no %q input to receive events", g.Name, eventsPin)
	}

	in, err := s.engine.NewInstance(ctx, s.opts.Asset)
	if err != nil {
		return err
	}
	for pin, v := range values {
		in.SetInput(pin, v)
	}
	outputs := graph.DataPins(g.OutputData())
	enc := json.NewEncoder(s.out)

	for i := range s.opts.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hasEvents {
			in.SetInput(eventsPin, s.events.at(i))
		}
		pose, err := in.Step(ctx, domain.Delta(s.opts.Delta))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		data := make(map[domain.PinID]domain.Value, len(outputs))
		for _, p := range outputs {
			v, err := in.Data(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("frame %d: output %q: %w", i+1, p.ID, err)
			}
			data[p.ID] = v
		}
		frame := dto.NewFrame(in.Frame(), pose, data)
		if s.opts.JSON {
			err = enc.Encode(frame)
		} else {
			err = printFrame(s.out, frame)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// printFrame writes a frame as a single line: frame number, timestamp, bone
// count and the data outputs sorted by name.
func printFrame(w io.Writer, f dto.Frame) error {
	var b strings.Builder
	fmt.Fprintf(&b, "frame %d\tt=%.4f\tbones=%d", f.Frame, f.Timestamp, len(f.Bones))
	names := make([]string, 0, len(f.Data))
	for name := range f.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\t%s=%v", name, formatValue(f.Data[name]))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.4g", x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

// IsInterrupted reports whether err only reflects a cancelled run.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
