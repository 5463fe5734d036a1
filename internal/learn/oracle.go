package learn

import (
	"errors"
	"fmt"

	"github.com/purs3lab/arbitrar/internal/database"
	"github.com/purs3lab/arbitrar/internal/visual"
)

// Configuration errors, raised by NewLoop before any labeling starts.
var (
	ErrNoOracle        = errors.New("no oracle configured: provide a ground-truth label, a visualizer, or a function spec")
	ErrAmbiguousOracle = errors.New("ambiguous oracle configuration: exactly one of ground truth, visualizer, or function spec")
)

// Verdict is one oracle answer for one data point.
type Verdict struct {
	IsAlarm   bool
	Propagate bool // label the whole slice within the window
	Quit      bool // reviewer ended the session; graceful, not an error
}

// oracle is the resolved labeling source. Exactly one is active per loop.
type oracle interface {
	label(dp *database.DataPoint, attempt int) (Verdict, error)
	// release frees acquired resources; called on every loop exit path
	// and safe to call when nothing was acquired.
	release() error
}

// --- ground truth ---

// groundTruthOracle answers from labels recorded on the slice documents.
type groundTruthOracle struct {
	marker string
}

func (o *groundTruthOracle) label(dp *database.DataPoint, _ int) (Verdict, error) {
	return Verdict{IsAlarm: dp.HasLabel(o.marker)}, nil
}

func (o *groundTruthOracle) release() error { return nil }

// --- human visual ---

// VisualizerFactory defers visualizer construction so the resource is
// acquired only when the first point is actually presented.
type VisualizerFactory func() (visual.Visualizer, error)

type visualOracle struct {
	factory VisualizerFactory
	vis     visual.Visualizer
}

var visualKeys = []string{"y", "Y", "n", "N"}

func (o *visualOracle) label(dp *database.DataPoint, attempt int) (Verdict, error) {
	if o.vis == nil {
		vis, err := o.factory()
		if err != nil {
			return Verdict{}, fmt.Errorf("acquire visualizer: %w", err)
		}
		o.vis = vis
	}
	prompt := fmt.Sprintf("Attempt %d: Do you think this is a bug? [y|Y|n|N] > ", attempt)
	answer, err := o.vis.Ask(dp, prompt, visualKeys)
	if err != nil {
		return Verdict{}, fmt.Errorf("visual oracle: %w", err)
	}
	switch answer {
	case "y":
		return Verdict{IsAlarm: true}, nil
	case "Y":
		return Verdict{IsAlarm: true, Propagate: true}, nil
	case "n":
		return Verdict{IsAlarm: false}, nil
	case "N":
		return Verdict{IsAlarm: false, Propagate: true}, nil
	default:
		return Verdict{Quit: true}, nil
	}
}

func (o *visualOracle) release() error {
	if o.vis == nil {
		return nil
	}
	vis := o.vis
	o.vis = nil
	return vis.Release()
}

// --- specification ---

// specOracle raises an alarm for every point that fails the declarative
// function specification.
type specOracle struct {
	spec *FunctionSpec
}

func (o *specOracle) label(dp *database.DataPoint, _ int) (Verdict, error) {
	ok, err := o.spec.Match(dp)
	if err != nil {
		return Verdict{}, fmt.Errorf("spec oracle: %w", err)
	}
	return Verdict{IsAlarm: !ok}, nil
}

func (o *specOracle) release() error { return nil }

// resolveOracle turns the loop configuration into the single active oracle.
// Zero or multiple configured sources are rejected eagerly. The documented
// precedence (ground truth over visual over spec) only orders the sources;
// it never silently drops one.
func resolveOracle(cfg Config) (oracle, error) {
	var sources []oracle
	if cfg.GroundTruth != "" {
		sources = append(sources, &groundTruthOracle{marker: cfg.GroundTruth})
	}
	if cfg.Visual != nil {
		sources = append(sources, &visualOracle{factory: cfg.Visual})
	}
	if cfg.Spec != nil {
		sources = append(sources, &specOracle{spec: cfg.Spec})
	}
	switch len(sources) {
	case 0:
		return nil, ErrNoOracle
	case 1:
		return sources[0], nil
	default:
		return nil, ErrAmbiguousOracle
	}
}
