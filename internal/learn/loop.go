// Package learn runs the interactive active-learning oracle loop over a
// pool of data points and writes the resulting run reports.
//
// The loop is a sequential state machine: each step asks the injected
// ranking strategy for one pool member, dispatches it to the single
// configured oracle (ground-truth labels, a human reviewer behind a
// visualizer, or a declarative function specification), applies the label
// and optional slice-level propagation, and keeps the diagnostic curves.
// Everything blocks; human input is unbounded and only the reviewer's quit
// answer ends it early.
package learn

import (
	"fmt"
	"log/slog"

	"github.com/purs3lab/arbitrar/internal/database"
	"github.com/purs3lab/arbitrar/internal/logging"
)

// DefaultRadius is the slice-propagation window: a whole-slice answer labels
// matching pool members at most this many positions away from the selected
// index, on either side.
const DefaultRadius = 50

// Pool is the fixed candidate set the loop consumes: data points and their
// encoded feature vectors, index-aligned.
type Pool struct {
	Points []*database.DataPoint
	Xs     [][]float64
}

// Config selects the oracle source and bounds the loop.
// Exactly one of GroundTruth, Visual, Spec must be set.
type Config struct {
	GroundTruth string            // slice-document label treated as the true alarm marker
	Visual      VisualizerFactory // human reviewer behind a visualizer
	Spec        *FunctionSpec     // declarative specification matcher

	Budget      int // attempt budget; <=0 means the pool size
	NumAlarms   int // requested size of the final ranked alarm list
	NumOutliers int // k for the precision curve; <=0 derives it from ground truth
	Radius      int // propagation window; <=0 means DefaultRadius
}

// Reason explains why the loop stopped.
type Reason string

const (
	ReasonBudgetExhausted    Reason = "budget exhausted"
	ReasonSelectionExhausted Reason = "selection exhausted"
	ReasonOracleQuit         Reason = "oracle quit"
)

// Positive is one alarm in discovery order.
type Positive struct {
	Point   *database.DataPoint
	Attempt int
}

// Result carries everything the loop produced.
type Result struct {
	// Alarms is the final ranked alarm list of the requested size.
	Alarms []ScoredAlarm
	// Curve is the cumulative-outlier curve: it starts at 0 and appends
	// the running alarm count once per labeling event, propagated items
	// included.
	Curve []int
	// Precision is the precision-at-k curve, one entry per step; empty
	// unless ground truth is configured.
	Precision []float64
	// Positives are the directly-labeled alarms in discovery order.
	Positives []Positive
	// Reason records the termination cause.
	Reason Reason
}

// Loop is one configured oracle-loop run. Build with NewLoop, run once.
type Loop struct {
	pool        Pool
	strat       Strategy
	oracle      oracle
	gtLabel     string
	budget      int
	numAlarms   int
	numOutliers int
	radius      int
	log         *slog.Logger
}

// NewLoop validates the configuration and resolves the single oracle
// source. A zero or ambiguous oracle configuration fails here, before any
// labeling starts.
func NewLoop(pool Pool, strat Strategy, cfg Config) (*Loop, error) {
	if len(pool.Points) != len(pool.Xs) {
		return nil, fmt.Errorf("pool has %d points but %d vectors", len(pool.Points), len(pool.Xs))
	}
	orc, err := resolveOracle(cfg)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		pool:        pool,
		strat:       strat,
		oracle:      orc,
		gtLabel:     cfg.GroundTruth,
		budget:      cfg.Budget,
		numAlarms:   cfg.NumAlarms,
		numOutliers: cfg.NumOutliers,
		radius:      cfg.Radius,
		log:         logging.New("learn"),
	}
	if l.budget <= 0 {
		l.budget = len(pool.Points)
	}
	if l.radius <= 0 {
		l.radius = DefaultRadius
	}
	if l.gtLabel != "" && l.numOutliers <= 0 {
		for _, dp := range pool.Points {
			if dp.HasLabel(l.gtLabel) {
				l.numOutliers++
			}
		}
	}
	return l, nil
}

// Run executes the loop until the budget is exhausted, the strategy has
// nothing left to select, or the reviewer quits. Whatever the exit path —
// including oracle errors — the visualizer resource is released before Run
// returns.
func (l *Loop) Run() (_ *Result, err error) {
	defer func() {
		if rerr := l.oracle.release(); rerr != nil && err == nil {
			err = fmt.Errorf("release oracle: %w", rerr)
		}
	}()

	n := len(l.pool.Points)
	inPool := make([]bool, n)
	for i := range inPool {
		inPool[i] = true
	}

	curve := []int{0}
	outlierCount := 0
	var precision []float64
	var positives []Positive
	reason := ReasonBudgetExhausted

	for attempt := 0; attempt < l.budget; attempt++ {
		idx, ok := l.strat.Select(l.remaining(inPool))
		if !ok {
			reason = ReasonSelectionExhausted
			break
		}
		if idx < 0 || idx >= n || !inPool[idx] {
			return nil, fmt.Errorf("strategy selected invalid pool index %d", idx)
		}
		dp := l.pool.Points[idx]

		verdict, lerr := l.oracle.label(dp, attempt)
		if lerr != nil {
			return nil, lerr
		}
		if verdict.Quit {
			l.log.Info("reviewer quit", "attempt", attempt)
			reason = ReasonOracleQuit
			break
		}

		if verdict.Propagate {
			lo := max(idx-l.radius, 0)
			hi := min(idx+l.radius, n)
			for j := lo; j < hi; j++ {
				if !inPool[j] || l.pool.Points[j].SliceID != dp.SliceID {
					continue
				}
				l.strat.Feedback(Item{Index: j, X: l.pool.Xs[j]}, verdict.IsAlarm)
				inPool[j] = false
				if verdict.IsAlarm {
					outlierCount++
				}
				curve = append(curve, outlierCount)
			}
		} else {
			l.strat.Feedback(Item{Index: idx, X: l.pool.Xs[idx]}, verdict.IsAlarm)
			inPool[idx] = false
			if verdict.IsAlarm {
				positives = append(positives, Positive{Point: dp, Attempt: attempt})
				outlierCount++
			}
			curve = append(curve, outlierCount)
		}

		l.log.Debug("labeled", "attempt", attempt, "point", dp.String(),
			"alarm", verdict.IsAlarm, "propagated", verdict.Propagate)

		if l.gtLabel != "" {
			precision = append(precision, l.precisionAtK())
		}
	}

	return &Result{
		Alarms:    l.strat.Alarms(l.numAlarms),
		Curve:     curve,
		Precision: precision,
		Positives: positives,
		Reason:    reason,
	}, nil
}

// remaining lists the still-unlabeled pool members in index order.
func (l *Loop) remaining(inPool []bool) []Item {
	items := make([]Item, 0, len(inPool))
	for i, in := range inPool {
		if in {
			items = append(items, Item{Index: i, X: l.pool.Xs[i]})
		}
	}
	return items
}

// precisionAtK is the fraction of true alarms among the current top-k
// candidates by model score; 0 when the candidate set is empty.
func (l *Loop) precisionAtK() float64 {
	alarms := l.strat.Alarms(l.numOutliers)
	if len(alarms) == 0 {
		return 0
	}
	trueAlarms := 0
	for _, a := range alarms {
		if a.Point.HasLabel(l.gtLabel) {
			trueAlarms++
		}
	}
	return float64(trueAlarms) / float64(len(alarms))
}
