package fitstream

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// scriptStep is a single action in a pump script.
type scriptStep struct {
	Action  string  `yaml:"action"`
	Label   string  `yaml:"label,omitempty"`
	X       float64 `yaml:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty"`
	Degrees float64 `yaml:"degrees,omitempty"`
	Mode    string  `yaml:"mode,omitempty"`
	Aspect  string  `yaml:"aspect,omitempty"`
	Frames  int     `yaml:"frames,omitempty"`

	mode   FitMode
	aspect AspectSource
}

// scriptFile is the top-level structure of a script.
type scriptFile struct {
	Steps []scriptStep `yaml:"steps"`
}

// ScriptRunner replays a list of pump actions, one per frame, for automated
// checks of framing behavior. Scripts are YAML or JSON:
//
//	steps:
//	  - action: aspect
//	    aspect: "4:3"
//	  - action: pan
//	    x: 0.1
//	  - action: snapshot
//	    label: panned
//	  - action: wait
//	    frames: 3
//
// Actions: tick, pan, rotate, mode, aspect, snapshot, next, wait.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a script. Mode and aspect values are checked up front.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var file scriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps: %w", ErrInvalidConfig)
	}
	for i := range file.Steps {
		st := &file.Steps[i]
		switch st.Action {
		case "tick", "pan", "rotate", "snapshot", "next", "wait":
		case "mode":
			m, err := ParseFitMode(st.Mode)
			if err != nil {
				return nil, fmt.Errorf("parse script step %d: %w", i, err)
			}
			st.mode = m
		case "aspect":
			a, err := ParseAspectSource(st.Aspect)
			if err != nil {
				return nil, fmt.Errorf("parse script step %d: %w", i, err)
			}
			st.aspect = a
		default:
			return nil, fmt.Errorf("parse script step %d: unknown action %q: %w", i, st.Action, ErrInvalidConfig)
		}
	}
	return &ScriptRunner{steps: file.Steps}, nil
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Step runs the next action, if any, then ticks the pump by dt seconds.
func (r *ScriptRunner) Step(p *Pump, dt float64) error {
	if !r.done {
		if err := r.apply(p); err != nil {
			return err
		}
	}
	return p.Tick(dt)
}

// Run steps until the script is done and returns the first error.
func (r *ScriptRunner) Run(p *Pump, dt float64) error {
	for !r.done {
		if err := r.Step(p, dt); err != nil {
			return err
		}
	}
	return nil
}

func (r *ScriptRunner) apply(p *Pump) error {
	if r.waitCount > 0 {
		r.waitCount--
		r.checkDone()
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "pan":
		p.SetPan(st.X, st.Y)
	case "rotate":
		p.SetRotation(st.Degrees)
	case "mode":
		p.SetMode(st.mode)
	case "aspect":
		p.SetTargetAspect(st.aspect)
	case "snapshot":
		p.Snapshot(st.Label)
	case "next":
		if err := p.AdvanceToNext(); err != nil {
			return fmt.Errorf("script step %d: %w", r.cursor-1, err)
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}
	r.checkDone()
	return nil
}

func (r *ScriptRunner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
