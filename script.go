package quill

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// scriptStep is a single action in a viewer script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Node   string  `json:"node,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// script is the top-level JSON structure of a viewer script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner replays viewport and node actions across frames and saves
// snapshots along the way, for automated visual checks of a document.
// Attach it with Scene.SetScriptRunner; it advances one step per
// Scene.Update.
//
// Supported actions:
//
//	snapshot  save the last frame as a PNG named after label
//	center    center the view on world (x, y)
//	zoom      set the zoom to value
//	zoom_at   multiply the zoom by value about screen (x, y)
//	pan       pan by the screen delta (x, y)
//	drag      pan from (fromX, fromY) to (toX, toY) over frames frames
//	wait      do nothing for frames frames
//	opacity   set the opacity of node to value
//	visible   show node when value is non-zero, hide it otherwise
//	pick      hit test screen (x, y) and record the node name
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	pans      [][2]float64
	done      bool

	dir       string
	snapshots []string
	picks     []string
	err       error
}

// LoadScript parses a JSON script and returns a runner ready to be attached
// to a Scene.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range sc.Steps {
		if !knownAction(st.Action) {
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps, dir: "snapshots"}, nil
}

func knownAction(a string) bool {
	switch a {
	case "snapshot", "center", "zoom", "zoom_at", "pan", "drag", "wait", "opacity", "visible", "pick":
		return true
	}
	return false
}

// SetSnapshotDir sets where snapshot steps write their PNGs.
func (r *ScriptRunner) SetSnapshotDir(dir string) {
	r.dir = dir
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Err returns the first step failure, if any. Failed steps are skipped.
func (r *ScriptRunner) Err() error {
	return r.err
}

// Snapshots returns the paths written so far.
func (r *ScriptRunner) Snapshots() []string {
	return r.snapshots
}

// Picks returns the results of pick steps in order. A miss records "".
func (r *ScriptRunner) Picks() []string {
	return r.picks
}

// SetScriptRunner attaches a runner to the scene. Pass nil to detach.
func (s *Scene) SetScriptRunner(r *ScriptRunner) {
	s.script = r
	if r != nil {
		s.wake()
	}
}

// step advances the runner by one frame. Called from Scene.Update.
func (r *ScriptRunner) step(s *Scene) {
	if r.done {
		return
	}
	// Keeps the frame loop alive until the script ends.
	defer s.wake()

	if len(r.pans) > 0 {
		d := r.pans[0]
		r.pans = r.pans[1:]
		s.viewport.PanBy(d[0], d[1])
		r.checkDone()
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		r.checkDone()
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	s.log.Debug("script step", zap.Int("index", r.cursor-1), zap.String("action", st.Action))
	if err := r.run(s, st); err != nil {
		s.log.Warn("script step failed", zap.String("action", st.Action), zap.Error(err))
		if r.err == nil {
			r.err = err
		}
	}
	r.checkDone()
}

func (r *ScriptRunner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(r.pans) == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) run(s *Scene, st scriptStep) error {
	v := s.viewport
	switch st.Action {
	case "snapshot":
		path, err := s.SaveSnapshot(r.dir, st.Label)
		if err != nil {
			return fmt.Errorf("snapshot %q: %w", st.Label, err)
		}
		r.snapshots = append(r.snapshots, path)
	case "center":
		v.CenterOn(st.X, st.Y)
	case "zoom":
		v.SetZoom(st.Value)
	case "zoom_at":
		v.ZoomAt(st.X, st.Y, st.Value)
	case "pan":
		v.PanBy(st.X, st.Y)
	case "drag":
		r.queueDrag(st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "opacity", "visible":
		n := s.root.FindNode(st.Node)
		if n == nil {
			return fmt.Errorf("%s: no node named %q", st.Action, st.Node)
		}
		if st.Action == "opacity" {
			n.SetOpacity(st.Value)
		} else {
			n.SetVisible(st.Value != 0)
		}
	case "pick":
		name := ""
		if n := s.HitTest(st.X, st.Y); n != nil {
			name = n.Name
		}
		r.picks = append(r.picks, name)
	}
	return nil
}

// queueDrag spreads a pointer drag from one screen point to another over
// frames frames. The first frame is the press; each later frame pans by
// the pointer's movement.
func (r *ScriptRunner) queueDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	moves := frames - 1
	px, py := fromX, fromY
	for i := 1; i <= moves; i++ {
		t := float64(i) / float64(moves)
		x := fromX + (toX-fromX)*t
		y := fromY + (toY-fromY)*t
		r.pans = append(r.pans, [2]float64{x - px, y - py})
		px, py = x, y
	}
}
