package quill

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedScene(t *testing.T, debug bool) (*Scene, Texture, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s, _, target := newTestScene(t, 20, 20, SceneOptions{Logger: zap.New(core), Debug: debug})
	return s, target, logs
}

func TestDebugLogsFrameStats(t *testing.T) {
	s, target, logs := observedScene(t, true)
	s.Root().AddChild(NewRect("r", Rect{Width: 10, Height: 10}, red))
	renderFrame(t, s, target)

	frames := logs.FilterMessage("frame").All()
	if len(frames) != 1 {
		t.Fatalf("frame logs = %d, want 1", len(frames))
	}
	fields := frames[0].ContextMap()
	if fields["rasterized"] != int64(1) || fields["frame"] != uint64(1) {
		t.Errorf("fields = %v", fields)
	}
	if frames[0].Level != zapcore.DebugLevel {
		t.Errorf("level = %s, want debug", frames[0].Level)
	}
}

func TestNoFrameLogsWithoutDebug(t *testing.T) {
	s, target, logs := observedScene(t, false)
	renderFrame(t, s, target)
	if n := logs.FilterMessage("frame").Len(); n != 0 {
		t.Errorf("frame logs = %d, want 0", n)
	}
}

func TestDebugWarnsDeepTree(t *testing.T) {
	s, target, logs := observedScene(t, true)
	parent := s.Root()
	for i := 0; i < debugMaxTreeDepth+2; i++ {
		g := NewGroup("g")
		parent.AddChild(g)
		parent = g
	}
	renderFrame(t, s, target)
	if n := logs.FilterMessage("deep node tree").Len(); n != 1 {
		t.Errorf("deep tree warnings = %d, want 1", n)
	}
}

func TestDebugWarnsWideNode(t *testing.T) {
	s, target, logs := observedScene(t, true)
	wide := NewGroup("wide")
	for i := 0; i <= debugMaxChildCount; i++ {
		wide.AddChild(NewGroup("c"))
	}
	s.Root().AddChild(wide)
	renderFrame(t, s, target)

	warns := logs.FilterMessage("wide node").All()
	if len(warns) != 1 || warns[0].ContextMap()["node"] != "wide" {
		t.Errorf("wide node warnings = %v", warns)
	}
	// No rebuild, no second check.
	renderFrame(t, s, target)
	if logs.FilterMessage("wide node").Len() != 1 {
		t.Error("check should only run after a rebuild")
	}
}

func TestDiagnosticsAreLogged(t *testing.T) {
	s, target, logs := observedScene(t, false)
	n := NewBitmap("img", Rect{Width: 10, Height: 10}, "gone.png")
	s.Root().AddChild(n)
	renderFrame(t, s, target)
	renderFrame(t, s, target)

	problems := logs.FilterMessage("render problem").All()
	if len(problems) != 1 {
		t.Fatalf("problems = %d, want 1", len(problems))
	}
	fields := problems[0].ContextMap()
	if fields["src"] != "gone.png" || fields["name"] != "img" || fields["kind"] != "image" {
		t.Errorf("fields = %v", fields)
	}
}
