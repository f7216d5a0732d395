package quill

import "go.uber.org/zap"

// debugLog writes the frame's counters at debug level.
func (s *Scene) debugLog(st FrameStats) {
	if !s.debug {
		return
	}
	s.log.Debug("frame",
		zap.Uint64("frame", s.frame),
		zap.Float64("bucket", s.bucket),
		zap.Int("nodes", len(s.table.entries)),
		zap.Int("rasterized", st.Rasterized),
		zap.Int("uploaded", st.Uploaded),
		zap.Int("merged", st.Merged),
		zap.Int("effect_passes", st.EffectPasses),
		zap.Int("draws", st.Draws),
		zap.Int("tiles", st.TilesDrawn),
		zap.Int("skipped", st.Skipped),
		zap.Duration("duration", st.Duration),
	)
}

const (
	debugMaxTreeDepth  = 32
	debugMaxChildCount = 1000
)

// debugCheckTable warns about trees that are likely to render slowly.
func (s *Scene) debugCheckTable() {
	if !s.debug {
		return
	}
	for _, e := range s.table.entries {
		if e.Depth > debugMaxTreeDepth {
			s.log.Warn("deep node tree",
				zap.String("node", e.Node.Name), zap.Int("depth", e.Depth), zap.Int("threshold", debugMaxTreeDepth))
			return
		}
		if n := len(e.Node.children); n > debugMaxChildCount {
			s.log.Warn("wide node",
				zap.String("node", e.Node.Name), zap.Int("children", n), zap.Int("threshold", debugMaxChildCount))
		}
	}
}
