package quill

import (
	"go.uber.org/zap"
)

// DiagnosticKind classifies a node-level rendering problem.
type DiagnosticKind uint8

const (
	DiagImage    DiagnosticKind = iota // image source failed to load or decode
	DiagFont                           // font source failed to load
	DiagCapacity                       // content exceeds the device texture size
	DiagDevice                         // device allocation or pass failure
)

var diagNames = [...]string{"image", "font", "capacity", "device"}

func (k DiagnosticKind) String() string {
	if int(k) < len(diagNames) {
		return diagNames[k]
	}
	return "unknown"
}

// Diagnostic is one reported problem. The affected node renders empty (or
// partially) and the frame continues.
type Diagnostic struct {
	Kind DiagnosticKind
	Node *Node
	Src  string
	Err  error
}

type diagKey struct {
	node *Node
	kind DiagnosticKind
	src  string
}

// diagnostics reports each (node, kind, source) problem once.
type diagnostics struct {
	log  *zap.Logger
	hook func(Diagnostic)
	seen map[diagKey]struct{}
}

func newDiagnostics(log *zap.Logger, hook func(Diagnostic)) *diagnostics {
	return &diagnostics{log: log, hook: hook, seen: make(map[diagKey]struct{})}
}

// report logs d unless the same problem was already reported for the node.
func (d *diagnostics) report(diag Diagnostic) {
	key := diagKey{node: diag.Node, kind: diag.Kind, src: diag.Src}
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = struct{}{}

	fields := []zap.Field{zap.Stringer("kind", diag.Kind), zap.Error(diag.Err)}
	if diag.Node != nil {
		fields = append(fields, zap.Uint32("node", diag.Node.ID), zap.String("name", diag.Node.Name))
	}
	if diag.Src != "" {
		fields = append(fields, zap.String("src", diag.Src))
	}
	d.log.Warn("render problem", fields...)
	if d.hook != nil {
		d.hook(diag)
	}
}

// forget drops the reported set of a released node.
func (d *diagnostics) forget(n *Node) {
	for k := range d.seen {
		if k.node == n {
			delete(d.seen, k)
		}
	}
}
