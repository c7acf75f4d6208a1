// Package diagnostics is the typed channel every component reports
// through instead of returning errors for protocol-level conditions:
// a validator that rejects a bad signature or an oracle that finds two
// honest chains diverging both "log a tag", they never propagate a Go
// error up to a caller who has no sensible way to react to it.
package diagnostics

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// Tag classifies a diagnostic line. SoundnessError keeps the original
// misspelling on purpose: it is a load-bearing string constant used for
// grepping simulation logs, not a typo to silently repair.
type Tag string

const (
	TagError          Tag = "ERROR"
	TagSoundnessError Tag = "SOUDNESS_ERROR" // sic: preserved intentionally
	TagAttack         Tag = "ATTACK"
	TagUserAttack     Tag = "USER_ATTACK"
	TagNetwork        Tag = "NETWORK"
)

var nodeColors = []*color.Color{
	color.New(color.FgWhite),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
	color.New(color.FgCyan),
	color.New(color.FgRed),
}

// Log is the process-wide diagnostic sink. Each simulation run
// constructs its own Log so the run's uuid ends up on every line.
type Log struct {
	zl    zerolog.Logger
	runID string
}

// New builds a Log writing to w (os.Stdout in normal operation, a
// buffer in tests that want to assert on emitted tags).
func New(w io.Writer, runID string) *Log {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000", NoColor: true}
	zl := zerolog.New(cw).With().Timestamp().Str("run", runID).Logger()
	return &Log{zl: zl, runID: runID}
}

// Default builds a Log on os.Stdout with no run id, for callers (tests,
// small examples) that don't need run correlation.
func Default() *Log {
	return New(os.Stdout, "")
}

// Node returns a NodeLogger scoped to validator id, coloring its own
// lines distinctly from its peers'. Coloring is purely presentational;
// it has no bearing on protocol logic.
func (l *Log) Node(id int) *NodeLogger {
	c := nodeColors[id%len(nodeColors)]
	return &NodeLogger{log: l, id: id, color: c}
}

// NodeLogger is the per-validator diagnostic handle passed to the
// validator state machine.
type NodeLogger struct {
	log   *Log
	id    int
	color *color.Color
}

func (n *NodeLogger) prefix(msg string) string {
	return n.color.Sprintf("#%d %s", n.id, msg)
}

// Debug logs an untagged, routine trace line.
func (n *NodeLogger) Debug(msg string) {
	n.log.zl.Debug().Int("node", n.id).Msg(n.prefix(msg))
}

// Tagged logs msg under tag, e.g. an ATTACK or SOUDNESS_ERROR line.
func (n *NodeLogger) Tagged(tag Tag, msg string) {
	ev := n.log.zl.Warn()
	if tag == TagError || tag == TagSoundnessError {
		ev = n.log.zl.Error()
	}
	ev.Int("node", n.id).Str("tag", string(tag)).Msg(n.prefix(msg))
}

// Network logs a NETWORK-tagged line not attributed to any one node.
func (l *Log) Network(msg string) {
	l.zl.Info().Str("tag", string(TagNetwork)).Msg(msg)
}
