package grove

import (
	"fmt"
	"log"
	"os"
	"slices"
	"sync"
	"time"
)

// Logger receives engine diagnostics. Implementations must be safe to call
// from the asset loader goroutine.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes "[prefix] LEVEL: message" lines through the standard
// log package. Info and debug go to stdout, warnings and errors to stderr.
type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

// NewDefaultLogger creates a logger. Debugf output is dropped unless debug is
// true.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(os.Stdout, "", flags),
		err:    log.New(os.Stderr, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) prefixf(level string, format string, args ...any) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.prefixf("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.prefixf("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.prefixf("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.prefixf("ERROR", format, args...))
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(bool)         {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Severity classifies messages passed to Engine.LogError.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// --- Debug mode ---

// Tree sanity checks run only while an engine is in debug mode. Node
// operations have no engine handle, so the switch is package level. Each
// debug engine holds it until Close; warnings go to the logger of the oldest
// engine still holding it.
var (
	globalDebug bool
	debugLog    Logger = NewNopLogger()
	debugSinks  []Logger
)

// acquireGlobalDebug turns the tree checks on for the holder logging to l.
func acquireGlobalDebug(l Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	debugSinks = append(debugSinks, l)
	syncGlobalDebug()
}

// releaseGlobalDebug drops one hold taken with l. The checks turn off when
// no holder is left.
func releaseGlobalDebug(l Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	if i := slices.Index(debugSinks, l); i >= 0 {
		debugSinks = slices.Delete(debugSinks, i, i+1)
	}
	syncGlobalDebug()
}

func syncGlobalDebug() {
	globalDebug = len(debugSinks) > 0
	debugLog = NewNopLogger()
	if globalDebug {
		debugLog = debugSinks[0]
	}
}

// debugCheckDisposed reports use of a disposed node in a tree operation.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		debugLog.Warnf("%s on disposed node %q", op, n.Name)
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		debugLog.Warnf("tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.Name)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		debugLog.Warnf("node %q has %d children (threshold %d)", n.Name, len(n.children), debugMaxChildCount)
	}
}

// frameStats holds per-frame timing and draw metrics. Only populated when the
// engine is in debug mode.
type frameStats struct {
	inputTime   time.Duration
	pass1Time   time.Duration
	pass2Time   time.Duration
	updateTime  time.Duration
	visuals     int
	cameraDraws int
	outputDraws int
	adopted     int
}

func (s frameStats) total() time.Duration {
	return s.inputTime + s.pass1Time + s.pass2Time + s.updateTime
}

// logStats prints the frame's timing and draw counts.
func logStats(l Logger, frame uint64, s frameStats) {
	l.Debugf("frame %d | input: %v | pass1: %v | pass2: %v | update: %v | total: %v",
		frame, s.inputTime, s.pass1Time, s.pass2Time, s.updateTime, s.total())
	l.Debugf("frame %d | visuals: %d | camera draws: %d | output draws: %d | assets adopted: %d",
		frame, s.visuals, s.cameraDraws, s.outputDraws, s.adopted)
}
