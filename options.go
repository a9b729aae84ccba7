package reactor

import "github.com/vellumkit/reactor/internal"

// Options holds the process-wide tunables (cycle handling, chain limits,
// async defaults, introspection, diagnostic hooks). Every field has a
// documented default; see DefaultOptions.
type Options = internal.Options

// Hooks are optional diagnostic callbacks; every field may be left nil.
type Hooks = internal.Hooks

// Introspection controls the optional trigger-history ring buffer.
type Introspection = internal.Introspection

type (
	CycleHandling     = internal.CycleHandling
	MaxEffectReaction = internal.MaxEffectReaction
	AsyncMode         = internal.AsyncMode
	LineageGathering  = internal.LineageGathering
)

const (
	CycleNone   = internal.CycleNone
	CycleThrow  = internal.CycleThrow
	CycleWarn   = internal.CycleWarn
	CycleBreak  = internal.CycleBreak
	CycleStrict = internal.CycleStrict

	ReactThrow = internal.ReactThrow
	ReactDebug = internal.ReactDebug
	ReactWarn  = internal.ReactWarn

	AsyncCancel = internal.AsyncCancel
	AsyncQueue  = internal.AsyncQueue
	AsyncIgnore = internal.AsyncIgnore
	AsyncOff    = internal.AsyncOff

	LineageNoneGathering       = internal.LineageNone
	LineageTouchGathering      = internal.LineageTouch
	LineageDependencyGathering = internal.LineageDependency
	LineageBothGathering       = internal.LineageBoth
)

// DefaultOptions returns a fresh copy of the documented default options.
func DefaultOptions() *Options { return internal.DefaultOptions() }

// GlobalOptions returns the options new runtimes are initialized from.
func GlobalOptions() *Options { return internal.GlobalOptions() }

// SetGlobalOptions installs opts as the default for any Runtime created
// from here on (goroutines that already have a Runtime are unaffected —
// use SetOptions on the current goroutine for that).
func SetGlobalOptions(opts *Options) { internal.SetGlobalOptions(opts) }

// SetOptions installs opts on the calling goroutine's runtime.
func SetOptions(opts *Options) { internal.GetRuntime().SetOptions(opts) }

// CurrentOptions returns the calling goroutine's runtime's options.
func CurrentOptions() *Options { return internal.GetRuntime().Options() }

// LoadOptionsFile reads a YAML-encoded Options from path, layered over
// DefaultOptions so a partial file only overrides the keys it names.
func LoadOptionsFile(path string) (*Options, error) { return internal.LoadOptionsFile(path) }
