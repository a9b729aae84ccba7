package internal

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// CycleHandling selects how the batch scheduler (C7) reacts to a dependency
// edge that would introduce a cycle between effects.
type CycleHandling string

const (
	CycleNone   CycleHandling = "none"
	CycleThrow  CycleHandling = "throw"
	CycleWarn   CycleHandling = "warn"
	CycleBreak  CycleHandling = "break"
	CycleStrict CycleHandling = "strict"
)

// MaxEffectReaction selects how the scheduler reacts to max_effect_chain
// being exceeded.
type MaxEffectReaction string

const (
	ReactThrow MaxEffectReaction = "throw"
	ReactDebug MaxEffectReaction = "debug"
	ReactWarn  MaxEffectReaction = "warn"
)

// AsyncMode selects how an effect handles a new trigger while its previous
// run's returned promise/goroutine has not yet settled.
type AsyncMode string

const (
	AsyncCancel AsyncMode = "cancel"
	AsyncQueue  AsyncMode = "queue"
	AsyncIgnore AsyncMode = "ignore"
	AsyncOff    AsyncMode = "off"
)

// LineageGathering controls how much history introspection.gather_reasons
// keeps per recorded trigger.
type LineageGathering string

const (
	LineageNone       LineageGathering = "none"
	LineageTouch      LineageGathering = "touch"
	LineageDependency LineageGathering = "dependency"
	LineageBoth       LineageGathering = "both"
)

// Introspection groups the optional diagnostic-history knobs (spec §6).
type Introspection struct {
	EnableHistory  bool             `yaml:"enable_history"`
	HistorySize    int              `yaml:"history_size"`
	GatherLineages LineageGathering `yaml:"gather_reasons_lineages"`
}

// Hooks are process-wide diagnostic callbacks (spec §6). They are never
// required for correctness; the engine functions identically with every
// hook nil.
type Hooks struct {
	Enter             func(effect string)
	Leave             func(effect string)
	Chain             func(targets []string, caller string)
	BeginChain        func()
	EndChain          func()
	Touched           func(obj any, evo Evolution)
	SkipRunningEffect func(effect string)
	GarbageCollected  func(effect string)
	Warn              func(msg string)
}

// Options holds the process-wide, mutable tunables described in spec §6.
// A zero Options is invalid; use DefaultOptions().
type Options struct {
	MaxEffectChain     int               `yaml:"max_effect_chain"`
	MaxTriggerPerBatch int               `yaml:"max_trigger_per_batch"`
	CycleHandling      CycleHandling     `yaml:"cycle_handling"`
	MaxDeepWatchDepth  int               `yaml:"max_deep_watch_depth"`
	InstanceMembers    bool              `yaml:"instance_members"`
	IgnoreAccessors    bool              `yaml:"ignore_accessors"`
	RecursiveTouching  bool              `yaml:"recursive_touching"`
	AsyncMode          AsyncMode         `yaml:"async_mode"`
	MaxEffectReaction  MaxEffectReaction `yaml:"max_effect_reaction"`
	Introspection      Introspection     `yaml:"introspection"`

	Hooks Hooks `yaml:"-"`
}

// DefaultOptions returns the spec §6 documented defaults.
func DefaultOptions() *Options {
	return &Options{
		MaxEffectChain:     100,
		MaxTriggerPerBatch: 10,
		CycleHandling:      CycleNone,
		MaxDeepWatchDepth:  100,
		InstanceMembers:    true,
		IgnoreAccessors:    true,
		RecursiveTouching:  true,
		AsyncMode:          AsyncCancel,
		MaxEffectReaction:  ReactThrow,
		Introspection: Introspection{
			EnableHistory:  false,
			HistorySize:    256,
			GatherLineages: LineageNone,
		},
	}
}

// Clone returns a deep-enough copy (Hooks are shared by reference, since
// they are function values).
func (o *Options) Clone() *Options {
	cp := *o
	return &cp
}

var (
	globalOptionsMu sync.RWMutex
	globalOptions   = DefaultOptions()
)

// GlobalOptions returns the current process-wide options. Callers must not
// mutate the returned pointer's fields directly from multiple goroutines;
// use SetGlobalOptions to install a whole new Options value.
func GlobalOptions() *Options {
	globalOptionsMu.RLock()
	defer globalOptionsMu.RUnlock()
	return globalOptions
}

// SetGlobalOptions installs opts as the process-wide configuration.
func SetGlobalOptions(opts *Options) {
	globalOptionsMu.Lock()
	defer globalOptionsMu.Unlock()
	globalOptions = opts
}

// LoadOptionsFile reads a YAML-encoded Options from path, starting from
// DefaultOptions() so a partial file only overrides the keys it names.
func LoadOptionsFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, err
	}

	return opts, nil
}

// WriteFile serializes opts as YAML to path (diagnostic hooks are skipped —
// they are function values and cannot round-trip).
func (o *Options) WriteFile(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ParseDuration is a tiny helper so YAML files can express timeouts as
// "500ms"/"2s" for When(); spec leaves the timeout type open.
func ParseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
