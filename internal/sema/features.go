package sema

import "tracesema/internal/ast"

// Feature names one optional kernel capability the analyser gates
// builtins and control-flow constructs on, per spec §6's feature
// descriptor ("for_each_map_elem, get_func_ip, map_lookup_percpu_elem,
// signal, override_return, skb_output, socket_cookie, signal-to-signum
// support").
type Feature uint8

const (
	FeatureForEachMapElem Feature = iota
	FeatureGetFuncIP
	FeatureMapLookupPerCPUElem
	FeatureSignal
	FeatureOverrideReturn
	FeatureSKBOutput
	FeatureSocketCookie
	FeatureSignalToSignum
)

// FeatureSet is a bitset of available kernel features, one bit per
// Feature, small enough to pass by value.
type FeatureSet uint16

// NewFeatureSet builds a FeatureSet from the given available features.
func NewFeatureSet(features ...Feature) FeatureSet {
	var fs FeatureSet
	for _, f := range features {
		fs |= 1 << f
	}
	return fs
}

// AllFeatures reports every feature available — used by tests and by
// the CLI (`tracesema check`, via pass.NewContext) to check a program
// against the richest possible target.
func AllFeatures() FeatureSet {
	return NewFeatureSet(
		FeatureForEachMapElem, FeatureGetFuncIP, FeatureMapLookupPerCPUElem,
		FeatureSignal, FeatureOverrideReturn, FeatureSKBOutput,
		FeatureSocketCookie, FeatureSignalToSignum,
	)
}

// Has reports whether f is present in fs.
func (fs FeatureSet) Has(f Feature) bool {
	return fs&(1<<f) != 0
}

// builtinFeature names the Feature gating a builtin whose kernel-side
// implementation depends on one, per spec §6. Builtins absent from this
// map are always available.
var builtinFeature = map[string]Feature{
	"signal":        FeatureSignal,
	"override":      FeatureOverrideReturn,
	"skboutput":     FeatureSKBOutput,
	"socket_cookie": FeatureSocketCookie,
}

// safeModeForbidden names builtins spec §6's safe_mode disables outright,
// regardless of feature availability.
var safeModeForbidden = map[string]bool{
	"system":   true,
	"signal":   true,
	"override": true,
}

// argsAllowedProviders lists the attach-point families §4.6 permits
// `args` field access in: tracepoint, fentry/fexit (and their kfunc/f/fr
// aliases), rawtracepoint, and uprobe when built with debug info. This
// module has no debug-info seam, so uprobe is allowed unconditionally —
// an Open Question decision recorded in DESIGN.md.
var argsAllowedProviders = map[string]bool{
	"tracepoint":    true,
	"fentry":        true,
	"fexit":         true,
	"kfunc":         true,
	"kretfunc":      true,
	"f":             true,
	"fr":            true,
	"rawtracepoint": true,
	"uprobe":        true,
	"uretprobe":     true,
}

// ProcessSymbols is a seam for resolving a running process's userspace
// symbol table (binary path -> symbol -> address), the kind of lookup a
// uprobe's debug-info-gated `args` decision (see argsAllowedProviders)
// would eventually consult. Runtime process attachment and symbol
// discovery are out of scope for this module; no implementation of this
// interface exists here, and none of the analyser's checks call it today
// — it documents the seam rather than filling it.
type ProcessSymbols interface {
	Resolve(binary, symbol string) (addr uint64, ok bool)
}

// probeAllowsArgs reports whether p has at least one attach point from a
// family that permits `args` field access.
func probeAllowsArgs(p *ast.Probe) bool {
	if p == nil {
		return false
	}
	for _, ap := range p.AttachPoints {
		if argsAllowedProviders[ap.Provider] {
			return true
		}
	}
	return false
}
