package billing

import "github.com/shopspring/decimal"

// Policy holds the tunable constants of the engine.
type Policy struct {
	// ReconcileTolerance is the largest drift between header components and
	// header total that is accepted as legacy rounding noise.
	ReconcileTolerance decimal.Decimal
	// ProformaPrefixes mark an invoice number as a proforma document.
	ProformaPrefixes []string
}

// DefaultPolicy returns half a currency unit of tolerance and the standard
// quotation/proforma number prefixes.
func DefaultPolicy() Policy {
	return Policy{
		ReconcileTolerance: decimal.RequireFromString("0.5"),
		ProformaPrefixes:   []string{"QT-", "QTN-", "PI-", "PFI-", "PF-"},
	}
}

// Engine runs the policy-dependent computations. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	policy Policy
}

// New creates an Engine. A negative tolerance or a nil prefix list falls back
// to the defaults.
func New(policy Policy) *Engine {
	def := DefaultPolicy()
	if policy.ReconcileTolerance.IsNegative() {
		policy.ReconcileTolerance = def.ReconcileTolerance
	}
	if policy.ProformaPrefixes == nil {
		policy.ProformaPrefixes = def.ProformaPrefixes
	}
	return &Engine{policy: policy}
}

// Policy returns the engine's effective policy.
func (e *Engine) Policy() Policy {
	return e.policy
}
