// Package errors defines the error taxonomy of §7: a small set of kinds
// the orchestrator and stage operators branch on, each carrying enough
// context to explain a failure without a caller having to parse message
// strings. Adapted from the teacher's ExecutionError/NodeExecutionError
// family, replaced with the kinds this domain actually produces.
package errors

import "fmt"

// SchemaError means an LLM response failed structural/JSON-schema
// validation. The Agent Runtime retries locally; once retries are
// exhausted this surfaces to the calling stage.
type SchemaError struct {
	ModelID string
	Stage   string
	Detail  string
	Cause   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in stage %s (model %s): %s", e.Stage, e.ModelID, e.Detail)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// ValidationKind classifies a ValidationError so callers can decide
// whether a fix-retry is worth attempting.
type ValidationKind string

const (
	KindWeightsOutOfRange           ValidationKind = "weights_out_of_range"
	KindWeightKeyNotAsset           ValidationKind = "weight_key_not_asset"
	KindMalformedLogicTree          ValidationKind = "malformed_logic_tree"
	KindFilterNOutOfRange           ValidationKind = "filter_n_out_of_range"
	KindWeightingAtRoot             ValidationKind = "weighting_leaf_at_root"
	KindAssetNotHeld                ValidationKind = "asset_not_held_or_allowed"
	KindConcentration               ValidationKind = "concentration_violation"
	KindLeverageJustification       ValidationKind = "leverage_justification_missing"
	KindArchetypeCoherence          ValidationKind = "archetype_structure_incoherence"
	KindThesisNumericMismatch       ValidationKind = "thesis_logic_numeric_mismatch"
	KindRoundWeightsNoRationale     ValidationKind = "round_weights_no_rationale"
	KindBooleanCondition            ValidationKind = "boolean_operator_in_condition"
	KindUnknownMetric               ValidationKind = "unknown_condition_metric"
	KindUnapprovedAbsoluteThreshold ValidationKind = "unapproved_absolute_threshold"
	KindVixyThesisMisalignment      ValidationKind = "vixy_thesis_misalignment"
)

// ValidationError is a single finding from the Validator (§4.3).
// Retryable findings drive the targeted fix-retry protocol in Generate;
// non-retryable findings drop the candidate outright.
type ValidationError struct {
	Kind        ValidationKind
	Message     string
	FixGuidance string
	Retryable   bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// CoherenceWarning is a non-blocking Validator or Charter-audit finding:
// logged, never blocks a stage.
type CoherenceWarning struct {
	Kind    ValidationKind
	Message string
}

func (e *CoherenceWarning) Error() string {
	return fmt.Sprintf("warning [%s]: %s", e.Kind, e.Message)
}

// NoPassingCandidateError means every scorecard fell below the passing
// threshold; the workflow aborts (§4.4, §7).
type NoPassingCandidateError struct {
	CandidateCount int
}

func (e *NoPassingCandidateError) Error() string {
	return fmt.Sprintf("no passing candidate among %d scored strategies", e.CandidateCount)
}

// DeploymentAuditError means the blocking deployment audit (§4.5 step 2)
// rejected the finalized strategy; Deploy returns it without deploying,
// the orchestrator treats it as a clean stop, and the checkpoint is
// preserved.
type DeploymentAuditError struct {
	Findings []string
}

func (e *DeploymentAuditError) Error() string {
	return fmt.Sprintf("deployment audit failed: %v", e.Findings)
}

// ProviderErrorClass distinguishes transient upstream failures (retried
// with back-off) from persistent ones (fatal to the call).
type ProviderErrorClass string

const (
	ProviderErrorRateLimit  ProviderErrorClass = "rate_limit"
	ProviderErrorNetwork    ProviderErrorClass = "network"
	ProviderErrorAuth       ProviderErrorClass = "auth"
	ProviderErrorBadRequest ProviderErrorClass = "bad_request"
)

// ProviderError wraps an upstream LLM or tool error.
type ProviderError struct {
	Provider string
	Class    ProviderErrorClass
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s, %s): %v", e.Provider, e.Class, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Transient reports whether this class of provider error should be
// retried with back-off rather than failing the call outright.
func (e *ProviderError) Transient() bool {
	return e.Class == ProviderErrorRateLimit || e.Class == ProviderErrorNetwork
}

// TimeoutError means a call exceeded its deadline. Treated as transient
// once, then fatal (§7).
type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout during %s", e.Operation)
}

// CheckpointNotFoundError means Resume was called for a workflow ID with
// no saved checkpoint (§4.7).
type CheckpointNotFoundError struct {
	WorkflowID string
}

func (e *CheckpointNotFoundError) Error() string {
	return fmt.Sprintf("no checkpoint found for workflow %q", e.WorkflowID)
}

// IsRetryable reports whether err is a kind this package classifies as
// retryable: a retryable ValidationError, or a transient ProviderError.
func IsRetryable(err error) bool {
	switch e := err.(type) {
	case *ValidationError:
		return e.Retryable
	case *ProviderError:
		return e.Transient()
	default:
		return false
	}
}
