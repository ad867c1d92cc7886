// Package monitoring implements the token/cost tracker gated by
// TRACK_TOKENS (§6.3). Adapted from the teacher's MetricsCollector
// (workflow/node execution counters plus an AIMetrics token/cost
// accumulator): the DAG-shaped WorkflowMetrics/NodeMetrics-by-ID
// concepts are narrowed to this domain's one workflow run and five
// fixed stage names, the AIMetrics accumulator kept close to verbatim
// since LLM token/cost tracking is exactly what it already did.
package monitoring

import (
	"sync"
	"time"
)

// MetricsCollector collects per-run and per-stage execution metrics plus
// aggregate LLM token/cost usage. A nil *MetricsCollector is valid and
// every method is a no-op on it, so callers can wire it unconditionally
// and simply pass nil when TRACK_TOKENS is false.
type MetricsCollector struct {
	mu            sync.RWMutex
	workflowRuns  map[string]*WorkflowMetrics
	stageMetrics  map[string]*StageMetrics
	aiMetrics     *AIMetrics
}

// WorkflowMetrics tracks one workflow ID's run history across Run/Resume
// calls (resuming a workflow counts as another execution of the same ID).
type WorkflowMetrics struct {
	WorkflowID      string        `json:"workflow_id"`
	ExecutionCount  int           `json:"execution_count"`
	SuccessCount    int           `json:"success_count"`
	FailureCount    int           `json:"failure_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	LastExecutionAt time.Time     `json:"last_execution_at"`
}

// StageMetrics aggregates execution counts and durations across every
// workflow for one of the five fixed pipeline stages.
type StageMetrics struct {
	Stage           string        `json:"stage"`
	ExecutionCount  int           `json:"execution_count"`
	SuccessCount    int           `json:"success_count"`
	FailureCount    int           `json:"failure_count"`
	FixRetryCount   int           `json:"fix_retry_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
}

// AIMetrics accumulates LLM token usage and a rough dollar-cost estimate
// across every Agent Runtime call, regardless of stage or model.
type AIMetrics struct {
	TotalRequests    int           `json:"total_requests"`
	TotalTokens      int           `json:"total_tokens"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	EstimatedCostUSD float64       `json:"estimated_cost_usd"`
	AverageLatency   time.Duration `json:"average_latency"`
	mu               sync.RWMutex
}

// NewMetricsCollector creates an empty MetricsCollector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		workflowRuns: make(map[string]*WorkflowMetrics),
		stageMetrics: make(map[string]*StageMetrics),
		aiMetrics:    &AIMetrics{},
	}
}

// RecordWorkflowRun records one Run or Resume invocation for workflowID.
func (mc *MetricsCollector) RecordWorkflowRun(workflowID string, duration time.Duration, success bool) {
	if mc == nil {
		return
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m, ok := mc.workflowRuns[workflowID]
	if !ok {
		m = &WorkflowMetrics{WorkflowID: workflowID}
		mc.workflowRuns[workflowID] = m
	}

	m.ExecutionCount++
	if success {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.ExecutionCount)
	m.LastExecutionAt = time.Now()
}

// RecordStageExecution records one stage operator's run. isFixRetry
// marks a Generate fix-retry attempt rather than a fresh candidate call.
func (mc *MetricsCollector) RecordStageExecution(stage string, duration time.Duration, success bool, isFixRetry bool) {
	if mc == nil {
		return
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m, ok := mc.stageMetrics[stage]
	if !ok {
		m = &StageMetrics{Stage: stage}
		mc.stageMetrics[stage] = m
	}

	m.ExecutionCount++
	if success {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}
	if isFixRetry {
		m.FixRetryCount++
	}
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.ExecutionCount)
}

// promptCostPerKToken and completionCostPerKToken are a rough, coarse per-1K-token estimate
// applied regardless of which provider/model served the call; good
// enough for a ballpark running total, not a billing reconciliation.
const (
	promptCostPerKToken     = 0.003
	completionCostPerKToken = 0.015
)

// RecordAIRequest records one Agent Runtime call's token usage and
// latency, called only when TRACK_TOKENS is enabled (§6.3).
func (mc *MetricsCollector) RecordAIRequest(promptTokens, completionTokens int, latency time.Duration) {
	if mc == nil {
		return
	}
	mc.aiMetrics.mu.Lock()
	defer mc.aiMetrics.mu.Unlock()

	mc.aiMetrics.TotalRequests++
	mc.aiMetrics.PromptTokens += promptTokens
	mc.aiMetrics.CompletionTokens += completionTokens
	mc.aiMetrics.TotalTokens += promptTokens + completionTokens

	promptCost := float64(promptTokens) / 1000.0 * promptCostPerKToken
	completionCost := float64(completionTokens) / 1000.0 * completionCostPerKToken
	mc.aiMetrics.EstimatedCostUSD += promptCost + completionCost

	totalLatency := time.Duration(mc.aiMetrics.TotalRequests-1) * mc.aiMetrics.AverageLatency
	mc.aiMetrics.AverageLatency = (totalLatency + latency) / time.Duration(mc.aiMetrics.TotalRequests)
}

// GetWorkflowMetrics returns a copy of the metrics for one workflow, or
// nil if it has never run.
func (mc *MetricsCollector) GetWorkflowMetrics(workflowID string) *WorkflowMetrics {
	if mc == nil {
		return nil
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if m, ok := mc.workflowRuns[workflowID]; ok {
		c := *m
		return &c
	}
	return nil
}

// GetStageMetrics returns a copy of the aggregated metrics for one
// stage, or nil if it has never run.
func (mc *MetricsCollector) GetStageMetrics(stage string) *StageMetrics {
	if mc == nil {
		return nil
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if m, ok := mc.stageMetrics[stage]; ok {
		c := *m
		return &c
	}
	return nil
}

// GetAIMetrics returns a copy of the accumulated token/cost metrics.
func (mc *MetricsCollector) GetAIMetrics() *AIMetrics {
	if mc == nil {
		return &AIMetrics{}
	}
	mc.aiMetrics.mu.RLock()
	defer mc.aiMetrics.mu.RUnlock()
	return &AIMetrics{
		TotalRequests:    mc.aiMetrics.TotalRequests,
		TotalTokens:      mc.aiMetrics.TotalTokens,
		PromptTokens:     mc.aiMetrics.PromptTokens,
		CompletionTokens: mc.aiMetrics.CompletionTokens,
		EstimatedCostUSD: mc.aiMetrics.EstimatedCostUSD,
		AverageLatency:   mc.aiMetrics.AverageLatency,
	}
}

// MetricsSummary is a flattened view across every tracked workflow,
// stage, and the AI usage accumulator, for a single log line or
// end-of-run report.
type MetricsSummary struct {
	TotalWorkflowRuns  int     `json:"total_workflow_runs"`
	TotalSuccesses     int     `json:"total_successes"`
	TotalFailures      int     `json:"total_failures"`
	OverallSuccessRate float64 `json:"overall_success_rate"`
	TotalFixRetries    int     `json:"total_fix_retries"`
	TotalAIRequests    int     `json:"total_ai_requests"`
	TotalAITokens      int     `json:"total_ai_tokens"`
	EstimatedAICostUSD float64 `json:"estimated_ai_cost_usd"`
}

// GetSummary returns a rollup across every tracked workflow and stage.
func (mc *MetricsCollector) GetSummary() *MetricsSummary {
	if mc == nil {
		return &MetricsSummary{}
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	summary := &MetricsSummary{}
	for _, wm := range mc.workflowRuns {
		summary.TotalWorkflowRuns += wm.ExecutionCount
		summary.TotalSuccesses += wm.SuccessCount
		summary.TotalFailures += wm.FailureCount
	}
	if summary.TotalWorkflowRuns > 0 {
		summary.OverallSuccessRate = float64(summary.TotalSuccesses) / float64(summary.TotalWorkflowRuns)
	}
	for _, sm := range mc.stageMetrics {
		summary.TotalFixRetries += sm.FixRetryCount
	}

	mc.aiMetrics.mu.RLock()
	summary.TotalAIRequests = mc.aiMetrics.TotalRequests
	summary.TotalAITokens = mc.aiMetrics.TotalTokens
	summary.EstimatedAICostUSD = mc.aiMetrics.EstimatedCostUSD
	mc.aiMetrics.mu.RUnlock()

	return summary
}
