package funcmon

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Status classifies the outcome of one monitored invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// MemoryUsage holds the process memory readings around one invocation, in
// bytes. Delta is After minus Before and is signed: the sampler may report a
// drop.
type MemoryUsage struct {
	Before uint64 `json:"before"`
	After  uint64 `json:"after"`
	Peak   uint64 `json:"peak"`
	Delta  int64  `json:"delta"`
}

// ExecutionResult is the envelope produced for every monitored invocation.
// It is constructed exactly once per call and never mutated afterwards.
//
// Status is StatusError iff Errors is non-empty; Result and Errors are
// mutually exclusive. ExecutionTime covers the wrapped call only, in seconds
// on the monotonic clock. CPUUsage is a point sample taken after execution.
type ExecutionResult struct {
	Status        Status      `json:"status"`
	Result        any         `json:"result"`
	Errors        []string    `json:"errors"`
	ExecutionTime float64     `json:"execution_time"`
	MemoryUsage   MemoryUsage `json:"memory_usage"`
	CPUUsage      float64     `json:"cpu_usage"`
	FunctionName  string      `json:"function_name"`
	Timestamp     string      `json:"timestamp"`
}

// NewSuccess builds a success envelope. The timestamp records envelope
// construction time in RFC 3339 form.
func NewSuccess(result any, executionTime float64, mem MemoryUsage, cpu float64, functionName string) *ExecutionResult {
	return &ExecutionResult{
		Status:        StatusSuccess,
		Result:        result,
		ExecutionTime: executionTime,
		MemoryUsage:   mem,
		CPUUsage:      cpu,
		FunctionName:  functionName,
		Timestamp:     time.Now().Format(time.RFC3339Nano),
	}
}

// NewError builds an error envelope. Messages keep their occurrence order:
// validation errors first, then the execution error if one happened.
func NewError(errs []string, executionTime float64, mem MemoryUsage, cpu float64, functionName string) *ExecutionResult {
	return &ExecutionResult{
		Status:        StatusError,
		Errors:        errs,
		ExecutionTime: executionTime,
		MemoryUsage:   mem,
		CPUUsage:      cpu,
		FunctionName:  functionName,
		Timestamp:     time.Now().Format(time.RFC3339Nano),
	}
}

// JSON serializes the envelope using the key names of the serialization
// contract: status, result, errors, execution_time, memory_usage, cpu_usage,
// function_name, timestamp.
func (r *ExecutionResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// Map returns the envelope as a generic mapping with the same key names as
// JSON. Useful for consumers that post-process records without decoding.
func (r *ExecutionResult) Map() map[string]any {
	return map[string]any{
		"status": r.Status,
		"result": r.Result,
		"errors": r.Errors,
		"memory_usage": map[string]any{
			"before": r.MemoryUsage.Before,
			"after":  r.MemoryUsage.After,
			"peak":   r.MemoryUsage.Peak,
			"delta":  r.MemoryUsage.Delta,
		},
		"execution_time": r.ExecutionTime,
		"cpu_usage":      r.CPUUsage,
		"function_name":  r.FunctionName,
		"timestamp":      r.Timestamp,
	}
}
