package solbc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// Analysis is a structured view of a failed RPC call.
type Analysis struct {
	Type             string       `json:"type"`
	Code             int          `json:"code,omitempty"`
	Message          string       `json:"message"`
	SimulationFailed bool         `json:"simulation_failed,omitempty"`
	Logs             []string     `json:"logs,omitempty"`
	InstructionError interface{}  `json:"instruction_error,omitempty"`
	Anchor           *AnchorError `json:"anchor_error,omitempty"`
}

// ErrorAnalyzer provides methods to analyze Solana transaction errors
type ErrorAnalyzer struct {
	logger *zap.Logger
}

// NewErrorAnalyzer creates a new ErrorAnalyzer instance
func NewErrorAnalyzer(logger *zap.Logger) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
	}
}

// Analyze extracts code, message, preflight logs and Anchor error details from err.
func (ea *ErrorAnalyzer) Analyze(err error) *Analysis {
	if err == nil {
		return &Analysis{Type: "none", Message: "no error provided"}
	}

	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return &Analysis{Type: "generic_error", Message: err.Error()}
	}

	result := &Analysis{
		Type:    "rpc_error",
		Code:    rpcErr.Code,
		Message: rpcErr.Message,
		Logs:    logsFromData(rpcErr.Data),
	}

	if strings.Contains(rpcErr.Message, "Transaction simulation failed") {
		result.SimulationFailed = true
	}
	if dataMap, ok := rpcErr.Data.(map[string]interface{}); ok {
		if instrErr, ok := dataMap["err"]; ok && instrErr != nil {
			result.InstructionError = instrErr
		}
	}

	if anchorErr, ok := ParseAnchorError(result.Logs); ok {
		result.Anchor = &anchorErr
		ea.logger.Warn("Anchor error detected",
			zap.Int("code", anchorErr.Code),
			zap.String("name", anchorErr.Name),
			zap.String("message", anchorErr.Msg))
	}

	return result
}

// ExtractLogs returns program logs attached to a failed sendTransaction
// preflight, or nil when err carries none.
func ExtractLogs(err error) []string {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	return logsFromData(rpcErr.Data)
}

func logsFromData(data interface{}) []string {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return nil
	}
	rawLogs, ok := dataMap["logs"].([]interface{})
	if !ok {
		return nil
	}
	logs := make([]string, 0, len(rawLogs))
	for _, entry := range rawLogs {
		if s, ok := entry.(string); ok {
			logs = append(logs, s)
		}
	}
	return logs
}

// ParseAnchorError finds the first AnchorError line in logs.
// Example: "Program log: AnchorError occurred. Error Code: InstructionFallbackNotFound. Error Number: 101. Error Message: Fallback functions are not supported."
func ParseAnchorError(logs []string) (AnchorError, bool) {
	for _, line := range logs {
		if strings.Contains(line, "AnchorError") {
			return parseAnchorErrorLog(line), true
		}
	}
	return AnchorError{}, false
}

func parseAnchorErrorLog(logStr string) AnchorError {
	result := AnchorError{}

	if parts := strings.SplitN(logStr, "Error Number:", 2); len(parts) == 2 {
		numPart := strings.SplitN(parts[1], ".", 2)[0]
		_, _ = fmt.Sscanf(strings.TrimSpace(numPart), "%d", &result.Code)
	}

	if parts := strings.SplitN(logStr, "Error Code:", 2); len(parts) == 2 {
		result.Name = strings.TrimSpace(strings.SplitN(parts[1], ".", 2)[0])
	}

	if parts := strings.SplitN(logStr, "Error Message:", 2); len(parts) == 2 {
		result.Msg = strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")
	}

	return result
}

// FormatErrorAnalysis formats the error analysis for logging or display
func (ea *ErrorAnalyzer) FormatErrorAnalysis(analysis *Analysis) string {
	jsonBytes, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error formatting analysis: %v", err)
	}
	return string(jsonBytes)
}
