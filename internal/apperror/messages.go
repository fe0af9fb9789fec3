package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Path validation
	CodeMalformedPath: "Swap path is malformed",

	// Loan
	CodeZeroPrincipal: "Loan principal must be greater than zero",

	// Pricing
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeInvalidAsset:          "Asset is not part of the pool",
	CodeInvalidAmount:         "Invalid amount",
	CodePoolNotFound:          "Pool not found",
	CodeAmountOverflow:        "Amount overflows 256 bits",

	// Settlement
	CodeUnprofitable:   "Arbitrage not profitable",
	CodeTransferFailed: "Token transfer failed",
	CodeStaleQuote:     "Quote changed before settlement",

	// Atomicity
	CodeRollbackFailed:      "Rollback did not complete",
	CodeExecutionInProgress: "Another arbitrage run is in progress",

	// Blockchain/RPC errors
	CodeEthereumConnectionFailed: "Failed to connect to chain node",
	CodeEthereumRPCError:         "Chain RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",

	// Journal
	CodeJournalWriteFailed: "Failed to write execution journal",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
