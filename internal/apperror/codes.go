package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Flash arbitrage error codes
const (
	// Path validation (rejected before a loan is opened)
	CodeMalformedPath Code = "MALFORMED_PATH"

	// Loan
	CodeZeroPrincipal Code = "ZERO_PRINCIPAL"

	// Pricing
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidAsset          Code = "INVALID_ASSET"
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodeAmountOverflow        Code = "AMOUNT_OVERFLOW"

	// Settlement
	CodeUnprofitable   Code = "UNPROFITABLE"
	CodeTransferFailed Code = "TRANSFER_ERROR"
	CodeStaleQuote     Code = "STALE_QUOTE"

	// Atomicity
	CodeRollbackFailed      Code = "ROLLBACK_FAILED"
	CodeExecutionInProgress Code = "EXECUTION_IN_PROGRESS"

	// Blockchain/RPC errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"

	// Journal
	CodeJournalWriteFailed Code = "JOURNAL_WRITE_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
