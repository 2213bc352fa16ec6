package middleware

// Keys for values handlers leave in fiber locals.
const (
	DETAIL     = "detail"    // response payload picked up by UnifiedResponseMiddleware
	OPERATION  = "operation" // set when a handler succeeded without a payload
	CLAIMS     = "claims"    // verified bearer claims
	REQUEST_ID = "request_id"
)
