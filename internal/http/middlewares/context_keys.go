package middlewares

// gin context keys; handlers go through the helpers rather than these directly.
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
)
