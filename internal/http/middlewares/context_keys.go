package middlewares

// gin context keys shared across middlewares and handlers
const (
	CtxRequestID = "ctx.request_id"
)
