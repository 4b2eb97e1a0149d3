package middlewares

const (
	CtxRequestID = "request_id"
	CtxIdentity  = "auth.identity"
	CtxRawToken  = "auth.token"
)
