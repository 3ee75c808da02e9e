package httpclient

// User-facing notice texts. Each classified failure shows exactly one of these
// (or the server-supplied message where noted).
const (
	MsgSessionExpired     = "session expired, please log in again"
	MsgInvalidCredentials = "invalid username or password"
	MsgForbidden          = "permission denied"
	MsgNotFound           = "requested resource does not exist"
	MsgRequestFailed      = "request failed"
	MsgBadRequest         = "invalid request parameters"
	MsgValidation         = "request validation failed"
	MsgInternalServer     = "internal server error"
	MsgBadGateway         = "bad gateway"
	MsgUnavailable        = "service unavailable"
	MsgGatewayTimeout     = "gateway timeout"
	MsgTimeout            = "request timed out, please check your network connection"
	MsgNetwork            = "network connection failed, please check your network"
	MsgMalformed          = "malformed response from server"
)
