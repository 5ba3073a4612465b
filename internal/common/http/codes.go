package http

const (
	CodeUnknown          = "UNKNOWN"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeBadRequest       = "BAD_REQUEST"
	CodeBodyTooLarge     = "BODY_TOO_LARGE"
)
