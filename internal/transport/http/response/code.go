package response

// Codes mirror the HTTP status they are sent with; 0 means success.
const (
	CodeOK               = 0
	CodeBadRequest       = 400
	CodeUnauthorized     = 401
	CodeForbidden        = 403
	CodeNotFound         = 404
	CodeMethodNotAllowed = 405
	CodeTooLarge         = 413
	CodeTooManyRequests  = 429
	CodeServerError      = 500
	CodeUnavailable      = 503
	CodeTimeout          = 504
)

var CodeMsgMap = map[int]string{
	CodeOK:               "OK",
	CodeBadRequest:       "Bad Request",
	CodeUnauthorized:     "Unauthorized",
	CodeForbidden:        "Forbidden",
	CodeNotFound:         "Not Found",
	CodeMethodNotAllowed: "Method Not Allowed",
	CodeTooLarge:         "Request Entity Too Large",
	CodeTooManyRequests:  "Too Many Requests",
	CodeServerError:      "Internal Server Error",
	CodeUnavailable:      "Service Unavailable",
	CodeTimeout:          "Gateway Timeout",
}

// Status is the HTTP status for an error code.
func Status(code int) int {
	if code == CodeOK {
		return 200
	}
	if code >= 400 && code < 600 {
		return code
	}
	return 500
}
