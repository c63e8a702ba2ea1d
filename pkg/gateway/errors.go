package gateway

const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeUnknownCommand = "UNKNOWN_COMMAND"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorInfo(code string, message string) *ErrorInfo {
	return &ErrorInfo{Code: code, Message: message}
}
