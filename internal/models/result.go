package models

// Result is the value every cart mutation returns. Expected failures are carried
// here rather than as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

func Failed(code, message string) Result {
	return Result{Success: false, Code: code, Message: message}
}
