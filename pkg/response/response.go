// Package response defines the JSON envelope every handler replies with.
package response

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Response is the envelope shared by success and error replies. Data is set
// on success, Error on failure; the HTTP status code is mirrored into the
// body so clients that only log payloads keep the code alongside them.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success builds a success envelope around data.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     statusSuccess,
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error builds an error envelope around a message.
func Error(statusCode int, message string) Response {
	return Response{
		Status:     statusError,
		StatusCode: statusCode,
		Error:      message,
	}
}
