package main

import "fmt"

const (
	GenericError   = iota + 100 // generic error
	BadRequest                  // 101 bad request
	DecodeError                 // 102 image decode error
	InferenceError              // 103 model inference error
	BackendError                // 104 inference service error
	JsonMarshal                 // 105 json.Marshal error
	TooLarge                    // 106 request body too large
)

// helper function to return human error message for given error code
func errorMessage(code int) string {
	if code == 0 {
		return ""
	} else if code == 100 {
		return "generic error"
	} else if code == 101 {
		return "bad request"
	} else if code == 102 {
		return "unable to decode image"
	} else if code == 103 {
		return "inference error"
	} else if code == 104 {
		return "inference service error"
	} else if code == 105 {
		return "JSON marshal error"
	} else if code == 106 {
		return "request body too large"
	} else {
		return fmt.Sprintf("Not Implemented error for code %d", code)
	}
}
