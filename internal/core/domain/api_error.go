package domain

import (
	"encoding/json"
	"net/http"
)

// Generic error used when a failure carries no structured body.
const (
	GenericErrorTitle   = "Server error"
	GenericErrorMessage = "Sorry, something went wrong"
)

// APIError is the error envelope shared by the server and its clients:
//
//	{"error": "Unauthorized", "message": "invalid credentials", "statusCode": 401}
//
// Area is set client-side to name the action that produced the error. Keys
// other than the known ones survive a decode/encode round trip in Extra.
type APIError struct {
	Err        string
	Message    string
	StatusCode int
	Area       string
	Extra      map[string]json.RawMessage
}

// NewAPIError builds an envelope whose title is the HTTP status text.
func NewAPIError(status int, message string) *APIError {
	return &APIError{
		Err:        http.StatusText(status),
		Message:    message,
		StatusCode: status,
	}
}

// GenericAPIError is the synthesized 500 used for transport failures.
func GenericAPIError(area string) *APIError {
	return &APIError{
		Err:        GenericErrorTitle,
		Message:    GenericErrorMessage,
		StatusCode: http.StatusInternalServerError,
		Area:       area,
	}
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err
}

// WithArea returns a copy of e tagged with area.
func (e *APIError) WithArea(area string) *APIError {
	c := *e
	if e.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = v
		}
	}
	c.Area = area
	return &c
}

func (e APIError) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+4)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["error"] = e.Err
	out["message"] = e.Message
	out["statusCode"] = e.StatusCode
	if e.Area != "" {
		out["area"] = e.Area
	}
	return json.Marshal(out)
}

func (e *APIError) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = APIError{}
	for k, v := range raw {
		var err error
		switch k {
		case "error":
			err = json.Unmarshal(v, &e.Err)
		case "message":
			err = json.Unmarshal(v, &e.Message)
		case "statusCode":
			err = json.Unmarshal(v, &e.StatusCode)
		case "area":
			err = json.Unmarshal(v, &e.Area)
		default:
			if e.Extra == nil {
				e.Extra = make(map[string]json.RawMessage)
			}
			e.Extra[k] = v
		}
		if err != nil {
			return err
		}
	}
	return nil
}
