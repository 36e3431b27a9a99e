package ws

// ErrorBody is sent for any failure that does not tear the session down.
type ErrorBody struct {
	Error string `json:"error"`
}

func errorEnvelope(err error) map[string]any {
	return map[string]any{
		"event": "error",
		"body":  ErrorBody{Error: err.Error()},
	}
}
