package logstore

// QueryResponse is the raw nested result returned by the log store,
// untouched by the client: ordered streams, each with an ordered list of
// [timestamp, message] pairs.
type QueryResponse struct {
	Status string    `json:"status"`
	Data   QueryData `json:"data"`
}

// QueryData holds the result streams
type QueryData struct {
	ResultType string   `json:"resultType"`
	Result     []Stream `json:"result"`
}

// Stream is one labeled log stream. Values are [timestamp, message]
// pairs; the store serializes timestamps as strings or numbers depending
// on version, so they stay untyped until normalization.
type Stream struct {
	Labels map[string]string `json:"stream"`
	Values [][]any           `json:"values"`
}
