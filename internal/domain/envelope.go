package domain

// Envelope is the uniform result shape returned by every public core operation.
// Note is set whenever a fallback path produced Data.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Note    string `json:"note,omitempty"`
}

// OK wraps a result produced by the remote service.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: &data}
}

// Fallback wraps a locally synthesized result.
func Fallback[T any](data T, note string) Envelope[T] {
	return Envelope[T]{Success: true, Data: &data, Note: note}
}

// Fail wraps a user-facing failure message.
func Fail[T any](message string) Envelope[T] {
	return Envelope[T]{Success: false, Message: message}
}

// Simulated reports whether the envelope carries fallback data.
func (e Envelope[T]) Simulated() bool {
	return e.Note != ""
}
