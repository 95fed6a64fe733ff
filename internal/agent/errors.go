package agent

import "fmt"

// ResponseTooLongError reports that the model truncated its output after
// hitting the token limit (finish reason "length").
type ResponseTooLongError struct{}

func (e *ResponseTooLongError) Error() string {
	return "chat completion was cut off at the maximum token limit"
}

// ContentFilteredError reports that the model's safety system withheld
// the completion (finish reason "content_filter").
type ContentFilteredError struct{}

func (e *ContentFilteredError) Error() string {
	return "chat completion was blocked by content moderation"
}

// UnknownFinishReasonError is the forward-compatibility catch-all for
// finish reasons this code does not recognize. It carries the raw value
// for diagnostics.
type UnknownFinishReasonError struct {
	Reason string
}

func (e *UnknownFinishReasonError) Error() string {
	return fmt.Sprintf("chat completion ended with unexpected finish reason %q", e.Reason)
}

// UndefinedToolCallError reports that the model asked for a tool outside
// the declared schema. This indicates schema drift, not user error.
type UndefinedToolCallError struct {
	Name string
}

func (e *UndefinedToolCallError) Error() string {
	return fmt.Sprintf("model requested undefined tool %q", e.Name)
}
