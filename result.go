package jsonfusion

import (
	"strconv"
	"strings"

	"github.com/kaptinlin/go-i18n"
	"github.com/kaptinlin/jsonpointer"
)

// ValidationError describes one failed validator: the keyword that failed, a
// stable machine code, a templated message, and the template parameters.
type ValidationError struct {
	Keyword string         `json:"keyword"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params"`
}

// NewValidationError creates a validation error with the specified details.
func NewValidationError(keyword string, code string, message string, params ...map[string]any) *ValidationError {
	if len(params) > 0 {
		return &ValidationError{Keyword: keyword, Code: code, Message: message, Params: params[0]}
	}
	return &ValidationError{Keyword: keyword, Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return replace(e.Message, e.Params)
}

// Localize returns a localized error message using the provided localizer.
func (e *ValidationError) Localize(localizer *i18n.Localizer) string {
	if localizer != nil {
		return localizer.Get(e.Code, i18n.Vars(e.Params))
	}
	return e.Error()
}

// PathSegment is one step of a value path: a record field name, or an array
// index when Index is non-negative.
type PathSegment struct {
	Field string
	Index int
}

// formatPath renders segments in dotted/bracketed form: $.a.b[2].c.
func formatPath(segments []PathSegment) string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range segments {
		if seg.Index >= 0 {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		} else {
			b.WriteByte('.')
			b.WriteString(seg.Field)
		}
	}
	return b.String()
}

// pointerTokens renders segments as JSON Pointer reference tokens.
func pointerTokens(segments []PathSegment) []string {
	tokens := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Index >= 0 {
			tokens = append(tokens, strconv.Itoa(seg.Index))
		} else {
			tokens = append(tokens, seg.Field)
		}
	}
	return tokens
}

// ParseResult is the outcome of one parse call. The zero Code means success;
// otherwise Offset and Path locate the failure in the input and in the value
// tree.
type ParseResult struct {
	Code   ErrorCode
	Offset int
	Path   []PathSegment

	// Validation carries the failing validator's details when Code is
	// schema-validation-error.
	Validation *ValidationError
}

// OK reports whether parsing succeeded.
func (r ParseResult) OK() bool { return r.Code == NoError }

// JSONPath renders the failure location as $.a.b[2].c.
func (r ParseResult) JSONPath() string { return formatPath(r.Path) }

// InstanceLocation renders the failure location as a JSON Pointer fragment.
func (r ParseResult) InstanceLocation() string {
	return "#" + jsonpointer.Format(pointerTokens(r.Path)...)
}

// Err returns nil on success, or the result itself as an error.
func (r ParseResult) Err() error {
	if r.OK() {
		return nil
	}
	return &parseResultError{r}
}

type parseResultError struct {
	res ParseResult
}

func (e *parseResultError) Error() string {
	msg := "when parsing " + e.res.JSONPath() + ": " + string(e.res.Code)
	if e.res.Validation != nil {
		msg += ": " + e.res.Validation.Error()
	}
	return msg
}

// SerializeResult is the outcome of one serialize call: bytes written on
// success, or an error code with the value path that failed.
type SerializeResult struct {
	Code    ErrorCode
	Written int
	Path    []PathSegment

	Validation *ValidationError
}

// OK reports whether serialization succeeded.
func (r SerializeResult) OK() bool { return r.Code == NoError }

// JSONPath renders the failure location as $.a.b[2].c.
func (r SerializeResult) JSONPath() string { return formatPath(r.Path) }

// Err returns nil on success, or a descriptive error.
func (r SerializeResult) Err() error {
	if r.OK() {
		return nil
	}
	return &serializeResultError{r}
}

type serializeResultError struct {
	res SerializeResult
}

func (e *serializeResultError) Error() string {
	return "when serializing " + e.res.JSONPath() + ": " + string(e.res.Code)
}

// errorMarker separates the consumed input from the unconsumed remainder in
// rendered diagnostics.
const errorMarker = "😖"

// ParseResultToString renders a failed result against its input: the value
// path, the error code, and a window of up to windowSize bytes on each side
// of the failure offset, the offset itself marked with a sentinel.
func ParseResultToString(res ParseResult, input []byte, windowSize ...int) string {
	window := 40
	if len(windowSize) > 0 && windowSize[0] > 0 {
		window = windowSize[0]
	}

	pos := res.Offset
	if pos > len(input) {
		pos = len(input)
	}

	before := pos
	if before > window {
		before = window
	}
	after := len(input) - pos
	if after > window {
		after = window
	}

	var b strings.Builder
	b.WriteString("When parsing ")
	b.WriteString(res.JSONPath())
	b.WriteString(", error ")
	b.WriteString(string(res.Code))
	b.WriteString(": '...")
	b.Write(input[pos-before : pos])
	b.WriteString(errorMarker)
	b.Write(input[pos : pos+after])
	b.WriteString("...'")
	return b.String()
}
