package jsonfusion

import "errors"

// ErrorCode identifies one failure mode of parsing or serialization. The
// string values are stable and appear verbatim in rendered diagnostics.
type ErrorCode string

// NoError is the zero ErrorCode; it marks a successful operation.
const NoError ErrorCode = ""

// === Structural errors ===
const (
	CodeUnexpectedEndOfData ErrorCode = "unexpected-end-of-data"
	CodeExcessCharacters    ErrorCode = "excess-characters"
	CodeIllformedNumber     ErrorCode = "illformed-number"
	CodeIllformedNull       ErrorCode = "illformed-null"
	CodeIllformedBool       ErrorCode = "illformed-bool"
	CodeIllformedString     ErrorCode = "illformed-string"
	CodeIllformedArray      ErrorCode = "illformed-array"
	CodeIllformedObject     ErrorCode = "illformed-object"
)

// === Capacity errors ===
const (
	CodeFixedContainerOverflow ErrorCode = "fixed-container-overflow"
	CodeWireSinkOverflow       ErrorCode = "wire-sink-overflow"
	CodeSkipStackOverflow      ErrorCode = "skip-stack-overflow"
)

// === Typing errors ===
const (
	CodeNonBool               ErrorCode = "non-bool"
	CodeWrongJSONForNumber    ErrorCode = "wrong-json-for-number"
	CodeNonString             ErrorCode = "non-string"
	CodeNonArray              ErrorCode = "non-array"
	CodeNonObject             ErrorCode = "non-object"
	CodeNumericOutOfRange     ErrorCode = "numeric-out-of-range"
	CodeFloatInIntegerStorage ErrorCode = "float-in-integer-storage"
	CodeExpectedNull          ErrorCode = "expected-null"
)

// === Semantic errors ===
const (
	CodeNullInNonOptional     ErrorCode = "null-in-non-optional"
	CodeExcessField           ErrorCode = "excess-field"
	CodeMissingField          ErrorCode = "missing-field"
	CodeDuplicateKey          ErrorCode = "duplicate-key"
	CodeSchemaValidationError ErrorCode = "schema-validation-error"
)

// === Backend errors ===
const (
	// CodeNotImplemented is reported for wire constructs the backend
	// deliberately rejects (indefinite-length CBOR strings on read, YAML
	// anchors/aliases/tags).
	CodeNotImplemented ErrorCode = "not-implemented"

	// CodeDataConsumerError is reported when the output range cannot accept
	// more bytes or a sink cannot be replayed through this writer.
	CodeDataConsumerError ErrorCode = "data-consumer-error"
)

// === Schema compilation errors ===
// Compilation failures are ordinary Go errors: schemas are built at codec
// construction time, not on the parse path.
var (
	// ErrUnsupportedType is returned when a Go type has no schema category.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTag is returned when a struct tag rule cannot be parsed.
	ErrInvalidTag = errors.New("invalid tag rule")

	// ErrValidatorTarget is returned when a validator rule is attached to a
	// field of an incompatible category.
	ErrValidatorTarget = errors.New("validator not applicable to field type")

	// ErrNotPointer is returned when a parse destination is not a non-nil pointer.
	ErrNotPointer = errors.New("destination must be a non-nil pointer")

	// ErrSchemaExport is returned when a compiled schema cannot be rendered
	// as a JSON Schema document.
	ErrSchemaExport = errors.New("schema export failed")
)
