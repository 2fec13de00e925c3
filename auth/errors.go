package auth

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

// ErrorKind identifies a concrete entry in the service error taxonomy. The
// kind name travels on the wire as the `context` attribute of the error
// envelope, so clients can branch on it without parsing prose.
type ErrorKind string

const (
	KindGeneric             ErrorKind = "GenericException"
	KindBadRequest          ErrorKind = "BadRequestException"
	KindDuplicateValue      ErrorKind = "DuplicateValueException"
	KindEntityNotFound      ErrorKind = "EntityNotFoundException"
	KindEntityNotSaved      ErrorKind = "EntityNotSavedException"
	KindAuthentication      ErrorKind = "AuthenticationException"
	KindInvalidToken        ErrorKind = "InvalidTokenException"
	KindForbidden           ErrorKind = "ForbiddenException"
	KindUnauthorized        ErrorKind = "UnauthorizedException"
	KindNotFound            ErrorKind = "NotFoundException"
	KindUnprocessableEntity ErrorKind = "UnprocessableEntityException"
	KindInternalServerError ErrorKind = "InternalServerErrorException"
	KindStorage             ErrorKind = "StorageException"
	KindTokenDecode         ErrorKind = "TokenDecodeError"
	KindTokenExpired        ErrorKind = "TokenExpiredError"
)

// MetadataKindKey is the metadata attribute carrying the taxonomy kind.
const MetadataKindKey = "kind"

type kindSpec struct {
	status   int
	category errors.Category
	msgCode  string
	message  string
}

// kindTable is the flat association of every taxonomy kind with its HTTP
// status, error category, stable i18n message code, and default human message.
var kindTable = map[ErrorKind]kindSpec{
	KindGeneric:             {http.StatusBadRequest, errors.CategoryBadInput, "error_code_generic", "Bad request"},
	KindBadRequest:          {http.StatusBadRequest, errors.CategoryBadInput, "error_code_bad_request", "Bad request"},
	KindDuplicateValue:      {http.StatusBadRequest, errors.CategoryConflict, "error_code_duplicate_value", "Duplicate value"},
	KindEntityNotFound:      {http.StatusBadRequest, errors.CategoryBadInput, "error_code_entity_not_found", "Entity not found"},
	KindEntityNotSaved:      {http.StatusBadRequest, errors.CategoryBadInput, "error_code_entity_not_saved", "Entity not saved"},
	KindAuthentication:      {http.StatusUnauthorized, errors.CategoryAuth, "error_code_authentication", "Authentication failed"},
	KindInvalidToken:        {http.StatusUnauthorized, errors.CategoryAuth, "error_code_invalid_token", "Invalid authentication token"},
	KindForbidden:           {http.StatusForbidden, errors.CategoryAuthz, "error_code_forbidden", "Forbidden"},
	KindUnauthorized:        {http.StatusForbidden, errors.CategoryAuthz, "error_code_unauthorized", "Unauthorized"},
	KindNotFound:            {http.StatusNotFound, errors.CategoryNotFound, "error_code_not_found", "Not found"},
	KindUnprocessableEntity: {http.StatusUnprocessableEntity, errors.CategoryValidation, "error_code_unprocessable_entity", "Unprocessable entity"},
	KindInternalServerError: {http.StatusInternalServerError, errors.CategoryInternal, "error_code_internal_server_error", "Internal server error"},
	KindStorage:             {http.StatusBadRequest, errors.CategoryOperation, "error_code_storage", "Storage backend error"},
	KindTokenDecode:         {http.StatusBadRequest, errors.CategoryBadInput, "TOKEN__DECODE_ERROR", "token decode error"},
	KindTokenExpired:        {http.StatusBadRequest, errors.CategoryBadInput, "TOKEN__EXPIRE_TOKEN", "expired token"},
}

// NewError builds a rich error for the given taxonomy kind. An empty message
// falls back to the kind's default human message; the stable message code
// always comes from the kind table unless overridden with NewErrorWithMsgCode.
func NewError(kind ErrorKind, message string) *errors.Error {
	return NewErrorWithMsgCode(kind, message, "")
}

// NewErrorWithMsgCode builds a rich error for the given kind, overriding the
// machine-readable message code. The override keeps the kind's status and
// category, mirroring how callers narrow a broad kind (e.g. InvalidToken with
// error_code_invalid_payload).
func NewErrorWithMsgCode(kind ErrorKind, message, msgCode string) *errors.Error {
	spec, ok := kindTable[kind]
	if !ok {
		spec = kindTable[KindGeneric]
		kind = KindGeneric
	}

	if message == "" {
		message = spec.message
	}
	if msgCode == "" {
		msgCode = spec.msgCode
	}

	return errors.New(message, spec.category).
		WithCode(spec.status).
		WithTextCode(msgCode).
		WithMetadata(map[string]any{MetadataKindKey: string(kind)})
}

// WrapError attaches a source error to a taxonomy error.
func WrapError(kind ErrorKind, source error, message string) *errors.Error {
	e := NewError(kind, message)
	e.Source = source
	return e
}

// NewStorageError wraps a backend client failure, carrying the backend's own
// message verbatim so operators see the unaltered cause.
func NewStorageError(source error) *errors.Error {
	msg := ""
	if source != nil {
		msg = source.Error()
	}
	e := NewError(KindStorage, msg)
	e.Source = source
	return e
}

// ErrorKindOf reports the taxonomy kind recorded on err, or KindGeneric when
// err carries none.
func ErrorKindOf(err error) ErrorKind {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return KindGeneric
	}
	if rich.Metadata != nil {
		if v, ok := rich.Metadata[MetadataKindKey].(string); ok && v != "" {
			return ErrorKind(v)
		}
	}
	return KindGeneric
}

// IsErrorKind reports whether err belongs to the given taxonomy kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return ErrorKindOf(err) == kind
}

// StatusOf resolves the HTTP status an error should map to. Untyped errors
// default to 500.
func StatusOf(err error) int {
	var rich *errors.Error
	if errors.As(err, &rich) && rich.Code > 0 {
		return rich.Code
	}
	return http.StatusInternalServerError
}
