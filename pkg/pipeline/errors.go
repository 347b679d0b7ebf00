package pipeline

import (
	"errors"
	"fmt"

	"github.com/ideamans/go-l10n"
)

// Code discriminates pipeline errors.
type Code int

const (
	CodeUnknown Code = iota
	CodeIncompatibleFormat
	CodeBufferAllocation
	CodeDrawContext
	CodeColorSpace
	CodeLocalPath
	CodeSessionCreation
	CodeEncoderFinalize
	CodeNoImages
	CodeInvalidOptions
	CodeFrameAppend
	CodeCancelled
)

// String returns a stable identifier for the code.
func (c Code) String() string {
	switch c {
	case CodeIncompatibleFormat:
		return "incompatible_format"
	case CodeBufferAllocation:
		return "buffer_allocation"
	case CodeDrawContext:
		return "draw_context"
	case CodeColorSpace:
		return "color_space"
	case CodeLocalPath:
		return "local_path"
	case CodeSessionCreation:
		return "session_creation"
	case CodeEncoderFinalize:
		return "encoder_finalize"
	case CodeNoImages:
		return "no_images"
	case CodeInvalidOptions:
		return "invalid_options"
	case CodeFrameAppend:
		return "frame_append"
	case CodeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching. Only the Code is compared.
var (
	ErrUnknown            = &Error{Code: CodeUnknown}
	ErrIncompatibleFormat = &Error{Code: CodeIncompatibleFormat}
	ErrBufferAllocation   = &Error{Code: CodeBufferAllocation}
	ErrDrawContext        = &Error{Code: CodeDrawContext}
	ErrColorSpace         = &Error{Code: CodeColorSpace}
	ErrLocalPath          = &Error{Code: CodeLocalPath}
	ErrSessionCreation    = &Error{Code: CodeSessionCreation}
	ErrEncoderFinalize    = &Error{Code: CodeEncoderFinalize}
	ErrNoImages           = &Error{Code: CodeNoImages}
	ErrInvalidOptions     = &Error{Code: CodeInvalidOptions}
	ErrFrameAppend        = &Error{Code: CodeFrameAppend}
	ErrCancelled          = &Error{Code: CodeCancelled}
)

// Error is a structured pipeline error carrying a discriminant and an
// optional underlying cause.
type Error struct {
	Code Code
	Err  error
}

// NewError wraps cause with the given code. A nil cause is allowed.
func NewError(code Code, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "imageseq: " + e.Description()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Description returns a localized summary of the error.
func (e *Error) Description() string {
	return l10n.T(messagesFor(e.Code).description)
}

// FailureReason returns a localized explanation of why the error occurred.
func (e *Error) FailureReason() string {
	return l10n.T(messagesFor(e.Code).reason)
}

// RecoverySuggestion returns a localized hint for the user.
func (e *Error) RecoverySuggestion() string {
	return l10n.T(messagesFor(e.Code).suggestion)
}

// CodeOf returns the Code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

type errorMessages struct {
	description string
	reason      string
	suggestion  string
}

func messagesFor(code Code) errorMessages {
	m := errorMessages{
		description: "An unknown error occurred",
		reason:      "Reason for failure is unknown",
		suggestion:  "Try the operation again",
	}
	switch code {
	case CodeIncompatibleFormat:
		m.description = "Unable to save video to photo album"
		m.reason = "Video file format is not compatible with photo album"
		m.suggestion = "Create the video as mov or mp4"
	case CodeBufferAllocation:
		m.description = "A null buffer error was encountered"
		m.reason = "The buffer was null or could not be created"
		m.suggestion = "Use a smaller output size"
	case CodeDrawContext:
		m.description = "Missing context encountered when drawing frame"
		m.reason = "The drawing context could not be bound to the frame"
		m.suggestion = "Check that every source image has pixels"
	case CodeColorSpace:
		m.description = "Missing color space encountered"
		m.reason = "Color space could not be created for device RGB"
		m.suggestion = "Convert the source image to RGB"
	case CodeLocalPath:
		m.description = "Unable to write temporary video to local path"
		m.reason = "Local path could not be opened"
		m.suggestion = "Choose a writable file path"
	case CodeSessionCreation:
		m.description = "Unable to start the video writer"
		m.reason = "The encoding session could not be created"
		m.suggestion = "Check the output path and codec availability"
	case CodeEncoderFinalize:
		m.description = "Unable to finish writing the video"
		m.reason = "The encoder ended in a failed state"
		m.suggestion = "Check free disk space and try again"
	case CodeNoImages:
		m.description = "No images were provided"
		m.reason = "A video needs at least one image"
		m.suggestion = "Provide one or more images"
	case CodeInvalidOptions:
		m.description = "Invalid sequencer options"
		m.reason = "Output size and seconds per image must be positive"
		m.suggestion = "Correct the options and try again"
	case CodeFrameAppend:
		m.description = "Unable to append frame to video"
		m.reason = "The encoder rejected the frame"
		m.suggestion = "Check free disk space and try again"
	case CodeCancelled:
		m.description = "Video creation was cancelled"
		m.reason = "The operation was cancelled before completion"
		m.suggestion = "Start the operation again"
	}
	return m
}
