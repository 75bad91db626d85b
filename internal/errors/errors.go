// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// Kind classifies a program failure. Every kind is terminal: the core
// never retries, and the invocation's writes are discarded.
type Kind int

const (
	KindUnknown Kind = iota
	MalformedInstruction
	UnsupportedOpcode
	MissingAuthorization
	AddressMismatch
	AllocationFailed
	AlreadyInitialized
	CorruptRecord
	NameTooLong
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	MalformedInstruction: "MalformedInstruction",
	UnsupportedOpcode:    "UnsupportedOpcode",
	MissingAuthorization: "MissingAuthorization",
	AddressMismatch:      "AddressMismatch",
	AllocationFailed:     "AllocationFailed",
	AlreadyInitialized:   "AlreadyInitialized",
	CorruptRecord:        "CorruptRecord",
	NameTooLong:          "NameTooLong",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ProgramError is a failure raised by the instruction decoder, the record
// codec or the creation handler.
type ProgramError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *ProgramError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProgramError) Unwrap() error {
	return e.Err
}

// Is matches any ProgramError of the same kind, so the sentinels below
// work with errors.Is regardless of detail or cause.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrMalformedInstruction = &ProgramError{Kind: MalformedInstruction}
	ErrUnsupportedOpcode    = &ProgramError{Kind: UnsupportedOpcode}
	ErrMissingAuthorization = &ProgramError{Kind: MissingAuthorization}
	ErrAddressMismatch      = &ProgramError{Kind: AddressMismatch}
	ErrAllocationFailed     = &ProgramError{Kind: AllocationFailed}
	ErrAlreadyInitialized   = &ProgramError{Kind: AlreadyInitialized}
	ErrCorruptRecord        = &ProgramError{Kind: CorruptRecord}
	ErrNameTooLong          = &ProgramError{Kind: NameTooLong}
)

// New builds a ProgramError with a formatted detail.
func New(kind Kind, format string, args ...any) error {
	return &ProgramError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds a ProgramError around a cause, which stays reachable
// through errors.Unwrap.
func Wrap(kind Kind, cause error, detail string) error {
	return &ProgramError{Kind: kind, Detail: detail, Err: cause}
}

// KindOf returns the kind of the first ProgramError in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsProgramError reports whether err carries a ProgramError.
func IsProgramError(err error) bool {
	return KindOf(err) != KindUnknown
}

// ErrCampaignNotFound is returned by lookups when no campaign account
// exists for a creator.
type ErrCampaignNotFound struct {
	Creator string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign for creator %s not found", e.Creator)
}

// Helper constructor
func NewCampaignNotFound(creator string) error {
	return &ErrCampaignNotFound{Creator: creator}
}
