// Package perr defines the structured error kinds raised across the
// pipeline query engine, using gopkg.in/src-d/go-errors.v1's convention of
// declaring one errors.Kind per failure category and wrapping it with
// positional context where one is known.
package perr

import (
	stderrors "errors"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrLexical covers malformed tokens, unterminated strings, and
	// unexpected characters.
	ErrLexical = errors.NewKind("lexical error: %s")

	// ErrSyntax covers a token that did not match the expected production.
	ErrSyntax = errors.NewKind("syntax error: %s")

	// ErrResolution covers unknown command keywords, unknown named
	// sources, and unknown columns referenced by an operator.
	ErrResolution = errors.NewKind("resolution error: %s")

	// ErrSemantic covers unsupported aggregations, invalid span/time
	// formats, incompatible dtypes, invalid regexes, and missing
	// required arguments.
	ErrSemantic = errors.NewKind("semantic error: %s")
)

// Location pinpoints a failure in source text.
type Location struct {
	Offset int
	Line   int
	Column int
}

// Error wraps one of the four Kind values above with optional location and
// command/field/token context, and is what the public Execute API returns.
type Error struct {
	kind    *errors.Kind
	cause   error
	Loc     *Location
	Command string
	Field   string
	Token   string
}

func (e *Error) Error() string {
	msg := e.cause.Error()
	if e.Command != "" {
		msg += " (command=" + e.Command + ")"
	}
	if e.Field != "" {
		msg += " (field=" + e.Field + ")"
	}
	if e.Token != "" {
		msg += " (token=" + e.Token + ")"
	}
	if e.Loc != nil {
		msg += " (line " + itoa(e.Loc.Line) + ", col " + itoa(e.Loc.Column) + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the errors.Kind (ErrLexical, ErrSyntax, ErrResolution or
// ErrSemantic) this error was constructed from.
func (e *Error) Kind() *errors.Kind { return e.kind }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func wrap(kind *errors.Kind, msg string) error {
	return kind.New(msg)
}

// Lexical builds a LexicalError at the given location.
func Lexical(msg string, loc Location) *Error {
	return &Error{kind: ErrLexical, cause: wrap(ErrLexical, msg), Loc: &loc}
}

// Syntax builds a SyntaxError for the offending token.
func Syntax(msg, tok string, loc Location) *Error {
	return &Error{kind: ErrSyntax, cause: wrap(ErrSyntax, msg), Token: tok, Loc: &loc}
}

// Resolution builds a ResolutionError, optionally naming the command or
// field that could not be resolved.
func Resolution(msg string) *Error {
	return &Error{kind: ErrResolution, cause: wrap(ErrResolution, msg)}
}

// ResolutionField is Resolution with a field name attached.
func ResolutionField(msg, field string) *Error {
	return &Error{kind: ErrResolution, cause: wrap(ErrResolution, msg), Field: field}
}

// Semantic builds a SemanticError, optionally naming the offending
// command.
func Semantic(msg string) *Error {
	return &Error{kind: ErrSemantic, cause: wrap(ErrSemantic, msg)}
}

// SemanticCommand is Semantic with a command name attached.
func SemanticCommand(msg, command string) *Error {
	return &Error{kind: ErrSemantic, cause: wrap(ErrSemantic, msg), Command: command}
}

// WithCommand returns a copy of e with Command set, for annotating an
// error bubbled up from a generic helper with the operator that invoked it.
func (e *Error) WithCommand(command string) *Error {
	cp := *e
	cp.Command = command
	return &cp
}

// IsLexical, IsSyntax, IsResolution and IsSemantic report whether err
// (or an error it wraps) is of the matching kind. A plain
// stderrors.Is(err, perr.ErrSemantic) is not expressible because
// errors.Kind is not an error, hence these helpers.
func IsLexical(err error) bool    { return isKind(err, ErrLexical) }
func IsSyntax(err error) bool     { return isKind(err, ErrSyntax) }
func IsResolution(err error) bool { return isKind(err, ErrResolution) }
func IsSemantic(err error) bool   { return isKind(err, ErrSemantic) }

func isKind(err error, kind *errors.Kind) bool {
	var pe *Error
	if stderrors.As(err, &pe) {
		return pe.kind == kind
	}
	return kind.Is(err)
}
