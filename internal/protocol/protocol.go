// Package protocol implements the length-prefixed text framing spoken between
// tuplespace clients and the server.
//
// Every request is one line:
//
//	LLL <CMD> <KEY>[ <VALUE>]\n
//
// where LLL is the zero-padded, three digit character count of everything
// after the first four characters. Responses are single lines as well; see
// the Response* helpers for the exact texts.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	kvErr "github.com/sajjad-MoBe/tuplespace/internal/errors"
)

const (
	// MaxFieldLength bounds keys and values, and the framed content itself
	MaxFieldLength = 999
	lengthDigits   = 3
	headerLength   = lengthDigits + 1
)

// Command is the one letter operation code carried by a request
type Command string

const (
	CmdRead Command = "R"
	CmdGet  Command = "G"
	CmdPut  Command = "P"
)

// Valid reports whether c is one of the codes the server dispatches
func (c Command) Valid() bool {
	switch c {
	case CmdRead, CmdGet, CmdPut:
		return true
	}
	return false
}

// Request is a decoded request line
type Request struct {
	Command Command
	Key     string
	Value   string
}

// Framing failures reported by Decode. Each is a MALFORMED KVError.
var (
	ErrLineTooShort   = kvErr.New(kvErr.ErrorTypeMalformed, "line shorter than length header", nil)
	ErrBadLength      = kvErr.New(kvErr.ErrorTypeMalformed, "length header is not a decimal number", nil)
	ErrLengthMismatch = kvErr.New(kvErr.ErrorTypeMalformed, "declared length does not match content", nil)
)

// Encode builds the wire line for a request. The value is only framed when non-empty.
func Encode(cmd Command, key, value string) (string, error) {
	if key == "" {
		return "", kvErr.New(kvErr.ErrorTypeInvalidInput, "key cannot be empty", nil)
	}
	if utf8.RuneCountInString(key) > MaxFieldLength {
		return "", kvErr.New(kvErr.ErrorTypeInvalidInput, "key is too long", nil)
	}
	if utf8.RuneCountInString(value) > MaxFieldLength {
		return "", kvErr.New(kvErr.ErrorTypeInvalidInput, "value is too long", nil)
	}

	content := string(cmd) + " " + key
	if value != "" {
		content += " " + value
	}

	size := utf8.RuneCountInString(content)
	if size > MaxFieldLength {
		return "", kvErr.New(kvErr.ErrorTypeInvalidInput,
			fmt.Sprintf("request is %d characters, the length field holds at most %d", size, MaxFieldLength), nil)
	}
	return fmt.Sprintf("%03d %s\n", size, content), nil
}

// Encode frames r for transmission
func (r Request) Encode() (string, error) {
	return Encode(r.Command, r.Key, r.Value)
}

// EncodeRequest frames one line of a client request file ("CMD KEY [VALUE]").
// The command is sent as written; no translation between vocabularies is attempted.
func EncodeRequest(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", kvErr.New(kvErr.ErrorTypeInvalidInput, "empty request line", nil)
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return "", kvErr.New(kvErr.ErrorTypeInvalidInput, fmt.Sprintf("request %q has no key", line), nil)
	}

	var value string
	if len(parts) > 2 {
		value = parts[2]
	}
	return Encode(Command(parts[0]), parts[1], value)
}

// Decode validates a request line (without its trailing newline) and splits it into
// command, key and value. A failed check returns one of ErrLineTooShort, ErrBadLength
// or ErrLengthMismatch.
func Decode(line string) (Request, error) {
	line = strings.TrimSuffix(line, "\r")
	runes := []rune(line)

	if len(runes) < headerLength {
		return Request{}, ErrLineTooShort
	}

	declared, err := strconv.Atoi(string(runes[:lengthDigits]))
	if err != nil {
		return Request{}, ErrBadLength
	}

	content := runes[headerLength:]
	if len(content) != declared {
		return Request{}, ErrLengthMismatch
	}

	tokens := strings.SplitN(string(content), " ", 3)
	req := Request{Command: Command(tokens[0])}
	if len(tokens) > 1 {
		req.Key = tokens[1]
	}
	if len(tokens) > 2 {
		req.Value = tokens[2]
	}
	return req, nil
}

// ReadLine reads one newline terminated line from r and returns it without the
// line terminator. A final unterminated line is returned before io.EOF.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSuffix(line, "\r"), nil
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}
