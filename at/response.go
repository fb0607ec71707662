package at

import (
	"strings"
)

// Response collects everything a modem sent back for one Command.
type Response struct {
	// Command is the command this response answers.
	Command Command
	// Lines holds intermediate data lines in arrival order.
	Lines []string
	// Final is the final result code (OK, ERROR, +CME ERROR: ...) or the
	// input prompt when the modem is waiting for a message body.
	Final string
	// URCs holds unsolicited result codes received during the exchange.
	URCs []string
}

// OK reports whether the modem accepted the command.
func (r Response) OK() bool {
	return r.Final == OK || r.Final == Prompt
}

// String renders the response for display: data lines, then the final
// result code, then any unsolicited result codes.
func (r Response) String() string {
	var b strings.Builder
	for _, line := range r.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(r.Final)
	for _, urc := range r.URCs {
		b.WriteByte('\n')
		b.WriteString(urc)
	}
	return b.String()
}

// Add files a tokenized line into the response according to its Classify
// type and reports whether the response is complete.
func (r *Response) Add(line string) (done bool) {
	switch Classify(line) {
	case TypeFinal, TypePrompt:
		r.Final = line
		return true
	case TypeURC:
		r.URCs = append(r.URCs, line)
	default:
		r.Lines = append(r.Lines, line)
	}
	return false
}
