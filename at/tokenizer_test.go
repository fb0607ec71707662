package at_test

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/mfr/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple AT command response",
			input:    "AT+CSQ\r\n+CSQ: 15,99\r\nOK\r\n",
			expected: []string{"AT+CSQ", "+CSQ: 15,99", "OK"},
		},
		{
			name:     "AT command with error",
			input:    "AT+CPIN?\r\n+CME ERROR: 10\r\n",
			expected: []string{"AT+CPIN?", "+CME ERROR: 10"},
		},
		{
			name:     "SMS sending sequence",
			input:    "AT+CMGS=\"+1234567890\"\r\n> Hello World!\x1A\r\n+CMGS: 123\r\nOK\r\n",
			expected: []string{"AT+CMGS=\"+1234567890\"", "> ", "Hello World!\x1A", "+CMGS: 123", "OK"},
		},
		{
			name:     "Network registration check",
			input:    "AT+CREG?\r\n+CREG: 0,1\r\nOK\r\n",
			expected: []string{"AT+CREG?", "+CREG: 0,1", "OK"},
		},
		{
			name:     "Multiple AT commands",
			input:    "ATI\r\nQuectel\r\nBG96\r\nRevision: BG96MAR02A07M1G\r\nOK\r\n",
			expected: []string{"ATI", "Quectel", "BG96", "Revision: BG96MAR02A07M1G", "OK"},
		},
		{
			name:     "URC mixed with AT response",
			input:    "AT+CSQ\r\n+CMTI: \"SM\",1\r\n+CSQ: 20,99\r\nOK\r\n",
			expected: []string{"AT+CSQ", "+CMTI: \"SM\",1", "+CSQ: 20,99", "OK"},
		},
		{
			name:     "SMS prompt only",
			input:    "> ",
			expected: []string{"> "},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nAT\r\nOK\r\n\r\n",
			expected: []string{"", "", "AT", "OK", ""},
		},
		{
			name:     "Multiple URCs",
			input:    "+CMTI: \"SM\",1\r\n+CMTI: \"SM\",2\r\nRING\r\n+CMTI: \"SM\",3\r\n",
			expected: []string{"+CMTI: \"SM\",1", "+CMTI: \"SM\",2", "RING", "+CMTI: \"SM\",3"},
		},
		{
			name:     "Call flow with RING",
			input:    "ATD+1234567890;\r\nOK\r\nRING\r\nRING\r\nNO CARRIER\r\n",
			expected: []string{"ATD+1234567890;", "OK", "RING", "RING", "NO CARRIER"},
		},
		// EOF scenarios - testing atEOF functionality
		{
			name:     "Incomplete command at EOF",
			input:    "AT+CSQ\r\n+CSQ: 15,99",
			expected: []string{"AT+CSQ", "+CSQ: 15,99"},
		},
		{
			name:     "Command without CRLF at EOF",
			input:    "AT+CPIN",
			expected: []string{"AT+CPIN"},
		},
		{
			name:     "SMS text without terminator at EOF",
			input:    "AT+CMGS=\"+123\"\r\n> Hello World",
			expected: []string{"AT+CMGS=\"+123\"", "> ", "Hello World"},
		},
		{
			name:     "Response cut off mid-stream at EOF",
			input:    "AT+CSQ\r\n+CSQ: 15,99\r\nOK\r\n+CMTI: \"SM\",1",
			expected: []string{"AT+CSQ", "+CSQ: 15,99", "OK", "+CMTI: \"SM\",1"},
		},
		{
			name:     "LF-only line endings",
			input:    "+CGMI: Telit\n+CGMM: GE910-QUAD\r\nOK\r\n",
			expected: []string{"+CGMI: Telit", "+CGMM: GE910-QUAD", "OK"},
		},
		{
			name:     "Bare CR kept inside a line",
			input:    "AB\rCD\r\nOK\r\n",
			expected: []string{"AB\rCD", "OK"},
		},
		{
			name:     "Partial SMS prompt at EOF",
			input:    "AT+CMGS=\"+123\"\r\n>",
			expected: []string{"AT+CMGS=\"+123\"", ">"},
		},
		{
			name:     "Mixed complete and incomplete at EOF",
			input:    "ATI\r\nQuectel\r\nBG96",
			expected: []string{"ATI", "Quectel", "BG96"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			require.NoError(t, scanner.Err())
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		// Final responses
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "CME Error", input: "+CME ERROR: 30", expected: at.TypeFinal},
		{name: "CMS Error", input: "+CMS ERROR: 500", expected: at.TypeFinal},
		{name: "NO CARRIER", input: "NO CARRIER", expected: at.TypeFinal},
		{name: "BUSY", input: "BUSY", expected: at.TypeFinal},

		// URCs
		{name: "New message URC", input: "+CMTI: \"SM\",1", expected: at.TypeURC},
		{name: "Incoming call URC", input: "RING", expected: at.TypeURC},
		{name: "Status report URC", input: "+CDSI: \"SM\",4", expected: at.TypeURC},

		// Data responses
		{name: "AT command", input: "AT+CSQ", expected: at.TypeData},
		{name: "Signal quality response", input: "+CSQ: 15,99", expected: at.TypeData},
		{name: "PIN status", input: "+CPIN: READY", expected: at.TypeData},
		{name: "Network registration", input: "+CREG: 0,1", expected: at.TypeData},
		{name: "SMS send result", input: "+CMGS: 123", expected: at.TypeData},
		{name: "Device info", input: "Quectel", expected: at.TypeData},

		// Prompt
		{name: "SMS input prompt", input: "> ", expected: at.TypePrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, at.Classify(tt.input), "input %q", tt.input)
		})
	}
}
