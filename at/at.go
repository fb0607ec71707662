package at

const (
	// Terminal Control
	CR     = "\r"
	Prompt = "> "

	// Commands issued by the link itself
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdVerboseErrors = "AT+CMEE=2"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg        = "+CMTI:"
	UrcMessageReport = "+CDSI:"
	UrcCall          = "RING"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)
