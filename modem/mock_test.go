package modem_test

import (
	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/mfr/modem"
)

// MockSequenceBuilder records an ordered list of write/read exchanges on a
// MockTransport, for use with gomock.InOrder.
type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// Exchange expects cmd to be written and answers it with resp in one read.
func (b *MockSequenceBuilder) Exchange(cmd, resp string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(cmd+"\r")).Return(len(cmd)+1, nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, resp), nil
		}),
	)
	return b
}

// AT answers the power-on ping. The modem still echoes at this point.
func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Exchange("AT", "AT\r\nOK\r\n")
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.Exchange("ATE0", "ATE0\r\nOK\r\n")
}

func (b *MockSequenceBuilder) VerboseErrors() *MockSequenceBuilder {
	return b.Exchange("AT+CMEE=2", "OK\r\n")
}

// Init is the full bring-up sequence of SwitchOn.
func (b *MockSequenceBuilder) Init() *MockSequenceBuilder {
	return b.AT().EchoOff().VerboseErrors()
}

func (b *MockSequenceBuilder) Close(err error) *MockSequenceBuilder {
	b.calls = append(b.calls, b.transport.EXPECT().Close().Return(err))
	return b
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

func initMockCalls(transport *modem.MockTransport) []any {
	return NewMockSequence(transport).Init().Build()
}
