package modem

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/mock/gomock"
)

func TestSerialDialer_Dial(t *testing.T) {
	tests := []struct {
		name    string
		dialer  SerialDialer
		ctx     func() context.Context
		wantErr string
		wantIs  error
	}{
		{
			name:    "Empty port name",
			dialer:  SerialDialer{},
			ctx:     context.Background,
			wantErr: "modem: serial port name is required",
		},
		{
			name:    "Nil context",
			dialer:  SerialDialer{PortName: "/dev/ttyUSB0"},
			ctx:     func() context.Context { return nil },
			wantErr: "modem: context is nil",
		},
		{
			name:   "Context canceled",
			dialer: SerialDialer{PortName: "/dev/nonexistent"},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantIs: context.Canceled,
		},
		{
			name: "Explicit mode on a missing port",
			dialer: SerialDialer{
				PortName: "/dev/nonexistent",
				Mode: &serial.Mode{
					BaudRate: 115200,
					Parity:   serial.NoParity,
					DataBits: 8,
					StopBits: serial.OneStopBit,
				},
			},
			ctx:     context.Background,
			wantErr: "modem: open /dev/nonexistent",
		},
		{
			name:    "Default mode on a missing port",
			dialer:  SerialDialer{PortName: "/dev/nonexistent"},
			ctx:     context.Background,
			wantErr: "modem: open /dev/nonexistent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := tt.dialer.Dial(tt.ctx())

			require.Error(t, err)
			assert.Nil(t, transport)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			}
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

// Test the interface compliance
func TestTransportInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := NewMockTransport(ctrl)

	var _ Transport = mockTransport

	data := []byte("test")
	mockTransport.EXPECT().Write(data).Return(len(data), nil)
	mockTransport.EXPECT().Read(gomock.Any()).Return(4, nil)
	mockTransport.EXPECT().Close().Return(nil)

	n, err := mockTransport.Write(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	n, err = mockTransport.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.NoError(t, mockTransport.Close())
}

func TestSerialTransport_Read(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		err     error
		wantN   int
		wantErr error
	}{
		{name: "Data passes through", n: 4, wantN: 4},
		{name: "Empty read maps to ErrReadTimeout", n: 0, wantErr: ErrReadTimeout},
		{name: "Port error passes through", n: 0, err: io.EOF, wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := serialTransport{Port: fakePort{n: tt.n, err: tt.err}}

			n, err := transport.Read(make([]byte, 8))
			assert.Equal(t, tt.wantN, n)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPatientReader(t *testing.T) {
	t.Run("Retries idle reads until data arrives", func(t *testing.T) {
		tt := NewTestTransport()
		go func() {
			time.Sleep(5 * time.Millisecond)
			tt.SendData("OK\r\n")
		}()

		buf := make([]byte, 16)
		n, err := (&patientReader{ctx: context.Background(), r: tt}).Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "OK\r\n", string(buf[:n]))
	})

	t.Run("Gives up when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := (&patientReader{ctx: ctx, r: NewTestTransport()}).Read(make([]byte, 16))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

type fakePort struct {
	serial.Port
	n   int
	err error
}

func (f fakePort) Read(p []byte) (int, error) {
	return f.n, f.err
}
