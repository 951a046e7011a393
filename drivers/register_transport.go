package drivers

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// RegisterTransport performs raw byte access against a board BAR.
type RegisterTransport interface {
	Setup(ctx context.Context) error
	Read(bar, offset, size int) ([]byte, error)
	Write(bar, offset int, data []byte) error
	Close() error
	String() string
	IsReady() bool
}

func MapAllTransports() map[string]RegisterTransport {
	transports := []RegisterTransport{
		&MockTransport{},
		&SysfsTransport{},
		&RemoteTransport{},
		&PinTransport{Bank: &McpBank{}},
		&PinTransport{Bank: &RpioBank{}},
	}

	mapped := make(map[string]RegisterTransport)
	for _, transport := range transports {
		mapped[transport.String()] = transport
	}
	return mapped
}

var errNotReady = errors.New("transport not ready")

func checkAccess(bar, offset, size int) error {
	if bar < 0 || offset < 0 {
		return errors.Errorf("negative bar (%d) or offset (%d)", bar, offset)
	}
	switch size {
	case 1, 2, 4:
		return nil
	}
	return errors.Errorf("unsupported access size %d (1, 2 or 4 bytes)", size)
}

func newLogger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: prefix,
		Level:  log.GetLevel(),
	})
}
