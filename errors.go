package pcidio

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

var (
	ErrInvalidChannelRange  = errors.New("invalid channel range")
	ErrInvalidListLength    = errors.New("invalid list length")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

func newLogger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: prefix,
		Level:  log.GetLevel(),
	})
}
