package types

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by the conversion, quota and payment components.
// Callers match with errors.Is; reason text wrapped around these is for
// logging only.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyResolved   = errors.New("payment request already resolved")
)

// ErrFileTooLarge is a quota failure: errors.Is(err, ErrQuotaExceeded) holds
// for it, but handlers can still tell it apart from the daily limit.
var ErrFileTooLarge = fmt.Errorf("%w: file too large", ErrQuotaExceeded)
