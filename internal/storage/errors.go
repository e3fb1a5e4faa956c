package storage

import (
	"fmt"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
)

var (
	errReadOnly   = fmt.Errorf("%w: transaction is read-only", domainerrors.ErrInvalidArgument)
	errValueWidth = fmt.Errorf("%w: value does not match fixed tree width", domainerrors.ErrInvalidArgument)
)
