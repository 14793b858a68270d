package zarr

import "errors"

var (
	ErrExists           = errors.New("already exists")
	ErrReadOnly         = errors.New("opened read only")
	ErrInvalidMeta      = errors.New("invalid array metadata")
	ErrInvalidPath      = errors.New("invalid path")
	ErrUnsupported      = errors.New("unsupported feature")
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrDtypeMismatch    = errors.New("dtype mismatch")
	ErrInvalidMode      = errors.New("invalid persistence mode")
)
