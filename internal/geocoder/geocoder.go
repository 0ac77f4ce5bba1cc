package geocoder

import "errors"

var (
	// ErrNotFound — геокодер не нашёл ни одного объекта по адресу.
	ErrNotFound = errors.New("address not found")
	// ErrOutsideServiceArea — адрес найден, но вне зоны обслуживания.
	ErrOutsideServiceArea = errors.New("address outside service area")
)

// Unresolved reports whether the error is one of the two expected
// resolution failures, as opposed to a network or protocol problem.
func Unresolved(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrOutsideServiceArea)
}
