//go:build !linux

package joystick

// Open is not supported on this platform.
func Open(int) (Device, error) {
	return nil, ErrUnsupported
}
