//go:build linux

package joystick

import (
	"bytes"
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

const (
	iocGBUTTONS uintptr = 0x80016a12
	iocGNAME    uintptr = 0x80ff6a13
)

type jsDevice struct {
	file    *os.File
	index   int
	name    string
	buttons uint8
}

// Open opens /dev/input/js<index>.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &jsDevice{file: f, index: index}
	var name [256]byte
	errno := d.ioctl(iocGBUTTONS, unsafe.Pointer(&d.buttons))
	if errno == 0 {
		errno = d.ioctl(iocGNAME, unsafe.Pointer(&name))
	}
	if errno != 0 {
		f.Close()
		return nil, errno
	}
	if n := bytes.IndexByte(name[:], 0); n >= 0 {
		d.name = string(name[:n])
	} else {
		d.name = string(name[:])
	}
	return d, nil
}

func (d *jsDevice) Close() error     { return d.file.Close() }
func (d *jsDevice) Index() int       { return d.index }
func (d *jsDevice) Name() string     { return d.name }
func (d *jsDevice) ButtonCount() int { return int(d.buttons) }

func (d *jsDevice) ReadEvent() (Event, error) {
	return ReadEvent(d.file)
}

func (d *jsDevice) ioctl(req uintptr, ptr unsafe.Pointer) syscall.Errno {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, d.file.Fd(), req, uintptr(ptr))
	return errno
}
