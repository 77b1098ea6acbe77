//go:build windows
// +build windows

// Package stat provides a cross-platform identity check
// for paths and open file handles.
package stat

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// SameFile reports whether path and the open file f refer to the same
// underlying filesystem object, compared by volume serial number and
// file index.
func SameFile(path string, f *os.File) (bool, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, errors.Wrapf(err, "invalid path %v", path)
	}

	ph, err := windows.CreateFile(
		p,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0,
	)
	if err != nil {
		return false, errors.Wrapf(err, "unable to open %v", path)
	}

	defer windows.CloseHandle(ph) //nolint:errcheck

	var pinfo, finfo windows.ByHandleFileInformation

	if err := windows.GetFileInformationByHandle(ph, &pinfo); err != nil {
		return false, errors.Wrapf(err, "unable to get file information for %v", path)
	}

	if err := windows.GetFileInformationByHandle(windows.Handle(f.Fd()), &finfo); err != nil {
		return false, errors.Wrap(err, "unable to get file information for open handle")
	}

	return pinfo.VolumeSerialNumber == finfo.VolumeSerialNumber &&
		pinfo.FileIndexHigh == finfo.FileIndexHigh &&
		pinfo.FileIndexLow == finfo.FileIndexLow, nil
}
