package filemanager

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// DirInfo summarizes an installed component directory.
type DirInfo struct {
	Exists bool
	Files  int
	Size   int64
}

// Inspect walks dir and counts its files. A missing dir is reported, not an error.
func Inspect(dir string) (DirInfo, error) {
	var info DirInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info.Exists = true
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		info.Files++
		info.Size += fi.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return DirInfo{}, nil
	}
	return info, err
}
