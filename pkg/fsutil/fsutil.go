// Package fsutil provides the small filesystem primitives the rest of
// endmod is built on: recursive copy-merge, directory walks over a
// types.FS, and BOM-tolerant JSON read/write.
package fsutil

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Exists reports whether the path exists at all.
func Exists(fsys types.FS, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}

// IsDir reports whether the path exists and is a directory.
func IsDir(fsys types.FS, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.IsDir()
}

// CopyFile copies src to dst, creating parent directories and
// overwriting any existing file at dst.
func CopyFile(fsys types.FS, src, dst string) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "reading %s", src)
	}
	if err := fsys.MkdirAll(path.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "creating %s", path.Dir(dst))
	}
	perm := fs.FileMode(0644)
	if info, err := fsys.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fsys.WriteFile(dst, data, perm); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "writing %s", dst)
	}
	return nil
}

// CopyTree copies src into dst recursively, merging into existing
// directories and overwriting existing files. A file src is copied as a
// single file. Returns the number of files copied.
func CopyTree(fsys types.FS, src, dst string) (int, error) {
	info, err := fsys.Stat(src)
	if err != nil {
		return 0, nil // vanished source copies nothing
	}
	if !info.IsDir() {
		if err := CopyFile(fsys, src, dst); err != nil {
			return 0, err
		}
		return 1, nil
	}

	count := 0
	err = WalkFiles(fsys, src, func(rel string, _ fs.FileInfo) error {
		if err := CopyFile(fsys, path.Join(src, rel), path.Join(dst, rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	// Preserve empty directories so the copy is shape-faithful
	if count == 0 {
		if err := fsys.MkdirAll(dst, 0755); err != nil {
			return 0, errors.Wrapf(err, errors.ErrDirCreate, "creating %s", dst)
		}
	}
	return count, nil
}

// WalkFiles calls fn for every regular file beneath root, with a
// slash-separated path relative to root. Traversal order is
// deterministic (lexical per directory).
func WalkFiles(fsys types.FS, root string, fn func(rel string, info fs.FileInfo) error) error {
	return walkFiles(fsys, root, "", fn)
}

func walkFiles(fsys types.FS, root, rel string, fn func(string, fs.FileInfo) error) error {
	dir := root
	if rel != "" {
		dir = path.Join(root, rel)
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		childRel := entry.Name()
		if rel != "" {
			childRel = rel + "/" + entry.Name()
		}
		if entry.IsDir() {
			if err := walkFiles(fsys, root, childRel, fn); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if err := fn(childRel, info); err != nil {
			return err
		}
	}
	return nil
}

// WalkDirs calls fn for every directory beneath root (root itself
// excluded), with a slash-separated path relative to root.
func WalkDirs(fsys types.FS, root string, fn func(rel string) error) error {
	return walkDirs(fsys, root, "", fn)
}

func walkDirs(fsys types.FS, root, rel string, fn func(string) error) error {
	dir := root
	if rel != "" {
		dir = path.Join(root, rel)
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		childRel := entry.Name()
		if rel != "" {
			childRel = rel + "/" + entry.Name()
		}
		if err := fn(childRel); err != nil {
			return err
		}
		if err := walkDirs(fsys, root, childRel, fn); err != nil {
			return err
		}
	}
	return nil
}

// ReadJSON reads a JSON file into v. It tolerates a UTF-8 byte-order
// mark and surrounding whitespace. An empty file is a parse error.
func ReadJSON(fsys types.FS, name string, v interface{}) error {
	data, err := fsys.ReadFile(name)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "reading %s", name)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.Newf(errors.ErrConfigParse, "%s is empty", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "parsing %s", name)
	}
	return nil
}

// WriteJSON writes v to name as indented JSON, creating parent
// directories as needed.
func WriteJSON(fsys types.FS, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "encoding %s", name)
	}
	if err := fsys.MkdirAll(path.Dir(name), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "creating %s", path.Dir(name))
	}
	data = append(data, '\n')
	if err := fsys.WriteFile(name, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "writing %s", name)
	}
	return nil
}

// HashFile returns the xxh3 hash of the file's content. Used to tag
// conflicts between byte-identical files.
func HashFile(fsys types.FS, name string) (uint64, error) {
	data, err := fsys.ReadFile(name)
	if err != nil {
		return 0, err
	}
	return xxh3.Hash(data), nil
}

// HasSuffixAny reports whether the lower-cased name ends in any of the
// given suffixes.
func HasSuffixAny(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
