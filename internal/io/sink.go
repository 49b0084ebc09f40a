package io

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/quadtree_tiler/tools"
)

// OutputSink stores the produced files. Names are slash separated and relative to the sink root.
type OutputSink interface {
	Exists(name string) bool
	WriteBytes(name string, content []byte) error
	WriteLines(name string, lines []string) error
}

// Writes the files below a folder of the local file system, creating the intermediate folders on demand
type FileSystemSink struct {
	root string
}

func NewFileSystemSink(root string) *FileSystemSink {
	return &FileSystemSink{root: root}
}

func (s *FileSystemSink) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *FileSystemSink) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *FileSystemSink) WriteBytes(name string, content []byte) error {
	path := s.path(name)
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0666)
}

func (s *FileSystemSink) WriteLines(name string, lines []string) error {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return s.WriteBytes(name, []byte(content))
}
