package repl

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// HistoryFileName is the history file inside the sdncli home directory.
const HistoryFileName = "history"

// History locates and persists the shell history.
type History struct {
	file string
}

// NewHistory creates a History stored at ~/.sdncli/history.
func NewHistory() *History {
	homeDir, _ := os.UserHomeDir()
	return &History{file: filepath.Join(homeDir, ".sdncli", HistoryFileName)}
}

// NewHistoryAt creates a History stored at file. An empty file disables
// persistence.
func NewHistoryAt(file string) *History {
	return &History{file: file}
}

// Path returns the history file path.
func (h *History) Path() string {
	return h.file
}

// Load feeds the stored history to read. A missing file is not an error.
func (h *History) Load(read func(io.Reader) (int, error)) error {
	if h.file == "" {
		return nil
	}
	file, err := os.Open(h.file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = read(file)
	return err
}

// Save writes the history produced by write, owner-readable only.
func (h *History) Save(write func(io.Writer) (int, error)) error {
	if h.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.file), 0700); err != nil {
		return err
	}

	file, err := os.OpenFile(h.file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
