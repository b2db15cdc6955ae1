// Package corpus reads the prayer corpus and writes classification output.
package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

// ErrUnknownAuthor is returned in strict mode for an author outside the
// known set.
var ErrUnknownAuthor = errors.New("unknown author")

// RecordError reports the corpus position of a malformed record.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Options controls corpus validation.
type Options struct {
	// StrictAuthors rejects authors outside domain.DefaultAuthorOrder.
	StrictAuthors bool
}

// Load reads the corpus at path.
func Load(path string, opts Options) ([]domain.Prayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()

	prayers, err := Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return prayers, nil
}

// Decode reads a JSON array of prayer records. Any malformed record fails
// the whole corpus. Prayers are numbered by position.
func Decode(r io.Reader, opts Options) ([]domain.Prayer, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}

	prayers := make([]domain.Prayer, len(raw))
	for i, data := range raw {
		var p domain.Prayer
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, &RecordError{Index: i, Err: err}
		}
		if err := p.Validate(); err != nil {
			return nil, &RecordError{Index: i, Err: fmt.Errorf("%w: missing author", err)}
		}
		if opts.StrictAuthors && !p.Author.Known() {
			return nil, &RecordError{Index: i, Err: fmt.Errorf("%w: %q", ErrUnknownAuthor, p.Author)}
		}
		p.Index = i
		prayers[i] = p
	}
	return prayers, nil
}

// EncodeTree writes t to w as indented JSON.
func EncodeTree(w io.Writer, t *tree.Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return nil
}

// WriteTree writes t as indented JSON to path, creating parent directories.
func WriteTree(path string, t *tree.Tree) error {
	var buf bytes.Buffer
	if err := EncodeTree(&buf, t); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// ReadTree reads a tree previously written by WriteTree.
func ReadTree(path string) (*tree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", path, err)
	}
	var t tree.Tree
	if err = json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tree %s: %w", path, err)
	}
	return &t, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
