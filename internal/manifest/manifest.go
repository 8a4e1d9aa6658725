// Package manifest records the contents of a destination tree so two
// package runs can be compared file by file.
package manifest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ralt/pkgbuilder/internal/utils"
	"github.com/sirupsen/logrus"
)

const header = "#mtree"

// Entry types
const (
	TypeFile = "file"
	TypeDir  = "dir"
	TypeLink = "link"
)

// Entry describes one path below the manifest root. Modification times are
// deliberately absent.
type Entry struct {
	Path   string
	Type   string
	Mode   fs.FileMode
	Size   int64
	MD5    string
	SHA256 string
	Link   string
}

// Manifest is the sorted list of entries of a tree
type Manifest struct {
	Entries []Entry
}

// Generate walks root and records every file, directory and symlink below it
func Generate(ctx context.Context, root string) (*Manifest, error) {
	m := &Manifest{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		entry := Entry{
			Path: "./" + filepath.ToSlash(rel),
			Mode: info.Mode().Perm(),
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			entry.Type = TypeLink
			if entry.Link, err = os.Readlink(path); err != nil {
				return err
			}
		case info.IsDir():
			entry.Type = TypeDir
		case info.Mode().IsRegular():
			entry.Type = TypeFile
			sum, err := utils.CalculateChecksums(path)
			if err != nil {
				return fmt.Errorf("failed to checksum %s: %w", rel, err)
			}
			entry.Size = sum.Size
			entry.MD5 = sum.MD5
			entry.SHA256 = sum.SHA256
		default:
			logrus.Warnf("Skipping special file %s", path)
			return nil
		}

		m.Entries = append(m.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})

	logrus.Debugf("Manifest of %s has %d entries", root, len(m.Entries))
	return m, nil
}

// WriteTo writes the manifest in mtree text form
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	buf.WriteString(header + "\n")
	for _, e := range m.Entries {
		fmt.Fprintf(&buf, "%s type=%s mode=%o", escape(e.Path), e.Type, e.Mode)
		switch e.Type {
		case TypeFile:
			fmt.Fprintf(&buf, " size=%d md5digest=%s sha256digest=%s", e.Size, e.MD5, e.SHA256)
		case TypeLink:
			buf.WriteString(" link=" + escape(e.Link))
		}
		buf.WriteString("\n")
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Parse reads a manifest written by WriteTo
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if lineNo == 1 {
			if line != header {
				return nil, fmt.Errorf("missing %s header", header)
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		entry := Entry{Path: unescape(fields[0])}

		for _, kv := range fields[1:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("line %d: malformed keyword %q", lineNo, kv)
			}

			switch parts[0] {
			case "type":
				entry.Type = parts[1]
			case "mode":
				mode, err := strconv.ParseUint(parts[1], 8, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad mode: %w", lineNo, err)
				}
				entry.Mode = fs.FileMode(mode)
			case "size":
				size, err := strconv.ParseInt(parts[1], 10, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad size: %w", lineNo, err)
				}
				entry.Size = size
			case "md5digest":
				entry.MD5 = parts[1]
			case "sha256digest":
				entry.SHA256 = parts[1]
			case "link":
				entry.Link = unescape(parts[1])
			}
		}

		m.Entries = append(m.Entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if lineNo == 0 {
		return nil, fmt.Errorf("empty manifest")
	}

	return m, nil
}

// Encode serialises and compresses the manifest
func Encode(m *Manifest, compression string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return utils.Compress(buf.Bytes(), compression)
}

// Decode reverses Encode, detecting the compression from the data
func Decode(data []byte) (*Manifest, error) {
	raw, err := utils.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress manifest: %w", err)
	}
	return Parse(bytes.NewReader(raw))
}

// ReadFile loads a manifest from disk
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// escape encodes whitespace, backslashes and non-printable bytes as \ooo
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7f || c == '\\' || c == '#' || c == '=' {
			fmt.Fprintf(&b, "\\%03o", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1:i+4]) {
			n, _ := strconv.ParseUint(s[i+1:i+4], 8, 8)
			b.WriteByte(byte(n))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '7' {
			return false
		}
	}
	return true
}
