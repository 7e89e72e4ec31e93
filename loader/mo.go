// Package loader reads compiled gettext (MO) catalogs.
package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ZaguanLabs/mocache"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

const (
	magic         = 0x950412de
	headerSize    = 28
	contextSep    = "\x04"
	pluralSep     = "\x00"
	maxMORevision = 1
)

// ErrInvalidMO is wrapped by every parse failure.
var ErrInvalidMO = errors.New("invalid MO file")

// MOLoader loads MO files from a billy filesystem.
type MOLoader struct {
	fs billy.Filesystem
}

// NewMOLoader creates a loader reading from fs.
func NewMOLoader(fs billy.Filesystem) *MOLoader {
	return &MOLoader{fs: fs}
}

// NewOSLoader creates a loader reading absolute paths from the host
// filesystem.
func NewOSLoader() *MOLoader {
	return NewMOLoader(osfs.New("/"))
}

// Load reads and parses the MO file at path.
func (l *MOLoader) Load(path string) (*mocache.Catalog, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, &mocache.LoaderError{Path: path, Message: "open", Cause: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &mocache.LoaderError{Path: path, Message: "read", Cause: err}
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, &mocache.LoaderError{Path: path, Message: "parse", Cause: err}
	}
	return cat, nil
}

// Parse decodes a compiled MO catalog.
func Parse(data []byte) (*mocache.Catalog, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: file too short", ErrInvalidMO)
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(data) == magic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(data) == magic:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad magic number", ErrInvalidMO)
	}

	revision := order.Uint32(data[4:])
	if revision>>16 > maxMORevision {
		return nil, fmt.Errorf("%w: unsupported revision %d", ErrInvalidMO, revision>>16)
	}

	count := order.Uint32(data[8:])
	origTable := order.Uint32(data[12:])
	transTable := order.Uint32(data[16:])

	cat := mocache.NewCatalog()
	for i := uint32(0); i < count; i++ {
		orig, err := readString(data, order, origTable, i)
		if err != nil {
			return nil, err
		}
		trans, err := readString(data, order, transTable, i)
		if err != nil {
			return nil, err
		}

		if orig == "" {
			parseHeaders(trans, cat.Headers)
			continue
		}
		cat.Add(makeEntry(orig, trans))
	}

	return cat, nil
}

// readString returns the i-th string of the descriptor table at offset.
func readString(data []byte, order binary.ByteOrder, table, i uint32) (string, error) {
	pos := uint64(table) + uint64(i)*8
	if pos+8 > uint64(len(data)) {
		return "", fmt.Errorf("%w: string table out of range", ErrInvalidMO)
	}
	length := uint64(order.Uint32(data[pos:]))
	offset := uint64(order.Uint32(data[pos+4:]))
	if offset+length > uint64(len(data)) {
		return "", fmt.Errorf("%w: string %d out of range", ErrInvalidMO, i)
	}
	return string(data[offset : offset+length]), nil
}

func makeEntry(orig, trans string) mocache.Entry {
	var e mocache.Entry
	if ctx, rest, ok := strings.Cut(orig, contextSep); ok {
		e.Context = ctx
		orig = rest
	}
	e.Singular, e.Plural, _ = strings.Cut(orig, pluralSep)
	e.Translations = strings.Split(trans, pluralSep)
	return e
}

func parseHeaders(s string, dst map[string]string) {
	for _, line := range strings.Split(s, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		dst[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
}

// Marshal encodes a catalog as a little-endian MO file without a hash table.
func Marshal(cat *mocache.Catalog) []byte {
	type pair struct{ orig, trans string }

	pairs := make([]pair, 0, cat.Len()+1)
	if len(cat.Headers) > 0 {
		names := make([]string, 0, len(cat.Headers))
		for n := range cat.Headers {
			names = append(names, n)
		}
		sort.Strings(names)
		var hdr strings.Builder
		for _, n := range names {
			fmt.Fprintf(&hdr, "%s: %s\n", n, cat.Headers[n])
		}
		pairs = append(pairs, pair{"", hdr.String()})
	}
	for _, e := range cat.Entries {
		orig := e.Singular
		if e.Plural != "" {
			orig += pluralSep + e.Plural
		}
		if e.Context != "" {
			orig = e.Context + contextSep + orig
		}
		pairs = append(pairs, pair{orig, strings.Join(e.Translations, pluralSep)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].orig < pairs[j].orig })

	n := uint32(len(pairs))
	origTable := uint32(headerSize)
	transTable := origTable + n*8
	offset := transTable + n*8

	var strs bytes.Buffer
	origDesc := make([]uint32, 0, n*2)
	transDesc := make([]uint32, 0, n*2)
	for _, p := range pairs {
		origDesc = append(origDesc, uint32(len(p.orig)), offset+uint32(strs.Len()))
		strs.WriteString(p.orig)
		strs.WriteByte(0)
	}
	for _, p := range pairs {
		transDesc = append(transDesc, uint32(len(p.trans)), offset+uint32(strs.Len()))
		strs.WriteString(p.trans)
		strs.WriteByte(0)
	}

	var buf bytes.Buffer
	header := []uint32{magic, 0, n, origTable, transTable, 0, offset}
	_ = binary.Write(&buf, binary.LittleEndian, header)
	_ = binary.Write(&buf, binary.LittleEndian, origDesc)
	_ = binary.Write(&buf, binary.LittleEndian, transDesc)
	buf.Write(strs.Bytes())
	return buf.Bytes()
}

var _ mocache.Loader = (*MOLoader)(nil)
