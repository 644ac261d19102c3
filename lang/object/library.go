package object

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
)

const (
	libraryMagic   uint32 = 0x4C444F49 // 'IODL' little-endian
	libraryVersion uint8  = 0x01
)

// Library is the decoded contents of a .iodl file: an export table
// mapping exported function names to their entry instruction pointer,
// a constant pool, and the code section those entry points live in.
type Library struct {
	Exports   map[string]uint64
	Constants []string
	Code      []byte
}

// WriteLibrary encodes lib to path in the .iodl format.
func WriteLibrary(path string, lib *Library) error {
	f, err := os.Create(path)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to open file for writing: %s: %v", path, err)}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, libraryMagic); err != nil {
		return &Error{Message: err.Error()}
	}
	if err := binary.Write(w, binary.LittleEndian, libraryVersion); err != nil {
		return &Error{Message: err.Error()}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(lib.Exports))); err != nil {
		return &Error{Message: err.Error()}
	}
	// Iterate lexicographically so the encoded byte sequence is
	// reproducible across runs (spec's build-determinism guarantee) —
	// Go map iteration order is otherwise randomized.
	names := make([]string, 0, len(lib.Exports))
	for name := range lib.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ip := lib.Exports[name]
		if err := binary.Write(w, binary.LittleEndian, uint32(len(name))); err != nil {
			return &Error{Message: err.Error()}
		}
		if _, err := w.WriteString(name); err != nil {
			return &Error{Message: err.Error()}
		}
		if err := binary.Write(w, binary.LittleEndian, ip); err != nil {
			return &Error{Message: err.Error()}
		}
	}

	if err := writeStringTable(w, lib.Constants); err != nil {
		return err
	}
	if err := writeByteSection(w, lib.Code); err != nil {
		return err
	}
	return w.Flush()
}

// ReadLibrary decodes a .iodl file from path.
func ReadLibrary(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to open file: %s: %v", path, err)}
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid .iodl file %s: %v", path, err)}
	}
	if magic != libraryMagic {
		return nil, &Error{Message: fmt.Sprintf("invalid .iodl file %s: incorrect magic number", path)}
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	if version != libraryVersion {
		return nil, &Error{Message: fmt.Sprintf("unsupported .iodl file version: %d", version)}
	}

	var exportCount uint32
	if err := binary.Read(r, binary.LittleEndian, &exportCount); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	exports := make(map[string]uint64, exportCount)
	for i := uint32(0); i < exportCount; i++ {
		name, err := readLengthPrefixedString(r)
		if err != nil {
			return nil, err
		}
		var ip uint64
		if err := binary.Read(r, binary.LittleEndian, &ip); err != nil {
			return nil, &Error{Message: err.Error()}
		}
		exports[name] = ip
	}

	constants, err := readStringTable(r)
	if err != nil {
		return nil, err
	}
	code, err := readByteSection(r)
	if err != nil {
		return nil, err
	}

	return &Library{Exports: exports, Constants: constants, Code: code}, nil
}
