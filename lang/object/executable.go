// Package object implements the two on-disk binary container formats:
// .iode (a standalone executable) and .iodl (a library of exported
// functions). Both share a length-prefixed-string / little-endian-u32
// encoding style.
//
// Grounded on original_source/src/executable/ioe_reader.cpp,
// ioe_writer.cpp, iodl_reader.cpp and iodl_writer.cpp.
package object

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	executableMagic   uint32 = 0x45444F49 // 'IODE' little-endian
	executableVersion uint8  = 0x01
)

// Error wraps a failure reading or writing an object container: a bad
// magic number, an unsupported version, or an I/O failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Executable is the decoded contents of a .iode file: an ordered import
// table, an interned constant pool, and a flat code section.
type Executable struct {
	Imports   []string
	Constants []string
	Code      []byte
}

// WriteExecutable encodes exe to path in the .iode format.
func WriteExecutable(path string, exe *Executable) error {
	f, err := os.Create(path)
	if err != nil {
		return &Error{Message: fmt.Sprintf("failed to open file for writing: %s: %v", path, err)}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, executableMagic); err != nil {
		return &Error{Message: err.Error()}
	}
	if err := binary.Write(w, binary.LittleEndian, executableVersion); err != nil {
		return &Error{Message: err.Error()}
	}
	if err := writeStringTable(w, exe.Imports); err != nil {
		return err
	}
	if err := writeStringTable(w, exe.Constants); err != nil {
		return err
	}
	if err := writeByteSection(w, exe.Code); err != nil {
		return err
	}
	return w.Flush()
}

// ReadExecutable decodes a .iode file from path.
func ReadExecutable(path string) (*Executable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to open file: %s: %v", path, err)}
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid .iode file %s: %v", path, err)}
	}
	if magic != executableMagic {
		return nil, &Error{Message: fmt.Sprintf("invalid .iode file %s: incorrect magic number", path)}
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	if version != executableVersion {
		return nil, &Error{Message: fmt.Sprintf("unsupported .iode file version: %d", version)}
	}

	imports, err := readStringTable(r)
	if err != nil {
		return nil, err
	}
	constants, err := readStringTable(r)
	if err != nil {
		return nil, err
	}
	code, err := readByteSection(r)
	if err != nil {
		return nil, err
	}

	return &Executable{Imports: imports, Constants: constants, Code: code}, nil
}

// ---- shared section encoding ----

func writeStringTable(w io.Writer, values []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(values))); err != nil {
		return &Error{Message: err.Error()}
	}
	for _, v := range values {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(v))); err != nil {
			return &Error{Message: err.Error()}
		}
		if _, err := io.WriteString(w, v); err != nil {
			return &Error{Message: err.Error()}
		}
	}
	return nil
}

func readStringTable(r io.Reader) ([]string, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	values := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := readLengthPrefixedString(r)
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return values, nil
}

func readLengthPrefixedString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", &Error{Message: err.Error()}
	}
	buf := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", &Error{Message: err.Error()}
		}
	}
	return string(buf), nil
}

func writeByteSection(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return &Error{Message: err.Error()}
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return &Error{Message: err.Error()}
		}
	}
	return nil
}

func readByteSection(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	data := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, &Error{Message: err.Error()}
		}
	}
	return data, nil
}
