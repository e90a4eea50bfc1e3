package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	// Magic bytes to identify our file format
	MagicBytes = "APEC"
	// Current version
	FormatVersion = 1
	// File extension for the binary format
	FileExtension = ".ape"

	// flagRaw marks a payload stored without compression
	flagRaw uint8 = 1 << 0
)

// Format names a collection file encoding
type Format string

const (
	FormatBinary Format = "ape"
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
)

// FormatFromPath picks a format from a file extension, defaulting to binary
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	default:
		return FormatBinary
	}
}

// FileHeader represents the header of a binary collection file
type FileHeader struct {
	Magic    [4]byte // "APEC"
	Version  uint8   // Format version
	Flags    uint8   // flagRaw
	Reserved [2]byte // Reserved for future use
	RawSize  uint32  // Length of the uncompressed payload
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer, flags uint8, rawSize int) error {
	header := FileHeader{
		Magic:   [4]byte{'A', 'P', 'E', 'C'},
		Version: FormatVersion,
		Flags:   flags,
		RawSize: uint32(rawSize),
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Validate magic bytes
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}

	// Validate version
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

// CollectionData represents the payload of a binary collection file
type CollectionData struct {
	Name    string                   `msgpack:"name"`
	Records []map[string]interface{} `msgpack:"records"`
}
