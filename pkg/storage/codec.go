package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/adfharrison1/go-ape/pkg/domain"
	"github.com/adfharrison1/go-ape/pkg/indexing"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes a collection to w in the given format
func Encode(w io.Writer, format Format, name string, coll domain.Collection) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, coll)
	case FormatCSV:
		return encodeCSV(w, coll)
	case FormatBinary:
		return encodeBinary(w, name, coll)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Decode reads a collection from r in the given format
func Decode(r io.Reader, format Format) (domain.Collection, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatCSV:
		return decodeCSV(r)
	case FormatBinary:
		return decodeBinary(r)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func encodeBinary(w io.Writer, name string, coll domain.Collection) error {
	data := CollectionData{
		Name:    name,
		Records: make([]map[string]interface{}, len(coll)),
	}
	for i, rec := range coll {
		data.Records[i] = map[string]interface{}(rec)
	}

	msgpackData, err := msgpack.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	compressedData := make([]byte, lz4.CompressBlockBound(len(msgpackData)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(msgpackData, compressedData, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}

	flags := uint8(0)
	payload := compressedData[:n]
	if n == 0 || n >= len(msgpackData) {
		flags |= flagRaw
		payload = msgpackData
	}

	if err := WriteHeader(w, flags, len(msgpackData)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	return nil
}

// maxRawSize bounds the decompressed size of an lz4 block. Each compressed
// byte expands to at most 255 bytes.
func maxRawSize(compressed int) int64 {
	return int64(compressed)*255 + 16
}

func decodeBinary(r io.Reader) (domain.Collection, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid file header: %w", err)
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed data: %w", err)
	}

	msgpackData := payload
	if header.Flags&flagRaw == 0 {
		if int64(header.RawSize) > maxRawSize(len(payload)) {
			return nil, fmt.Errorf("raw size %d exceeds what %d compressed bytes can hold", header.RawSize, len(payload))
		}
		msgpackData = make([]byte, header.RawSize)
		n, err := lz4.UncompressBlock(payload, msgpackData)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress data: %w", err)
		}
		msgpackData = msgpackData[:n]
	}

	dec := msgpack.NewDecoder(bytes.NewReader(msgpackData))
	dec.UseLooseInterfaceDecoding(true)
	var data CollectionData
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	coll := make(domain.Collection, len(data.Records))
	for i, rec := range data.Records {
		coll[i] = domain.Record(rec)
		if coll[i] == nil {
			coll[i] = domain.Record{}
		}
	}
	return coll, nil
}

func encodeJSON(w io.Writer, coll domain.Collection) error {
	if coll == nil {
		coll = domain.Collection{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(coll); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func decodeJSON(r io.Reader) (domain.Collection, error) {
	var coll domain.Collection
	if err := json.NewDecoder(r).Decode(&coll); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	for i := range coll {
		if coll[i] == nil {
			coll[i] = domain.Record{}
		}
	}
	return coll, nil
}

// decodeCSV reads a header row followed by data rows. Values stay strings.
func decodeCSV(r io.Reader) (domain.Collection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return domain.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	coll := domain.Collection{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(coll)+1, err)
		}
		rec := make(domain.Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		coll = append(coll, rec)
	}
	return coll, nil
}

// encodeCSV writes the union of all field keys, sorted, as the header row
func encodeCSV(w io.Writer, coll domain.Collection) error {
	seen := make(map[string]bool)
	var headers []string
	for _, rec := range coll {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)

	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	row := make([]string, len(headers))
	for _, rec := range coll {
		for i, h := range headers {
			row[i] = ""
			if v, ok := rec[h]; ok && v != nil {
				row[i] = indexing.Stringify(v)
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
