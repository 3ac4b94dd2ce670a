package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the current snapshot format version written by Encode.
const Version = 1

// magic prefixes every decompressed snapshot payload.
var magic = []byte("CTLS")

// brotli quality used for snapshots. Snapshots are written once per run and
// read back once, so favour ratio over speed.
const compressionLevel = brotli.BestCompression

var (
	// ErrDecompress means the compression layer could not be inverted.
	ErrDecompress = errors.New("snapshot: decompress failed")
	// ErrNotSnapshot means the payload does not carry the snapshot magic.
	ErrNotSnapshot = errors.New("snapshot: not a control snapshot")
	// ErrVersion means the payload was written by an unknown format version.
	ErrVersion = errors.New("snapshot: unsupported format version")
	// ErrMalformed means the payload is truncated or structurally invalid.
	ErrMalformed = errors.New("snapshot: malformed payload")
)

// Field numbers of the wire layout.
//
//	snapshot: 1 = region (repeated, bytes)
//	region:   1 = path, 2 = annotation, 3 = content, 4 = start, 5 = end
//	position: 1 = row, 2 = column
const (
	fieldRegion protowire.Number = 1

	fieldPath       protowire.Number = 1
	fieldAnnotation protowire.Number = 2
	fieldContent    protowire.Number = 3
	fieldStart      protowire.Number = 4
	fieldEnd        protowire.Number = 5

	fieldRow    protowire.Number = 1
	fieldColumn protowire.Number = 2
)

// Encode serializes s and compresses the result.
func Encode(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes s, compresses it and writes it to w.
func Write(w io.Writer, s Snapshot) error {
	bw := brotli.NewWriterLevel(w, compressionLevel)
	if _, err := bw.Write(marshal(s)); err != nil {
		bw.Close()
		return fmt.Errorf("snapshot: compress: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}
	return nil
}

// Decode decompresses data and decodes the snapshot it holds.
func Decode(data []byte) (Snapshot, error) {
	return Read(bytes.NewReader(data))
}

// Read decompresses r to completion and decodes the snapshot it holds.
func Read(r io.Reader) (Snapshot, error) {
	raw, err := io.ReadAll(brotli.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	return unmarshal(raw)
}

func marshal(s Snapshot) []byte {
	b := append([]byte(nil), magic...)
	b = protowire.AppendVarint(b, Version)
	for _, r := range s {
		b = protowire.AppendTag(b, fieldRegion, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalRegion(r))
	}
	return b
}

func marshalRegion(r Region) []byte {
	var b []byte
	b = appendString(b, fieldPath, r.Path)
	b = appendString(b, fieldAnnotation, r.Annotation)
	b = appendString(b, fieldContent, r.Content)
	b = protowire.AppendTag(b, fieldStart, protowire.BytesType)
	b = protowire.AppendBytes(b, marshalPosition(r.Start))
	b = protowire.AppendTag(b, fieldEnd, protowire.BytesType)
	b = protowire.AppendBytes(b, marshalPosition(r.End))
	return b
}

func marshalPosition(p Position) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldRow, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Row))
	b = protowire.AppendTag(b, fieldColumn, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Column))
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func unmarshal(b []byte) (Snapshot, error) {
	if !bytes.HasPrefix(b, magic) {
		return nil, ErrNotSnapshot
	}
	b = b[len(magic):]

	version, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return nil, fmt.Errorf("%w: version: %v", ErrMalformed, protowire.ParseError(n))
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}
	b = b[n:]

	s := Snapshot{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: region %d: %v", ErrMalformed, len(s), protowire.ParseError(n))
		}
		b = b[n:]

		if num != fieldRegion || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		msg, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: region %d: %v", ErrMalformed, len(s), protowire.ParseError(n))
		}
		b = b[n:]

		r, err := unmarshalRegion(msg)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", len(s), err)
		}
		s = append(s, r)
	}
	return s, nil
}

func unmarshalRegion(b []byte) (Region, error) {
	var r Region
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Region{}, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Region{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return Region{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		var err error
		switch num {
		case fieldPath:
			r.Path = string(v)
		case fieldAnnotation:
			r.Annotation = string(v)
		case fieldContent:
			r.Content = string(v)
		case fieldStart:
			r.Start, err = unmarshalPosition(v)
		case fieldEnd:
			r.End, err = unmarshalPosition(v)
		}
		if err != nil {
			return Region{}, err
		}
	}
	return r, nil
}

func unmarshalPosition(b []byte) (Position, error) {
	var p Position
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Position{}, fmt.Errorf("%w: position: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Position{}, fmt.Errorf("%w: position field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return Position{}, fmt.Errorf("%w: position field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldRow:
			p.Row = int(v)
		case fieldColumn:
			p.Column = int(v)
		}
	}
	return p, nil
}
