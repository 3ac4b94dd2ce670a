package snapshot

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func testSnapshot() Snapshot {
	return Snapshot{
		{
			Path:       "src/subdirectory/submodule.js",
			Annotation: "// control SUB-1",
			Content:    "const submodule = () => {\n  return 'submodule';\n}",
			Start:      Position{Row: 1, Column: 0},
			End:        Position{Row: 3, Column: 1},
		},
		{
			Path:       "src/index.js",
			Annotation: "/* control HE-110 JS-1 */",
			Content:    "console.log('Hello world!');",
			Start:      Position{Row: 4, Column: 0},
			End:        Position{Row: 4, Column: 28},
		},
	}
}

// compress runs raw bytes through the same compression layer Encode uses.
func compress(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// =============================================================================
// Round trip
// =============================================================================

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()
	s := testSnapshot()

	data, err := Encode(s)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestEncodeDecode_Empty(t *testing.T) {
	t.Parallel()
	data, err := Encode(nil)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEncodeDecode_PreservesDuplicatesAndOrder(t *testing.T) {
	t.Parallel()
	base := testSnapshot()
	s := Snapshot{base[1], base[0], base[1]}

	data, err := Encode(s)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestEncodeDecode_Unicode(t *testing.T) {
	t.Parallel()
	s := Snapshot{{
		Path:       "src/ünïcode.ts",
		Annotation: "// control ÆØ-1",
		Content:    "const greeting = \"héllo, 世界\";",
		Start:      Position{Row: 10, Column: 2},
		End:        Position{Row: 10, Column: 38},
	}}

	data, err := Encode(s)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

// =============================================================================
// Error classes
// =============================================================================

func TestDecode_TruncatedCompressedStream(t *testing.T) {
	t.Parallel()
	data, err := Encode(testSnapshot())
	require.NoError(t, err)

	_, err = Decode(data[:len(data)/2])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecompress)
}

func TestDecode_NotASnapshot(t *testing.T) {
	t.Parallel()
	_, err := Decode(compress(t, []byte("just some compressed text")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSnapshot)
}

func TestDecode_UnknownVersion(t *testing.T) {
	t.Parallel()
	raw := append([]byte("CTLS"), protowire.AppendVarint(nil, 99)...)

	_, err := Decode(compress(t, raw))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVersion)
}

func TestDecode_TruncatedRecord(t *testing.T) {
	t.Parallel()
	raw := marshal(testSnapshot())
	raw = raw[:len(raw)-5]

	_, err := Decode(compress(t, raw))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_GarbageInput(t *testing.T) {
	t.Parallel()
	_, err := Decode([]byte("this was never a snapshot file"))
	require.Error(t, err)
	assert.True(t, isCodecError(err), "expected a codec error, got %v", err)
}

func isCodecError(err error) bool {
	for _, target := range []error{ErrDecompress, ErrNotSnapshot, ErrVersion, ErrMalformed} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	t.Parallel()
	s := testSnapshot()[:1]
	raw := marshal(s)
	// A future writer may append fields this reader does not know.
	raw = protowire.AppendTag(raw, 15, protowire.VarintType)
	raw = protowire.AppendVarint(raw, 42)

	got, err := Decode(compress(t, raw))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

// =============================================================================
// Files
// =============================================================================

func TestWriteFileReadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultPath)

	require.NoError(t, WriteFile(path, testSnapshot()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(), got)

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_Overwrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultPath)

	require.NoError(t, WriteFile(path, testSnapshot()))
	require.NoError(t, WriteFile(path, testSnapshot()[:1]))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	t.Parallel()
	err := WriteFile(filepath.Join(t.TempDir(), "missing", DefaultPath), testSnapshot())
	require.Error(t, err)
}

func TestRegion_Lines(t *testing.T) {
	t.Parallel()
	r := testSnapshot()[0]
	start, end := r.Lines()
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)
	assert.Equal(t, "src/subdirectory/submodule.js;2:4", r.String())
}
