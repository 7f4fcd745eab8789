package p4_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/defectmap/internal/p4"
)

const filesOutput = "//depot/main/app/save.c#12 - edit change 1001 (text)\n" +
	"//depot/main/app/load.c#3 - edit change 1001 (text)\r\n" +
	"//depot/main/app/save.c#13 - edit change 1002 (text)\n" +
	"//depot/main/lib/util.h#7 - integrate change 1002 (text)\n" +
	"//depot/main/app/save.c#14 - edit change 1003 (text)\n" +
	"//depot/main/lib/util.h#8 - edit change 1003 (text)"

func collectLines(t *testing.T, chunks [][]byte) []string {
	t.Helper()

	var lines []string

	lw := p4.NewLineWriter(func(line string) error {
		lines = append(lines, line)

		return nil
	})

	for _, c := range chunks {
		n, err := lw.Write(c)
		require.NoError(t, err)
		require.Equal(t, len(c), n)
	}

	require.NoError(t, lw.Close())

	return lines
}

func chunked(data []byte, size int) [][]byte {
	var out [][]byte

	for len(data) > 0 {
		n := min(size, len(data))
		out = append(out, data[:n])
		data = data[n:]
	}

	return out
}

func countPaths(t *testing.T, lines []string) map[string]int {
	t.Helper()

	counts := make(map[string]int)

	for _, line := range lines {
		rev, err := p4.ParseFileRev(line)
		require.NoError(t, err)

		counts[rev.Path]++
	}

	return counts
}

func TestLineWriter_WholeOutput(t *testing.T) {
	t.Parallel()

	lines := collectLines(t, [][]byte{[]byte(filesOutput)})

	require.Len(t, lines, 6)
	assert.Equal(t, "//depot/main/app/load.c#3 - edit change 1001 (text)", lines[1])
	assert.Equal(t, "//depot/main/lib/util.h#8 - edit change 1003 (text)", lines[5])
}

func TestLineWriter_ChunkingPreservesCounts(t *testing.T) {
	t.Parallel()

	data := []byte(filesOutput)
	want := countPaths(t, collectLines(t, [][]byte{data}))

	require.Equal(t, map[string]int{
		"//depot/main/app/save.c": 3,
		"//depot/main/app/load.c": 1,
		"//depot/main/lib/util.h": 2,
	}, want)

	for size := 1; size <= len(data); size++ {
		got := countPaths(t, collectLines(t, chunked(data, size)))
		require.Equal(t, want, got, "chunk size %d", size)
	}
}

func TestLineWriter_IrregularChunks(t *testing.T) {
	t.Parallel()

	data := []byte(filesOutput)
	sizes := []int{7, 1, 60, 2, 33, 101, 5}

	var chunks [][]byte

	for i := 0; len(data) > 0; i++ {
		n := min(sizes[i%len(sizes)], len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}

	assert.Equal(t,
		collectLines(t, [][]byte{[]byte(filesOutput)}),
		collectLines(t, chunks),
	)
}

func TestLineWriter_SplitInsideCRLF(t *testing.T) {
	t.Parallel()

	lines := collectLines(t, [][]byte{[]byte("first\r"), []byte("\nsecond\r\n")})

	assert.Equal(t, []string{"first", "second"}, lines)
}

func TestLineWriter_EmptyLinesAreDelivered(t *testing.T) {
	t.Parallel()

	lines := collectLines(t, [][]byte{[]byte("a\n\nb\n")})

	assert.Equal(t, []string{"a", "", "b"}, lines)
}

func TestLineWriter_CloseWithoutPending(t *testing.T) {
	t.Parallel()

	calls := 0
	lw := p4.NewLineWriter(func(string) error {
		calls++

		return nil
	})

	_, err := lw.Write([]byte("only\n"))
	require.NoError(t, err)
	require.NoError(t, lw.Close())
	assert.Equal(t, 1, calls)
}

func TestLineWriter_CallbackErrorIsSticky(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	seen := 0

	lw := p4.NewLineWriter(func(string) error {
		seen++

		return errBoom
	})

	_, err := lw.Write([]byte("a\nb\n"))
	require.ErrorIs(t, err, errBoom)

	_, err = lw.Write([]byte("c\n"))
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, lw.Close(), errBoom)
	require.ErrorIs(t, lw.Err(), errBoom)
	assert.Equal(t, 1, seen)
}
