package p4_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/defectmap/internal/p4"
)

func TestParseChangeHeader_ShortForm(t *testing.T) {
	t.Parallel()

	change, complete, err := p4.ParseChangeHeader(
		"Change 45210 on 2019/08/05 by jdoe@jdoe-ws 'DE1234 fix crash on save '")
	require.NoError(t, err)

	assert.True(t, complete)
	assert.Equal(t, p4.Change{
		Number:      45210,
		Date:        "2019/08/05",
		User:        "jdoe",
		Client:      "jdoe-ws",
		Description: "DE1234 fix crash on save",
	}, change)
}

func TestParseChangeHeader_WithTimeAndPending(t *testing.T) {
	t.Parallel()

	change, complete, err := p4.ParseChangeHeader(
		"Change 7 on 2020/01/02 10:11:12 by a.b@ws-1 *pending* 'wip '")
	require.NoError(t, err)

	assert.True(t, complete)
	assert.True(t, change.Pending)
	assert.Equal(t, 7, change.Number)
	assert.Equal(t, "wip", change.Description)
}

func TestParseChangeHeader_LongForm(t *testing.T) {
	t.Parallel()

	change, complete, err := p4.ParseChangeHeader("Change 99 on 2021/03/04 by ci@build")
	require.NoError(t, err)

	assert.False(t, complete)
	assert.Equal(t, 99, change.Number)
	assert.Empty(t, change.Description)
}

func TestParseChangeHeader_Malformed(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"Change abc on 2019/08/05 by jdoe@ws 'x'",
		"Change 12 by jdoe@ws 'x'",
		"Change 12 on 2019/08/05 'x'",
	} {
		_, _, err := p4.ParseChangeHeader(line)
		require.ErrorIs(t, err, p4.ErrMalformedChange, line)
	}
}

func scanAll(t *testing.T, lines ...string) []p4.Change {
	t.Helper()

	var got []p4.Change

	scanner := p4.NewChangeScanner(func(c p4.Change) error {
		got = append(got, c)

		return nil
	})

	for _, line := range lines {
		require.NoError(t, scanner.Line(line))
	}

	require.NoError(t, scanner.Close())

	return got
}

func TestChangeScanner_ShortForm(t *testing.T) {
	t.Parallel()

	got := scanAll(t,
		"Change 3 on 2019/08/07 by a@w 'DE4321 null deref '",
		"Change 2 on 2019/08/06 by b@w 'Add feature toggle '",
		"",
	)

	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Number)
	assert.Equal(t, "DE4321 null deref", got[0].Description)
	assert.Equal(t, 2, got[1].Number)
}

func TestChangeScanner_LongForm(t *testing.T) {
	t.Parallel()

	got := scanAll(t,
		"Change 11 on 2019/08/07 by a@w",
		"",
		"\tRefactor the save path.",
		"\tFixes DE 98765 reported by QA.",
		"",
		"Change 10 on 2019/08/06 by b@w",
		"",
		"\tUpdate docs",
		"",
	)

	require.Len(t, got, 2)
	assert.Equal(t, 11, got[0].Number)
	assert.Equal(t, "Refactor the save path.\nFixes DE 98765 reported by QA.", got[0].Description)
	assert.Equal(t, 10, got[1].Number)
	assert.Equal(t, "Update docs", got[1].Description)
}

func TestChangeScanner_IgnoresStrayLines(t *testing.T) {
	t.Parallel()

	got := scanAll(t, "Perforce client warning", "\tindented noise")

	assert.Empty(t, got)
}

func TestChangeScanner_MalformedHeader(t *testing.T) {
	t.Parallel()

	scanner := p4.NewChangeScanner(func(p4.Change) error { return nil })

	err := scanner.Line("Change ??? on yesterday")
	require.ErrorIs(t, err, p4.ErrMalformedChange)
}
