package defects_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/defectmap/internal/defects"
)

func TestTally_Ranked(t *testing.T) {
	t.Parallel()

	tally := defects.NewTally()

	for _, p := range []string{
		"//depot/a.c", "//depot/b.c", "//depot/a.c", "//depot/c.c",
		"//depot/b.c", "//depot/a.c", "//depot/d.c", "//depot/d.c",
	} {
		tally.Add(p)
	}

	assert.Equal(t, []defects.Entry{
		{Path: "//depot/a.c", Count: 3},
		{Path: "//depot/b.c", Count: 2},
		{Path: "//depot/d.c", Count: 2},
	}, tally.Ranked(defects.DefaultMinCount))

	assert.Len(t, tally.Ranked(1), 4)
	assert.Equal(t, 4, tally.Len())
	assert.Equal(t, 8, tally.Total())
	assert.Equal(t, 1, tally.Count("//depot/c.c"))
	assert.Zero(t, tally.Count("//depot/missing.c"))
}

func TestTally_RankedOmitsSingleTouches(t *testing.T) {
	t.Parallel()

	tally := defects.NewTally()
	tally.Add("//depot/once.c")

	assert.Empty(t, tally.Ranked(defects.DefaultMinCount))
}

func TestTally_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	const workers, perWorker = 8, 250

	tally := defects.NewTally()

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range perWorker {
				tally.Add(fmt.Sprintf("//depot/f%d.c", (w+i)%10))
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, workers*perWorker, tally.Total())
	assert.Equal(t, 10, tally.Len())

	sum := 0
	for _, entry := range tally.Ranked(1) {
		sum += entry.Count
	}

	assert.Equal(t, workers*perWorker, sum)
}
