package energy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/lassnet/powerdash/pkg/errors"
)

func TestResolveLookback(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, DefaultLocation)

	for _, n := range []int{1, 2, 7, 31} {
		dates, err := Resolve("ignored", n, now)
		require.NoError(t, err)
		require.Len(t, dates, n+1)
		for i := 1; i < len(dates); i++ {
			require.True(t, dates[i].After(dates[i-1]))
			require.Equal(t, 24*time.Hour, dates[i].Sub(dates[i-1]))
		}
		require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, DefaultLocation), dates[len(dates)-1])
	}
}

func TestResolveLookbackCrossesMonth(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 1, 0, DefaultLocation)

	dates, err := Resolve("", 2, now)
	require.NoError(t, err)
	require.Equal(t, []string{"2024/02/28", "2024/02/29", "2024/03/01"}, dates.Strings())
}

func TestResolveSingleDate(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, DefaultLocation)

	dates, err := Resolve("2024/01/01", 0, now)
	require.NoError(t, err)
	require.Equal(t, DateRange{time.Date(2024, 1, 1, 0, 0, 0, 0, DefaultLocation)}, dates)

	dates, err = Resolve(" 2023/12/31 ", -1, now)
	require.NoError(t, err)
	require.Len(t, dates, 1)
}

func TestResolveSingleDateInvalid(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 0, 0, DefaultLocation)

	for _, ref := range []string{"", "2024-01-01", "2024/13/01", "yesterday"} {
		_, err := Resolve(ref, 0, now)
		require.Error(t, err, ref)
		require.True(t, apperrors.IsCode(err, apperrors.CodeParse), ref)
	}
}
