package diary

import (
	"testing"

	"github.com/keepfit/keepfit/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{
			name:  "valid exercise entry",
			entry: Entry{Date: "2024-01-01", Kind: KindExercise, ExerciseID: training.ExercisePush, Sets: 2, RepsPerSet: []int{10, 8}},
		},
		{
			name:  "exercise entry with sets only",
			entry: Entry{Date: "2024-01-01", Kind: KindExercise, ExerciseID: training.ExerciseSquat, Sets: 3},
		},
		{
			name:  "valid other activity",
			entry: Entry{Date: "2024-01-01", Kind: KindOther, ActivityName: "跑步", Duration: 30},
		},
		{
			name:    "exercise entry with no volume",
			entry:   Entry{Date: "2024-01-01", Kind: KindExercise, ExerciseID: training.ExercisePush},
			wantErr: ErrEmptyEntry,
		},
		{
			name:    "other activity without duration",
			entry:   Entry{Date: "2024-01-01", Kind: KindOther, ActivityName: "跑步"},
			wantErr: ErrMissingActivity,
		},
		{
			name:    "other activity without name",
			entry:   Entry{Date: "2024-01-01", Kind: KindOther, Duration: 30},
			wantErr: ErrMissingActivity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.entry.Validate()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("invalid date", func(t *testing.T) {
		entry := Entry{Date: "someday", Kind: KindOther, ActivityName: "跑步", Duration: 30}
		assert.Error(t, entry.Validate())
	})
	t.Run("unknown exercise", func(t *testing.T) {
		entry := Entry{Date: "2024-01-01", Kind: KindExercise, ExerciseID: "plank", Sets: 1}
		assert.Error(t, entry.Validate())
	})
	t.Run("unknown kind", func(t *testing.T) {
		entry := Entry{Date: "2024-01-01", Kind: "note"}
		assert.Error(t, entry.Validate())
	})
}
