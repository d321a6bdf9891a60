package steps_test

import (
	"strconv"
	"testing"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/steps"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(id string, kind models.FieldKind, label string) *models.FormField {
	return &models.FormField{ID: id, Kind: kind, Label: label}
}

func ids(parts []steps.Step) [][]string {
	out := make([][]string, len(parts))
	for i, step := range parts {
		for _, f := range step.Fields {
			out[i] = append(out[i], f.ID)
		}
	}

	return out
}

func TestPartition(t *testing.T) {
	t.Parallel()

	h1 := field("h1", models.KindHeading, "Intro")
	a := field("a", models.KindText, "A")
	b := field("b", models.KindEmail, "B")
	h2 := field("h2", models.KindHeading, "Details")
	c := field("c", models.KindNumber, "C")

	tests := []struct {
		name           string
		fields         []*models.FormField
		expectedIDs    [][]string
		expectedTitles []string
	}{
		{
			name:           "headings open steps",
			fields:         []*models.FormField{h1, a, b, h2, c},
			expectedIDs:    [][]string{{"h1", "a", "b"}, {"h2", "c"}},
			expectedTitles: []string{"Intro", "Details"},
		},
		{
			name:           "no headings is a single step",
			fields:         []*models.FormField{a, b},
			expectedIDs:    [][]string{{"a", "b"}},
			expectedTitles: []string{"Step 1"},
		},
		{
			name:           "fields before the first heading get a synthesized title",
			fields:         []*models.FormField{a, h2, c},
			expectedIDs:    [][]string{{"a"}, {"h2", "c"}},
			expectedTitles: []string{"Step 1", "Details"},
		},
		{
			name:           "consecutive headings each open a step",
			fields:         []*models.FormField{h1, h2, c},
			expectedIDs:    [][]string{{"h1"}, {"h2", "c"}},
			expectedTitles: []string{"Intro", "Details"},
		},
		{
			name:           "trailing heading forms its own step",
			fields:         []*models.FormField{a, h2},
			expectedIDs:    [][]string{{"a"}, {"h2"}},
			expectedTitles: []string{"Step 1", "Details"},
		},
		{
			name:           "lone heading",
			fields:         []*models.FormField{h1},
			expectedIDs:    [][]string{{"h1"}},
			expectedTitles: []string{"Intro"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := steps.Partition(tt.fields)

			if diff := cmp.Diff(tt.expectedIDs, ids(result)); diff != "" {
				t.Errorf("unexpected partition (-want +got):\n%s", diff)
			}

			assert.Equal(t, tt.expectedTitles, steps.Titles(result))

			for i, step := range result {
				assert.Equal(t, i, step.Index)
			}
		})
	}
}

func TestPartition_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, steps.Partition(nil))
	assert.Empty(t, steps.Partition([]*models.FormField{}))
}

func TestPartition_Lossless(t *testing.T) {
	t.Parallel()

	kinds := []models.FieldKind{models.KindHeading, models.KindText, models.KindSelect, models.KindFile}

	// Every arrangement of up to six fields drawn from the kinds above.
	for n := 0; n <= 6; n++ {
		total := 1
		for range n {
			total *= len(kinds)
		}

		for combo := range total {
			fields := make([]*models.FormField, n)
			rest := combo

			for i := range n {
				kind := kinds[rest%len(kinds)]
				rest /= len(kinds)
				fields[i] = field(strconv.Itoa(i), kind, "L"+strconv.Itoa(i))
			}

			result := steps.Partition(fields)
			flat := steps.Flatten(result)

			require.Len(t, flat, len(fields))

			for i := range fields {
				require.Same(t, fields[i], flat[i])
			}

			for _, step := range result {
				require.NotEmpty(t, step.Fields)

				for j, f := range step.Fields {
					if j > 0 {
						require.False(t, f.IsHeading(), "heading must open its step")
					}
				}
			}
		}
	}
}
