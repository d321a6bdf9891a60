// Package steps derives wizard steps from a flat field list, using heading
// fields as section boundaries.
package steps

import (
	"strconv"

	"github.com/dukex/formflow/pkg/models"
)

// Step is a contiguous run of fields presented together.
type Step struct {
	Index  int                 `json:"index"`
	Title  string              `json:"title"`
	Fields []*models.FormField `json:"fields"`
}

// Partition splits fields into steps. A heading opens a new step unless the
// current step is still empty, so a leading heading never produces an empty
// step. Concatenating the returned steps yields fields unchanged.
func Partition(fields []*models.FormField) []Step {
	if len(fields) == 0 {
		return []Step{}
	}

	result := make([]Step, 0, 1)
	current := make([]*models.FormField, 0, len(fields))

	flush := func() {
		index := len(result)
		result = append(result, Step{
			Index:  index,
			Title:  title(current, index),
			Fields: current,
		})
	}

	for _, field := range fields {
		if field.IsHeading() && len(current) > 0 {
			flush()

			current = make([]*models.FormField, 0, len(fields))
		}

		current = append(current, field)
	}

	flush()

	return result
}

// Titles returns the display title of every step.
func Titles(steps []Step) []string {
	titles := make([]string, len(steps))
	for i, step := range steps {
		titles[i] = step.Title
	}

	return titles
}

// Flatten concatenates the fields of steps in order.
func Flatten(steps []Step) []*models.FormField {
	var fields []*models.FormField
	for _, step := range steps {
		fields = append(fields, step.Fields...)
	}

	return fields
}

func title(fields []*models.FormField, index int) string {
	for _, field := range fields {
		if field.IsHeading() {
			return field.Label
		}
	}

	return "Step " + strconv.Itoa(index+1)
}
