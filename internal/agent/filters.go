package agent

import (
	"strings"

	"github.com/charitybridge/nico/internal/children"
)

// buildChildFilter translates fetch_children arguments into a relational
// filter. Each rule applies independently:
//   - gender and country are skipped when blank or equal to "all"
//     (case-insensitively); the model sometimes sends "all" instead of
//     omitting the field.
//   - the integer fields were already type-checked at the parse boundary;
//     birth month/day ranges are enforced by the tool schema upstream and
//     not re-validated here.
//
// An empty filter means "no structured constraint" and is a meaningful
// signal to the fusion step, distinct from "filters matched nothing".
func buildChildFilter(call FetchChildrenCall) children.Filter {
	var f children.Filter

	if call.Gender != "" && !strings.EqualFold(call.Gender, "all") {
		f.Gender = call.Gender
	}
	if call.Country != "" && !strings.EqualFold(call.Country, "all") {
		f.Country = call.Country
	}
	f.MinAge = call.MinAge
	f.MaxAge = call.MaxAge
	f.BirthMonth = call.BirthMonth
	f.BirthDay = call.BirthDay

	return f
}
