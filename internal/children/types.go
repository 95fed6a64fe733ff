package children

import (
	"fmt"
	"time"
)

// Child is a sponsorable child record.
type Child struct {
	ID                 int64
	Name               string
	Age                int
	Gender             string
	Country            string
	ProfileDescription string
	DateOfBirth        time.Time
	ImagePath          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DetailPath returns the site-relative URL of the child's detail page.
func (c Child) DetailPath() string {
	return fmt.Sprintf("/sponsors/children/%d/", c.ID)
}

// Filter narrows a child query. Zero-valued fields are not applied;
// an entirely zero Filter means "no structured constraint".
type Filter struct {
	Gender     string
	Country    string
	MinAge     *int
	MaxAge     *int
	BirthMonth *int
	BirthDay   *int
}

// Empty reports whether no constraint is set.
func (f Filter) Empty() bool {
	return f.Gender == "" && f.Country == "" &&
		f.MinAge == nil && f.MaxAge == nil &&
		f.BirthMonth == nil && f.BirthDay == nil
}

// GenderGroup maps the public listing filter values ("Boys", "Girls",
// "Other") to the stored gender names.
var GenderGroup = map[string]string{
	"Boys":  "Male",
	"Girls": "Female",
	"Other": "Other",
}

// ListQuery holds paging filters for the public children listing.
type ListQuery struct {
	Filter
	Keywords string // space-separated words matched against name and profile
	Limit    int
	Offset   int
}
