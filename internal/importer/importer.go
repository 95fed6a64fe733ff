// Package importer loads the children and FAQ catalogs from CSV files
// and rebuilds the semantic search index from the datastore.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
	"github.com/charitybridge/nico/internal/progress"
)

// Importer writes CSV records into the datastore.
type Importer struct {
	children *children.Store
	faqs     *faqs.Store
	reporter progress.Reporter
}

// New creates an Importer. A nil reporter disables progress output.
func New(childStore *children.Store, faqStore *faqs.Store, reporter progress.Reporter) *Importer {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	return &Importer{children: childStore, faqs: faqStore, reporter: reporter}
}

// ImportChildren loads children from a CSV file with a header row and
// columns: name, age, gender, country, date_of_birth, profile_description,
// image_path. Rows with missing required fields are rejected with their
// line number; nothing is written unless the whole file parses.
func (im *Importer) ImportChildren(ctx context.Context, path string) (int, error) {
	records, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	parsed := make([]children.Child, 0, len(records))
	for i, row := range records {
		c, err := parseChildRow(row)
		if err != nil {
			// Header is line 1.
			return 0, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		parsed = append(parsed, c)
	}

	im.reporter.Start(len(parsed))
	for i, c := range parsed {
		if _, err := im.children.Insert(ctx, c); err != nil {
			return i, fmt.Errorf("inserting child %q: %w", c.Name, err)
		}
		im.reporter.Update(i+1, c.Name)
	}
	im.reporter.Finish()
	return len(parsed), nil
}

// ImportFAQs loads FAQ entries from a CSV file with a header row and
// columns: question, answer.
func (im *Importer) ImportFAQs(ctx context.Context, path string) (int, error) {
	records, err := readCSV(path)
	if err != nil {
		return 0, err
	}

	parsed := make([]faqs.FAQ, 0, len(records))
	for i, row := range records {
		if len(row) < 2 {
			return 0, fmt.Errorf("%s line %d: expected question,answer", path, i+2)
		}
		question := strings.TrimSpace(row[0])
		answer := strings.TrimSpace(row[1])
		if question == "" || answer == "" {
			return 0, fmt.Errorf("%s line %d: question and answer cannot be empty", path, i+2)
		}
		parsed = append(parsed, faqs.FAQ{Question: question, Answer: answer})
	}

	im.reporter.Start(len(parsed))
	for i, f := range parsed {
		if _, err := im.faqs.Insert(ctx, f); err != nil {
			return i, fmt.Errorf("inserting faq %q: %w", f.Question, err)
		}
		im.reporter.Update(i+1, "")
	}
	im.reporter.Finish()
	return len(parsed), nil
}

func parseChildRow(row []string) (children.Child, error) {
	if len(row) < 6 {
		return children.Child{}, fmt.Errorf("expected name,age,gender,country,date_of_birth,profile_description[,image_path]")
	}
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	if row[0] == "" || row[2] == "" || row[3] == "" {
		return children.Child{}, fmt.Errorf("name, gender and country cannot be empty")
	}
	age, err := strconv.Atoi(row[1])
	if err != nil || age < 0 {
		return children.Child{}, fmt.Errorf("invalid age %q", row[1])
	}
	dob, err := time.Parse("2006-01-02", row[4])
	if err != nil {
		return children.Child{}, fmt.Errorf("invalid date_of_birth %q", row[4])
	}

	c := children.Child{
		Name:               row[0],
		Age:                age,
		Gender:             row[2],
		Country:            row[3],
		DateOfBirth:        dob,
		ProfileDescription: row[5],
	}
	if len(row) > 6 {
		c.ImagePath = row[6]
	}
	return c, nil
}

// readCSV returns all data rows, skipping the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}

	var records [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		records = append(records, row)
	}
	return records, nil
}
