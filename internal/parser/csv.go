package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docbind/internal/doctree"
)

// CSVParser turns a CSV file into a single table. The first record is the
// header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]doctree.Node, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return []doctree.Node{}, nil
	}

	rows := records[1:]
	if len(rows) == 0 {
		rows = [][]string{}
	}
	return []doctree.Node{doctree.Table{Header: records[0], Rows: rows}}, nil
}
