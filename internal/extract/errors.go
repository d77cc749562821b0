package extract

import "errors"

var (
	// ErrNoTable is returned when the document contains no <table> element.
	ErrNoTable = errors.New("no table found in document")

	// ErrEmptyGrid is returned when the located table has no rows.
	ErrEmptyGrid = errors.New("table has no rows")

	// ErrNoDateColumn is returned when no column can serve as the date field.
	ErrNoDateColumn = errors.New("no usable date column")
)
