package gtfsfilter

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingTable     = errors.New("missing table")
	ErrSelectionEmpty   = errors.New("selection empty")
	ErrInvalidCriterion = errors.New("invalid criterion")
)

// StageError reports a cascade stage that must keep at least one row but kept none.
type StageError struct {
	Stage     string
	Criterion string
	Missing   []string // requested identifiers that matched nothing
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: no rows of %s.txt remain for %s", ErrSelectionEmpty, e.Stage, e.Criterion)
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(" (missing identifiers: [%s])", strings.Join(e.Missing, ", "))
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return ErrSelectionEmpty
}

func requireNonEmpty(table string, rowCount int, criterion string) error {
	if rowCount == 0 {
		return &StageError{Stage: table, Criterion: criterion}
	}
	return nil
}

func requireTables(feed *Feed) error {
	for _, name := range requiredTables() {
		if _, ok := feed.Table(name); !ok {
			return fmt.Errorf("%w: %s.txt was not found in the feed", ErrMissingTable, name)
		}
	}
	return nil
}
