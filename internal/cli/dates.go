package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

var errUnrecognizedDate = errors.New("unrecognized date")

// clearDate is the flag value that removes a node date.
const clearDate = "none"

var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// parseDate accepts YYYY-MM-DD, RFC 3339 or an English expression such as
// "next friday" resolved against now. Empty input and "none" yield nil.
func parseDate(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, clearDate) {
		return nil, nil
	}
	for _, layout := range []string{types.DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}

	r, err := dateParser.Parse(s, now)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %q", errUnrecognizedDate, s)
	}
	t := r.Time
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(types.DateLayout)
}
