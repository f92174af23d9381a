package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spektr-org/clinicdash/engine"
)

// DateLayout is the accepted filter date format.
const DateLayout = "2006-01-02"

// ErrBadSelection is returned for a --select / select= value without a colon.
var ErrBadSelection = errors.New("selection must look like Column:Value")

// FilterRequest is the wire form of a dashboard filter.
type FilterRequest struct {
	Start      string              `json:"start" form:"start"`
	End        string              `json:"end" form:"end"`
	Categories map[string][]string `json:"categories" form:"-"`
}

// ToSpec converts the request into an engine filter. Both dates are
// optional; a malformed date is an error.
func (r FilterRequest) ToSpec() (engine.FilterSpec, error) {
	var spec engine.FilterSpec

	start, err := parseDay(r.Start)
	if err != nil {
		return spec, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDay(r.End)
	if err != nil {
		return spec, fmt.Errorf("invalid end date: %w", err)
	}
	spec.DateStart, spec.DateEnd = start, end

	for col, values := range r.Categories {
		col = strings.TrimSpace(col)
		if col == "" || len(values) == 0 {
			continue
		}
		if spec.Categories == nil {
			spec.Categories = make(map[string][]string)
		}
		spec.Categories[col] = append(spec.Categories[col], values...)
	}
	return spec, nil
}

func parseDay(s string) (engine.NullTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return engine.NullTime{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return engine.NullTime{}, err
	}
	return engine.Time(t), nil
}

// ParseSelections turns "Column:Value" pairs into a category filter map.
// Values may contain colons; only the first one splits.
func ParseSelections(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string)
	for _, p := range pairs {
		col, val, ok := strings.Cut(p, ":")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadSelection, p)
		}
		out[col] = append(out[col], strings.TrimSpace(val))
	}
	return out, nil
}
