package exec

import (
	"strconv"
	"strings"
	"time"

	"github.com/queryflow/pipeql/ast"
	"github.com/queryflow/pipeql/perr"
	"github.com/queryflow/pipeql/table"
)

// resolveSearchSource retrieves the named index/cache from the registry
// (search.py treats "index" as a registry/cache key, not an external
// index) and applies the optional latest=/earliest= time-window filter
// spelled out in spec.md §4: for latest=, a negative relative offset
// ("-1h") is a lower bound, everything else (absolute timestamp, or a
// non-negative relative offset) is an upper bound; earliest= is always
// a lower bound.
func resolveSearchSource(c *Context, src *ast.SourceNode) (*table.Table, error) {
	t, ok := c.Registry.Get(src.SourceName)
	if !ok {
		return nil, perr.ResolutionField("index/cache not found: "+src.SourceName, src.SourceName)
	}
	t = t.Clone()

	timeField := c.Config.DefaultTimeField
	timeIdx := t.ColumnIndex(timeField)
	if timeIdx < 0 {
		return t, nil
	}

	now := c.Config.Now()
	var lowerBound, upperBound *time.Time
	if v, ok := src.Parameters["latest"]; ok {
		bound, isLower, err := resolveTimeBound(v.(string), now)
		if err != nil {
			return nil, err
		}
		if isLower {
			lowerBound = &bound
		} else {
			upperBound = &bound
		}
	}
	if v, ok := src.Parameters["earliest"]; ok {
		bound, _, err := resolveTimeBound(v.(string), now)
		if err != nil {
			return nil, err
		}
		lowerBound = &bound
	}
	if lowerBound == nil && upperBound == nil {
		return t, nil
	}
	return t.Filter(func(row []any) bool {
		ts, ok := row[timeIdx].(time.Time)
		if !ok {
			return false
		}
		if lowerBound != nil && ts.Before(*lowerBound) {
			return false
		}
		if upperBound != nil && ts.After(*upperBound) {
			return false
		}
		return true
	}), nil
}

// resolveTimeBound parses a latest=/earliest= value into an absolute
// time.Time plus whether it acts as a lower bound (true for a negative
// relative offset) or upper bound (absolute timestamps and non-negative
// relative offsets).
func resolveTimeBound(spec string, now time.Time) (time.Time, bool, error) {
	spec = strings.TrimSpace(spec)
	if d, ok := parseRelativeOffset(spec); ok {
		isLower := d < 0
		return now.Add(d), isLower, nil
	}
	t, err := time.Parse(time.RFC3339, spec)
	if err != nil {
		return time.Time{}, false, perr.SemanticCommand("invalid time bound: "+spec, "search")
	}
	return t, false, nil
}

// parseRelativeOffset parses a relative time offset like "-1h" or "30m"
// into a signed time.Duration. Returns ok=false for anything that isn't
// a sign-prefixed (or unsigned) number followed by a single unit char.
func parseRelativeOffset(spec string) (time.Duration, bool) {
	s := spec
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if len(s) < 2 {
		return 0, false
	}
	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, false
	}
	var d time.Duration
	switch unit {
	case 's':
		d = time.Duration(n) * time.Second
	case 'm':
		d = time.Duration(n) * time.Minute
	case 'h':
		d = time.Duration(n) * time.Hour
	case 'd':
		d = time.Duration(n) * 24 * time.Hour
	case 'w':
		d = time.Duration(n) * 7 * 24 * time.Hour
	default:
		return 0, false
	}
	if neg {
		d = -d
	}
	return d, true
}
