package projects

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"opensesame/internal/apperror"

	sq "github.com/Masterminds/squirrel"
)

// MsgQueryFailed is shown for every rejected filter.
const MsgQueryFailed = "Unable to query for projects."

var filterPattern = regexp.MustCompile(`^[A-Za-z]+ (>|>=|!=|=|<|<=) \S+$`)

// queryableFields maps the public field names a filter may name to their
// columns. All of them are integer counts.
var queryableFields = map[string]string{
	"numMentors":         "num_mentors",
	"numInterestedUsers": "num_interested_users",
	"numContributors":    "num_contributors",
}

// Filter is one parsed "field <op> value" condition.
type Filter struct {
	Field    string
	Operator string
	Value    int64
}

// ParseFilter reads a filter such as "numMentors >= 2". Anything malformed,
// naming an unknown field or carrying a non-integer value is a validation
// error.
func ParseFilter(raw string) (Filter, error) {
	if !filterPattern.MatchString(raw) {
		return Filter{}, apperror.NewValidationError("Invalid filter query.", MsgQueryFailed)
	}

	parts := strings.Split(raw, " ")
	field, op, rawValue := parts[0], parts[1], parts[2]

	if _, ok := queryableFields[field]; !ok {
		return Filter{}, apperror.NewValidationError(
			fmt.Sprintf("Cannot filter by the field '%s'.", field), MsgQueryFailed)
	}

	value, err := strconv.ParseInt(rawValue, 10, 32)
	if err != nil {
		return Filter{}, apperror.NewValidationError(
			fmt.Sprintf("Cannot parse the comparison value '%s' for the field '%s'.", rawValue, field), MsgQueryFailed)
	}

	return Filter{Field: field, Operator: op, Value: value}, nil
}

// ParseFilters parses every raw filter, stopping at the first bad one.
func ParseFilters(raw []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(raw))
	for _, r := range raw {
		f, err := ParseFilter(r)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %d", f.Field, f.Operator, f.Value)
}

// Sqlizer turns the filter into a WHERE condition on its column.
func (f Filter) Sqlizer() sq.Sqlizer {
	column := queryableFields[f.Field]
	switch f.Operator {
	case "=":
		return sq.Eq{column: f.Value}
	case "!=":
		return sq.NotEq{column: f.Value}
	case ">":
		return sq.Gt{column: f.Value}
	case ">=":
		return sq.GtOrEq{column: f.Value}
	case "<":
		return sq.Lt{column: f.Value}
	default:
		return sq.LtOrEq{column: f.Value}
	}
}
