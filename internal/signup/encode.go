package signup

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

// Encode turns body into form values: identityToken once, and one
// interestTags value per tag in order. Arrays are never JSON-encoded.
func Encode(body RequestBody) (url.Values, error) {
	values := url.Values{}
	if err := schema.NewEncoder().Encode(body, values); err != nil {
		return nil, fmt.Errorf("signup: encode body: %w", err)
	}
	return values, nil
}

// Decode is the inverse of Encode. Unknown fields are ignored.
//
// A browser posting the rendered page sends each ticked box under its own
// name (check1, check3, ...) instead of interestTags. Those values are
// appended in checkbox order.
func Decode(values url.Values) (RequestBody, error) {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	var body RequestBody
	if err := dec.Decode(&body, values); err != nil {
		return RequestBody{}, fmt.Errorf("signup: decode body: %w", err)
	}
	body.InterestTags = append(body.InterestTags, checkboxValues(values)...)
	return body, nil
}

func checkboxValues(values url.Values) []string {
	type box struct {
		pos   int
		value string
	}
	var boxes []box
	for name, vs := range values {
		n, ok := strings.CutPrefix(name, CheckboxPrefix)
		if !ok || len(vs) == 0 {
			continue
		}
		pos, err := strconv.Atoi(n)
		if err != nil || pos < 1 {
			continue
		}
		boxes = append(boxes, box{pos: pos, value: vs[0]})
	}

	slices.SortFunc(boxes, func(a, b box) int { return a.pos - b.pos })
	out := make([]string, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, b.value)
	}
	return out
}
