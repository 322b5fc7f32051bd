// Package signup holds the sign-up flow: linking an identity-provider account,
// picking interest tags and submitting both to the backend's /user endpoint.
// It knows nothing about how the form is drawn; callers render Form and call
// the controller and workflow from their own event sources.
package signup

import (
	"fmt"
	"strings"
)

const (
	// UserPath is the backend endpoint a RequestBody is posted to.
	UserPath = "/user"
	// AfterSignupRedirect is where a successful submission navigates.
	AfterSignupRedirect = "/dashboard.html"

	FieldIdentityToken = "identityToken"
	FieldInterestTags  = "interestTags"

	// Names of the page's form controls. Tag checkboxes are named
	// CheckboxPrefix followed by their 1-based position.
	LinkControlName   = "github-link-button"
	SubmitControlName = "submit-button"
	CheckboxPrefix    = "check"
)

// User is the identity-provider account currently linked. A nil *User means
// nothing is linked.
type User struct {
	ID    string
	Login string
	Email string
}

// RequestBody is the payload of one submission.
type RequestBody struct {
	IdentityToken string   `schema:"identityToken"`
	InterestTags  []string `schema:"interestTags,omitempty"`
}

// NewRequestBody refuses to build a body without an identity token.
func NewRequestBody(identityToken string, interestTags []string) (RequestBody, error) {
	if strings.TrimSpace(identityToken) == "" {
		return RequestBody{}, &ValidationError{Field: FieldIdentityToken, UserMessage: MsgLinkFirst}
	}

	tags := make([]string, len(interestTags))
	copy(tags, interestTags)

	return RequestBody{IdentityToken: identityToken, InterestTags: tags}, nil
}

// TagCheckbox is one declared interest-tag control.
type TagCheckbox struct {
	ID      string
	Value   string
	Label   string
	Checked bool
}

// NewTagCheckboxes declares one unchecked checkbox per value, with ids
// check1..checkN in the given order.
func NewTagCheckboxes(values ...string) []TagCheckbox {
	out := make([]TagCheckbox, 0, len(values))
	for i, v := range values {
		out = append(out, TagCheckbox{
			ID:    fmt.Sprintf("%s%d", CheckboxPrefix, i+1),
			Value: v,
			Label: v,
		})
	}
	return out
}
