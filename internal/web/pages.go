package web

import (
	"context"
	"io"

	"opensesame/internal/signup"

	"github.com/a-h/templ"
)

// SignupView is everything the sign-up page shows.
type SignupView struct {
	Form signup.FormState
	// IdentityToken is posted as a hidden field when an account is linked.
	IdentityToken string
	Login         string
	LinkURL       string
	UnlinkURL     string
}

// SignupPage renders the link control and the sign-up form. The link control
// is a GET to the provider login when unlinked and a POST to logout when
// linked, so it works without scripts.
func SignupPage(v SignupView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<h1>Create your profile</h1>`); err != nil {
			return err
		}
		if err := linkControl(v).Render(ctx, w); err != nil {
			return err
		}

		err := write(w,
			`<form id="signup-form" method="post" action="`, templ.EscapeString(signup.UserPath), `">`,
			`<input type="hidden" name="`, signup.FieldIdentityToken, `" value="`, templ.EscapeString(v.IdentityToken), `">`,
			`<fieldset><legend>Interests</legend>`,
		)
		if err != nil {
			return err
		}

		for _, cb := range v.Form.Checkboxes {
			checked := ""
			if cb.Checked {
				checked = " checked"
			}
			err := write(w,
				`<div class="form-check">`,
				`<input class="form-check-input" type="checkbox" id="`, templ.EscapeString(cb.ID),
				`" name="`, templ.EscapeString(cb.ID), `" value="`, templ.EscapeString(cb.Value), `"`, checked, `>`,
				`<label class="form-check-label" for="`, templ.EscapeString(cb.ID), `">`, templ.EscapeString(cb.Label), `</label>`,
				`</div>`,
			)
			if err != nil {
				return err
			}
		}

		disabled := ""
		if !v.Form.SubmitEnabled {
			disabled = " disabled"
		}
		return write(w,
			`</fieldset>`,
			`<button id="`, signup.SubmitControlName, `" name="`, signup.SubmitControlName, `" type="submit" class="btn btn-primary"`, disabled, `>Create profile</button>`,
			`</form>`,
		)
	})
}

func linkControl(v SignupView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		disabled := ""
		if !v.Form.LinkEnabled {
			disabled = " disabled"
		}
		class := "btn " + string(v.Form.LinkStyle)

		if v.Form.Linked {
			return write(w,
				`<form id="link-form" method="post" action="`, templ.EscapeString(v.UnlinkURL), `">`,
				`<p class="linked-as">Linked as <strong>`, templ.EscapeString(v.Login), `</strong></p>`,
				`<button id="`, signup.LinkControlName, `" name="`, signup.LinkControlName, `" type="submit" class="`, templ.EscapeString(class), `"`, disabled, `>`,
				templ.EscapeString(v.Form.LinkLabel), `</button></form>`,
			)
		}

		return write(w,
			`<form id="link-form" method="get" action="`, templ.EscapeString(v.LinkURL), `">`,
			`<button id="`, signup.LinkControlName, `" name="`, signup.LinkControlName, `" type="submit" class="`, templ.EscapeString(class), `"`, disabled, `>`,
			templ.EscapeString(v.Form.LinkLabel), `</button></form>`,
		)
	})
}

// DashboardView is the signed-up user's landing page.
type DashboardView struct {
	Login        string
	InterestTags []string
}

func DashboardPage(v DashboardView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		name := v.Login
		if name == "" {
			name = "there"
		}
		if err := write(w, `<h1>Welcome, `, templ.EscapeString(name), `!</h1>`); err != nil {
			return err
		}

		if len(v.InterestTags) == 0 {
			return write(w, `<p class="no-interests">You have not picked any interests yet.</p>`)
		}

		if err := write(w, `<h2>Your interests</h2><ul class="interests">`); err != nil {
			return err
		}
		for _, tag := range v.InterestTags {
			if err := write(w, `<li>`, templ.EscapeString(tag), `</li>`); err != nil {
				return err
			}
		}
		return write(w, `</ul>`)
	})
}
