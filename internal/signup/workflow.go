package signup

import (
	"context"
	"errors"
	"sync"

	"opensesame/internal/logger"
)

// Navigator moves the user to another page. An error means the navigation
// was cancelled and the current page is still showing.
type Navigator interface {
	Navigate(path string) error
}

// Workflow runs one submission at a time:
// Idle -> Submitting (both controls disabled) -> Idle (both re-enabled).
type Workflow struct {
	form      *Form
	provider  IdentityProvider
	poster    UserPoster
	notifier  Notifier
	navigator Navigator

	mu         sync.Mutex
	submitting bool
}

func NewWorkflow(form *Form, provider IdentityProvider, poster UserPoster, notifier Notifier, navigator Navigator) *Workflow {
	return &Workflow{
		form:      form,
		provider:  provider,
		poster:    poster,
		notifier:  notifier,
		navigator: navigator,
	}
}

// Submitting reports whether a submission has started and not been finalized.
func (w *Workflow) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Submit validates the form, posts it once and navigates to
// AfterSignupRedirect on success.
//
// A failed validation or request is reported to the user once and both
// controls are re-enabled. After a successful navigation the workflow stays
// in Submitting: the page it served is gone. If navigation fails the controls
// are re-enabled and the navigation error is returned.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	w.submitting = true
	w.mu.Unlock()

	w.form.beginSubmit()

	body, err := w.buildBody()
	if err != nil {
		w.finalize()
		return err
	}

	if err := w.poster.PostUser(ctx, body); err != nil {
		te := asTransportError(err)
		logger.Error("signup request failed", map[string]any{
			"status_code": te.StatusCode,
			"error":       te.Err,
		})
		w.notifier.Alert(te.UserMessage)
		w.finalize()
		return te
	}

	if err := w.navigator.Navigate(AfterSignupRedirect); err != nil {
		logger.Warn("post-signup navigation cancelled", map[string]any{
			"error": err.Error(),
		})
		w.finalize()
		return err
	}

	return nil
}

func (w *Workflow) buildBody() (RequestBody, error) {
	token := ""
	if w.provider.User() != nil {
		token = w.provider.Token()
	}

	body, err := NewRequestBody(token, w.form.InterestTags())
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			logger.Info("signup blocked by validation", map[string]any{
				"field": ve.Field,
			})
			w.notifier.Alert(ve.UserMessage)
		}
		return RequestBody{}, err
	}

	logger.Info("submitting signup", map[string]any{
		"interest_tags": len(body.InterestTags),
	})
	return body, nil
}

// finalize returns the workflow to Idle regardless of outcome.
func (w *Workflow) finalize() {
	w.form.endSubmit()

	w.mu.Lock()
	w.submitting = false
	w.mu.Unlock()
}

func asTransportError(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{
		StatusCode:  0,
		Err:         err.Error(),
		UserMessage: MsgServerFailure,
		Cause:       err,
	}
}
