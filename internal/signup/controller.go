package signup

import (
	"context"
	"sync"

	"opensesame/internal/logger"
)

// Notifier shows a blocking message to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Alert(message string) { f(message) }

// AuthLinkController keeps the form in sync with the identity provider and
// handles clicks on the link control.
type AuthLinkController struct {
	form     *Form
	provider IdentityProvider
	notifier Notifier

	mu          sync.Mutex
	unsubscribe func()
}

func NewAuthLinkController(form *Form, provider IdentityProvider, notifier Notifier) *AuthLinkController {
	return &AuthLinkController{
		form:     form,
		provider: provider,
		notifier: notifier,
	}
}

// Initialize subscribes to auth-state changes. The provider delivers the
// current user during Subscribe, so the form reflects an existing session as
// soon as Initialize returns. Calling it twice is a no-op.
func (c *AuthLinkController) Initialize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.provider.Subscribe(c.OnAuthStateChanged)
}

// Close stops listening for auth-state changes.
func (c *AuthLinkController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// OnAuthStateChanged enables submit and shows the linked look iff user is
// non-nil.
func (c *AuthLinkController) OnAuthStateChanged(user *User) {
	linked := user != nil
	c.form.SetSubmitEnabled(linked)
	c.form.SetLinked(linked)
}

// OnLinkButtonClicked toggles the provider sign-in. The link control stays
// disabled until the toggle settles; a click in the meantime, or while a
// submission is running, returns ErrLinkDisabled without reaching the
// provider. A failed toggle is reported once and not retried.
func (c *AuthLinkController) OnLinkButtonClicked(ctx context.Context) error {
	if !c.form.beginToggle() {
		return ErrLinkDisabled
	}
	defer c.form.endToggle()

	if err := c.provider.ToggleSignIn(ctx); err != nil {
		logger.Error("identity toggle failed", map[string]any{
			"error": err.Error(),
		})
		c.notifier.Alert(MsgToggleFailed)
		return &IdentityToggleError{Err: err}
	}

	return nil
}
