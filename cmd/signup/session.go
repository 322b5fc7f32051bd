package main

import (
	"context"
	"fmt"
	"io"

	"opensesame/internal/auth/provider/github"
	"opensesame/internal/deviceauth"
	"opensesame/internal/signup"

	"golang.org/x/oauth2"
)

type sessionConfig struct {
	Server         string
	GitHubClientID string
	GitHubAPIURL   string
	Catalog        []string
	Out            io.Writer
	ErrOut         io.Writer
}

// session is one sign-up run in the terminal: the same controller and
// workflow the web page uses, driven by flags instead of clicks.
type session struct {
	form       *signup.Form
	identity   signup.IdentityProvider
	controller *signup.AuthLinkController
	workflow   *signup.Workflow
}

func newSession(cfg sessionConfig) (*session, error) {
	gh, err := github.New(github.Config{
		ClientID:   cfg.GitHubClientID,
		APIBaseURL: cfg.GitHubAPIURL,
	})
	if err != nil {
		return nil, err
	}

	identity, err := deviceauth.New(deviceauth.Config{
		OAuth:    gh.OAuthConfig(),
		Verifier: gh,
		Prompt: func(resp *oauth2.DeviceAuthResponse) {
			fmt.Fprintf(cfg.Out, "Open %s and enter the code %s\n", resp.VerificationURI, resp.UserCode)
		},
	})
	if err != nil {
		return nil, err
	}

	client, err := signup.NewClient(cfg.Server, nil)
	if err != nil {
		return nil, err
	}

	return assemble(cfg, identity, client)
}

func assemble(cfg sessionConfig, identity signup.IdentityProvider, poster signup.UserPoster) (*session, error) {
	notifier := &terminalNotifier{w: cfg.ErrOut}
	navigator := &terminalNavigator{w: cfg.Out, origin: cfg.Server}

	form := signup.NewForm(signup.NewTagCheckboxes(cfg.Catalog...))
	controller := signup.NewAuthLinkController(form, identity, notifier)
	controller.Initialize()

	return &session{
		form:       form,
		identity:   identity,
		controller: controller,
		workflow:   signup.NewWorkflow(form, identity, poster, notifier, navigator),
	}, nil
}

// Run selects interests, links the account and submits the form.
func (s *session) Run(ctx context.Context, interests []string) error {
	for _, tag := range interests {
		if !s.form.CheckValue(tag, true) {
			return fmt.Errorf("unknown interest %q", tag)
		}
	}

	if s.identity.User() == nil {
		if err := s.controller.OnLinkButtonClicked(ctx); err != nil {
			return err
		}
	}

	return s.workflow.Submit(ctx)
}

func (s *session) Close() {
	s.controller.Close()
}

type terminalNotifier struct {
	w io.Writer
}

func (n *terminalNotifier) Alert(message string) {
	fmt.Fprintln(n.w, message)
}

// terminalNavigator cannot open pages; it prints where to continue.
type terminalNavigator struct {
	w      io.Writer
	origin string
}

func (n *terminalNavigator) Navigate(path string) error {
	target, err := signup.ResolveURL(n.origin, path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(n.w, "Profile created. Continue at %s\n", target)
	return err
}
