package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Name string
	Href string
}

// NavLinks are the site-wide navigation entries, in display order.
var NavLinks = []NavLink{
	{Name: "Home", Href: "/"},
	{Name: "Sign up", Href: "/signup.html"},
	{Name: "Dashboard", Href: "/dashboard.html"},
}

// NavbarLink renders link as a nav item, marked active when its href is the
// path of the current page.
func NavbarLink(link NavLink, currentPath string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		classes := "nav-item"
		if link.Href == currentPath {
			classes += " active"
		}

		return write(w,
			`<div class="`, templ.EscapeString(classes), `">`,
			`<a class="nav-link" href="`, templ.EscapeString(link.Href), `">`,
			templ.EscapeString(link.Name),
			`</a></div>`,
		)
	})
}

// Navbar renders every NavLinks entry.
func Navbar(currentPath string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<nav class="navbar">`); err != nil {
			return err
		}
		for _, link := range NavLinks {
			if err := NavbarLink(link, currentPath).Render(ctx, w); err != nil {
				return err
			}
		}
		return write(w, `</nav>`)
	})
}

// Layout wraps body in the page chrome.
func Layout(title, currentPath string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		err := write(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, templ.EscapeString(title), ` | OpenSesame</title></head><body>`,
		)
		if err != nil {
			return err
		}
		if err := Navbar(currentPath).Render(ctx, w); err != nil {
			return err
		}
		if err := write(w, `<main class="container">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}
