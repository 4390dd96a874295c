package router

import "context"

// chunk returns a loader for a view bundled separately from the home page.
func chunk(name, chunkName string) Loader {
	return func(ctx context.Context) (View, error) {
		if err := ctx.Err(); err != nil {
			return View{}, err
		}
		return View{Name: name, Chunk: chunkName}, nil
	}
}

// DefaultRoutes is the application's route table.
func DefaultRoutes() []*Route {
	return []*Route{
		Eager("/", "Home", View{Name: "Home"}),
		Lazy("/about", "About", chunk("About", "about")),
		Lazy("/dashboard", "Dashboard", chunk("Dashboard", "dashboard")),
		Lazy("/login", "Login", chunk("Login", "login")),
		Lazy("/register", "Register", chunk("Register", "register")),
	}
}

// NewDefault builds the application router under baseURL.
func NewDefault(baseURL string) (*Router, error) {
	return New(baseURL, DefaultRoutes()...)
}
