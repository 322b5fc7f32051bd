package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin adapts a net/http middleware to Gin. The wrapped middleware may
// replace the request (e.g. to attach context values); Gin continues with
// that request. A middleware that writes a response stops the chain.
func Gin(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		if !called {
			c.Abort()
		}
	}
}

// GinRequireUser is RequireUser for Gin routes.
func GinRequireUser(auth *AuthMiddleware) gin.HandlerFunc {
	return Gin(auth.RequireUser)
}

// GinLoadSession is LoadSession for Gin routes.
func GinLoadSession(auth *AuthMiddleware) gin.HandlerFunc {
	return Gin(auth.LoadSession)
}
