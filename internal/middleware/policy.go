package middleware

import "github.com/gin-gonic/gin"

// Policy dice qué cadena de autorización corre antes del handler
type Policy int

const (
	Public Policy = iota
	Authenticated
	Admin
)

func (p Policy) String() string {
	switch p {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

// Chain arma los handlers de una ruta según su política
func (a *Auth) Chain(p Policy, handler gin.HandlerFunc) []gin.HandlerFunc {
	switch p {
	case Authenticated:
		return []gin.HandlerFunc{a.RequireAuthenticated(), handler}
	case Admin:
		return []gin.HandlerFunc{a.RequireAuthenticated(), a.RequireAdmin(), handler}
	default:
		return []gin.HandlerFunc{handler}
	}
}
