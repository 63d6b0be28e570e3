package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every service's HTTP surface so the shared
// application bootstrap can mount it behind the middleware chain.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
