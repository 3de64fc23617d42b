package v1

import (
	"github.com/gin-gonic/gin"
)

// DocumentRouteHandler defines the read routes every document collection has.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
}

// DocumentCreateHandler is implemented by collections that accept POST.
// Picklists, dispatches and invoices are created from their parent document
// instead.
type DocumentCreateHandler interface {
	Create(c *gin.Context)
}

// Action is a transition route, registered as POST /:id/<Name>.
type Action struct {
	Name   string
	Handle gin.HandlerFunc
}

// RegisterDocumentRoutes registers list, get, optional create and the
// transition routes of one document collection.
//
// Usage:
//
//	handler := handlers.NewPurchaseOrderHandler(base, service, clock)
//	RegisterDocumentRoutes(purchase.Group("/orders"), handler,
//		Action{"submit", handler.Submit},
//		Action{"confirm", handler.Confirm},
//	)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, actions ...Action) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)

	if creator, ok := handler.(DocumentCreateHandler); ok {
		group.POST("", creator.Create)
	}
	for _, a := range actions {
		group.POST("/:id/"+a.Name, a.Handle)
	}
}
