package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// ResourceRegistrar is a RouteRegistrar serving one named resource
type ResourceRegistrar interface {
	RouteRegistrar
	Name() string
}

// ResourcePrefix is the generic prefix every resource is also served under
const ResourcePrefix = "/resource"

type mount struct {
	prefix    string
	registrar RouteRegistrar
}

// Router manages HTTP route registration. Public routes are mounted as is;
// session routes and resources run behind the session middleware.
type Router struct {
	engine    *gin.Engine
	basePath  string
	session   []gin.HandlerFunc
	public    []mount
	private   []mount
	resources []ResourceRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithBasePath sets the path every route is mounted under (default "/api")
func WithBasePath(path string) RouterOption {
	return func(r *Router) {
		r.basePath = path
	}
}

// WithSession sets the middleware guarding the session routes
func WithSession(handlers ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.session = append(r.session, handlers...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:   engine,
		basePath: "/api",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Public adds routes that need no session, mounted at prefix
func (r *Router) Public(prefix string, registrar RouteRegistrar) *Router {
	r.public = append(r.public, mount{prefix: prefix, registrar: registrar})
	return r
}

// Register adds session routes mounted at prefix
func (r *Router) Register(prefix string, registrar RouteRegistrar) *Router {
	r.private = append(r.private, mount{prefix: prefix, registrar: registrar})
	return r
}

// Resource adds a resource. It is served under both /resource/<name> and
// /<name>.
func (r *Router) Resource(resources ...ResourceRegistrar) *Router {
	r.resources = append(r.resources, resources...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.basePath)

	for _, m := range r.public {
		m.registrar.RegisterRoutes(api.Group(m.prefix))
	}

	authed := api.Group("", r.session...)
	for _, res := range r.resources {
		res.RegisterRoutes(authed.Group(ResourcePrefix + "/" + res.Name()))
		res.RegisterRoutes(authed.Group("/" + res.Name()))
	}
	for _, m := range r.private {
		m.registrar.RegisterRoutes(authed.Group(m.prefix))
	}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:   name,
		prefix: prefix,
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{
		method:   method,
		path:     path,
		handlers: handlers,
	})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle("GET", path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle("POST", path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle("PUT", path, handlers)
}

// PATCH registers a PATCH route
func (dg *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle("PATCH", path, handlers)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle("DELETE", path, handlers)
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar. The group's prefix is relative
// to rg.
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)

	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}

	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}
