package providers

import (
	"net/http"
	"streakd/internal/structures"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetRoutes() []structures.Route
}

type RouterProvider struct {
	routes  []structures.Route
	methods map[string]map[string]http.Handler
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.handle(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.handle(http.MethodPost, url, handler)
}

// handle registers one Route per url; a second method on the same url is
// merged into the existing dispatcher.
func (rp *RouterProvider) handle(method, url string, handler http.Handler) {
	if byMethod, ok := rp.methods[url]; ok {
		byMethod[method] = handler
		return
	}
	byMethod := map[string]http.Handler{method: handler}
	rp.methods[url] = byMethod
	rp.routes = append(rp.routes, structures.Route{
		Url:     url,
		Handler: methodHandler(byMethod),
	})
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{methods: make(map[string]map[string]http.Handler)}
}

func methodHandler(byMethod map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := byMethod[r.Method]
		if !ok {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
