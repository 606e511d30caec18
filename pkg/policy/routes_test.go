package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func httpRoute(ns, name string, createdAt time.Time) OutboundRoute[HTTPRouteMatch] {
	return OutboundRoute[HTTPRouteMatch]{
		RouteMeta: RouteMeta{
			Ref:       RouteRef{Kind: RouteKindHTTP, Namespace: ns, Name: name},
			CreatedAt: createdAt,
		},
	}
}

func routeNames(routes []OutboundRoute[HTTPRouteMatch]) []string {
	names := make([]string, 0, len(routes))
	for _, r := range routes {
		names = append(names, r.Ref.Name)
	}
	return names
}

func TestSortRoutesByTimestampThenName(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	routes := []OutboundRoute[HTTPRouteMatch]{
		httpRoute("ns", "late", t0.Add(time.Hour)),
		httpRoute("ns", "b", t0),
		httpRoute("ns", "a", t0),
	}

	SortRoutes(routes)
	assert.Equal(t, []string{"a", "b", "late"}, routeNames(routes))
}

func TestSortRoutesZeroTimestampLast(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	routes := []OutboundRoute[HTTPRouteMatch]{
		httpRoute("ns", "unstamped", time.Time{}),
		httpRoute("ns", "stamped", t0),
	}

	SortRoutes(routes)
	assert.Equal(t, []string{"stamped", "unstamped"}, routeNames(routes))
}

func TestSortRoutesNamespaceBeforeName(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	routes := []OutboundRoute[HTTPRouteMatch]{
		httpRoute("b", "a", t0),
		httpRoute("a", "z", t0),
	}

	SortRoutes(routes)
	assert.Equal(t, "a", routes[0].Ref.Namespace)
}

func TestSortRoutesIdempotent(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	routes := []OutboundRoute[HTTPRouteMatch]{
		httpRoute("ns", "c", t0.Add(time.Minute)),
		httpRoute("ns", "a", t0),
		httpRoute("other", "b", time.Time{}),
	}

	SortRoutes(routes)
	first := routeNames(routes)
	SortRoutes(routes)
	assert.Equal(t, first, routeNames(routes))
}
