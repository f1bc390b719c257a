// Package inspect serves a read-only JSON view of a [guise.Registry] over
// HTTP, for mounting on a debug listener.
//
//	mux.Handle("/debug/guise/", http.StripPrefix("/debug/guise", inspect.Handler(guise.Default())))
//
// Routes:
//
//	GET /registrations               all registrations
//	GET /registrations/count         {"count": n}
//	GET /containers/{container}      registrations in one container
//
// The registration routes accept type, name and container query parameters.
// Names, containers and metadata are arbitrary values, so they are matched
// and rendered by their fmt.Sprint form.
package inspect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ARTM2000/guise"
)

// Entry describes one registration.
type Entry struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Container string `json:"container"`
	Cached    bool   `json:"cached"`
	Holding   string `json:"holding"`
	Metadata  string `json:"metadata,omitempty"`
}

// Handler returns an http.Handler exposing r.
func Handler(r *guise.Registry) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/registrations", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Entries(r, queryFilter(req)))
	})

	mux.Get("/registrations/count", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"count": len(r.Filter(queryFilter(req)))})
	})

	mux.Get("/containers/{container}", func(w http.ResponseWriter, req *http.Request) {
		container := chi.URLParam(req, "container")
		pred := guise.AllOf(queryFilter(req), func(k guise.AnyKey) bool {
			return fmt.Sprint(k.Container) == container
		})

		entries := Entries(r, pred)
		if len(entries) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "no registrations in container " + container})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	return mux
}

// Entries returns the registrations matching pred sorted by type, name and
// container.
func Entries(r *guise.Registry, pred guise.Predicate) []Entry {
	regs := r.Filter(pred)

	entries := make([]Entry, 0, len(regs))
	for key, reg := range regs {
		e := Entry{
			Type:      fmt.Sprint(key.Type),
			Name:      fmt.Sprint(key.Name),
			Container: fmt.Sprint(key.Container),
			Cached:    reg.Cached(),
			Holding:   reg.Holding().String(),
		}
		if md := reg.Metadata(); md != nil {
			e.Metadata = fmt.Sprint(md)
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Container < b.Container
	})
	return entries
}

// queryFilter builds a predicate from the type, name and container query
// parameters. Absent parameters match everything.
func queryFilter(req *http.Request) guise.Predicate {
	q := req.URL.Query()
	typ, name, container := q.Get("type"), q.Get("name"), q.Get("container")

	return func(k guise.AnyKey) bool {
		if typ != "" && fmt.Sprint(k.Type) != typ {
			return false
		}
		if name != "" && fmt.Sprint(k.Name) != name {
			return false
		}
		if container != "" && fmt.Sprint(k.Container) != container {
			return false
		}
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
