// Package guise provides a runtime service registry for Go.
//
// Components register factory functions under a [Key]: a type, a name and a
// container. Each registration carries arbitrary metadata and a default
// caching policy. Values are later resolved by key, by type alone, or by a
// metadata predicate.
//
// # Quick Start
//
//	r := guise.New()
//	guise.Register(r, guise.TypeKey[*Database](), func(r *guise.Registry, _ any) (*Database, error) {
//		return OpenDatabase()
//	}, guise.WithCaching(true))
//
//	db, ok, err := guise.ResolveType[*Database](r)
//
// Not finding a registration is not an error: ok is false and err is nil. A
// non-nil error always comes from the factory.
//
// # Caching
//
// Registrations are transient unless registered [WithCaching](true): every
// resolution calls the factory. A cached registration calls its factory at
// most once per held value, however many goroutines resolve it concurrently.
// Any single resolution can override the default with [Cached].
//
// [RegisterWeak] holds cached pointers weakly ([Weak]); the registry does not
// keep them alive and recomputes them once they have been collected.
//
// # Containers and Metadata
//
// Containers group related registrations:
//
//	guise.Register(r, guise.NewKey[Plugin]("csv", "plugins"), newCSV, guise.WithMetadata("export"))
//	guise.Register(r, guise.NewKey[Plugin]("pdf", "plugins"), newPDF, guise.WithMetadata("export"))
//
//	keys := guise.Keys[Plugin](r, guise.InContainer("plugins"))
//	exporters, err := guise.ResolveValues(r, keys, guise.WhereMetadata(guise.MetadataEquals("export")))
//
// # Injection
//
// [ResolveInto] passes an existing value through the registration for its
// type in [InjectionsContainer]. [NewInjector] builds such registrations.
//
// # Default Registry
//
// [Default] returns a process-wide registry. Tests that use it should call
// [Registry.Clear] to start from an empty state.
package guise
