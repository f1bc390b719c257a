package guise

import "log/slog"

// Option configures a [Registry] at construction.
type Option func(*Registry)

// WithLogger sets the logger used for registry diagnostics. The default is
// [slog.Default]. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// registerConfig holds the settings applied by [RegisterOption]s.
type registerConfig struct {
	metadata any
	cached   *bool
}

// RegisterOption configures a registration.
type RegisterOption func(*registerConfig)

// WithMetadata attaches arbitrary metadata to the registration. Metadata never
// changes after registration and is matched at resolution time with
// [WhereMetadata].
func WithMetadata(metadata any) RegisterOption {
	return func(c *registerConfig) {
		c.metadata = metadata
	}
}

// WithCaching sets whether resolutions are cached by default. Callers can
// still override it per resolution with [Cached].
func WithCaching(cached bool) RegisterOption {
	return func(c *registerConfig) {
		c.cached = &cached
	}
}

func newRegisterConfig(cachedByDefault bool, opts []RegisterOption) registerConfig {
	cfg := registerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cached == nil {
		cfg.cached = &cachedByDefault
	}
	return cfg
}

// resolveConfig holds the per-call settings applied by [ResolveOption]s.
type resolveConfig struct {
	param    any
	cached   *bool
	metadata func(any) bool
}

// ResolveOption configures a single resolution.
type ResolveOption func(*resolveConfig)

// WithParameter passes param to the factory.
func WithParameter(param any) ResolveOption {
	return func(c *resolveConfig) {
		c.param = param
	}
}

// Cached overrides the registration's default caching for this call only.
// Cached(true) returns the held value or populates it; Cached(false) always
// calls the factory and leaves the held value untouched.
func Cached(cached bool) ResolveOption {
	return func(c *resolveConfig) {
		c.cached = &cached
	}
}

// WhereMetadata restricts resolution to registrations whose metadata
// satisfies match. A registration that fails the predicate is treated as not
// found. See [MetadataMatches] and [MetadataEquals].
func WhereMetadata(match func(metadata any) bool) ResolveOption {
	return func(c *resolveConfig) {
		c.metadata = match
	}
}

func newResolveConfig(opts []ResolveOption) resolveConfig {
	var cfg resolveConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// MetadataMatches adapts a typed predicate for [WhereMetadata]. Metadata that
// is not an M does not match.
func MetadataMatches[M any](match func(M) bool) func(any) bool {
	return func(metadata any) bool {
		m, ok := metadata.(M)
		return ok && match(m)
	}
}

// MetadataEquals matches metadata equal to want.
func MetadataEquals[M comparable](want M) func(any) bool {
	return MetadataMatches(func(m M) bool { return m == want })
}
