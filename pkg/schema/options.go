package schema

// Options are schema-level switches applied while normalizing and validating.
type Options struct {
	AllowUnknown bool // unknown fields pass validation
	PurgeUnknown bool // unknown fields are dropped during normalization
	RequireAll   bool // every declared field is required
}

type Option func(*Options)

func WithAllowUnknown(allow bool) Option {
	return func(o *Options) { o.AllowUnknown = allow }
}

func WithPurgeUnknown(purge bool) Option {
	return func(o *Options) { o.PurgeUnknown = purge }
}

func WithRequireAll(require bool) Option {
	return func(o *Options) { o.RequireAll = require }
}

// WithOptions replaces all options at once.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}
