package pagination

// Options holds request parameters before validation.
type Options struct {
	Page     int
	PageSize int
}

type Option func(*Options)

func WithPage(page int) Option {
	return func(o *Options) {
		o.Page = page
	}
}

func WithPageSize(size int) Option {
	return func(o *Options) {
		o.PageSize = size
	}
}

func defaultOptions() Options {
	return Options{Page: DefaultPage, PageSize: DefaultPageSize}
}
