package mdarray

// Option configures array construction.
type Option func(*arrayOptions)

type arrayOptions struct {
	layout Layout
}

func defaultArrayOptions() *arrayOptions {
	return &arrayOptions{
		layout: LayoutLeft,
	}
}

// WithLayout selects the layout of a new array. Arrays default to
// LayoutLeft. LayoutStride cannot be selected for an owning array.
func WithLayout(l Layout) Option {
	return func(o *arrayOptions) {
		o.layout = l
	}
}
