package zarr

// WriteOption configures how Write lays an array out in a store.
type WriteOption func(*writeOptions)

type writeOptions struct {
	chunks      []int
	compressor  *CompressionMeta
	mode        PersistenceMode
	attributes  Attributes
	separator   string
	concurrency int
}

func defaultWriteOptions() *writeOptions {
	return &writeOptions{
		mode:        ModeWrite,
		separator:   ".",
		concurrency: 4,
	}
}

// WithChunks sets the chunk length of every dimension. By default an array
// is stored as a single chunk.
func WithChunks(dims ...int) WriteOption {
	return func(o *writeOptions) {
		o.chunks = dims
	}
}

// WithCompressor compresses every chunk with m (Gzip, Zstd). Chunks are raw
// by default.
func WithCompressor(m *CompressionMeta) WriteOption {
	return func(o *writeOptions) {
		o.compressor = m
	}
}

// WithMode sets the persistence mode used to create the array. Defaults to
// ModeWrite.
func WithMode(mode PersistenceMode) WriteOption {
	return func(o *writeOptions) {
		o.mode = mode
	}
}

// WithAttributes stores user attributes next to the array.
func WithAttributes(attrs Attributes) WriteOption {
	return func(o *writeOptions) {
		o.attributes = attrs
	}
}

// WithNestedKeys uses "/" between chunk coordinates, giving a directory per
// dimension in a LocalStore.
func WithNestedKeys() WriteOption {
	return func(o *writeOptions) {
		o.separator = "/"
	}
}

// WithConcurrency bounds the number of chunks encoded at once.
func WithConcurrency(n int) WriteOption {
	return func(o *writeOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}
