// Package zarr persists mdarray arrays in the zarr v2 storage layout: a JSON
// ".zarray" document describing shape, chunking, data type and order, plus
// one object per chunk, in any Store.
package zarr

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/qri-io/mdarray-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Array is a handle on an array stored under a path of a Store.
type Array struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
}

// Create writes meta under path. Existing metadata is overwritten in ModeWrite,
// reported as ErrExists in ModeWriteFail, and reused in ModeReadWriteCreate
// when it describes the same array.
func Create(store Store, path string, meta *ArrayMeta, mode PersistenceMode) (*Array, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if !mode.Creates() {
		return nil, fmt.Errorf("%w: cannot create an array in mode %q", ErrInvalidMode, mode)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	a := &Array{
		path:  p,
		store: store,
		mode:  mode,
		meta:  meta,
	}

	exists, err := store.Has(a.metaKey(MTArray))
	if err != nil {
		return nil, err
	}
	if exists {
		switch mode {
		case ModeWriteFail:
			return nil, fmt.Errorf("%w: %s", ErrExists, p)
		case ModeReadWriteCreate:
			prev, err := Open(store, path, mode)
			if err != nil {
				return nil, err
			}
			if !sameArray(prev.meta, meta) {
				return nil, fmt.Errorf("%w: %s holds a different array", ErrExists, p)
			}
			return prev, nil
		}
	}

	if err := a.putJSON(MTArray, meta); err != nil {
		return nil, err
	}
	return a, nil
}

// Open reads the metadata of an existing array. Only ModeRead,
// ModeReadWrite and ModeReadWriteCreate open existing arrays.
func Open(store Store, path string, mode PersistenceMode) (*Array, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if mode == ModeWrite || mode == ModeWriteFail {
		return nil, fmt.Errorf("%w: open with mode %q, use Create", ErrInvalidMode, mode)
	}
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	a := &Array{
		path:  p,
		store: store,
		mode:  mode,
	}

	f, err := store.Get(a.metaKey(MTArray))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a.meta = &ArrayMeta{}
	if err := json.NewDecoder(f).Decode(a.meta); err != nil {
		return nil, fmt.Errorf("reading %s: %w", a.metaKey(MTArray), err)
	}
	if err := a.meta.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Array) Info() string {
	b := &strings.Builder{}
	compressor := "None"
	if a.meta.Compressor != nil {
		compressor = a.meta.Compressor.ID
	}
	fmt.Fprintf(b, "Type        : zarr.Array\n")
	fmt.Fprintf(b, "Path        : %s\n", a.Path())
	fmt.Fprintf(b, "Data type   : %s\n", a.meta.Dtype)
	fmt.Fprintf(b, "Shape       : %v\n", a.meta.Shape)
	fmt.Fprintf(b, "Chunk shape : %v\n", a.meta.Chunks)
	fmt.Fprintf(b, "Order       : %s\n", a.meta.Order)
	fmt.Fprintf(b, "Compressor  : %s\n", compressor)
	fmt.Fprintf(b, "Store type  : %s\n", a.store.Type())
	return b.String()
}

func (a *Array) Path() string {
	return a.path.String()
}

// Meta returns a copy of the array metadata.
func (a *Array) Meta() ArrayMeta { return *a.meta }

func (a *Array) Mode() PersistenceMode { return a.mode }

func (a *Array) Store() Store { return a.store }

// Attributes reads the user attributes of the array. Arrays without
// attributes return an empty map.
func (a *Array) Attributes() (Attributes, error) {
	attrs := Attributes{}
	f, err := a.store.Get(a.metaKey(MTAttributes))
	if errors.Is(err, ErrNotfound) {
		return attrs, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("reading %s: %w", a.metaKey(MTAttributes), err)
	}
	return attrs, nil
}

// SetAttributes replaces the user attributes of the array.
func (a *Array) SetAttributes(attrs Attributes) error {
	if err := a.writable(); err != nil {
		return err
	}
	return a.putJSON(MTAttributes, attrs)
}

func (a *Array) writable() error {
	if a.mode == ModeRead {
		return fmt.Errorf("%w: %s", ErrReadOnly, a.path)
	}
	return nil
}

func (a *Array) metaKey(mt MetaType) string {
	return a.path.Join(string(mt)).String()
}

func (a *Array) putJSON(mt MetaType, v interface{}) error {
	d, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return a.store.Put(a.metaKey(mt), bytes.NewReader(d))
}

// encodeJSON marshals v leaving "<" and ">" in dtype strings unescaped.
func encodeJSON(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Array) openChunk(ch []int) (io.ReadCloser, error) {
	f, err := a.store.Get(a.chunkPath(ch).String())
	if err != nil {
		return nil, err
	}
	if a.meta.Compressor == nil {
		return f, nil
	}
	r, err := a.meta.Compressor.Decompressor(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return multiCloser{ReadCloser: r, under: f}, nil
}

func (a *Array) chunkPath(ch []int) Path {
	return a.path.Join(newChunkGrid(a.meta).Key(ch, a.meta.Separator()))
}

type multiCloser struct {
	io.ReadCloser
	under io.Closer
}

func (m multiCloser) Close() error {
	err := m.ReadCloser.Close()
	if uerr := m.under.Close(); err == nil {
		err = uerr
	}
	return err
}

// Write stores src under path. src may be an mdarray Array or View; chunks
// are stored in "F" order for LayoutLeft sources and "C" order otherwise.
func Write[T any](ctx context.Context, store Store, path string, src mdarray.Indexer[T], opts ...WriteOption) (*Array, error) {
	o := defaultWriteOptions()
	for _, opt := range opts {
		opt(o)
	}
	dt, err := DtypeOf[T]()
	if err != nil {
		return nil, err
	}

	m := src.Mapping()
	shape := m.Extents().Dims()
	chunks := o.chunks
	if chunks == nil {
		chunks = make([]int, len(shape))
		for d, n := range shape {
			chunks[d] = max(n, 1)
		}
	}
	order := "C"
	if m.Layout() == mdarray.LayoutLeft {
		order = "F"
	}

	meta := &ArrayMeta{
		ZarrFormat:         FormatVersion,
		Shape:              shape,
		Chunks:             chunks,
		Dtype:              StructuredType{Dtype: dt},
		Compressor:         o.compressor,
		FillValue:          zeroFill[T](),
		Order:              order,
		DimensionSeparator: o.separator,
	}

	a, err := Create(store, path, meta, o.mode)
	if err != nil {
		return nil, err
	}
	if o.attributes != nil {
		if err := a.SetAttributes(o.attributes); err != nil {
			return nil, err
		}
	}
	if err := writeChunks(ctx, a, src, o.concurrency); err != nil {
		return nil, err
	}
	return a, nil
}

func writeChunks[T any](ctx context.Context, a *Array, src mdarray.Indexer[T], limit int) error {
	if err := a.writable(); err != nil {
		return err
	}
	grid := newChunkGrid(a.meta)
	layout, err := a.meta.Layout()
	if err != nil {
		return err
	}
	order := a.meta.Element().ByteOrder.Order()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	n := 0
	for coords := range grid.ChunkCoords() {
		if gctx.Err() != nil {
			break
		}
		coords := append([]int(nil), coords...)
		n++
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunk, err := mdarray.New[T](grid.chunkExtents(), mdarray.WithLayout(layout))
			if err != nil {
				return err
			}
			for p := range grid.Project(coords) {
				*chunk.AtIndex(p.ChunkSelection) = *src.AtIndex(p.OutSelection)
			}

			buf := &bytes.Buffer{}
			w, err := a.meta.Compressor.Compressor(buf)
			if err != nil {
				return err
			}
			if err := binary.Write(w, order, chunk.Data()); err != nil {
				return fmt.Errorf("encoding chunk %v: %w", coords, err)
			}
			if err := w.Close(); err != nil {
				return err
			}
			return a.store.Put(a.chunkPath(coords).String(), buf)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	log.WithField("path", a.Path()).Debugf("wrote %d chunks", n)
	return nil
}

const readConcurrency = 4

// Read loads the whole array into storage from policy. Chunks absent from
// the store read as the fill value.
func Read[T any, P mdarray.ContainerPolicy[T]](ctx context.Context, a *Array, policy P) (*mdarray.Array[T, P], error) {
	want, err := DtypeOf[T]()
	if err != nil {
		return nil, err
	}
	if have := a.meta.Element(); !have.Matches(want) {
		return nil, fmt.Errorf("%w: stored %s, reading as %s", ErrDtypeMismatch, have, want)
	}
	layout, err := a.meta.Layout()
	if err != nil {
		return nil, err
	}
	fill, err := fillValue[T](a.meta.FillValue)
	if err != nil {
		return nil, err
	}

	shape := make(mdarray.Shape, len(a.meta.Shape))
	for d := range shape {
		shape[d] = mdarray.Dynamic
	}
	ext, err := shape.Make(a.meta.Shape...)
	if err != nil {
		return nil, err
	}
	out, err := mdarray.NewWithPolicy[T](policy, ext, mdarray.WithLayout(layout))
	if err != nil {
		return nil, err
	}

	grid := newChunkGrid(a.meta)
	order := a.meta.Element().ByteOrder.Order()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for coords := range grid.ChunkCoords() {
		if gctx.Err() != nil {
			break
		}
		coords := append([]int(nil), coords...)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := a.openChunk(coords)
			if errors.Is(err, ErrNotfound) {
				for p := range grid.Project(coords) {
					*out.AtIndex(p.OutSelection) = fill
				}
				return nil
			}
			if err != nil {
				return err
			}
			defer r.Close()

			chunk, err := mdarray.New[T](grid.chunkExtents(), mdarray.WithLayout(layout))
			if err != nil {
				return err
			}
			if err := binary.Read(r, order, chunk.Data()); err != nil {
				return fmt.Errorf("decoding chunk %v of %s: %w", coords, a.Path(), err)
			}
			for p := range grid.Project(coords) {
				*out.AtIndex(p.OutSelection) = *chunk.AtIndex(p.ChunkSelection)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		out.Release()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// CreateGroup marks path as a group.
func CreateGroup(store Store, path string) error {
	p, err := NewPath(path)
	if err != nil {
		return err
	}
	d, err := encodeJSON(Group{ZarrFormat: FormatVersion})
	if err != nil {
		return err
	}
	return store.Put(p.Join(string(MTGroup)).String(), bytes.NewReader(d))
}

// Consolidate gathers the group, array and attribute documents of root and
// the named arrays below it into a single ".zmetadata" document at root.
func Consolidate(store Store, root string, arrays ...string) (*ConsolidatedMetadata, error) {
	rp, err := NewPath(root)
	if err != nil {
		return nil, err
	}
	cm := &ConsolidatedMetadata{
		ConsolidatedFormat: 1,
		Metadata:           map[string]MetaTyper{},
	}

	add := func(rel Path, mt MetaType, v MetaTyper) error {
		f, err := store.Get(rp.Join(rel...).Join(string(mt)).String())
		if errors.Is(err, ErrNotfound) {
			return nil
		}
		if err != nil {
			return err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(v); err != nil {
			return err
		}
		cm.Metadata[rel.Join(string(mt)).String()] = v
		return nil
	}

	if err := add(nil, MTGroup, &Group{}); err != nil {
		return nil, err
	}
	if err := add(nil, MTAttributes, &Attributes{}); err != nil {
		return nil, err
	}
	for _, name := range arrays {
		rel, err := NewPath(name)
		if err != nil {
			return nil, err
		}
		has, err := store.Has(rp.Join(rel...).Join(string(MTArray)).String())
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, fmt.Errorf("%w: array %s", ErrNotfound, rp.Join(rel...))
		}
		if err := add(rel, MTArray, &ArrayMeta{}); err != nil {
			return nil, err
		}
		if err := add(rel, MTAttributes, &Attributes{}); err != nil {
			return nil, err
		}
	}

	d, err := encodeJSON(cm)
	if err != nil {
		return nil, err
	}
	if err := store.Put(rp.Join(string(MTMetadata)).String(), bytes.NewReader(d)); err != nil {
		return nil, err
	}
	return cm, nil
}

// ReadConsolidated reads the ".zmetadata" document at root.
func ReadConsolidated(store Store, root string) (*ConsolidatedMetadata, error) {
	rp, err := NewPath(root)
	if err != nil {
		return nil, err
	}
	f, err := store.Get(rp.Join(string(MTMetadata)).String())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cm := &ConsolidatedMetadata{}
	if err := json.NewDecoder(f).Decode(cm); err != nil {
		return nil, err
	}
	return cm, nil
}

func sameArray(a, b *ArrayMeta) bool {
	return slicesEqual(a.Shape, b.Shape) &&
		slicesEqual(a.Chunks, b.Chunks) &&
		a.Dtype.String() == b.Dtype.String() &&
		a.Order == b.Order &&
		a.Separator() == b.Separator()
}

func slicesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PersistenceMode controls whether an array may be created, written or only
// read. The values are the mode strings zarr uses.
type PersistenceMode string

const (
	// ModeRead opens an existing array read only.
	ModeRead PersistenceMode = "r"
	// ModeReadWrite opens an existing array for reading and writing.
	ModeReadWrite PersistenceMode = "r+"
	// ModeReadWriteCreate opens an array for reading and writing, creating
	// it when absent.
	ModeReadWriteCreate PersistenceMode = "a"
	// ModeWrite creates an array, replacing any existing metadata.
	ModeWrite PersistenceMode = "w"
	// ModeWriteFail creates an array and fails with ErrExists if one is
	// already there.
	ModeWriteFail PersistenceMode = "w-"
)

func (m PersistenceMode) Validate() error {
	switch m {
	case ModeRead, ModeReadWrite, ModeReadWriteCreate, ModeWrite, ModeWriteFail:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
}

// Creates reports whether arrays may be created in mode m.
func (m PersistenceMode) Creates() bool {
	return m == ModeReadWriteCreate || m == ModeWrite || m == ModeWriteFail
}

type Path []string

// NewPath normalizes a logical path so keys are identical across stores:
// backslashes become slashes, and leading, trailing and repeated slashes are
// dropped. "." and ".." segments are rejected.
func NewPath(posix string) (Path, error) {
	var p Path
	for _, seg := range strings.Split(strings.ReplaceAll(posix, "\\", "/"), "/") {
		switch seg {
		case "":
			continue
		case ".", "..":
			return nil, fmt.Errorf("%w: %q contains %q", ErrInvalidPath, posix, seg)
		}
		p = append(p, seg)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Join(elems ...string) Path {
	out := make(Path, 0, len(p)+len(elems))
	out = append(out, p...)
	return append(out, elems...)
}
