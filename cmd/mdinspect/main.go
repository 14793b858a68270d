// Command mdinspect prints the metadata and elements of zarr arrays held in
// a local directory or a badger database.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/qri-io/mdarray-go"
	"github.com/qri-io/mdarray-go/zarr"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rootCmd = &cobra.Command{
	Use:   "mdinspect",
	Short: "Inspect multidimensional arrays stored in zarr format.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetLevel(log.DebugLevel)
		}
	},
	SilenceUsage: true,
}

var infoCmd = &cobra.Command{
	Use:   "info STORE PATH",
	Short: "Print the metadata of an array.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd, args[0])
		if err != nil {
			return err
		}
		defer closeStore()

		h, err := zarr.Open(store, args[1], zarr.ModeRead)
		if err != nil {
			return err
		}
		info, err := describe(h)
		if err != nil {
			return err
		}
		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(info)
		}
		fmt.Fprint(cmd.OutOrStdout(), h.Info())
		fmt.Fprintf(cmd.OutOrStdout(), "Strides     : %v\n", info.Strides)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get STORE PATH INDEX...",
	Short: "Print a single element of an array.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx := make([]int, len(args)-2)
		for i, s := range args[2:] {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("index %q: %w", s, err)
			}
			idx[i] = n
		}

		store, closeStore, err := openStore(cmd, args[0])
		if err != nil {
			return err
		}
		defer closeStore()

		h, err := zarr.Open(store, args[1], zarr.ModeRead)
		if err != nil {
			return err
		}
		v, err := element(cmd.Context(), h, idx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate STORE ROOT ARRAY...",
	Short: "Write a .zmetadata document for a group of arrays.",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd, args[0])
		if err != nil {
			return err
		}
		defer closeStore()

		cm, err := zarr.Consolidate(store, args[1], args[2:]...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "consolidated %d documents\n", len(cm.Metadata))
		return nil
	},
}

// arrayInfo is the YAML form of info.
type arrayInfo struct {
	Path       string          `yaml:"path"`
	Dtype      string          `yaml:"dtype"`
	Shape      []int           `yaml:"shape"`
	Chunks     []int           `yaml:"chunks"`
	Order      string          `yaml:"order"`
	Layout     string          `yaml:"layout"`
	Strides    []int           `yaml:"strides"`
	Compressor string          `yaml:"compressor,omitempty"`
	Attributes zarr.Attributes `yaml:"attributes,omitempty"`
}

func describe(h *zarr.Array) (*arrayInfo, error) {
	meta := h.Meta()
	layout, err := meta.Layout()
	if err != nil {
		return nil, err
	}
	m := mdarray.NewMapping(layout, mdarray.Static(meta.Shape...))
	info := &arrayInfo{
		Path:    h.Path(),
		Dtype:   meta.Dtype.String(),
		Shape:   meta.Shape,
		Chunks:  meta.Chunks,
		Order:   meta.Order,
		Layout:  layout.String(),
		Strides: m.Strides(),
	}
	if meta.Compressor != nil {
		info.Compressor = meta.Compressor.ID
	}
	if info.Attributes, err = h.Attributes(); err != nil {
		return nil, err
	}
	return info, nil
}

// element reads the array as the Go type matching its dtype and formats the
// element at idx.
func element(ctx context.Context, h *zarr.Array, idx []int) (string, error) {
	dt := h.Meta().Element()
	switch fmt.Sprintf("%c%d", dt.BasicType, dt.ByteSize) {
	case "b1":
		return readElement[bool](ctx, h, idx)
	case "i1":
		return readElement[int8](ctx, h, idx)
	case "i2":
		return readElement[int16](ctx, h, idx)
	case "i4":
		return readElement[int32](ctx, h, idx)
	case "i8":
		return readElement[int64](ctx, h, idx)
	case "u1":
		return readElement[uint8](ctx, h, idx)
	case "u2":
		return readElement[uint16](ctx, h, idx)
	case "u4":
		return readElement[uint32](ctx, h, idx)
	case "u8":
		return readElement[uint64](ctx, h, idx)
	case "f4":
		return readElement[float32](ctx, h, idx)
	case "f8":
		return readElement[float64](ctx, h, idx)
	case "c8":
		return readElement[complex64](ctx, h, idx)
	case "c16":
		return readElement[complex128](ctx, h, idx)
	}
	return "", fmt.Errorf("%w: %s", zarr.ErrUnsupportedDtype, dt)
}

func readElement[T any](ctx context.Context, h *zarr.Array, idx []int) (string, error) {
	a, err := zarr.Read[T](ctx, h, mdarray.Heap[T]{})
	if err != nil {
		return "", err
	}
	defer a.Release()
	v, err := mdarray.Check[T](a).Get(idx...)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func openStore(cmd *cobra.Command, location string) (zarr.Store, func(), error) {
	if useBadger, _ := cmd.Flags().GetBool("badger"); useBadger {
		s, err := zarr.OpenBadgerStore(location)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warnf("closing badger store: %s", err)
			}
		}, nil
	}
	if _, err := os.Stat(location); err != nil {
		return nil, nil, err
	}
	s, err := zarr.NewLocalStore(location)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "log at debug level")
	rootCmd.PersistentFlags().Bool("badger", false, "STORE is a badger database directory")
	infoCmd.Flags().Bool("yaml", false, "print metadata as YAML")
	rootCmd.AddCommand(infoCmd, getCmd, consolidateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
