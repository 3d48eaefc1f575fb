package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/viewcast/internal/config"
	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/tensor"
)

func newRootCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "viewcast",
		Short:         "Inspect strided tensor views and rank casts",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// klog registers its flags on a Go flag set; expose them as persistent pflags.
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	if lvl := config.LogLevel(); lvl > 0 {
		_ = klogFlags.Set("v", strconv.FormatUint(uint64(lvl), 10))
	}
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	rootCmd.AddCommand(
		newCastCmd(),
		newCheckCmd(),
		newDemoCmd(),
		newEnvCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "viewcast %s\n", version)
		},
	}
}

// addLayoutFlags registers --sizes and --strides on cmd.
func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().IntSlice("sizes", nil, "Dimension sizes, outermost first (e.g. 2,3,4)")
	cmd.Flags().IntSlice("strides", nil, "Dimension strides in elements (default: row-major)")
	_ = cmd.MarkFlagRequired("sizes")
}

// layoutView allocates host storage for the layout given on the command line.
func layoutView(cmd *cobra.Command, alloc device.Allocator) (tensor.View, error) {
	sizes, err := cmd.Flags().GetIntSlice("sizes")
	if err != nil {
		return tensor.View{}, err
	}
	strides, err := cmd.Flags().GetIntSlice("strides")
	if err != nil {
		return tensor.View{}, err
	}
	if len(strides) == 0 {
		strides = nil
	}
	return tensor.Alloc(alloc, sizes, strides)
}
