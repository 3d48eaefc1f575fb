package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/viewcast/internal/config"
	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/tensor"
)

func newCastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cast --sizes S --rank N [--strides T]",
		Short: "Cast a view to another rank and print the result",
		Args:  cobra.NoArgs,
		RunE:  castHandler,
	}
	addLayoutFlags(cmd)
	cmd.Flags().Int("rank", 1, "Target rank")
	return cmd
}

func castHandler(cmd *cobra.Command, _ []string) error {
	rank, err := cmd.Flags().GetInt("rank")
	if err != nil {
		return err
	}

	alloc := device.NewHostAllocator(config.DType())
	v, err := layoutView(cmd, alloc)
	if err != nil {
		return err
	}
	defer alloc.Free(v.Storage()) //nolint:errcheck

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source: %v\n", v)
	cv, err := tensor.Cast(v, rank)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "result: %v\n", cv)
	return nil
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check --sizes S [--strides T]",
		Short: "Report which ranks a layout can be cast to",
		Args:  cobra.NoArgs,
		RunE:  checkHandler,
	}
	addLayoutFlags(cmd)
	return cmd
}

func checkHandler(cmd *cobra.Command, _ []string) error {
	alloc := device.NewHostAllocator(config.DType())
	v, err := layoutView(cmd, alloc)
	if err != nil {
		return err
	}
	defer alloc.Free(v.Storage()) //nolint:errcheck

	sizes, strides := v.Sizes(), v.Strides()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%v\n", v)
	fmt.Fprintf(out, "fully contiguous: %t\n\n", tensor.IsFullyContiguous(sizes, strides))

	var data [][]string
	for rank := 1; rank <= tensor.MaxDims; rank++ {
		cv, err := tensor.Cast(v, rank)
		switch {
		case err != nil:
			data = append(data, []string{fmt.Sprint(rank), "no", err.Error(), ""})
		case rank < v.Rank():
			data = append(data, []string{fmt.Sprint(rank), "downcast", fmt.Sprint(cv.Sizes()), fmt.Sprint(cv.Strides())})
		case rank > v.Rank():
			data = append(data, []string{fmt.Sprint(rank), "upcast", fmt.Sprint(cv.Sizes()), fmt.Sprint(cv.Strides())})
		default:
			data = append(data, []string{fmt.Sprint(rank), "identity", fmt.Sprint(cv.Sizes()), fmt.Sprint(cv.Strides())})
		}
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"RANK", "CAST", "SIZES", "STRIDES"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
	return nil
}
