package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func infoCmd(bf *backendFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the host and accelerator backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := bf.openContext()
			if err != nil {
				return err
			}
			defer ctx.Close()

			out := cmd.OutOrStdout()
			h := ctx.Host()
			fmt.Fprintf(out, "host: %s, %d threads, simd=%s, memory=%d MB\n", h.Architecture, h.NumCPU, h.SIMD, h.MemoryMB)

			dev, ok := ctx.Device()
			if !ok {
				fmt.Fprintln(out, "accelerator: none")
				return nil
			}
			fmt.Fprintf(out, "accelerator: %s (%s, driver %s), device %d, async=%t\n",
				dev.Name, dev.Vendor, dev.Driver, ctx.DeviceIndex(), ctx.AsyncSupported())
			return nil
		},
	}
}
