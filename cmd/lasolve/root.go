package main

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	algolinalg "github.com/cwbudde/algo-linalg"
	"github.com/cwbudde/algo-linalg/gpu"
)

type backendFlags struct {
	backend  string
	device   int
	noAsync  bool
	registry algolinalg.Registry
}

func newRootCmd() *cobra.Command {
	var bf backendFlags

	cmd := &cobra.Command{
		Use:          "lasolve",
		Short:        "Solve sparse linear systems with an LU direct solver",
		SilenceUsage: true,
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.PersistentFlags().StringVarP(&bf.backend, "backend", "b", "host", "compute backend: host or mock")
	cmd.PersistentFlags().IntVar(&bf.device, "device", 0, "accelerator device index")
	cmd.PersistentFlags().BoolVar(&bf.noAsync, "no-async", false, "use synchronous transfers only")

	cmd.AddCommand(solveCmd(&bf), infoCmd(&bf))
	return cmd
}

// openContext opens the backend context selected by the flags.
func (bf *backendFlags) openContext() (*algolinalg.Context, error) {
	opts := algolinalg.ContextOptions{
		DeviceIndex:  bf.device,
		DisableAsync: bf.noAsync,
		Logger:       klog.Background().WithName("lasolve"),
		Registry:     bf.registry,
	}
	switch bf.backend {
	case "host":
	case "mock":
		opts.Backend = gpu.NewMockBackend()
	default:
		return nil, fmt.Errorf("unknown backend %q (want host or mock)", bf.backend)
	}
	return algolinalg.NewContext(opts)
}
