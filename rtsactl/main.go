package main

/*
rtsactl bundles the RTSA API sample programs as subcommands.
*/

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// glog registers its flags with the standard flag package.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	err := newRootCmd(newApp()).ExecuteContext(ctx)
	stop()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
