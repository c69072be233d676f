package main

import (
	"os"

	_ "go.uber.org/automaxprocs"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/robocmd/cmd/robocmd/app"
)

func main() {
	ctx := genericapiserver.SetupSignalContext()
	if err := app.NewRobocmdCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}
