// Command pipedrive runs Pipedrive CRM tasks described in YAML step files.
package main

import (
	"github.com/tansive/tansive-pipedrive/internal/cli"
	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
)

func init() {
	// replaced by the console logger once flags are parsed
	logtrace.InitLogger()
}

func main() {
	cli.Execute()
}
