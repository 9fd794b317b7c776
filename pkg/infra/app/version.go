package app

import (
	"github.com/kart-io/version"
	"github.com/spf13/pflag"
)

// GetVersion is the build's git version, stamped into bench reports and
// the service.version log field.
func GetVersion() string {
	return version.Get().GitVersion
}

// AddVersionFlags registers --version on the command's flag set.
func AddVersionFlags(fs *pflag.FlagSet) {
	version.AddFlags(fs)
}

// PrintAndExitIfRequested handles --version before any config is loaded.
func PrintAndExitIfRequested() {
	version.PrintAndExitIfRequested()
}
