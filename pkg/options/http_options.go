package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions configures the status server that exposes health probes,
// metrics and the active command listing.
type HttpOptions struct {
	// Enabled starts the server alongside the executor.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Network with server network.
	Network string `json:"network" mapstructure:"network"`

	// Address with server address.
	Addr string `json:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds graceful shutdown once the run ends.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewHttpOptions creates a HttpOptions object with default parameters.
func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Enabled:         true,
		Network:         "tcp",
		Addr:            "127.0.0.1:9090",
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *HttpOptions) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	errors := []error{}

	switch o.Network {
	case "tcp", "tcp4", "tcp6":
	default:
		errors = append(errors, fmt.Errorf("http.network must be tcp, tcp4 or tcp6, got %q", o.Network))
	}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}

	if o.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Errorf("http.shutdown-timeout must be positive"))
	}

	return errors
}

// AddFlags adds flags related to the status server to the specified FlagSet.
func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "http.enabled", o.Enabled, "Serve health, metrics and command status over HTTP.")
	fs.StringVar(&o.Network, "http.network", o.Network, "Specify the network for the HTTP server.")
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "Specify the HTTP server bind address and port.")
	fs.DurationVar(&o.ShutdownTimeout, "http.shutdown-timeout", o.ShutdownTimeout, "Time allowed for in-flight requests on shutdown.")
}
