package metrics

// Config controls metric naming.
type Config struct {
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"trackflag"`
	Subsystem string `env:"METRICS_SUBSYSTEM" envDefault:"rollout"`
	// GoCollectors registers the Go runtime and process collectors.
	GoCollectors bool `env:"METRICS_GO_COLLECTORS" envDefault:"true"`
}
