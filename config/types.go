package config

// FilterConfig selects the routes to keep. Values and ValuesFile may be combined.
type FilterConfig struct {
	Kind       string   `yaml:"kind" validate:"required,oneof=agency route"`
	Values     []string `yaml:"values" validate:"required_without=ValuesFile"`
	ValuesFile string   `yaml:"values_file" validate:"required_without=Values"`
}

// Job is one filter run.
type Job struct {
	Input    string       `yaml:"input" validate:"required"`
	Output   string       `yaml:"output"`
	Filter   FilterConfig `yaml:"filter"`
	Extended bool         `yaml:"extended"`
}
