package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a job from path. The job is not validated, so that command line
// flags can fill in what the file leaves out; call Validate once it is complete.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	return &job, nil
}

func (j *Job) Validate() error {
	if err := validator.New().Struct(j); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	return nil
}
