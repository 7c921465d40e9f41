// Package config loads the CLI profile: files to preload into the
// virtual filesystem, environment variables and execution knobs.
package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

// Profile describes a sandbox to run scripts in.
type Profile struct {
	// Cwd is the starting working directory.
	Cwd string `json:"cwd"`

	// Env holds exported variables visible to commands.
	Env map[string]string `json:"env"`

	// PID is the surrogate process id reported by $$.
	PID int `json:"pid" validate:"gte=0"`

	// Files maps absolute paths to their initial contents.
	Files map[string]string `json:"files" validate:"dive,keys,startswith=/,endkeys"`
}

// Validate the profile for basic semantic errors.
func (p *Profile) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	return validate.Struct(p)
}

// Default returns the profile used when no file is given.
func Default() *Profile {
	return &Profile{
		Cwd: "/root",
		Env: map[string]string{
			"HOME":     "/root",
			"USER":     "root",
			"HOSTNAME": "sandbox",
			"PATH":     "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
		},
		PID: 1,
		Files: map[string]string{
			"/root/.profile": "# ~/.profile\n",
			"/etc/hostname":  "sandbox\n",
			"/etc/passwd":    "root:x:0:0:root:/root:/bin/sh\n",
		},
	}
}

// Load parses a YAML profile and validates it.
func Load(data []byte) (*Profile, error) {
	profile := Default()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}
