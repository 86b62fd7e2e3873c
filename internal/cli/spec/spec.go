// Package spec describes the winrestore command line: commands, their flags
// and the flag combinations a command rejects. The description is embedded
// as YAML and checked against a JSON schema when loaded.
package spec

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml commands.schema.json
var embedded embed.FS

const schemaName = "commands.schema.json"

// Flag kinds.
const (
	KindBool     = "bool"
	KindString   = "string"
	KindPath     = "path"
	KindChoice   = "choice"
	KindDuration = "duration"
	KindStrings  = "strings"
)

// Flags added by Command.AllFlags.
const (
	FlagJSON = "json"
	FlagYes  = "yes"
)

// Spec is the whole command line.
type Spec struct {
	Version  int       `yaml:"version"`
	App      App       `yaml:"app"`
	Flags    []Flag    `yaml:"flags"`
	Commands []Command `yaml:"commands"`
}

// App names the binary and the command run when none is given.
type App struct {
	Name    string `yaml:"name"`
	Summary string `yaml:"summary"`
	Default string `yaml:"default"`
}

// Flag is a single command line flag. Default is parsed according to Kind.
type Flag struct {
	Name    string   `yaml:"name"`
	Short   string   `yaml:"short"`
	Kind    string   `yaml:"kind"`
	Usage   string   `yaml:"usage"`
	Env     string   `yaml:"env"`
	Default string   `yaml:"default"`
	Choices []string `yaml:"choices"`
}

// Rest names the trailing positional arguments of a command.
type Rest struct {
	Name  string `yaml:"name"`
	Usage string `yaml:"usage"`
}

// Command is a top-level command.
type Command struct {
	Name        string   `yaml:"name"`
	Aliases     []string `yaml:"aliases"`
	Summary     string   `yaml:"summary"`
	Description string   `yaml:"description"`
	Flags       []Flag   `yaml:"flags"`
	Rest        *Rest    `yaml:"rest"`
	// JSON adds --json; results are then wrapped in an envelope.
	JSON bool `yaml:"json"`
	// Confirm is the question asked before the command runs. A non-empty
	// value adds --yes.
	Confirm string `yaml:"confirm"`
	// Excludes lists flag groups of which at most one may be set.
	Excludes [][]string `yaml:"excludes"`
}

// AllFlags returns the declared flags plus --json and --yes when the
// command asks for them.
func (c Command) AllFlags() []Flag {
	out := slices.Clone(c.Flags)
	if c.JSON {
		out = append(out, Flag{Name: FlagJSON, Kind: KindBool, Usage: "Emit a JSON envelope"})
	}
	if c.Confirm != "" {
		out = append(out, Flag{Name: FlagYes, Short: "y", Kind: KindBool, Usage: "Do not ask for confirmation"})
	}
	return out
}

// Lookup returns the command called name.
func (s *Spec) Lookup(name string) (Command, bool) {
	if s == nil {
		return Command{}, false
	}
	for _, cmd := range s.Commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return Command{}, false
}

// Default loads the embedded command line.
func Default() (*Spec, error) {
	data, err := embedded.ReadFile("commands.yaml")
	if err != nil {
		return nil, fmt.Errorf("spec: read commands: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the schema, decodes it and checks the
// references between commands and flags.
func Parse(data []byte) (*Spec, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("spec: empty document")
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	doc := &Spec{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("spec: decode: %w", err)
	}
	if err := doc.check(); err != nil {
		return nil, err
	}
	return doc, nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	f, err := embedded.Open(schemaName)
	if err != nil {
		return nil, fmt.Errorf("spec: open schema: %w", err)
	}
	defer f.Close()
	doc, err := jsonschema.UnmarshalJSON(f)
	if err != nil {
		return nil, fmt.Errorf("spec: parse schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, doc); err != nil {
		return nil, fmt.Errorf("spec: load schema: %w", err)
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		return nil, fmt.Errorf("spec: compile schema: %w", err)
	}
	return schema, nil
})

// Validate checks a YAML document against the embedded schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("spec: parse yaml: %w", err)
	}
	// The validator expects values as decoded from JSON.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("spec: convert yaml: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("spec: convert yaml: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("spec: %w", err)
	}
	return nil
}

func (s *Spec) check() error {
	var errs []error
	owners := map[string]string{}
	for _, cmd := range s.Commands {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			if prev, ok := owners[name]; ok {
				errs = append(errs, fmt.Errorf("spec: %q names both %s and %s", name, prev, cmd.Name))
				continue
			}
			owners[name] = cmd.Name
		}
		errs = append(errs, cmd.check(s.Flags)...)
	}
	for _, f := range s.Flags {
		if err := f.check(); err != nil {
			errs = append(errs, fmt.Errorf("spec: global %w", err))
		}
	}
	if s.App.Default != "" {
		if _, ok := s.Lookup(s.App.Default); !ok {
			errs = append(errs, fmt.Errorf("spec: default command %q is not declared", s.App.Default))
		}
	}
	return errors.Join(errs...)
}

func (c Command) check(globals []Flag) []error {
	var errs []error
	declared := map[string]bool{}
	for _, f := range globals {
		declared[f.Name] = true
	}
	local := map[string]bool{}
	for _, f := range c.AllFlags() {
		if declared[f.Name] || local[f.Name] {
			errs = append(errs, fmt.Errorf("spec: %s: flag --%s declared twice", c.Name, f.Name))
		}
		local[f.Name] = true
		if err := f.check(); err != nil {
			errs = append(errs, fmt.Errorf("spec: %s: %w", c.Name, err))
		}
	}
	for _, group := range c.Excludes {
		for _, name := range group {
			if !local[name] {
				errs = append(errs, fmt.Errorf("spec: %s: excludes names unknown flag --%s", c.Name, name))
			}
		}
	}
	return errs
}

func (f Flag) check() error {
	switch f.Kind {
	case KindChoice:
		if len(f.Choices) == 0 {
			return fmt.Errorf("flag --%s has no choices", f.Name)
		}
		if f.Default != "" && !slices.Contains(f.Choices, f.Default) {
			return fmt.Errorf("flag --%s default %q is not a choice", f.Name, f.Default)
		}
	case KindDuration:
		if f.Default != "" {
			if _, err := time.ParseDuration(f.Default); err != nil {
				return fmt.Errorf("flag --%s default: %w", f.Name, err)
			}
		}
	}
	return nil
}
