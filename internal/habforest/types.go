// Package habforest discovers and parses the two JSON forests a site
// describes: the config tree (keyed by URI) and the distro tree (keyed by
// name and version).
package habforest

import (
	"encoding/json"
	"fmt"

	"github.com/hab-tool/hab/internal/hab"
)

// Operations mirrors hab.Operations for JSON decoding convenience; configs
// and distros both embed it as their `environment` field.
type Operations = hab.Operations

// Node is the shape shared by config and distro JSON documents: known fields are promoted to struct fields, everything else is
// preserved verbatim for plugin consumption.
type Node struct {
	Name string `json:"name"`
	Context []string `json:"context,omitempty"`
	Version string `json:"version,omitempty"`
	Inherits *bool `json:"inherits,omitempty"`
	Distros []string `json:"distros,omitempty"`
	OptionalDistros map[string]OptionalDistro `json:"optional_distros,omitempty"`
	StubDistros *StubDistros `json:"stub_distros,omitempty"`
	Environment *Operations `json:"environment,omitempty"`
	AliasMods map[string]AliasModJSON `json:"alias_mods,omitempty"`
	Aliases map[string][]AliasEntryRaw `json:"aliases,omitempty"`
	MinVerbosity map[string]int `json:"min_verbosity,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`

	// Extra preserves unknown top-level keys verbatim.
	Extra map[string]json.RawMessage `json:"-"`

	// SourcePath is the JSON file this node was parsed from, used for
	// {relative_root} formatting and error messages.
	SourcePath string `json:"-"`
}

// OptionalDistro is an entry in a config's optional_distros map: a
// requirement string's description plus whether it defaults on.
type OptionalDistro struct {
	Description string `json:"description"`
	DefaultOn bool `json:"default_on"`
}

// UnmarshalJSON accepts either the documented [description, default_on?]
// tuple form or an object form, to tolerate hand-authored site JSON.
func (o *OptionalDistro) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) > 0 {
			_ = json.Unmarshal(tuple[0], &o.Description)
		}
		if len(tuple) > 1 {
			_ = json.Unmarshal(tuple[1], &o.DefaultOn)
		}
		return nil
	}
	type alias OptionalDistro
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*o = OptionalDistro(a)
	return nil
}

// StubDistros controls per-URI "omittable" distro overrides.
type StubDistros struct {
	Set []string `json:"set,omitempty"`
	Unset []string `json:"unset,omitempty"`
}

// AliasModJSON is a partial alias override (environment only).
type AliasModJSON struct {
	Environment *Operations `json:"environment,omitempty"`
}

// AliasEntryRaw is one entry of a distro's aliases[platform] ordered list:
// a `[alias_name, spec]` tuple, where spec is a bare command string, an
// argv list, or a `{cmd, environment}` object.
type AliasEntryRaw struct {
	Name string
	Cmd CmdValue
	Environment *Operations
}

// CmdValue holds either a single command string or an argv list.
type CmdValue struct {
	Str string
	List []string
}

func (c *CmdValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Str = s
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	c.List = list
	return nil
}

// UnmarshalJSON decodes the `[alias_name, spec]` tuple wire form. spec
// itself may be a bare string, an argv list, or a `{cmd, environment}`
// object.
func (a *AliasEntryRaw) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("alias entry is not a [name, spec] tuple: %w", err)
	}
	if len(tuple) == 0 {
		return fmt.Errorf("alias entry tuple is empty")
	}
	if err := json.Unmarshal(tuple[0], &a.Name); err != nil {
		return fmt.Errorf("alias entry name: %w", err)
	}
	if len(tuple) < 2 {
		return nil
	}
	return a.unmarshalSpec(tuple[1])
}

func (a *AliasEntryRaw) unmarshalSpec(data json.RawMessage) error {
	var cmd CmdValue
	if err := json.Unmarshal(data, &cmd); err == nil && (cmd.Str != "" || cmd.List != nil) {
		a.Cmd = cmd
		return nil
	}
	var obj struct {
		Cmd CmdValue `json:"cmd"`
		Environment *Operations `json:"environment,omitempty"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("alias entry spec: %w", err)
	}
	a.Cmd = obj.Cmd
	a.Environment = obj.Environment
	return nil
}

var knownNodeKeys = map[string]bool{
	"name": true, "context": true, "version": true, "inherits": true,
	"distros": true, "optional_distros": true, "stub_distros": true,
	"environment": true, "alias_mods": true, "aliases": true,
	"min_verbosity": true, "variables": true,
}

// UnmarshalJSON decodes known fields via the default struct tags, then
// preserves every other top-level key verbatim in Extra.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*n = Node(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Extra = map[string]json.RawMessage{}
	for k, v := range raw {
		if !knownNodeKeys[k] {
			n.Extra[k] = v
		}
	}
	return nil
}

// URI returns the node's derived URI: context + [name] joined by "/".
func (n *Node) URI() string {
	segs := append(append([]string{}, n.Context...), n.Name)
	result := ""
	for i, s := range segs {
		if i > 0 {
			result += "/"
		}
		result += s
	}
	return result
}

// InheritsFlag reports the node's inherits setting, defaulting to false.
func (n *Node) InheritsFlag() bool {
	return n.Inherits != nil && *n.Inherits
}

// ConfigForest is the tree of config nodes keyed by URI, split into the
// user forest and the default forest.
type ConfigForest struct {
	User map[string]*Node
	Default map[string]*Node
}

// DistroNode is a distro JSON document plus its resolved version and the
// directory it was discovered in.
type DistroNode struct {
	Node
	Dir string
}

// DistroForest maps a distro name to its versions, keyed by version
// string; SortedVersions returns a name's versions in PEP 440 order.
type DistroForest struct {
	Versions map[string]map[string]*DistroNode
}

func NewDistroForest() *DistroForest {
	return &DistroForest{Versions: map[string]map[string]*DistroNode{}}
}

func NewConfigForest() *ConfigForest {
	return &ConfigForest{User: map[string]*Node{}, Default: map[string]*Node{}}
}
