package segment

import (
	"fmt"
	"strings"
)

// StageName identifies one pipeline stage.
type StageName string

const (
	StageColor       StageName = "color"
	StageEdge        StageName = "edge"
	StageCluster     StageName = "cluster"
	StageStatistical StageName = "statistical"
	StageAlpha       StageName = "alpha"
	StageCrop        StageName = "crop"
)

// Order is the fixed evaluation order. Masking stages come first, then alpha
// compositing, then cropping.
var Order = []StageName{
	StageColor,
	StageEdge,
	StageCluster,
	StageStatistical,
	StageAlpha,
	StageCrop,
}

// legacyNames maps the switch names used by earlier dataset tooling.
var legacyNames = map[string]StageName{
	"colormask":       StageColor,
	"edgemask":        StageEdge,
	"clustermask":     StageCluster,
	"statisticalmask": StageStatistical,
	"addalphachannel": StageAlpha,
	"croptomask":      StageCrop,
}

// ParseStageName accepts a stage name (case-insensitive) or its legacy switch
// name such as "colorMask".
func ParseStageName(s string) (StageName, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, name := range Order {
		if key == string(name) {
			return name, nil
		}
	}
	if name, ok := legacyNames[key]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown stage %q (valid: %s)", s, strings.Join(stageStrings(Order), ", "))
}

// Config is the set of enabled stages. The zero value enables nothing.
// A Config is immutable once constructed.
type Config struct {
	enabled [6]bool
}

// NewConfig enables the given stages. Duplicates are ignored and the order of
// names does not matter.
func NewConfig(names ...StageName) (Config, error) {
	var c Config
	for _, name := range names {
		i := indexOf(name)
		if i < 0 {
			return Config{}, fmt.Errorf("unknown stage %q", name)
		}
		c.enabled[i] = true
	}
	return c, nil
}

// ParseConfig builds a Config from names as given on a command line or in a
// config file. Entries may themselves be comma-separated lists. The name
// "all" enables every stage.
func ParseConfig(values []string) (Config, error) {
	var (
		names []StageName
		all   bool
	)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(part), "all") {
				all = true
				continue
			}
			name, err := ParseStageName(part)
			if err != nil {
				return Config{}, err
			}
			names = append(names, name)
		}
	}
	if all {
		return AllStages(), nil
	}
	return NewConfig(names...)
}

// AllStages enables every stage.
func AllStages() Config {
	c, _ := NewConfig(Order...)
	return c
}

// Enabled reports whether a stage is switched on.
func (c Config) Enabled(name StageName) bool {
	i := indexOf(name)
	return i >= 0 && c.enabled[i]
}

// Stages returns the enabled stages in evaluation order.
func (c Config) Stages() []StageName {
	out := make([]StageName, 0, len(Order))
	for i, name := range Order {
		if c.enabled[i] {
			out = append(out, name)
		}
	}
	return out
}

// Empty reports whether no stage is enabled.
func (c Config) Empty() bool {
	return len(c.Stages()) == 0
}

// String lists the enabled stages, comma-separated, in evaluation order.
func (c Config) String() string {
	return strings.Join(stageStrings(c.Stages()), ",")
}

func indexOf(name StageName) int {
	for i, n := range Order {
		if n == name {
			return i
		}
	}
	return -1
}

func stageStrings(names []StageName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
