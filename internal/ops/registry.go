/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupReport  CommandGroup = "report"  // read-only reports over the content tree
	GroupJanitor CommandGroup = "janitor" // inspection and mutation of nodes and sites
	GroupSupport CommandGroup = "support" // version, import
)

// HelpOrder is the order in which groups appear on the root help screen.
var HelpOrder = []CommandGroup{GroupReport, GroupJanitor, GroupSupport}

// Title returns the help heading for a group.
func (g CommandGroup) Title() string {
	switch g {
	case GroupReport:
		return "Report Commands"
	case GroupJanitor:
		return "Janitor Commands"
	case GroupSupport:
		return "Support Commands"
	default:
		return string(g)
	}
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
	// Mutates reports whether the command writes to the content repository.
	Mutates bool
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

var globalRegistry = NewRegistry()

// GetRegistry returns the global command registry
func GetRegistry() *Registry {
	return globalRegistry
}

// Register adds a command to the registry
func (r *Registry) Register(reg *CommandRegistration) error {
	if reg == nil || reg.Name == "" {
		return fmt.Errorf("command registration requires a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[reg.Name]; exists {
		return fmt.Errorf("command %s already registered", reg.Name)
	}

	r.commands[reg.Name] = reg
	r.groupIndex[reg.Group] = append(r.groupIndex[reg.Group], reg)
	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns the commands of a group sorted by name
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*CommandRegistration, len(r.groupIndex[group]))
	copy(out, r.groupIndex[group])
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MutatingCommands returns the names of all commands that write to the repository
func (r *Registry) MutatingCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, reg := range r.commands {
		if reg.Mutates {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ListGroups returns all command groups and their command counts
func (r *Registry) ListGroups() map[CommandGroup]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[CommandGroup]int)
	for group, commands := range r.groupIndex {
		result[group] = len(commands)
	}
	return result
}
