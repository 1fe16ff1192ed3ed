// Package janitor implements the commands that inspect single nodes and
// change the content repository: show, copy-site and import.
package janitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
	"github.com/fulmenhq/janitor/pkg/logger"
)

// ErrInvalidArgument is returned for unusable command arguments.
var ErrInvalidArgument = errors.New("invalid argument")

// Printer is the console surface the commands write to.
type Printer interface {
	Output(text string, args ...interface{})
	OutputLine(text string, args ...interface{})
	NewLine()
}

// Service runs janitor commands against a repository.
type Service struct {
	repo       *contentrepo.Repository
	combinator *dimensions.Combinator
	out        Printer
}

// NewService returns a Service printing to out.
func NewService(repo *contentrepo.Repository, combinator *dimensions.Combinator, out Printer) *Service {
	return &Service{repo: repo, combinator: combinator, out: out}
}

// Show prints label, type, properties and children of the node at
// nodePath in the workspace's default dimensions. A path starting with "#"
// selects a node by identifier.
func (s *Service) Show(ctx context.Context, nodePath, workspace string) error {
	c, err := s.repo.CreateContext(ctx, workspace, s.combinator.DefaultCombination())
	if errors.Is(err, contentrepo.ErrWorkspaceNotFound) {
		logger.Warn("Workspace not found", logger.String("workspace", workspace))
		s.notFound()
		return nil
	}
	if err != nil {
		return err
	}

	var node *contentrepo.Node
	if id, ok := strings.CutPrefix(nodePath, "#"); ok {
		node = c.NodeByIdentifier(id)
	} else {
		node = c.NodeByPath(nodePath)
	}
	if node == nil {
		s.notFound()
		return nil
	}

	props, err := prettyJSON(node.Properties())
	if err != nil {
		return fmt.Errorf("encoding properties of %s: %w", node.Path(), err)
	}

	s.out.NewLine()
	s.out.OutputLine(`Node <b>"%s"</b> of type <b>%s</b>`, node.Label(), node.NodeTypeName())
	s.out.NewLine()
	s.out.OutputLine("<b>Properties:</b>")
	s.out.NewLine()
	s.out.OutputLine("%s", props)
	s.out.NewLine()
	s.out.OutputLine("<b>Children:</b>")
	s.out.NewLine()
	for _, child := range c.Children(node) {
		s.out.OutputLine("    <b>%s</b>", child.Path())
		s.out.OutputLine("    <i>%s</i>", child.Label())
		s.out.OutputLine("    %s", child.NodeTypeName())
		s.out.NewLine()
	}
	return nil
}

func (s *Service) notFound() {
	s.out.NewLine()
	s.out.OutputLine("<error>Node not found</error>")
	s.out.NewLine()
}

func prettyJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
