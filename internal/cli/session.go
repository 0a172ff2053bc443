package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"svgtrav/pkg/config"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/svgdoc"
)

// session is one loaded document with the settings it was loaded with.
type session struct {
	doc *svgdoc.Document
	cfg *config.Config
	log *log.Logger
}

func openSession(cmd *cobra.Command, uri string) (*session, error) {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx).With("doc", uri)
	doc, err := svgdoc.Load(uri, cfg.DocumentOptions(logger))
	if err != nil {
		return nil, err
	}
	return &session{doc: doc, cfg: cfg, log: logger}, nil
}

// element returns the element with the given id.
func (s *session) element(id string) (*dom.Node, error) {
	n := s.doc.DOM.GetElementByID(id)
	if n == nil {
		return nil, fmt.Errorf("no element with id %q", id)
	}
	return n, nil
}
