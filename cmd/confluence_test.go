package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rwdocs/docstage/internal/adapters/confluence"
	"github.com/rwdocs/docstage/internal/core/entities"
	"github.com/rwdocs/docstage/internal/ui"
)

func TestBuildConfluenceClient_MissingBaseURLErrors(t *testing.T) {
	cfg := entities.Config{Confluence: entities.ConfluenceConfig{PrivateKeyPath: "private_key.pem"}}
	_, err := buildConfluenceClient(cfg)
	if err == nil {
		t.Fatal("expected an error when base_url is unset")
	}
	if !entities.IsKind(err, entities.KindConfig) {
		t.Errorf("expected KindConfig error, got %v", err)
	}
}

func TestBuildConfluenceClient_MissingPrivateKeyPathErrors(t *testing.T) {
	cfg := entities.Config{Confluence: entities.ConfluenceConfig{BaseURL: "https://wiki.example.com"}}
	_, err := buildConfluenceClient(cfg)
	if err == nil {
		t.Fatal("expected an error when private_key_path is unset")
	}
	if !entities.IsKind(err, entities.KindConfig) {
		t.Errorf("expected KindConfig error, got %v", err)
	}
}

func TestBuildDiagramRenderClient_NoKrokiURLReturnsNil(t *testing.T) {
	cfg := entities.Config{}
	if client := buildDiagramRenderClient(cfg); client != nil {
		t.Errorf("expected nil client with no kroki_url, got %v", client)
	}
}

func TestBuildDiagramRenderClient_WithKrokiURLReturnsClient(t *testing.T) {
	cfg := entities.Config{Diagrams: entities.DiagramsConfig{KrokiURL: "http://localhost:8000"}}
	if client := buildDiagramRenderClient(cfg); client == nil {
		t.Error("expected a non-nil client when kroki_url is set")
	}
}

func TestPrintUnmatchedComments_EmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	out := ui.NewOutput().WithWriter(&buf).WithErrWriter(&buf)
	printUnmatchedComments(out, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for an empty slice, got %q", buf.String())
	}
}

func TestPrintUnmatchedComments_ListsEveryEntry(t *testing.T) {
	var buf bytes.Buffer
	out := ui.NewOutput().WithWriter(&buf).WithErrWriter(&buf)
	printUnmatchedComments(out, []confluence.UnmatchedComment{
		{RefID: "ref-1", Text: "looks stale"},
		{RefID: "ref-2", Text: "needs a follow-up"},
	})

	output := buf.String()
	if !strings.Contains(output, "ref-1") || !strings.Contains(output, "looks stale") {
		t.Errorf("expected first unmatched comment in output, got %q", output)
	}
	if !strings.Contains(output, "ref-2") || !strings.Contains(output, "needs a follow-up") {
		t.Errorf("expected second unmatched comment in output, got %q", output)
	}
}
