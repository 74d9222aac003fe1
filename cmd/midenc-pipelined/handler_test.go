package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"midenc/internal/pipelinecfg"
)

func TestCompileValidSourceProducesNoDiagnostics(t *testing.T) {
	h := newPipelinedHandler(pipelinecfg.Default())
	src := "func @f {\nbb0:\n  %c = const 1 : felt\n  return %c\n}\n"

	diags := h.compile(src)
	require.Empty(t, diags)
}

func TestCompileSyntaxErrorProducesParserDiagnostic(t *testing.T) {
	h := newPipelinedHandler(pipelinecfg.Default())
	src := "func @f {\nbb0\n"

	diags := h.compile(src)
	require.Len(t, diags, 1)
	require.Equal(t, "midenc-parser", *diags[0].Source)
}

func TestCompileUndefinedSuccessorProducesBuildDiagnostic(t *testing.T) {
	h := newPipelinedHandler(pipelinecfg.Default())
	src := "func @f {\nbb0:\n  br bb9\n}\n"

	diags := h.compile(src)
	require.Len(t, diags, 1)
	require.Equal(t, "midenc-build", *diags[0].Source)
}

func TestInitializeAdvertisesFullDocumentSync(t *testing.T) {
	h := newPipelinedHandler(pipelinecfg.Default())
	ctx := &glsp.Context{}

	result, err := h.Initialize(ctx, &protocol.InitializeParams{})
	require.NoError(t, err)

	ir, ok := result.(*protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, ir.Capabilities.TextDocumentSync)
}

func TestDidCloseRemovesCachedContent(t *testing.T) {
	h := newPipelinedHandler(pipelinecfg.Default())
	h.content["file:///f.ir"] = "func @f {\n}\n"

	err := h.TextDocumentDidClose(&glsp.Context{}, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///f.ir"},
	})
	require.NoError(t, err)
	require.NotContains(t, h.content, "file:///f.ir")
}
