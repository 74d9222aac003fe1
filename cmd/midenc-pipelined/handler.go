// SPDX-License-Identifier: Apache-2.0
package main

import (
	stderrors "errors"
	"fmt"
	"log"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	mderrors "midenc/internal/errors"
	"midenc/internal/pipeline"
	"midenc/internal/pipelinecfg"
	"midenc/internal/textir"
)

// pipelinedHandler runs the full compile pipeline (parse, CFG-to-SCF
// lifting, spill analysis, memory lowering) on every document open or
// change and republishes its errors as LSP diagnostics. It plays the
// role kanso's internal/lsp.KansoHandler plays for kanso-lsp — a
// mutex-guarded per-document cache refreshed by an updateAST-style
// helper — adapted to this module's textual-IR-and-pipeline domain
// rather than Kanso source parsing; semantic tokens and completions
// are not implemented, since there is no surface syntax feature here
// for them to describe beyond what diagnostics already cover.
type pipelinedHandler struct {
	mu      sync.RWMutex
	content map[string]string
	p       *pipeline.Pipeline
}

func newPipelinedHandler(cfg pipelinecfg.Config) *pipelinedHandler {
	return &pipelinedHandler{
		content: make(map[string]string),
		p:       pipeline.New(cfg),
	}
}

func (h *pipelinedHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("midenc-pipelined: initialize")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func (h *pipelinedHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("midenc-pipelined: initialized")
	return nil
}

func (h *pipelinedHandler) Shutdown(ctx *glsp.Context) error {
	log.Println("midenc-pipelined: shutdown")
	return nil
}

func (h *pipelinedHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("midenc-pipelined: opened %s\n", params.TextDocument.URI)
	h.refresh(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (h *pipelinedHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	text, ok := fullText(params.ContentChanges)
	if !ok {
		return nil
	}
	log.Printf("midenc-pipelined: changed %s\n", params.TextDocument.URI)
	h.refresh(ctx, params.TextDocument.URI, text)
	return nil
}

func (h *pipelinedHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("midenc-pipelined: closed %s\n", params.TextDocument.URI)
	h.mu.Lock()
	delete(h.content, string(params.TextDocument.URI))
	h.mu.Unlock()
	return nil
}

// fullText extracts the whole-document text from a full-sync content
// change notification (this server only advertises
// TextDocumentSyncKindFull, so incremental Range-bearing entries never
// arrive in practice).
func fullText(changes []interface{}) (string, bool) {
	for _, c := range changes {
		switch whole := c.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return whole.Text, true
		case protocol.TextDocumentContentChangeEvent:
			return whole.Text, true
		}
	}
	return "", false
}

// refresh re-runs the pipeline over uri's current text and publishes
// whatever diagnostics result, corresponding to the teacher's
// updateAST + sendDiagnosticNotification pairing.
func (h *pipelinedHandler) refresh(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	h.mu.Lock()
	h.content[string(uri)] = text
	h.mu.Unlock()

	diagnostics := h.compile(text)
	sendDiagnosticNotification(ctx, uri, diagnostics)
}

func (h *pipelinedHandler) compile(text string) []protocol.Diagnostic {
	file, err := textir.ParseString("<document>", text)
	if err != nil {
		return []protocol.Diagnostic{diagnosticFromParseError(err)}
	}

	fns, err := textir.Build(file)
	if err != nil {
		return []protocol.Diagnostic{{
			Range:    zeroRange(),
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("midenc-build"),
			Message:  err.Error(),
		}}
	}

	var diagnostics []protocol.Diagnostic
	for _, fn := range fns {
		if _, err := h.p.Run(fn); err != nil {
			diagnostics = append(diagnostics, diagnosticFromPipelineError(fn.Name, err))
		}
	}
	return diagnostics
}

func diagnosticFromParseError(err error) protocol.Diagnostic {
	pe, ok := err.(participle.Error)
	if !ok {
		return protocol.Diagnostic{
			Range:    zeroRange(),
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("midenc-parser"),
			Message:  err.Error(),
		}
	}
	pos := pe.Position()
	return protocol.Diagnostic{
		Range:    rangeAt(pos.Line, pos.Column),
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("midenc-parser"),
		Message:  pe.Message(),
	}
}

func diagnosticFromPipelineError(fnName string, err error) protocol.Diagnostic {
	var ce mderrors.CompilerError
	msg := err.Error()
	rng := zeroRange()
	if stderrors.As(err, &ce) {
		msg = ce.Message
		rng = rangeAt(ce.Position.Line, ce.Position.Column)
	}
	return protocol.Diagnostic{
		Range:    rng,
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("midenc-pipeline"),
		Message:  fmt.Sprintf("func @%s: %s", fnName, msg),
	}
}

func rangeAt(line, col int) protocol.Range {
	l, c := max0(line-1), max0(col-1)
	return protocol.Range{
		Start: protocol.Position{Line: uint32(l), Character: uint32(c)},
		End:   protocol.Position{Line: uint32(l), Character: uint32(c + 6)},
	}
}

func zeroRange() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 1},
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.URI(uri),
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
