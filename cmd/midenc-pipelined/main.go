// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"midenc/internal/pipelinecfg"
)

const lsName = "midenc-pipelined"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	// Configure debug logging (1 = debug level, nil = default logger),
	// matching kanso-lsp's own commonlog.Configure call.
	commonlog.Configure(1, nil)

	h := newPipelinedHandler(pipelinecfg.Default())

	handler = protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidChange: h.TextDocumentDidChange,
		TextDocumentDidClose:  h.TextDocumentDidClose,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("starting midenc-pipelined server...")

	if err := s.RunStdio(); err != nil {
		log.Println("error starting midenc-pipelined server:", err)
		os.Exit(1)
	}
}
