package app

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

//go:embed help.md
var helpMarkdown []byte

const helpPage = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Comedor: ayuda</title>
<style>body{font-family:sans-serif;max-width:46rem;margin:2rem auto;padding:0 1rem;line-height:1.5}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .6rem}code{background:#f3f3f3;padding:0 .2rem}</style>
</head>
<body>
%s</body>
</html>
`

// RenderHelp converts the embedded help document to a standalone HTML page.
func RenderHelp() ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Linkify,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert(helpMarkdown, &body); err != nil {
		return nil, fmt.Errorf("render help: %w", err)
	}
	return []byte(fmt.Sprintf(helpPage, body.String())), nil
}
