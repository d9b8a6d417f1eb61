// Package io provides JSON import and export for page layouts.
//
// # Overview
//
// A layout document is the on-disk form of a [layout.Page]. The CLI keeps the
// page being edited in one of these files between invocations, and exports
// can be run against any document produced by the editor or by hand.
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "id": "4f1c...",
//	  "meta": {"title": "Launch", "locale": "en", "tags": ["landing"]},
//	  "components": [
//	    {"id": "a1", "type": "header", "section": "top", "props": {"brand": "Acme"}},
//	    {"id": "b2", "type": "hero", "props": {"title": "Launch Faster"}}
//	  ]
//	}
//
// Components are listed in page order. The "section" field defaults to
// flexible and "position" is recomputed on import, so hand-written documents
// may omit both. Property maps accept any JSON value.
//
// # Import
//
// Use [ImportJSON] to read a document from a file path, or [ReadJSON] to read
// from any io.Reader. Both validate the document: every component needs an id
// and a type, ids must be unique, and the version must be supported.
//
// # Export
//
// Use [ExportJSON] or [WriteJSON]. Output is indented and property maps are
// written with sorted keys, so exporting the same page twice yields identical
// bytes.
//
// [layout.Page]: github.com/matzehuels/pagecraft/pkg/layout.Page
package io
