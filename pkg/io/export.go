package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// Version is the document format version written by this package.
const Version = 1

type document struct {
	Version    int         `json:"version"`
	ID         string      `json:"id"`
	Meta       layout.Meta `json:"meta"`
	Components []component `json:"components"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}

type component struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Section   registry.Position `json:"section,omitempty"`
	Position  *int              `json:"position,omitempty"`
	Props     value.Map         `json:"props"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	UpdatedAt *time.Time        `json:"updated_at,omitempty"`
}

// WriteJSON encodes p as a layout document and writes it to w.
func WriteJSON(p *layout.Page, w io.Writer) error {
	out := document{
		Version:    Version,
		ID:         p.ID,
		Meta:       p.Meta,
		Components: make([]component, len(p.Components)),
		CreatedAt:  timePtr(p.CreatedAt),
		UpdatedAt:  timePtr(p.UpdatedAt),
	}
	for i, in := range p.Components {
		pos := in.Position
		c := component{
			ID:        in.ID,
			Type:      in.Type,
			Position:  &pos,
			Props:     in.Props,
			CreatedAt: timePtr(in.CreatedAt),
			UpdatedAt: timePtr(in.UpdatedAt),
		}
		if in.Section != registry.PositionFlexible {
			c.Section = in.Section
		}
		if c.Props == nil {
			c.Props = value.Map{}
		}
		out.Components[i] = c
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes p to a JSON file at path, creating parent directories.
func ExportJSON(p *layout.Page, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(p, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
