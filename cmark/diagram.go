package cmark

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/d2themes/d2themescatalog"
	"oss.terrastruct.com/d2/lib/textmeasure"
)

// ErrNoContent is returned when there is nothing to render.
var ErrNoContent = errors.New("no content")

// RenderDiagram compiles a D2 diagram description and returns it as SVG.
func RenderDiagram(ctx context.Context, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrNoContent
	}

	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return nil, fmt.Errorf("creating text ruler: %w", err)
	}

	defaultLayout := func(ctx context.Context, g *d2graph.Graph) error {
		return d2dagrelayout.Layout(ctx, g, nil)
	}
	diagram, _, err := d2lib.Compile(ctx, source, &d2lib.CompileOptions{
		Layout: defaultLayout,
		Ruler:  ruler,
	})
	if err != nil {
		return nil, fmt.Errorf("compiling d2 diagram: %w", err)
	}

	svg, err := d2svg.Render(diagram, &d2svg.RenderOpts{
		Pad:     d2svg.DEFAULT_PADDING,
		ThemeID: d2themescatalog.NeutralDefault.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering d2 diagram: %w", err)
	}
	return svg, nil
}

// CachedDiagram is RenderDiagram with a cache in dir. The file name holds the
// hash of the source, so a modified diagram gets a new file and stale ones
// have to be deleted by hand. An empty dir disables the cache.
func CachedDiagram(ctx context.Context, dir, source string) ([]byte, error) {
	if dir == "" {
		return RenderDiagram(ctx, source)
	}

	hh := md5.Sum([]byte(source))
	fileName := filepath.Join(dir, fmt.Sprintf("d2_%x.svg", hh))

	if svg, err := os.ReadFile(fileName); err == nil {
		return svg, nil
	}

	svg, err := RenderDiagram(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating diagram cache: %w", err)
	}
	if err := os.WriteFile(fileName, svg, 0664); err != nil {
		return nil, fmt.Errorf("writing diagram cache: %w", err)
	}
	return svg, nil
}
