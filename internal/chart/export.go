package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/projector"
)

// Sections lists the chart sections in display order.
var Sections = []string{"week", "day", "contested"}

// ExportAll writes one PNG per series of every enabled chart section into
// dir and returns the written paths. Nothing is written when charts are
// disabled for the projection.
func ExportAll(dir string, p projector.Projection, opts Options) ([]string, error) {
	if !p.ChartsEnabled {
		log.Info().Float64("contact_days", p.ContactDays).Msg("charts disabled, nothing to export")
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	var paths []string
	for _, section := range Sections {
		series, _ := p.Section(section)
		for i, s := range series {
			if len(s.Points) == 0 {
				continue
			}
			path := filepath.Join(dir, FileName(section, i, s.Label))
			if err := writePNG(path, s, opts); err != nil {
				return paths, err
			}
			log.Debug().Str("path", path).Str("series", s.Label).Msg("exported chart")
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func writePNG(path string, s projector.Series, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := RenderPNG(f, s, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FileName builds a file-system safe name such as
// "week_00_Интерес_по_сообщениям.png".
func FileName(section string, index int, label string) string {
	return fmt.Sprintf("%s_%02d_%s.png", section, index, sanitize(label))
}

func sanitize(label string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "series"
	}
	return out
}
