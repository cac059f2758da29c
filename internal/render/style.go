package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
	"github.com/sadopc/dtree/internal/walker"
)

// gradientSteps is the number of depth levels before the directory gradient
// wraps around.
const gradientSteps = 6

// Style colors entry names. The zero value and a disabled Style leave text
// untouched.
type Style struct {
	enabled bool

	GradientStart lipgloss.Color
	GradientEnd   lipgloss.Color

	dirs      []lipgloss.Style
	files     map[category]lipgloss.Style
	Link      lipgloss.Style
	Exec      lipgloss.Style
	Perm      lipgloss.Style
	ErrorText lipgloss.Style
	Target    lipgloss.Style
}

// NewStyle returns a Style writing ANSI colors for w. When enabled is false
// the returned Style renders plain text.
func NewStyle(w io.Writer, enabled bool) *Style {
	if !enabled {
		return &Style{}
	}

	r := lipgloss.NewRenderer(w)
	// The caller has already decided colors are wanted, even if w is a pipe.
	r.SetColorProfile(termenv.TrueColor)

	s := &Style{
		enabled:       true,
		GradientStart: lipgloss.Color("#61AFEF"),
		GradientEnd:   lipgloss.Color("#C678DD"),
	}
	s.dirs = make([]lipgloss.Style, gradientSteps)
	for i := range s.dirs {
		ratio := float64(i) / float64(gradientSteps-1)
		s.dirs[i] = r.NewStyle().Bold(true).Foreground(s.GradientColor(ratio))
	}
	s.files = make(map[category]lipgloss.Style, len(categoryColors))
	for cat, color := range categoryColors {
		s.files[cat] = r.NewStyle().Foreground(color)
	}
	s.Link = r.NewStyle().Foreground(lipgloss.Color("#56B6C2"))
	s.Exec = r.NewStyle().Foreground(lipgloss.Color("#98C379"))
	s.Perm = r.NewStyle().Foreground(lipgloss.Color("#5C6370"))
	s.ErrorText = r.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	s.Target = r.NewStyle().Foreground(lipgloss.Color("#ABB2BF"))
	return s
}

// Enabled reports whether the style emits colors.
func (s *Style) Enabled() bool {
	return s != nil && s.enabled
}

// GradientColor returns a color interpolated between gradient start and end.
func (s *Style) GradientColor(ratio float64) lipgloss.Color {
	if ratio <= 0 {
		return s.GradientStart
	}
	if ratio >= 1 {
		return s.GradientEnd
	}

	c1, _ := colorful.Hex(string(s.GradientStart))
	c2, _ := colorful.Hex(string(s.GradientEnd))
	return lipgloss.Color(c1.BlendLab(c2, ratio).Hex())
}

// Name renders an entry name according to its kind and depth.
func (s *Style) Name(e walker.Entry, depth int) string {
	if !s.Enabled() {
		return e.Name
	}
	switch e.Kind {
	case walker.KindDir:
		return s.dirs[depth%len(s.dirs)].Render(e.Name)
	case walker.KindSymlink:
		return s.Link.Render(e.Name)
	default:
		if e.Mode.IsRegular() && e.Mode.Perm()&0o111 != 0 {
			return s.Exec.Render(e.Name)
		}
		if st, ok := s.files[classifyName(e.Name)]; ok {
			return st.Render(e.Name)
		}
		return e.Name
	}
}

func (s *Style) paint(st lipgloss.Style, text string) string {
	if !s.Enabled() {
		return text
	}
	return st.Render(text)
}
