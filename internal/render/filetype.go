package render

import (
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// category groups regular files by extension for coloring.
type category uint8

const (
	catPlain category = iota
	catMedia
	catCode
	catArchive
	catDocument
	catSystem
)

var categoryColors = map[category]lipgloss.Color{
	catMedia:    "#D19A66",
	catCode:     "#E5C07B",
	catArchive:  "#BE5046",
	catDocument: "#D7DAE0",
	catSystem:   "#5C6370",
}

var extCategory = map[string]category{}

func init() {
	groups := map[category][]string{
		catMedia: {
			".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico", ".heic", ".avif",
			".mp4", ".mkv", ".mov", ".avi", ".webm", ".mp3", ".flac", ".wav", ".ogg", ".m4a",
		},
		catCode: {
			".go", ".c", ".h", ".cpp", ".rs", ".py", ".rb", ".js", ".ts", ".java", ".sh",
			".json", ".yaml", ".yml", ".toml", ".xml", ".proto", ".sql", ".html", ".css",
		},
		catArchive: {
			".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".zst", ".7z", ".rar", ".jar",
			".deb", ".rpm", ".iso",
		},
		catDocument: {
			".txt", ".md", ".rst", ".pdf", ".doc", ".docx", ".odt", ".csv", ".tsv", ".tex",
		},
		catSystem: {
			".log", ".bak", ".tmp", ".swp", ".lock", ".pid", ".sock", ".so", ".dll", ".o", ".a",
		},
	}
	for cat, exts := range groups {
		for _, ext := range exts {
			extCategory[ext] = cat
		}
	}
}

// classifyName returns the category of a file name by its extension. A name
// that is only a dot-prefixed word (".bashrc") has no extension.
func classifyName(name string) category {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" || ext == strings.ToLower(name) {
		return catPlain
	}
	return extCategory[ext]
}
