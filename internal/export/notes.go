package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/matsen/episodegraph/internal/episode"
	"go.uber.org/zap"
)

// NoteExtension is the file extension of exported notes.
const NoteExtension = ".md"

// Note is the rendered note for one episode.
type Note struct {
	EpisodeID int    `json:"episode_id"`
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	Content   string `json:"-"`
}

// Collision records two episodes whose titles sanitize to the same file name.
type Collision struct {
	Filename   string `json:"filename"`
	KeptID     int    `json:"kept_id"`
	RenamedID  int    `json:"renamed_id"`
	RenamedTo  string `json:"renamed_to"`
	KeptURL    string `json:"kept_url"`
	RenamedURL string `json:"renamed_url"`
}

// NoteSet is the output of BuildNotes.
type NoteSet struct {
	Notes      []Note      `json:"notes"`
	Collisions []Collision `json:"collisions,omitempty"`
}

// BuildNotes renders one note per episode, in input order. Links resolving to
// a known episode URL are shown as that episode's title, anything else as the
// raw link. Colliding file names are disambiguated with the episode ID and
// reported; logger may be nil.
func BuildNotes(episodes []episode.Episode, logger *zap.Logger) NoteSet {
	if logger == nil {
		logger = zap.NewNop()
	}

	titles := episode.TitleIndex(episodes)
	owners := make(map[string]int) // lower-cased filename -> index into set.Notes

	var set NoteSet
	for _, e := range episodes {
		name := SanitizeFilename(e.Title)
		if name == "" {
			name = fmt.Sprintf("episode-%d", e.ID)
		}
		filename := name + NoteExtension

		// Case-insensitive filesystems would merge names differing only by case.
		if idx, taken := owners[strings.ToLower(filename)]; taken {
			renamed := freeFilename(owners, name, e.ID)
			kept := set.Notes[idx]
			set.Collisions = append(set.Collisions, Collision{
				Filename:   filename,
				KeptID:     kept.EpisodeID,
				KeptURL:    kept.URL,
				RenamedID:  e.ID,
				RenamedURL: e.URL,
				RenamedTo:  renamed,
			})
			logger.Warn("note filename collision",
				zap.String("filename", filename),
				zap.Int("kept_id", kept.EpisodeID),
				zap.Int("renamed_id", e.ID),
				zap.String("renamed_to", renamed))
			filename = renamed
		}

		owners[strings.ToLower(filename)] = len(set.Notes)
		set.Notes = append(set.Notes, Note{
			EpisodeID: e.ID,
			URL:       e.URL,
			Filename:  filename,
			Content:   RenderNote(e, titles),
		})
	}
	return set
}

// freeFilename returns "name (id).md", or "name (id-2).md" and so on when that
// is also owned by an earlier note.
func freeFilename(owners map[string]int, name string, id int) string {
	candidate := fmt.Sprintf("%s (%d)%s", name, id, NoteExtension)
	for n := 2; ; n++ {
		if _, taken := owners[strings.ToLower(candidate)]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d-%d)%s", name, id, n, NoteExtension)
	}
}

// RenderNote renders a single note. titles maps episode URLs to titles.
func RenderNote(e episode.Episode, titles map[string]string) string {
	var b strings.Builder

	b.WriteString("# " + e.DisplayTitle() + "\n\n")

	if body := strings.TrimSpace(e.ArticleText); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	b.WriteString("## Mentions\n")
	first := true
	for _, link := range e.Links {
		if link == "" {
			continue
		}
		if first {
			b.WriteString("\n")
			first = false
		}
		b.WriteString(fmt.Sprintf("- [[%s]]\n", mentionText(link, titles)))
	}
	return b.String()
}

// mentionText resolves a link to the linked episode's title when known.
func mentionText(link string, titles map[string]string) string {
	if title, ok := titles[link]; ok && title != "" {
		return title
	}
	return link
}

// filenameReplacer maps characters that are illegal in file names on common
// filesystems to a dash.
var filenameReplacer = strings.NewReplacer(
	"/", "-",
	`\`, "-",
	":", "-",
	"*", "-",
	"?", "-",
	`"`, "-",
	"<", "-",
	">", "-",
	"|", "-",
)

// SanitizeFilename turns a title into a file name stem. Illegal and control
// characters become dashes; surrounding spaces and dots are trimmed.
func SanitizeFilename(title string) string {
	s := filenameReplacer.Replace(title)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '-'
		}
		return r
	}, s)
	return strings.Trim(s, " .")
}

// WriteNotes writes every note into dir, creating it if needed.
// The first filesystem error is returned unchanged.
func WriteNotes(dir string, set NoteSet) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, n := range set.Notes {
		if err := os.WriteFile(filepath.Join(dir, n.Filename), []byte(n.Content), 0644); err != nil {
			return err
		}
	}
	return nil
}
