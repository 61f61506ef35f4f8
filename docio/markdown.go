package docio

import (
	"fmt"
	"strings"

	"github.com/redlinehq/redline/schema"
)

// Markdown renders a version as markdown with a title/author/version header.
func Markdown(m *schema.Manuscript, v *schema.Version) string {
	author := m.Author
	if author == "" {
		author = "Unknown"
	}
	return fmt.Sprintf(`# %s

**Author:** %s
**Version:** %s
**Generated:** %s

---

%s
`, m.Title, author, v.VersionTag, v.CreatedAt.Format("2006-01-02 15:04:05"), v.Content)
}

// Filename derives a safe markdown filename from a manuscript title.
func Filename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "manuscript"
	}
	return name + ".md"
}
