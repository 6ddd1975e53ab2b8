package changelog

import (
	"regexp"
	"strings"
)

// Changelog is the parsed form of a Markdown changelog document.
type Changelog struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Versions    []Entry `json:"versions"`
}

// Entry is a single version section of a changelog.
type Entry struct {
	Version *string `json:"version"`
	Title   string  `json:"title"`
	Date    *string `json:"date"`
	Body    string  `json:"body"`

	// Parsed groups raw list item lines by subsection heading. The "_" key
	// holds every list item of the entry regardless of subsection.
	Parsed map[string][]string `json:"parsed"`
}

// AllItemsKey is the Parsed key collecting every list item of an entry.
const AllItemsKey = "_"

var (
	lineBreak   = regexp.MustCompile(`\r\n?|\n`)
	linkDef     = regexp.MustCompile(`^\[[^\[\]]*\] *?:`)
	titleLine   = regexp.MustCompile(`^# ?[^#]`)
	entryLine   = regexp.MustCompile(`^##? ?[^#]`)
	subheadLine = regexp.MustCompile(`^###`)
	listItem    = regexp.MustCompile(`^[*-]`)
	versionTok  = regexp.MustCompile(`\[?v?([\w.-]+\.[\w.-]+[a-zA-Z0-9])]?`)
	dateTok     = regexp.MustCompile(`.* \(?(\d\d?\d?\d?[-/.]\d\d?[-/.]\d\d?\d?\d?)\)?.*`)
)

// Parse converts changelog text into a Changelog. It never fails: unknown
// lines end up in the description or in the body of the current entry.
func Parse(text string) *Changelog {
	p := parser{log: &Changelog{Versions: []Entry{}}}
	for _, line := range lineBreak.Split(text, -1) {
		p.line(line)
	}
	p.flush()
	p.log.Description = strings.TrimSpace(p.log.Description)
	return p.log
}

type parser struct {
	log      *Changelog
	current  *Entry
	section  string
	hasTitle bool
}

func (p *parser) line(line string) {
	if linkDef.MatchString(line) {
		return
	}

	if !p.hasTitle && titleLine.MatchString(line) {
		p.log.Title = strings.TrimSpace(strings.TrimLeft(line, "#"))
		p.hasTitle = true
		return
	}

	if entryLine.MatchString(line) {
		p.flush()
		p.current = newEntry(strings.TrimSpace(strings.TrimLeft(line, "#")))
		p.section = ""
		return
	}

	if p.current == nil {
		p.log.Description += line + "\n"
		return
	}

	p.current.Body += line + "\n"

	switch {
	case subheadLine.MatchString(line):
		key := strings.TrimSpace(strings.Replace(line, "###", "", 1))
		if _, ok := p.current.Parsed[key]; !ok {
			p.current.Parsed[key] = []string{}
		}
		p.section = key
	case listItem.MatchString(line):
		p.current.Parsed[AllItemsKey] = append(p.current.Parsed[AllItemsKey], line)
		if p.section != "" {
			p.current.Parsed[p.section] = append(p.current.Parsed[p.section], line)
		}
	}
}

func (p *parser) flush() {
	if p.current == nil {
		return
	}
	p.current.Body = strings.TrimSpace(p.current.Body)
	p.log.Versions = append(p.log.Versions, *p.current)
	p.current = nil
}

func newEntry(title string) *Entry {
	e := &Entry{
		Title:  title,
		Parsed: map[string][]string{AllItemsKey: {}},
	}
	if m := versionTok.FindStringSubmatch(title); m != nil {
		v := m[1]
		e.Version = &v
	}
	if m := dateTok.FindStringSubmatch(title); m != nil {
		d := m[1]
		e.Date = &d
	}
	return e
}

// Find returns the entry for version, preferring an exact version match and
// falling back to the first entry whose version contains it. Entries without
// a version never match.
func (c *Changelog) Find(version string) (*Entry, bool) {
	if version == "" {
		return nil, false
	}
	for i := range c.Versions {
		if v := c.Versions[i].Version; v != nil && *v == version {
			return &c.Versions[i], true
		}
	}
	for i := range c.Versions {
		if v := c.Versions[i].Version; v != nil && strings.Contains(*v, version) {
			return &c.Versions[i], true
		}
	}
	return nil, false
}

// VersionCount returns how many entries carry a version token.
func (c *Changelog) VersionCount() int {
	n := 0
	for _, e := range c.Versions {
		if e.Version != nil {
			n++
		}
	}
	return n
}
