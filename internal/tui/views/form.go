package views

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/routeview/internal/model"
	"github.com/rendis/routeview/internal/tui/styles"
)

// Field indices. fieldAlg is a virtual field (not a textinput).
const (
	fieldSrc = iota
	fieldDst
	fieldAlg
	fieldCount
)

const maxSuggestions = 5

// RouteForm collects the origin, destination and algorithm of a route.
type RouteForm struct {
	inputs      []textinput.Model
	alg         int
	focused     int
	err         string
	cities      []model.City
	suggestions []model.City
	suggIdx     int
}

// RouteRequestMsg is sent when the form is submitted.
type RouteRequestMsg struct {
	Query model.RouteQuery
}

func NewRouteForm(defaultAlg string) RouteForm {
	inputs := make([]textinput.Model, fieldAlg)
	inputs[fieldSrc] = newInput("origin city or id", 28)
	inputs[fieldDst] = newInput("destination city or id", 28)
	inputs[fieldSrc].Focus()

	f := RouteForm{inputs: inputs, suggIdx: -1}
	if alg, err := model.NormalizeAlgorithm(defaultAlg); err == nil {
		for i, a := range model.Algorithms {
			if a == alg {
				f.alg = i
			}
		}
	}
	return f
}

func newInput(placeholder string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 64
	ti.Width = width
	return ti
}

// SetCities installs the catalog used for suggestions and resolution.
func (f *RouteForm) SetCities(cities []model.City) {
	f.cities = cities
}

// SetError shows msg under the form until the next edit.
func (f *RouteForm) SetError(msg string) {
	f.err = msg
}

// Algorithm returns the selected algorithm token.
func (f RouteForm) Algorithm() string {
	return model.Algorithms[f.alg]
}

// Focused reports whether a text field has the cursor.
func (f RouteForm) Focused() bool {
	return f.focused != fieldAlg
}

func (f RouteForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f RouteForm) Update(msg tea.Msg) (RouteForm, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up":
			if f.hasSuggestions() && f.suggIdx > 0 {
				f.suggIdx--
				return f, nil
			}
			return f, f.focusPrev()
		case "down":
			if f.hasSuggestions() && f.suggIdx < len(f.suggestions)-1 {
				f.suggIdx++
				return f, nil
			}
			return f, f.focusNext()
		case "tab":
			if f.hasSuggestions() {
				f.selectSuggestion()
			}
			return f, f.focusNext()
		case "shift+tab":
			return f, f.focusPrev()
		case "enter":
			if f.hasSuggestions() {
				f.selectSuggestion()
				return f, f.focusNext()
			}
			return f, f.submit()
		case "left":
			if f.focused == fieldAlg {
				f.alg = (f.alg + len(model.Algorithms) - 1) % len(model.Algorithms)
				return f, nil
			}
		case "right":
			if f.focused == fieldAlg {
				f.alg = (f.alg + 1) % len(model.Algorithms)
				return f, nil
			}
		}
	}

	if f.focused == fieldAlg {
		return f, nil
	}
	var cmd tea.Cmd
	before := f.inputs[f.focused].Value()
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	if f.inputs[f.focused].Value() != before {
		f.err = ""
		f.updateSuggestions()
	}
	return f, cmd
}

func (f RouteForm) hasSuggestions() bool {
	return f.focused != fieldAlg && len(f.suggestions) > 0
}

func (f *RouteForm) selectSuggestion() {
	if f.suggIdx >= 0 && f.suggIdx < len(f.suggestions) {
		f.inputs[f.focused].SetValue(f.suggestions[f.suggIdx].Label())
		f.inputs[f.focused].CursorEnd()
	}
	f.suggestions = nil
	f.suggIdx = -1
}

func (f *RouteForm) updateSuggestions() {
	raw := strings.TrimSpace(f.inputs[f.focused].Value())
	if raw == "" {
		f.suggestions = nil
		f.suggIdx = -1
		return
	}
	if _, exact := f.resolve(raw); exact {
		f.suggestions = nil
		f.suggIdx = -1
		return
	}
	f.suggestions = Suggest(f.cities, raw, maxSuggestions)
	if len(f.suggestions) > 0 {
		if f.suggIdx < 0 || f.suggIdx >= len(f.suggestions) {
			f.suggIdx = 0
		}
	} else {
		f.suggIdx = -1
	}
}

// Suggest returns up to limit cities whose id, name or label contains every
// word of q, ignoring case and accents.
func Suggest(cities []model.City, q string, limit int) []model.City {
	words := strings.Fields(normalize(q))
	if len(words) == 0 {
		return nil
	}
	var matches []model.City
	for _, c := range cities {
		haystack := normalize(c.ID + " " + c.Label())
		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			matches = append(matches, c)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

// normalize removes accents/diacritics and lowercases text for fuzzy matching.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, _ := transform.String(t, strings.ToLower(s))
	return result
}

// resolve maps the input to a city id. An id, a name or a "Name, ST" label
// match exactly; otherwise a single suggestion is accepted.
func (f RouteForm) resolve(input string) (string, bool) {
	q := normalize(strings.TrimSpace(input))
	if q == "" {
		return "", false
	}
	for _, c := range f.cities {
		if normalize(c.ID) == q || normalize(c.Label()) == q {
			return c.ID, true
		}
	}
	var byName []string
	for _, c := range f.cities {
		if normalize(c.Name) == q {
			byName = append(byName, c.ID)
		}
	}
	if len(byName) == 1 {
		return byName[0], true
	}
	if s := Suggest(f.cities, input, 2); len(s) == 1 {
		return s[0].ID, false
	}
	return "", false
}

func (f *RouteForm) focusNext() tea.Cmd {
	return f.focus((f.focused + 1) % fieldCount)
}

func (f *RouteForm) focusPrev() tea.Cmd {
	return f.focus((f.focused + fieldCount - 1) % fieldCount)
}

func (f *RouteForm) focus(idx int) tea.Cmd {
	if f.focused != fieldAlg {
		f.inputs[f.focused].Blur()
	}
	f.suggestions = nil
	f.suggIdx = -1
	f.focused = idx
	if f.focused == fieldAlg {
		return nil
	}
	f.inputs[f.focused].Focus()
	return textinput.Blink
}

func (f *RouteForm) submit() tea.Cmd {
	var ids [2]string
	for i, name := range []string{"Origin", "Destination"} {
		raw := strings.TrimSpace(f.inputs[i].Value())
		if raw == "" {
			f.err = name + " is required"
			return nil
		}
		id, exact := f.resolve(raw)
		if id == "" {
			f.err = fmt.Sprintf("Unknown city %q, type to search", raw)
			return nil
		}
		if !exact {
			f.inputs[i].SetValue(f.labelOf(id))
		}
		ids[i] = id
	}
	if ids[0] == ids[1] {
		f.err = "Origin and destination must differ"
		return nil
	}
	f.err = ""
	q := model.RouteQuery{Src: ids[0], Dst: ids[1], Alg: f.Algorithm()}
	return func() tea.Msg { return RouteRequestMsg{Query: q} }
}

func (f RouteForm) labelOf(id string) string {
	for _, c := range f.cities {
		if c.ID == id {
			return c.Label()
		}
	}
	return id
}

func (f RouteForm) View() string {
	var b strings.Builder

	b.WriteString(f.renderField("From:", fieldSrc))
	if f.focused == fieldSrc && len(f.suggestions) > 0 {
		b.WriteString(f.renderSuggestions())
	}
	b.WriteString(f.renderField("To:", fieldDst))
	if f.focused == fieldDst && len(f.suggestions) > 0 {
		b.WriteString(f.renderSuggestions())
	}
	b.WriteString(f.renderAlg())

	if f.err != "" {
		b.WriteString(styles.ErrorText.Render(f.err))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (f RouteForm) renderSuggestions() string {
	var sb strings.Builder
	active := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	inactive := lipgloss.NewStyle().Foreground(styles.Muted)

	for i, c := range f.suggestions {
		label := c.Label() + " (" + c.ID + ")"
		if i == f.suggIdx {
			sb.WriteString(active.Render("  > " + label))
		} else {
			sb.WriteString(inactive.Render("    " + label))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f RouteForm) renderAlg() string {
	label := styles.Label.Render("Algorithm:")
	alg := f.Algorithm()
	var line string
	if f.focused == fieldAlg {
		line = styles.ActiveItem.Render("< " + alg + " >")
		line += lipgloss.NewStyle().Foreground(styles.Secondary).Render(" ←→")
	} else {
		line = styles.Value.Render(alg)
	}
	return fmt.Sprintf("%s %s\n", label, line)
}

func (f RouteForm) renderField(label string, idx int) string {
	l := styles.Label.Render(label)
	v := f.inputs[idx].View()
	return fmt.Sprintf("%s %s\n", l, v)
}
