package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rendis/routeview/internal/model"
)

var formCities = []model.City{
	{ID: "SJC", Name: "San José", State: "CA"},
	{ID: "SJU", Name: "San Juan", State: "PR"},
	{ID: "SFO", Name: "San Francisco", State: "CA"},
	{ID: "PDX", Name: "Portland", State: "OR"},
	{ID: "PWM", Name: "Portland", State: "ME"},
}

func newTestForm() RouteForm {
	f := NewRouteForm("")
	f.SetCities(formCities)
	return f
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		q     string
		limit int
		want  []string
	}{
		{"san jose", 5, []string{"SJC"}},
		{"SAN", 2, []string{"SJC", "SJU"}},
		{"portland me", 5, []string{"PWM"}},
		{"pdx", 5, []string{"PDX"}},
		{"  ", 5, nil},
		{"denver", 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			got := Suggest(formCities, tt.q, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Suggest(%q) = %v, want %v", tt.q, got, tt.want)
			}
			for i, c := range got {
				if c.ID != tt.want[i] {
					t.Errorf("Suggest(%q)[%d] = %s, want %s", tt.q, i, c.ID, tt.want[i])
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	f := newTestForm()
	tests := []struct {
		in    string
		id    string
		exact bool
	}{
		{"sjc", "SJC", true},
		{"San Jose, CA", "SJC", true},
		{"san francisco", "SFO", true},
		{"Portland, ME", "PWM", true},
		{"Portland", "", false},
		{"franc", "SFO", false},
		{"nowhere", "", false},
	}
	for _, tt := range tests {
		id, exact := f.resolve(tt.in)
		if id != tt.id || exact != tt.exact {
			t.Errorf("resolve(%q) = %q, %v; want %q, %v", tt.in, id, exact, tt.id, tt.exact)
		}
	}
}

func TestSubmit(t *testing.T) {
	f := newTestForm()
	f.inputs[fieldSrc].SetValue("sjc")
	f.inputs[fieldDst].SetValue("franc")

	cmd := f.submit()
	if cmd == nil {
		t.Fatalf("submit failed: %s", f.err)
	}
	msg, ok := cmd().(RouteRequestMsg)
	if !ok {
		t.Fatalf("got %T, want RouteRequestMsg", cmd())
	}
	want := model.RouteQuery{Src: "SJC", Dst: "SFO", Alg: model.AlgBest}
	if msg.Query != want {
		t.Errorf("query = %+v, want %+v", msg.Query, want)
	}
	if v := f.inputs[fieldDst].Value(); v != "San Francisco, CA" {
		t.Errorf("partial match not completed, got %q", v)
	}
}

func TestSubmitRejects(t *testing.T) {
	tests := []struct {
		name, src, dst string
	}{
		{"empty origin", "", "SFO"},
		{"unknown city", "SJC", "Atlantis"},
		{"ambiguous name", "Portland", "SFO"},
		{"same city", "SFO", "san francisco"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestForm()
			f.inputs[fieldSrc].SetValue(tt.src)
			f.inputs[fieldDst].SetValue(tt.dst)
			if cmd := f.submit(); cmd != nil {
				t.Errorf("submit accepted %q -> %q", tt.src, tt.dst)
			}
			if f.err == "" {
				t.Error("no error shown")
			}
		})
	}
}

func TestAlgorithmSelector(t *testing.T) {
	f := NewRouteForm("prim")
	if got := f.Algorithm(); got != model.AlgPrim {
		t.Fatalf("default algorithm = %s, want PRIM", got)
	}

	f.focus(fieldAlg)
	if f.Focused() {
		t.Fatal("algorithm field reported as text field")
	}
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := f.Algorithm(); got != model.AlgKruskal {
		t.Errorf("after right = %s, want KRUSKAL", got)
	}
	for range model.Algorithms {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	if got := f.Algorithm(); got != model.AlgKruskal {
		t.Errorf("full cycle = %s, want KRUSKAL", got)
	}
}

func TestTypingShowsSuggestions(t *testing.T) {
	f := newTestForm()
	for _, r := range "san" {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if len(f.suggestions) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(f.suggestions))
	}
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyDown})
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if v := f.inputs[fieldSrc].Value(); v != "San Juan, PR" {
		t.Errorf("selected %q, want San Juan, PR", v)
	}
	if f.focused != fieldDst {
		t.Errorf("focus = %d, want destination", f.focused)
	}
}
