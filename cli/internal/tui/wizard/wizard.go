// ABOUTME: Interactive workload wizard for the rank command
// ABOUTME: Collects a ranking request through huh forms

package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/inference-capacity-planner/models"
)

// Wizard collects a RankRequest through a multi-group huh form
type Wizard struct {
	base      models.RankRequest
	providers []string

	// Form field values (strings for huh)
	tokensPerDay string
	model        string
	pattern      string
	selected     []string
	budget       string
	topK         string
}

// createTheme returns a huh theme matching the CLI palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	cyan := lipgloss.Color("#06B6D4")
	cyanLight := lipgloss.Color("#22D3EE")
	blue := lipgloss.Color("#3B82F6")
	gray := lipgloss.Color("#9CA3AF")
	grayLight := lipgloss.Color("#E5E7EB")
	red := lipgloss.Color("#F87171")
	slate := lipgloss.Color("#334155")

	t.Group.Title = lipgloss.NewStyle().
		Foreground(cyan).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(gray).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(cyan)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(cyanLight).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(red).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(red)

	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(cyan).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(cyan).
		Bold(true)
	t.Focused.SelectedPrefix = lipgloss.NewStyle().
		Foreground(cyan).
		SetString("[x] ")
	t.Focused.UnselectedPrefix = lipgloss.NewStyle().
		Foreground(gray).
		SetString("[ ] ")

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(cyan)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(cyan)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(grayLight)

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(blue).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(gray).
		Background(slate).
		Padding(0, 2).
		MarginRight(1)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(gray).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(gray)

	return t
}

var topKOptions = []huh.Option[string]{
	huh.NewOption("1", "1"),
	huh.NewOption("3 (default)", "3"),
	huh.NewOption("5", "5"),
	huh.NewOption("10", "10"),
}

// New creates a wizard prefilled from base. providerIDs populates the
// provider filter; an empty list hides that step.
func New(base models.RankRequest, providerIDs []string) *Wizard {
	w := &Wizard{
		base:         base,
		providers:    providerIDs,
		tokensPerDay: "1000000",
		model:        string(models.Model8B),
		pattern:      string(models.PatternSteady),
		selected:     append([]string(nil), base.ProviderIDs...),
		topK:         "3",
	}

	if base.TokensPerDay > 0 {
		w.tokensPerDay = strconv.FormatInt(base.TokensPerDay, 10)
	}
	if b, err := models.ParseModelBucket(base.ModelBucket); err == nil {
		w.model = string(b)
	}
	if p, err := models.ParseTrafficPattern(base.TrafficPattern); err == nil {
		w.pattern = string(p)
	}
	if base.MonthlyBudgetMaxUSD != nil {
		w.budget = strconv.FormatFloat(*base.MonthlyBudgetMaxUSD, 'f', -1, 64)
	}
	if base.TopK > 0 {
		w.topK = strconv.Itoa(base.TopK)
	}

	return w
}

// Form builds the huh form bound to the wizard's fields
func (w *Wizard) Form() *huh.Form {
	modelOptions := make([]huh.Option[string], len(models.AllModelBuckets))
	for i, b := range models.AllModelBuckets {
		modelOptions[i] = huh.NewOption(string(b), string(b))
	}

	patternOptions := []huh.Option[string]{
		huh.NewOption("Steady (24/7)", string(models.PatternSteady)),
		huh.NewOption("Business hours", string(models.PatternBusinessHours)),
		huh.NewOption("Bursty", string(models.PatternBursty)),
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tokens per day").
				Description("Total input and output tokens served per day").
				Placeholder("e.g., 10000000").
				CharLimit(15).
				Value(&w.tokensPerDay).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Model").
				Options(modelOptions...).
				Value(&w.model),
			huh.NewSelect[string]().
				Title("Traffic pattern").
				Options(patternOptions...).
				Value(&w.pattern),
		).Title("Step 1: Workload").
			Description("Describe the traffic you need to serve"),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Providers").
				Description("Leave empty to consider every provider").
				Options(huh.NewOptions(w.providers...)...).
				Value(&w.selected),
		).Title("Step 2: Providers").
			WithHideFunc(func() bool { return len(w.providers) == 0 }),
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly budget (USD)").
				Description("Optional; plans above it are excluded").
				Placeholder("no limit").
				Value(&w.budget).
				Validate(validateOptionalPositiveFloat),
			huh.NewSelect[string]().
				Title("Plans to show").
				Options(topKOptions...).
				Value(&w.topK),
		).Title("Step 3: Constraints"),
	).WithTheme(createTheme())
}

// Run shows the form and returns the collected request
func (w *Wizard) Run() (models.RankRequest, error) {
	if err := w.Form().Run(); err != nil {
		return models.RankRequest{}, err
	}
	return w.Request()
}

// Request converts the current field values into a RankRequest. Knobs the
// wizard does not ask about are carried over from the base request.
func (w *Wizard) Request() (models.RankRequest, error) {
	req := w.base
	req.ModelBucket = w.model
	req.TrafficPattern = w.pattern
	req.ProviderIDs = nil
	if len(w.selected) > 0 {
		req.ProviderIDs = append([]string(nil), w.selected...)
	}

	tokens, err := strconv.ParseInt(strings.TrimSpace(w.tokensPerDay), 10, 64)
	if err != nil || tokens <= 0 {
		return req, fmt.Errorf("tokens per day must be a positive number")
	}
	req.TokensPerDay = tokens

	req.MonthlyBudgetMaxUSD = nil
	if s := strings.TrimSpace(w.budget); s != "" {
		budget, err := strconv.ParseFloat(s, 64)
		if err != nil || budget <= 0 {
			return req, fmt.Errorf("monthly budget must be a positive number")
		}
		req.MonthlyBudgetMaxUSD = &budget
	}

	if req.TopK, err = strconv.Atoi(w.topK); err != nil {
		return req, fmt.Errorf("invalid plan count %q", w.topK)
	}

	return req, nil
}

func validatePositiveInt(s string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateOptionalPositiveFloat(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive amount or empty")
	}
	return nil
}
