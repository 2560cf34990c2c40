// ABOUTME: Interactive results browser for ranked plans
// ABOUTME: Bubbletea model with a plan table and a detail pane

package results

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/inference-capacity-planner/cli/internal/tui/styles"
	"github.com/markalston/inference-capacity-planner/models"
)

// Model browses the plans of one RankResponse
type Model struct {
	resp       *models.RankResponse
	table      table.Model
	showDetail bool
	width      int
}

var columns = []table.Column{
	{Title: "#", Width: 3},
	{Title: "Offering", Width: 28},
	{Title: "Billing", Width: 20},
	{Title: "GPUs", Width: 10},
	{Title: "Monthly $", Width: 12},
	{Title: "$/M tok", Width: 9},
	{Title: "Risk", Width: 7},
}

// New builds the browser for resp
func New(resp *models.RankResponse) Model {
	rows := make([]table.Row, len(resp.Plans))
	for i, p := range resp.Plans {
		rows[i] = table.Row{
			strconv.Itoa(p.Rank),
			p.OfferingID,
			string(p.BillingMode),
			gpuLabel(p),
			fmt.Sprintf("%.2f", p.MonthlyCostUSD),
			fmt.Sprintf("%.3f", p.CostPerMTokens),
			string(p.RiskBand),
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows)+1, 12)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(false)
	t.SetStyles(s)

	return Model{resp: resp, table: t}
}

// Run starts the browser on the terminal
func Run(resp *models.RankResponse) error {
	_, err := tea.NewProgram(New(resp)).Run()
	return err
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.showDetail && msg.String() == "esc" {
				m.showDetail = false
				return m, nil
			}
			return m, tea.Quit
		case "enter", " ":
			m.showDetail = !m.showDetail
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Ranked plans · catalog %s", m.resp.CatalogVersion)))
	b.WriteString("\n")

	if len(m.resp.Plans) == 0 {
		b.WriteString(styles.StatusWarning.Render("No feasible plans"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
		if m.showDetail {
			if p, ok := m.selected(); ok {
				b.WriteString(styles.Panel.Render(renderDetail(p)))
				b.WriteString("\n")
			}
		}
	}

	for _, w := range m.resp.Warnings {
		b.WriteString(styles.StatusWarning.Render("! " + w))
		b.WriteString("\n")
	}

	b.WriteString(styles.Help.Render(
		styles.KeyStyle.Render("↑/↓") + " move  " +
			styles.KeyStyle.Render("enter") + " details  " +
			styles.KeyStyle.Render("q") + " quit"))

	return b.String()
}

func (m Model) selected() (models.RankedPlan, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.resp.Plans) {
		return models.RankedPlan{}, false
	}
	return m.resp.Plans[i], true
}

func renderDetail(p models.RankedPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", styles.ValueStyle.Render(p.OfferingID), styles.Subtitle.Render(p.ProviderName))
	fmt.Fprintf(&b, "Monthly cost     $%.2f (effective $%.2f)\n", p.MonthlyCostUSD, p.EffectiveCostUSD)
	fmt.Fprintf(&b, "Idle waste       $%.2f (%.0f%%)\n", p.IdleWasteUSD, p.IdleWastePct)
	fmt.Fprintf(&b, "Active hours     %.0f / month\n", p.ActiveHoursPerMonth)
	fmt.Fprintf(&b, "Peak utilization %s %.0f%%\n", styles.ProgressBar(p.UtilizationAtPeak*100, 20), p.UtilizationAtPeak*100)
	fmt.Fprintf(&b, "Risk             %s (total %.2f)\n", styles.RiskBand(p.RiskBand), p.Risk.TotalRisk)
	fmt.Fprintf(&b, "Penalties        overload $%.2f  scaling $%.2f  latency $%.2f\n",
		p.Penalties.Overload, p.Penalties.Scaling, p.Penalties.Latency)
	fmt.Fprintf(&b, "Confidence       %s\n", p.Confidence)

	if len(p.Assumptions) > 0 {
		keys := make([]string, 0, len(p.Assumptions))
		for k := range p.Assumptions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Assumptions     ")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%g", k, p.Assumptions[k])
		}
		b.WriteString("\n")
	}

	b.WriteString(p.Why)
	return b.String()
}

func gpuLabel(p models.RankedPlan) string {
	if p.GPUType == "" {
		return "-"
	}
	return fmt.Sprintf("%dx %s", p.GPUCount, p.GPUType)
}
