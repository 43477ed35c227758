package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/gokalshi/internal/services"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	yesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	noStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("1"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)
)

type tickMsg time.Time

type statusMsg services.StatusReport

type errMsg struct{ err error }

type model struct {
	baseURL  string
	interval time.Duration
	client   *http.Client

	report  services.StatusReport
	haveOne bool
	lastErr error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch, tick(m.interval))
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetch() tea.Msg {
	resp, err := m.client.Get(m.baseURL + "/api/status")
	if err != nil {
		return errMsg{err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errMsg{fmt.Errorf("server returned %s", resp.Status)}
	}
	var report services.StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return errMsg{err}
	}
	return statusMsg(report)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch
		}
	case tickMsg:
		return m, tea.Batch(m.fetch, tick(m.interval))
	case statusMsg:
		m.report = services.StatusReport(msg)
		m.haveOne = true
		m.lastErr = nil
	case errMsg:
		m.lastErr = msg.err
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("gokalshi watch"))
	b.WriteString("  ")
	if m.lastErr != nil {
		b.WriteString(errStyle.Render("● " + m.lastErr.Error()))
	} else if !m.haveOne || !m.report.Initialized {
		b.WriteString(dimStyle.Render("● waiting for first pull"))
	} else {
		b.WriteString(dimStyle.Render("● " + m.report.LastPull))
	}
	b.WriteString("\n\n")

	if !m.haveOne {
		b.WriteString(dimStyle.Render("connecting...") + "\n")
		b.WriteString(dimStyle.Render("q quit · r refresh") + "\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("balance $%s   liquidation $%s", m.report.Balance, m.report.Liquidation)))
	b.WriteString("\n\n")

	b.WriteString(borderStyle.Render(m.marketsView()))
	b.WriteString("\n")
	if len(m.report.Positions) > 0 {
		b.WriteString(borderStyle.Render(m.positionsView()))
		b.WriteString("\n")
	}
	if len(m.report.RestingOrders) > 0 {
		b.WriteString(borderStyle.Render(m.ordersView()))
		b.WriteString("\n")
	}
	if len(m.report.Messages) > 0 {
		b.WriteString(borderStyle.Render(m.messagesView()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("q quit · r refresh"))
	return b.String()
}

func (m model) marketsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("markets") + "\n")
	b.WriteString(fmt.Sprintf("%-24s %8s %8s %8s %8s %6s\n", "ticker", "yes bid", "yes ask", "no bid", "no ask", "last"))
	for _, mk := range m.report.Markets {
		b.WriteString(fmt.Sprintf("%-24s %s %s %s %s %5d¢\n",
			mk.Ticker,
			yesStyle.Render(fmt.Sprintf("%7d¢", mk.YesBid)),
			yesStyle.Render(fmt.Sprintf("%7d¢", mk.YesAsk)),
			noStyle.Render(fmt.Sprintf("%7d¢", mk.NoBid)),
			noStyle.Render(fmt.Sprintf("%7d¢", mk.NoAsk)),
			mk.LastPrice,
		))
	}
	return b.String()
}

func (m model) positionsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("positions") + "\n")
	b.WriteString(fmt.Sprintf("%-24s %-4s %5s %7s %9s %9s\n", "ticker", "side", "qty", "entry", "liq", "pnl"))
	for _, p := range m.report.Positions {
		liq := "-"
		if p.LiquidationValue != nil {
			liq = "$" + *p.LiquidationValue
		}
		side := yesStyle.Render(fmt.Sprintf("%-4s", p.Side))
		if p.Side == "no" {
			side = noStyle.Render(fmt.Sprintf("%-4s", p.Side))
		}
		b.WriteString(fmt.Sprintf("%-24s %s %5d %6d¢ %9s %9s\n",
			p.Ticker, side, p.Quantity, p.AvgEntryCents, liq, "$"+p.RealizedPnl))
	}
	return b.String()
}

func (m model) ordersView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("resting orders") + "\n")
	b.WriteString(fmt.Sprintf("%-12s %-24s %-4s %-4s %6s %5s %5s\n", "order", "ticker", "side", "act", "price", "qty", "queue"))
	for _, o := range m.report.RestingOrders {
		id := o.OrderID
		if len(id) > 12 {
			id = id[:12]
		}
		b.WriteString(fmt.Sprintf("%-12s %-24s %-4s %-4s %5d¢ %5d %5d\n",
			id, o.Ticker, o.Side, o.Action, o.PriceCents, o.RemainingCount, o.QueuePosition))
	}
	return b.String()
}

func (m model) messagesView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("recent activity") + "\n")
	limit := 8
	if len(m.report.Messages) < limit {
		limit = len(m.report.Messages)
	}
	for _, msg := range m.report.Messages[:limit] {
		b.WriteString(dimStyle.Render(msg.Time.Local().Format("15:04:05")) + " " + msg.Text + "\n")
	}
	return b.String()
}

func main() {
	var (
		baseURL  = flag.String("url", envOr("GOKALSHI_URL", "http://localhost:8080"), "tracker base URL")
		interval = flag.Duration("interval", time.Second, "refresh interval")
	)
	flag.Parse()

	m := model{
		baseURL:  strings.TrimRight(*baseURL, "/"),
		interval: *interval,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
