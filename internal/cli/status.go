package cli

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	statusTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	statusErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (c *CLI) statusCommand() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "poll a running server's /debug/stats in a live terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			model := newStatusModel(addr, interval)
			_, err := tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "base URL of the running server")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	return cmd
}

type statsTickMsg struct {
	lines []string
	err   error
}

type statusModel struct {
	addr     string
	interval time.Duration
	lines    []string
	err      error
}

func newStatusModel(addr string, interval time.Duration) statusModel {
	return statusModel{addr: addr, interval: interval}
}

func (m statusModel) Init() tea.Cmd {
	return m.poll()
}

func (m statusModel) poll() tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(strings.TrimRight(m.addr, "/") + "/debug/stats")
		if err != nil {
			return statsTickMsg{err: err}
		}
		defer resp.Body.Close()

		var lines []string
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		return statsTickMsg{lines: lines, err: scanner.Err()}
	}
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case statsTickMsg:
		m.lines, m.err = msg.lines, msg.err
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return m.poll()() })
	}
	return m, nil
}

func (m statusModel) View() string {
	var b strings.Builder
	b.WriteString(statusTitleStyle.Render(fmt.Sprintf("metachannel status — %s", m.addr)))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(statusErrStyle.Render("error: " + m.err.Error()))
	} else {
		for _, line := range m.lines {
			b.WriteString(statusLineStyle.Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n(press q to quit)\n")
	return b.String()
}
