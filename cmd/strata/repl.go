// This file implements the interactive query loop using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"strata/cmd/strata/ui"
	"strata/internal/ast"
	"strata/internal/engine"
	"strata/internal/logging"
	"strata/internal/parser"
	"strata/internal/relation"
)

// replCmd opens the interactive query loop
var replCmd = &cobra.Command{
	Use:   "repl [file]",
	Short: "Interactive query loop over a saturated database",
	Long: `Parses and evaluates the program once, then answers ad-hoc queries
against the saturated database. Type a query such as anc('a',X)? and
press Enter. Meta-commands start with ':'; type :help for the list.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	m, err := newReplModel(args[0])
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("repl failed: %w", err)
	}
	return nil
}

// replModel is the bubbletea model for the query loop
type replModel struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	styles    ui.Styles

	// Saturated state, immutable for the session
	path   string
	prog   *ast.Program
	interp *engine.Interpreter
	result *engine.Result

	// Session
	welcome string
	history []replEntry
	width   int
	height  int
	ready   bool
}

type replEntry struct {
	input  string
	output string
	isErr  bool
}

// newReplModel loads and saturates the program, then builds the UI around
// the finished database.
func newReplModel(path string) (replModel, error) {
	prog, err := loadProgram(path)
	if err != nil {
		return replModel{}, err
	}
	interp, err := engine.New(prog, engine.Options{
		SemiNaive: cfg.Engine.SemiNaive,
		MaxPasses: cfg.Engine.MaxPasses,
		Log:       logging.Get(logging.CategoryQuery),
	})
	if err != nil {
		return replModel{}, err
	}
	res, err := interp.Run(context.Background())
	if err != nil {
		return replModel{}, fmt.Errorf("evaluation failed: %w", err)
	}

	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "anc('a',X)?   (:help for commands)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 512
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	welcome := styles.Body.Render(fmt.Sprintf("%s: %d facts, %d rules, %d groups saturated in %v",
		path, len(prog.Facts), len(prog.Rules), len(res.Groups), res.Duration)) +
		"\n" + styles.Info.Render("Type a query (anc('a',X)?) or :help.") + "\n\n"

	vp := viewport.New(80, 20)
	vp.SetContent(welcome)

	return replModel{
		textinput: ti,
		viewport:  vp,
		styles:    styles,
		path:      path,
		prog:      prog,
		interp:    interp,
		result:    res,
		welcome:   welcome,
	}, nil
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			return m.handleSubmit()
		}
		m.textinput, tiCmd = m.textinput.Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		inputHeight := 3

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-footerHeight-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - footerHeight - inputHeight
		}
		m.textinput.Width = msg.Width - 4
		m.viewport.SetContent(m.renderHistory())
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m replModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, ":") {
		return m.handleCommand(input)
	}

	output, isErr := m.evalQuery(input)
	return m.pushEntry(replEntry{input: input, output: output, isErr: isErr}), nil
}

// evalQuery answers one ad-hoc query. The database is immutable after
// saturation, so evaluation runs synchronously in the update loop.
func (m replModel) evalQuery(input string) (string, bool) {
	src := input
	if !strings.HasSuffix(src, "?") {
		src += "?"
	}
	q, err := parser.ParseQuery(src)
	if err != nil {
		return err.Error(), true
	}
	if err := parser.ValidateQuery(m.prog, q); err != nil {
		return err.Error(), true
	}
	logging.Query("repl query: %s", q.String())
	return engine.FormatQueryBlock(relation.EvalQuery(m.result.DB, q)), false
}

func (m replModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)

	switch parts[0] {
	case ":quit", ":exit", ":q":
		return m, tea.Quit

	case ":help":
		help := `:graph    print the rule dependency graph
:strata   print the strongly connected components in evaluation order
:quit     exit (also Ctrl+C or Esc)

Anything else is parsed as a query, e.g. anc('a',X)?`
		return m.pushEntry(replEntry{input: input, output: help}), nil

	case ":graph":
		out := "Dependency Graph\n" + m.result.Graph.String()
		return m.pushEntry(replEntry{input: input, output: out}), nil

	case ":strata":
		var b strings.Builder
		b.WriteString("Strata\n")
		for i, grp := range m.interp.Groups() {
			marker := ""
			if grp.Recursive(m.result.Graph) {
				marker = " (recursive)"
			}
			fmt.Fprintf(&b, "%d: %s%s\n", i+1, grp.Label(), marker)
		}
		return m.pushEntry(replEntry{input: input, output: b.String()}), nil

	default:
		out := fmt.Sprintf("unknown command %s (:help lists commands)", parts[0])
		return m.pushEntry(replEntry{input: input, output: out, isErr: true}), nil
	}
}

// pushEntry records one exchange and scrolls the transcript to it.
func (m replModel) pushEntry(e replEntry) replModel {
	m.history = append(m.history, e)
	m.textinput.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	return m
}

func (m replModel) renderHistory() string {
	var sb strings.Builder
	sb.WriteString(m.welcome)
	for _, e := range m.history {
		sb.WriteString(m.styles.Prompt.Render("> ") + m.styles.UserInput.Render(e.input))
		sb.WriteString("\n")
		body := strings.TrimRight(e.output, "\n")
		if e.isErr {
			sb.WriteString(m.styles.Error.Render(body))
		} else {
			sb.WriteString(m.styles.Result.Render(body))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m replModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textinput.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		inputArea,
		m.renderFooter(),
	)
}

func (m replModel) renderHeader() string {
	title := m.styles.Title.Render(" strata ")
	badge := m.styles.Badge.Render(fmt.Sprintf("%d tuples", m.result.DB.TupleCount()))
	file := m.styles.Subtitle.Render(" " + m.path)
	status := m.styles.Success.Render("● ready")

	headerLine := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", badge, "  ", status, file)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.RenderDivider(m.width),
	)
}

func (m replModel) renderFooter() string {
	help := m.styles.Muted.Render(fmt.Sprintf(
		"%d groups, %d passes • Enter: query • :help • Ctrl+C: exit",
		len(m.result.Groups), m.result.TotalPasses()))
	return lipgloss.NewStyle().MarginTop(1).Render(help)
}
