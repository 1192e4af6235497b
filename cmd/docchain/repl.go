package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	Title  lipgloss.Style
	Prompt lipgloss.Style
	Answer lipgloss.Style
	Source lipgloss.Style
	Error  lipgloss.Style
}

func newStyles() styles {
	return styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575")),
		Answer: lipgloss.NewStyle().PaddingLeft(2),
		Source: lipgloss.NewStyle().Faint(true),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
	}
}

// replHandler answers one line of user input.
type replHandler func(ctx context.Context, line string) (string, error)

// runREPL reads lines from in until EOF, "exit" or "quit". Handler errors are
// printed and the loop goes on; only context cancellation ends it early.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, title string, handle replHandler) error {
	st := newStyles()
	fmt.Fprintln(out, st.Title.Render(title))
	fmt.Fprintln(out, st.Source.Render("Type 'exit' or 'quit' to leave."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, st.Prompt.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, err := handle(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, st.Error.Render("error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, st.Answer.Render(answer))
	}
}
