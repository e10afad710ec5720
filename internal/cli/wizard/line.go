package wizard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dartmoon/prestashop-build-tools/internal/scaffold"
)

// LinePrompter reads one answer per line, for piped input and CI. A blank
// line keeps the default. Rejected answers print the reason and ask again.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

var _ scaffold.Prompter = (*LinePrompter)(nil)

// NewLinePrompter creates a LinePrompter reading r and writing prompts to w.
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(r), out: w}
}

// Ask prints the question and reads answers until one is accepted. It
// returns io.EOF when input ends before an accepted answer.
func (p *LinePrompter) Ask(ctx context.Context, q scaffold.Question) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if q.Default != "" {
			fmt.Fprintf(p.out, "%s (%s): ", q.Title, q.Default)
		} else {
			fmt.Fprintf(p.out, "%s: ", q.Title)
		}

		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", err)
		}
		eof := err != nil
		if eof && line == "" {
			fmt.Fprintln(p.out)
			return "", io.EOF
		}

		answer := strings.TrimRight(line, "\r\n")
		if _, checkErr := q.Check(answer); checkErr != nil {
			fmt.Fprintf(p.out, "  %s\n", checkErr)
			if eof {
				return "", io.EOF
			}
			continue
		}
		return answer, nil
	}
}
