package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/sdncli-go/internal/core/domain"
)

// Candidate is one resource sharing the requested name.
type Candidate struct {
	ID        string
	Name      string
	FQName    string // compact JSON of the record's fq_name
	CreatedAt string
}

// Chooser picks one of several candidates and returns its index.
type Chooser interface {
	Choose(ctx context.Context, resource, name string, candidates []Candidate) (int, error)
}

// Chooser strategy names accepted by NewChooser.
const (
	ChoosePrompt = "prompt"
	ChooseFail   = "fail"
	ChooseLatest = "latest"
)

// NewChooser returns the strategy called kind. Prompting reads from in and
// writes to out.
func NewChooser(kind string, in io.Reader, out io.Writer) (Chooser, error) {
	switch kind {
	case "", ChoosePrompt:
		return NewPromptChooser(in, out), nil
	case ChooseFail:
		return FailFastChooser{}, nil
	case ChooseLatest:
		return LatestChooser{}, nil
	default:
		return nil, domain.ErrInvalidArgument.WithDetailsf("unknown chooser %q (prompt, fail, latest)", kind)
	}
}

// PromptChooser asks the operator on a terminal.
type PromptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptChooser creates a prompt reading answers from in.
func NewPromptChooser(in io.Reader, out io.Writer) *PromptChooser {
	return &PromptChooser{in: bufio.NewReader(in), out: out}
}

// Choose lists the candidates and reads one line holding an index.
func (p *PromptChooser) Choose(_ context.Context, _ string, name string, candidates []Candidate) (int, error) {
	fmt.Fprintf(p.out, "@@ Found multiple %s:\n", name)
	for i, c := range candidates {
		fmt.Fprintf(p.out, "%d = %s:%s\n", i, c.ID, c.FQName)
	}
	fmt.Fprint(p.out, "Please select: ")

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, domain.ErrSelectionParse.WithDetails("no answer").WithCause(err)
	}

	answer := strings.TrimSpace(line)
	index, err := strconv.ParseUint(answer, 10, 0)
	if err != nil {
		return 0, domain.ErrSelectionParse.WithDetailsf("%q is not a number", answer).WithCause(err)
	}
	if index >= uint64(len(candidates)) {
		return 0, domain.NewSelectionOutOfRangeError(int(index), len(candidates))
	}
	return int(index), nil
}

// FailFastChooser refuses to guess. Scripts get an error listing the ids.
type FailFastChooser struct{}

// Choose always fails with ErrAmbiguousName.
func (FailFastChooser) Choose(_ context.Context, resource, name string, candidates []Candidate) (int, error) {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return 0, domain.ErrAmbiguousName.WithDetailsf("%d %s named %q: %s",
		len(candidates), resource, name, strings.Join(ids, ", "))
}

// LatestChooser picks the most recently created candidate.
type LatestChooser struct{}

// createdAtLayouts are the timestamp shapes controllers emit.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseCreatedAt(s string) (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Choose returns the candidate with the greatest created_at. Candidates
// without a parseable timestamp never win.
func (LatestChooser) Choose(ctx context.Context, resource, name string, candidates []Candidate) (int, error) {
	best := -1
	var bestAt time.Time
	for i, c := range candidates {
		at, ok := parseCreatedAt(c.CreatedAt)
		if !ok {
			continue
		}
		if best < 0 || at.After(bestAt) {
			best, bestAt = i, at
		}
	}
	if best < 0 {
		return FailFastChooser{}.Choose(ctx, resource, name, candidates)
	}
	return best, nil
}
