package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/scry-lexicon/internal/app"
	"github.com/phrazzld/scry-lexicon/internal/batch"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/service"
	"github.com/spf13/cobra"
)

type enrichFlags struct {
	from        string
	to          string
	task        string
	count       int
	level       string
	concurrency int
}

type enrichOutput struct {
	Words     []*domain.Word  `json:"words"`
	Failures  []batch.Failure `json:"failures,omitempty"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Cancelled bool            `json:"cancelled"`
}

func (c *cli) newEnrichCmd() *cobra.Command {
	var f enrichFlags

	cmd := &cobra.Command{
		Use:   "enrich [file]",
		Short: "Enrich a word list with translations or example sentences",
		Long: `Enrich every word of a list as one batch. Words are read one per line
from the file, or from stdin when no file is given. A tab separates an optional
definition that is passed to the generator as context.

Progress is written to stderr. Ctrl-C cancels the batch; words finished
before the cancellation are still reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open word list: %w", err)
				}
				defer file.Close()
				in = file
			}

			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return c.runEnrich(ctx, cmd, a, in, f)
			})
		},
	}

	cmd.Flags().StringVar(&f.from, "from", "", "Source language tag of the words")
	cmd.Flags().StringVar(&f.to, "to", "en", "Target language tag")
	cmd.Flags().StringVar(&f.task, "task", string(generation.TaskTranslation),
		"What to generate: translation or sentences")
	cmd.Flags().IntVarP(&f.count, "count", "n", 0,
		"Results per word (default from batch config)")
	cmd.Flags().StringVar(&f.level, "level", "", "Learner level for sentences, e.g. B1")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "j", 0,
		"Requests in flight (default from batch config)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

// readWords parses a word list: one word per line, an optional definition
// after a tab, blank lines and lines starting with # ignored.
func readWords(r io.Reader, from, to string) ([]*domain.Word, error) {
	var words []*domain.Word
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		definition := ""
		if head, tail, ok := strings.Cut(text, "\t"); ok {
			text, definition = strings.TrimSpace(head), strings.TrimSpace(tail)
		}

		word, err := domain.NewWord(text, from, to)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		word.Definition = definition
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return words, nil
}

func (c *cli) runEnrich(ctx context.Context, cmd *cobra.Command, a *app.App, in io.Reader, f enrichFlags) error {
	words, err := readWords(in, f.from, f.to)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return fmt.Errorf("word list is empty")
	}
	for _, word := range words {
		if err := a.Words.Create(ctx, word); err != nil {
			return err
		}
	}

	task := generation.Task(f.task)
	count := f.count
	if count == 0 {
		count = a.OutputCount(task)
	}

	stderr := cmd.ErrOrStderr()
	result, err := a.Enrichment.EnrichWords(ctx, words, task, service.EnrichOptions{
		MaxConcurrency: f.concurrency,
		OutputCount:    count,
		Level:          f.level,
		OnProgress: func(p batch.ProgressEvent) {
			fmt.Fprintf(stderr, "\r%s %d/%d", p.Label, p.Current, p.Total)
		},
	})
	fmt.Fprintln(stderr)
	if err != nil {
		return err
	}

	// Re-read the words to report what was saved.
	saved := make([]*domain.Word, 0, len(words))
	for _, word := range words {
		w, err := a.Words.GetByID(context.WithoutCancel(ctx), word.ID)
		if err != nil {
			return err
		}
		saved = append(saved, w)
	}

	out := enrichOutput{
		Words:     saved,
		Failures:  result.Failures,
		Succeeded: result.SuccessCount,
		Failed:    result.FailedCount,
		Cancelled: result.Cancelled,
	}

	w := cmd.OutOrStdout()
	if c.outputFormat == formatJSON {
		if err := writeJSON(w, out); err != nil {
			return err
		}
	} else {
		printEnrichText(w, task, out)
	}

	if out.Cancelled {
		return fmt.Errorf("batch cancelled after %d of %d words", out.Succeeded, len(words))
	}
	return nil
}

func printEnrichText(w io.Writer, task generation.Task, out enrichOutput) {
	byID := make(map[string]batch.Failure, len(out.Failures))
	for _, failure := range out.Failures {
		byID[failure.RequestID] = failure
	}

	for _, word := range out.Words {
		if failure, failed := byID[word.ID.String()]; failed {
			fmt.Fprintf(w, "%s: %s (%s)\n", word.Text, failure.Kind, failure.Kind.RecoverySuggestion())
			continue
		}
		fmt.Fprintf(w, "%s\n", word.Text)
		texts := word.Translations
		if task == generation.TaskSentences {
			texts = word.Sentences
		}
		for _, text := range texts {
			fmt.Fprintf(w, "  %s\n", text)
		}
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", out.Succeeded, out.Failed)
}
