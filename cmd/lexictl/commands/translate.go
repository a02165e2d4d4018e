package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/app"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/spf13/cobra"
)

type translateFlags struct {
	from    string
	to      string
	task    string
	count   int
	level   string
	context string
}

type translateOutput struct {
	Text      string     `json:"text"`
	Items     []string   `json:"items"`
	CacheHit  bool       `json:"cache_hit"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (c *cli) newTranslateCmd() *cobra.Command {
	var f translateFlags

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate a word or generate example sentences for it",
		Long: `Translate a single word or phrase, or generate example sentences with
--task sentences. Answers come from the result cache when possible.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return c.runTranslate(ctx, cmd, a, text, f)
			})
		},
	}

	cmd.Flags().StringVar(&f.from, "from", "", "Source language tag, e.g. de")
	cmd.Flags().StringVar(&f.to, "to", "en", "Target language tag")
	cmd.Flags().StringVar(&f.task, "task", string(generation.TaskTranslation),
		"What to generate: translation or sentences")
	cmd.Flags().IntVarP(&f.count, "count", "n", 0,
		"Number of results (default from batch config)")
	cmd.Flags().StringVar(&f.level, "level", "", "Learner level for sentences, e.g. B1")
	cmd.Flags().StringVar(&f.context, "context", "", "Optional context such as a definition")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (c *cli) runTranslate(ctx context.Context, cmd *cobra.Command, a *app.App, text string, f translateFlags) error {
	task := generation.Task(f.task)
	count := f.count
	if count == 0 {
		count = a.OutputCount(task)
	}

	req := generation.NewRequest("", text, generation.Params{
		Task:        task,
		SourceLang:  f.from,
		TargetLang:  f.to,
		OutputCount: count,
		Level:       f.level,
	})
	req.Context = f.context

	res, err := a.Translations.Handle(ctx, req)
	if err != nil {
		kind := generation.KindOf(err)
		return fmt.Errorf("%w\n%s", err, kind.RecoverySuggestion())
	}

	out := translateOutput{
		Text:     text,
		Items:    res.Payload.Texts(),
		CacheHit: res.CacheHit,
	}
	if res.ExpiresAt.IsSome() {
		expiresAt := res.ExpiresAt.UnwrapOr(time.Time{})
		out.ExpiresAt = &expiresAt
	}

	w := cmd.OutOrStdout()
	if c.outputFormat == formatJSON {
		return writeJSON(w, out)
	}

	for _, item := range out.Items {
		fmt.Fprintf(w, "  %s\n", item)
	}
	if out.CacheHit && out.ExpiresAt != nil {
		fmt.Fprintf(w, "(cached until %s)\n", out.ExpiresAt.Local().Format(time.RFC3339))
	}
	return nil
}
