package main

import (
	"fmt"
	"html"
	"io"
	"os"

	"github.com/jonathan/tailorhire/internal/cms"
	"github.com/jonathan/tailorhire/internal/observability"
	"github.com/jonathan/tailorhire/internal/richtext"
	"github.com/jonathan/tailorhire/internal/types"
	"github.com/spf13/cobra"
)

var renderArticleCmd = &cobra.Command{
	Use:   "render-article <articles.json>",
	Short: "Render content API articles to HTML",
	Long: `Reads a content API response (a {"data": [...]} document or a single
article object) and writes the rendered, sanitized HTML of each article to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runRenderArticle,
}

var (
	renderArticleUnknown      string
	renderArticleHeadingLevel int
	renderArticleAssetBase    string
	renderArticleVerbose      bool
)

func init() {
	renderArticleCmd.Flags().StringVar(&renderArticleUnknown, "unknown", "paragraph", "Unknown block policy: paragraph or skip")
	renderArticleCmd.Flags().IntVar(&renderArticleHeadingLevel, "heading-level", richtext.DefaultHeadingLevel, "Level for headings without one (1-6)")
	renderArticleCmd.Flags().StringVar(&renderArticleAssetBase, "asset-base", "", "Prefix for relative image URLs")
	renderArticleCmd.Flags().BoolVarP(&renderArticleVerbose, "verbose", "v", false, "Print an article summary to stderr")
	rootCmd.AddCommand(renderArticleCmd)
}

func runRenderArticle(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read articles file: %w", err)
	}

	policy, err := richtext.ParseUnknownBlockPolicy(renderArticleUnknown)
	if err != nil {
		return err
	}
	opts := richtext.Options{DefaultHeadingLevel: renderArticleHeadingLevel, UnknownBlocks: policy}

	var summary io.Writer
	if renderArticleVerbose {
		summary = cmd.ErrOrStderr()
	}
	return renderArticles(cmd.OutOrStdout(), summary, data, renderArticleAssetBase, opts)
}

// renderArticles decodes a content API document and writes each article as
// an <article> element. A nil summary writer disables the summaries.
func renderArticles(out, summary io.Writer, data []byte, assetBase string, opts richtext.Options) error {
	articles, err := cms.DecodeArticles(data, assetBase)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return fmt.Errorf("no articles found")
	}

	renderer := richtext.NewRenderer(opts)
	var printer *observability.Printer
	if summary != nil {
		printer = observability.NewPrinter(summary)
	}

	for i := range articles {
		article := &articles[i]
		if printer != nil {
			printer.PrintArticle(article)
		}
		if err := writeArticle(out, renderer, article); err != nil {
			return err
		}
	}
	return nil
}

func writeArticle(out io.Writer, renderer *richtext.Renderer, article *types.Article) error {
	body, err := renderer.RenderHTML(article.Content)
	if err != nil {
		return fmt.Errorf("failed to render article %q: %w", article.Slug, err)
	}
	_, err = fmt.Fprintf(out, "<article data-slug=\"%s\">\n%s\n</article>\n", html.EscapeString(article.Slug), richtext.Sanitize(body))
	return err
}
