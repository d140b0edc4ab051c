package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-content-machine/internal/coder"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/strategist"
	"github.com/jonathan/seo-content-machine/internal/types"
)

var (
	researchProject string
	researchTopic   string
	researchCount   int
	researchOut     string
	topicsNiche     string
	competitorURLs  []string
	entitiesFile    string
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Suggest article topics for a niche",
	Long:  "Suggests article topics. With --project, pages already in the index are passed along so existing content is not repeated.",
	RunE:  runTopics,
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Generate head, long-tail and LSI keywords for a topic",
	RunE:  runKeywords,
}

var serpCmd = &cobra.Command{
	Use:   "serp",
	Short: "Analyze the search results for a topic",
	Long:  "Searches for the topic (Custom Search API, headless Google, then DuckDuckGo) and classifies search intent.",
	RunE:  runSERP,
}

var competitorsCmd = &cobra.Command{
	Use:   "competitors",
	Short: "Extract heading outlines from competitor pages",
	Long:  "Outlines the pages given with --url, or the top results for --topic when no URL is given.",
	RunE:  runCompetitors,
}

var faqCmd = &cobra.Command{
	Use:   "faq",
	Short: "Suggest FAQ questions and their FAQPage schema",
	RunE:  runFAQ,
}

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Extract products, brands and technical terms from text",
	RunE:  runEntities,
}

func init() {
	topicsCmd.Flags().StringVar(&topicsNiche, "niche", "", "Niche or product category (required)")
	topicsCmd.Flags().StringVarP(&researchProject, "project", "p", "", "Brand project whose indexed pages add context")
	topicsCmd.Flags().IntVarP(&researchCount, "count", "n", 0, "Number of ideas")
	topicsCmd.Flags().StringVarP(&researchOut, "out", "o", "", "Output JSON file (default stdout)")
	markRequired(topicsCmd, "niche")

	keywordsCmd.Flags().StringVarP(&researchTopic, "topic", "t", "", "Article topic (required)")
	keywordsCmd.Flags().IntVarP(&researchCount, "count", "n", 0, "Number of keywords")
	keywordsCmd.Flags().StringVarP(&researchOut, "out", "o", "", "Output JSON file (default stdout)")
	markRequired(keywordsCmd, "topic")

	serpCmd.Flags().StringVarP(&researchTopic, "topic", "t", "", "Search query (required)")
	serpCmd.Flags().StringVarP(&researchOut, "out", "o", "", "Output JSON file (default stdout)")
	markRequired(serpCmd, "topic")

	competitorsCmd.Flags().StringSliceVar(&competitorURLs, "url", nil, "Competitor page URL (repeatable)")
	competitorsCmd.Flags().StringVarP(&researchTopic, "topic", "t", "", "Search for competitors of this topic")
	competitorsCmd.Flags().StringVarP(&researchOut, "out", "o", "", "Output JSON file (default stdout)")
	competitorsCmd.MarkFlagsOneRequired("url", "topic")

	faqCmd.Flags().StringVarP(&researchTopic, "topic", "t", "", "Article topic (required)")
	faqCmd.Flags().StringVarP(&researchOut, "out", "o", "", "Output JSON file (default stdout)")
	markRequired(faqCmd, "topic")

	entitiesCmd.Flags().StringVarP(&entitiesFile, "in", "i", "", "Text file, or - for stdin (required)")
	entitiesCmd.Flags().StringVarP(&researchOut, "out", "o", "", "Output JSON file (default stdout)")
	markRequired(entitiesCmd, "in")

	rootCmd.AddCommand(topicsCmd, keywordsCmd, serpCmd, competitorsCmd, faqCmd, entitiesCmd)
}

func runTopics(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	strat, err := svc.Strategist(ctx, researchProject)
	if err != nil {
		return err
	}

	var contextData string
	if researchProject != "" {
		if pages := svc.OptionalPages(ctx); pages != nil {
			refs, err := pages.GetAllPages(ctx, researchProject)
			if err != nil {
				logging.Component("cli").Warn().Err(err).Msg("failed to read page index")
			}
			indexed := make([]types.Page, 0, len(refs))
			for _, ref := range refs {
				indexed = append(indexed, types.Page{URL: ref.URL, Title: ref.Title})
			}
			contextData = strategist.BuildTopicContext(indexed)
		}
	}

	ideas, err := strat.GenerateTopicIdeas(ctx, topicsNiche, researchCount, contextData)
	if err != nil {
		return err
	}
	return writeJSON(researchOut, ideas)
}

func runKeywords(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	strat, err := svc.Strategist(ctx, "")
	if err != nil {
		return err
	}
	keywords, err := strat.GenerateKeywords(ctx, researchTopic, researchCount)
	if err != nil {
		return err
	}
	return writeJSON(researchOut, keywords)
}

func runSERP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	analyzer, err := svc.SERP(ctx, "")
	if err != nil {
		return err
	}
	analysis, err := analyzer.AnalyzeSERP(ctx, researchTopic)
	if err != nil {
		return err
	}
	return writeJSON(researchOut, analysis)
}

func runCompetitors(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	urls := competitorURLs
	if len(urls) == 0 {
		analyzer, err := svc.SERP(ctx, "")
		if err != nil {
			return err
		}
		analysis, err := analyzer.AnalyzeSERP(ctx, researchTopic)
		if err != nil {
			return err
		}
		urls = analysis.URLs()
		if len(urls) == 0 {
			return fmt.Errorf("no search results for %q", researchTopic)
		}
	}

	comp, err := svc.Competitors(ctx)
	if err != nil {
		return err
	}
	return writeJSON(researchOut, comp.AnalyzeCompetitors(ctx, urls))
}

func runFAQ(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc := newServices(appConfig)
	defer svc.Close()

	strat, err := svc.Strategist(ctx, "")
	if err != nil {
		return err
	}
	questions, err := strat.SuggestFAQ(ctx, researchTopic)
	if err != nil {
		return err
	}
	schema, err := coder.GenerateSchema(types.FAQItems(questions))
	if err != nil {
		return err
	}
	return writeJSON(researchOut, map[string]any{"questions": questions, "schema": schema})
}

func runEntities(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	text, err := readInput(entitiesFile)
	if err != nil {
		return err
	}
	svc := newServices(appConfig)
	defer svc.Close()

	strat, err := svc.Strategist(ctx, "")
	if err != nil {
		return err
	}
	entities, err := strat.ExtractEntities(ctx, text)
	if err != nil {
		return err
	}
	return writeJSON(researchOut, entities)
}
