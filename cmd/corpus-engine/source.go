// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/pkg/types"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage a session's paper corpus (add, add-upload, remove, list)",
	Long: `Source manages the papers attached to a research session. Added papers
are chunked and indexed immediately; papers without usable text stay listed
but are skipped by retrieval.`,
}

// --- add subcommand ---

var sourceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a discovered paper with metadata and extracted text",
	Long: `Add attaches one paper to the session's corpus. Metadata comes from a
YAML file (--meta) or from flags, with flags taking precedence; the
extracted full text comes from --text-file. Re-adding an existing --id
replaces the stored paper and its index wholesale.`,
	RunE: runSourceAdd,
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	sessionID, err := requireSession(cmd)
	if err != nil {
		return err
	}

	var paper types.Paper
	if meta, _ := cmd.Flags().GetString("meta"); meta != "" {
		data, err := os.ReadFile(meta)
		if err != nil {
			return fmt.Errorf("reading metadata file: %w", err)
		}
		if err := yaml.Unmarshal(data, &paper); err != nil {
			return fmt.Errorf("parsing metadata file: %w", err)
		}
	}

	if v, _ := cmd.Flags().GetString("id"); v != "" {
		paper.ID = v
	}
	if v, _ := cmd.Flags().GetString("paper-title"); v != "" {
		paper.Title = v
	}
	if v, _ := cmd.Flags().GetString("authors"); v != "" {
		paper.Authors = nil
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				paper.Authors = append(paper.Authors, a)
			}
		}
	}
	if v, _ := cmd.Flags().GetString("abstract"); v != "" {
		paper.Abstract = v
	}
	if v, _ := cmd.Flags().GetInt("year"); v != 0 {
		paper.Year = v
	}
	if v, _ := cmd.Flags().GetString("venue"); v != "" {
		paper.Venue = v
	}
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		paper.URL = v
	}
	if cmd.Flags().Changed("citations") {
		paper.CitationCount, _ = cmd.Flags().GetInt("citations")
	}
	if textFile, _ := cmd.Flags().GetString("text-file"); textFile != "" {
		data, err := os.ReadFile(textFile)
		if err != nil {
			return fmt.Errorf("reading text file: %w", err)
		}
		paper.FullText = string(data)
	}

	if paper.Title == "" {
		return fmt.Errorf("a paper title is required (--paper-title or --meta)")
	}
	if paper.SourceType == "" {
		paper.SourceType = types.SourceDiscovered
	}

	cfg := engineConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.AddPapers(context.Background(), sessionID, []types.Paper{paper})
	if err != nil {
		return err
	}

	printAddSummary(summary)
	return nil
}

// --- add-upload subcommand ---

var sourceAddUploadCmd = &cobra.Command{
	Use:   "add-upload [text file]",
	Short: "Add an uploaded document, deriving metadata from its text",
	Long: `Add-upload attaches a user-provided document to the session. The title
comes from --paper-title, the filename, or the first line of text; the
abstract is the leading text (up to 2000 characters); the year is guessed
from the text or filename when possible. The paper is assigned an
upload-prefixed ID.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourceAddUpload,
}

// uploadYearPattern guesses a publication year from document text.
var uploadYearPattern = regexp.MustCompile(`(19|20)\d{2}`)

func runSourceAddUpload(cmd *cobra.Command, args []string) error {
	sessionID, err := requireSession(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	text := string(data)
	filename := filepath.Base(path)

	paper := deriveUploadPaper(text, filename)
	if t, _ := cmd.Flags().GetString("paper-title"); t != "" {
		paper.Title = t
	}

	cfg := engineConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.AddPapers(context.Background(), sessionID, []types.Paper{paper})
	if err != nil {
		return err
	}

	printAddSummary(summary)
	return nil
}

// deriveUploadPaper builds paper metadata from raw document text: title
// from the filename (falling back to the first substantial line), abstract
// from the leading text, year from the first plausible four-digit match.
func deriveUploadPaper(text, filename string) types.Paper {
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	title = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(title))
	if title == "" {
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); len(line) > 5 {
				title = line
				break
			}
		}
	}
	if title == "" {
		title = "Uploaded Paper"
	}

	abstract := strings.TrimSpace(text)
	if len(abstract) > 2000 {
		abstract = abstract[:2000]
	}

	year := 0
	if m := uploadYearPattern.FindString(text + " " + filename); m != "" {
		year, _ = strconv.Atoi(m)
	}

	return types.Paper{
		Title:      title,
		Abstract:   abstract,
		Year:       year,
		SourceType: types.SourceUploaded,
		FullText:   text,
	}
}

// --- export subcommand ---

var sourceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session's paper list as YAML or JSON",
	Long: `Export writes the session's papers, in corpus order, with per-paper
chunk counts. Full text is not included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := requireSession(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		cfg := engineConfig()
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		switch format {
		case "yaml":
			return store.ExportYAML(context.Background(), sessionID, w)
		case "json":
			return store.ExportJSON(context.Background(), sessionID, w)
		default:
			return fmt.Errorf("unknown export format %q (yaml or json)", format)
		}
	},
}

// --- remove subcommand ---

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove [paper-id]",
	Short: "Remove a paper and its index entries from the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := requireSession(cmd)
		if err != nil {
			return err
		}

		cfg := engineConfig()
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RemovePaper(context.Background(), sessionID, args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// --- list subcommand ---

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the session's papers in the order they were added",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := requireSession(cmd)
		if err != nil {
			return err
		}

		cfg := engineConfig()
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		papers, err := store.Papers(context.Background(), sessionID)
		if err != nil {
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(papers)
		}

		if len(papers) == 0 {
			fmt.Println("No papers in this session.")
			return nil
		}

		fmt.Printf("%-30s  %-50s  %-6s  %s\n", "ID", "Title", "Year", "Flags")
		fmt.Println(strings.Repeat("-", 96))
		for _, p := range papers {
			title := p.Title
			if len(title) > 50 {
				title = title[:47] + "..."
			}
			year := ""
			if p.Year > 0 {
				year = strconv.Itoa(p.Year)
			}
			flags := string(p.SourceType)
			if p.Unindexable {
				flags += ", unindexable"
			}
			fmt.Printf("%-30s  %-50s  %-6s  %s\n", p.ID, title, year, flags)
		}
		fmt.Printf("\n%d papers\n", len(papers))
		return nil
	},
}

func printAddSummary(summary corpus.AddSummary) {
	for _, id := range summary.IDs {
		fmt.Printf("Stored %s\n", id)
	}
	if summary.Replaced > 0 {
		fmt.Printf("%d paper(s) replaced and re-indexed\n", summary.Replaced)
	}
	if summary.Unindexable > 0 {
		fmt.Printf("%d paper(s) had no usable text and will be skipped by retrieval\n", summary.Unindexable)
	}
}

func init() {
	sourceAddCmd.Flags().String("meta", "", "YAML file holding the paper metadata")
	sourceAddCmd.Flags().String("id", "", "paper ID (assigned when empty)")
	sourceAddCmd.Flags().String("paper-title", "", "paper title (required)")
	sourceAddCmd.Flags().String("authors", "", "comma-separated author names")
	sourceAddCmd.Flags().String("abstract", "", "paper abstract")
	sourceAddCmd.Flags().Int("year", 0, "publication year")
	sourceAddCmd.Flags().String("venue", "", "journal or conference")
	sourceAddCmd.Flags().String("url", "", "landing page URL")
	sourceAddCmd.Flags().Int("citations", 0, "stored citation count")
	sourceAddCmd.Flags().String("text-file", "", "file holding the extracted full text")

	sourceAddUploadCmd.Flags().String("paper-title", "", "override the derived title")

	sourceListCmd.Flags().Bool("json", false, "output papers as JSON")

	sourceExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	sourceExportCmd.Flags().String("output", "", "write to a file instead of stdout")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceAddUploadCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceExportCmd)

	rootCmd.AddCommand(sourceCmd)
}
