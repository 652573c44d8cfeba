package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/tailorhire/internal/config"
	"github.com/jonathan/tailorhire/internal/ingestion"
	"github.com/jonathan/tailorhire/internal/observability"
	"github.com/jonathan/tailorhire/internal/optimizer"
	"github.com/jonathan/tailorhire/internal/results"
	"github.com/jonathan/tailorhire/internal/types"
	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Optimize a resume against a job description",
	Long: `Sends a resume and a job description to the Optimization API, prints
a summary of the result and optionally writes the optimized PDF.

A .pdf or .docx resume is uploaded for text extraction first; any other file
is read as plain text.`,
	RunE: runOptimize,
}

var (
	optimizeResumeFile string
	optimizeJobFile    string
	optimizeAPIURL     string
	optimizeOutput     string
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeResumeFile, "resume", "r", "", "Path to the resume (text, PDF or DOCX)")
	optimizeCmd.Flags().StringVarP(&optimizeJobFile, "job", "j", "", "Path to a text file with the job description")
	optimizeCmd.Flags().StringVar(&optimizeAPIURL, "api-url", "", "Optimization API root (defaults to OPTIMIZER_API_URL)")
	optimizeCmd.Flags().StringVarP(&optimizeOutput, "out", "o", "", "Write the optimized PDF to this file or directory")

	_ = optimizeCmd.MarkFlagRequired("resume")
	_ = optimizeCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	apiURL := optimizeAPIURL
	if apiURL == "" {
		site, err := config.Load("")
		if err != nil {
			return err
		}
		apiURL = site.OptimizerURL
	}
	client := optimizer.NewClient(optimizer.Config{BaseURL: apiURL})

	return optimizeFiles(cmd.Context(), cmd.OutOrStdout(), client, optimizeResumeFile, optimizeJobFile, optimizeOutput)
}

// optimizeFiles runs one optimization and reports it to out.
func optimizeFiles(ctx context.Context, out io.Writer, client *optimizer.Client, resumePath, jobPath, outPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	resumeText, err := readResume(ctx, client, resumePath)
	if err != nil {
		return err
	}
	job, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}

	req := &types.OptimizeRequest{ResumeText: resumeText, JobDescription: string(job)}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	result, err := client.Optimize(ctx, req)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	observability.NewPrinter(out).PrintResult(result)

	if outPath == "" {
		return nil
	}
	path, err := writeDownload(result, outPath)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Wrote %s\n", path)
	return err
}

// readResume returns the resume text, extracting it upstream for documents.
func readResume(ctx context.Context, client *optimizer.Client, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx":
	default:
		return string(data), nil
	}

	name := filepath.Base(path)
	contentType, err := ingestion.ValidateFile(name, "", data)
	if err != nil {
		return "", err
	}
	uploaded, err := client.Upload(ctx, name, contentType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return ingestion.CleanText(uploaded.Text), nil
}

// writeDownload decodes the PDF and writes it. A directory target gets the
// suggested download filename.
func writeDownload(result *types.OptimizationResult, outPath string) (string, error) {
	download, err := results.DownloadPDF(result)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(outPath); err == nil && info.IsDir() {
		outPath = filepath.Join(outPath, download.Filename)
	}
	if err := os.WriteFile(outPath, download.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	return outPath, nil
}
