package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/vipaii/internal/app"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Generate a study illustration and save it to disk",
	RunE:  runImage,
}

var (
	imagePrompt     string
	imageResolution string
	imageOut        string
)

func init() {
	imageCmd.Flags().StringVar(&imagePrompt, "prompt", "", "Description of the illustration")
	imageCmd.Flags().StringVar(&imageResolution, "resolution", string(models.DefaultImageResolution), "Output size: 1K, 2K or 4K")
	imageCmd.Flags().StringVar(&imageOut, "out", ".", "Output file, or a directory to write vipaii-art-<ms>.<ext> into")
	imageCmd.MarkFlagRequired("prompt")
}

func runImage(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(imagePrompt)
	if prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}

	resolution, err := models.ParseImageResolution(imageResolution)
	if err != nil {
		return err
	}

	application, err := app.NewCore(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	payload, err := application.LLMService.GenerateImage(cmd.Context(), prompt, resolution)
	if err != nil {
		return err
	}

	download, err := illustrator.NewDownload(payload, time.Now())
	if err != nil {
		return err
	}

	path := imageOut
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, download.FileName)
	}

	if err := os.WriteFile(path, download.Data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	logger.Info().Str("path", path).Str("mime_type", download.MIMEType).Int("bytes", len(download.Data)).Msg("Image saved")
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
